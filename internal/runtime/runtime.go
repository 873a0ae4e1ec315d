// Package runtime executes the concurrency-shaped pattern-registry
// operations (parallel, spawn, timeout) that correspond to user-level
// `parallel(...)`, `spawn(...)`, and `timeout(...)` expressions; neither the
// checker nor codegen emits calls into it. It adapts internal/concurrency's worker-pool/semaphore model: the
// security-tool job types (port_scan, vuln_scan, ...) are gone, replaced
// by plain Go closures, and the hand-rolled semaphore/dispatch loop is
// replaced by golang.org/x/sync/errgroup, which already gives bounded
// concurrency, first-error cancellation, and goroutine bookkeeping.
package runtime

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
)

// Task is one unit of work submitted to Parallel or Spawn.
type Task func(ctx context.Context) (any, error)

// FailureMode selects how Parallel treats a branch error.
type FailureMode uint8

const (
	// FailFast cancels every other branch's context as soon as one branch
	// errors, and Parallel returns that first error.
	FailFast FailureMode = iota
	// CollectAll lets every branch run to completion regardless of
	// earlier failures; Parallel returns one error aggregating all of
	// them, plus every branch's result (error branches get a nil result).
	CollectAll
)

// Parallel runs tasks concurrently to completion, lowering the spec's
// `parallel(branches: ..., on_failure: fail_fast|collect_all)` construct.
// Results are returned in task order regardless of completion order.
func Parallel(ctx context.Context, tasks []Task, mode FailureMode) ([]any, error) {
	results := make([]any, len(tasks))
	if len(tasks) == 0 {
		return results, nil
	}

	switch mode {
	case FailFast:
		g, gctx := errgroup.WithContext(ctx)
		for i, t := range tasks {
			i, t := i, t
			g.Go(func() error {
				v, err := t(gctx)
				if err != nil {
					return err
				}
				results[i] = v
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		return results, nil

	case CollectAll:
		errs := make([]error, len(tasks))
		var g errgroup.Group
		for i, t := range tasks {
			i, t := i, t
			g.Go(func() error {
				v, err := t(ctx)
				if err != nil {
					errs[i] = err
					return nil
				}
				results[i] = v
				return nil
			})
		}
		_ = g.Wait() // branch goroutines never return a non-nil error themselves
		return results, joinErrors(errs)

	default:
		return nil, fmt.Errorf("runtime: unknown failure mode %d", mode)
	}
}

// joinErrors reports nil if every error is nil, otherwise a single error
// summarizing how many of the branches failed.
func joinErrors(errs []error) error {
	var first error
	n := 0
	for _, e := range errs {
		if e != nil {
			n++
			if first == nil {
				first = e
			}
		}
	}
	if n == 0 {
		return nil
	}
	if n == 1 {
		return first
	}
	return fmt.Errorf("%d of %d branches failed, first: %w", n, len(errs), first)
}

// Spawn runs tasks with at most maxConcurrent running at once, lowering
// the spec's `spawn(tasks: ..., max_concurrent: n)` construct. `spawn` is
// fire-and-forget — task results and errors are discarded, not surfaced to
// the caller — but scoped: Spawn still waits for every task to finish
// before returning, so all spawned work completes before the enclosing
// expression does. A maxConcurrent of 0 or less means unbounded. A task
// that errors does not cancel its siblings; each runs independently to
// completion.
func Spawn(ctx context.Context, tasks []Task, maxConcurrent int) {
	if len(tasks) == 0 {
		return
	}

	var g errgroup.Group
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			_, _ = t(ctx) // result and error are discarded by design
			return nil
		})
	}
	_ = g.Wait()
}

// ErrTimedOut is returned by Timeout when op does not finish before after
// elapses.
var ErrTimedOut = fmt.Errorf("runtime: operation timed out")

// Timeout runs op with a context deadline, lowering the spec's
// `timeout(operation: ..., after: duration)` construct. Cancellation is
// cooperative: op must itself observe ctx.Done() to stop early, matching
// idiomatic context usage elsewhere in this package. If op does not honor
// the deadline, Timeout still returns ErrTimedOut once after elapses, but
// op's goroutine may continue running in the background until it notices
// cancellation.
func Timeout(ctx context.Context, op Task, after time.Duration) (any, error) {
	cctx, cancel := context.WithTimeout(ctx, after)
	defer cancel()

	type outcome struct {
		val any
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		v, err := op(cctx)
		done <- outcome{v, err}
	}()

	select {
	case o := <-done:
		return o.val, o.err
	case <-cctx.Done():
		return nil, ErrTimedOut
	}
}
