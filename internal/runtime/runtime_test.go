package runtime

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestParallelFailFastReturnsResultsInOrder(t *testing.T) {
	tasks := []Task{
		func(ctx context.Context) (any, error) { return 1, nil },
		func(ctx context.Context) (any, error) { return 2, nil },
		func(ctx context.Context) (any, error) { return 3, nil },
	}
	results, err := Parallel(context.Background(), tasks, FailFast)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, want := range []int{1, 2, 3} {
		if results[i] != want {
			t.Fatalf("result[%d] = %v, want %v", i, results[i], want)
		}
	}
}

func TestParallelFailFastReturnsFirstError(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task{
		func(ctx context.Context) (any, error) { return nil, boom },
		func(ctx context.Context) (any, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	_, err := Parallel(context.Background(), tasks, FailFast)
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestParallelCollectAllRunsEveryBranch(t *testing.T) {
	boom := errors.New("boom")
	tasks := []Task{
		func(ctx context.Context) (any, error) { return nil, boom },
		func(ctx context.Context) (any, error) { return "ok", nil },
	}
	results, err := Parallel(context.Background(), tasks, CollectAll)
	if err == nil {
		t.Fatalf("expected aggregate error")
	}
	if results[1] != "ok" {
		t.Fatalf("expected second branch to complete, got %v", results[1])
	}
}

func TestSpawnBoundsConcurrency(t *testing.T) {
	var running, maxSeen int
	mu := make(chan struct{}, 1)
	mu <- struct{}{}

	task := func(ctx context.Context) (any, error) {
		<-mu
		running++
		if running > maxSeen {
			maxSeen = running
		}
		mu <- struct{}{}
		time.Sleep(2 * time.Millisecond)
		<-mu
		running--
		mu <- struct{}{}
		return nil, nil
	}
	tasks := make([]Task, 6)
	for i := range tasks {
		tasks[i] = task
	}
	Spawn(context.Background(), tasks, 2)
	if maxSeen > 2 {
		t.Fatalf("expected at most 2 concurrent tasks, saw %d", maxSeen)
	}
}

func TestSpawnWaitsForCompletion(t *testing.T) {
	done := make(chan struct{}, 3)
	tasks := make([]Task, 3)
	for i := range tasks {
		tasks[i] = func(ctx context.Context) (any, error) {
			time.Sleep(2 * time.Millisecond)
			done <- struct{}{}
			return nil, nil
		}
	}
	Spawn(context.Background(), tasks, 0)
	if len(done) != 3 {
		t.Fatalf("expected all 3 tasks to finish before Spawn returns, got %d", len(done))
	}
}

func TestTimeoutExpires(t *testing.T) {
	slow := func(ctx context.Context) (any, error) {
		select {
		case <-time.After(50 * time.Millisecond):
			return "done", nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	_, err := Timeout(context.Background(), slow, 5*time.Millisecond)
	if !errors.Is(err, ErrTimedOut) {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}
}

func TestTimeoutReturnsResultWhenFast(t *testing.T) {
	fast := func(ctx context.Context) (any, error) { return 42, nil }
	v, err := Timeout(context.Background(), fast, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 42 {
		t.Fatalf("got %v, want 42", v)
	}
}
