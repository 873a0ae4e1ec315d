package query

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"ori/internal/diagnostics"
	"ori/internal/lexer"
)

// Query bundles a fingerprinted computation with its serialization, so the
// engine can persist and reload a result without knowing its concrete Go
// type. Decode may be nil, in which case a store hit is treated as a miss
// and the value is recomputed — acceptable since every query is pure and a
// recompute is never wrong, only slower.
type Query struct {
	Compute func() (value any, payload []byte, err error)
	Decode  func(payload []byte) (value any, err error)
}

// Engine is the incremental query scheduler: an in-memory result cache, an
// optional persistent Store, and a singleflight group that collapses
// concurrent requests for the same (kind, fingerprint) onto one Compute
// call.
type Engine struct {
	store *Store

	mu    sync.Mutex
	cache map[key]any

	group singleflight.Group
}

// NewEngine creates an Engine backed by store. store may be nil, in which
// case results are memoized only in-process for the Engine's lifetime.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store, cache: make(map[key]any)}
}

// Run executes q, keyed by (kind, fp), returning a cached result if one
// exists in memory or (failing that) in the persistent store, and
// otherwise running q.Compute exactly once even under concurrent callers
// requesting the same key.
func (e *Engine) Run(kind Kind, fp Fingerprint, q Query) (any, error) {
	k := key{kind: kind, fp: fp}

	e.mu.Lock()
	if v, ok := e.cache[k]; ok {
		e.mu.Unlock()
		return v, nil
	}
	e.mu.Unlock()

	sfKey := fmt.Sprintf("%s:%016x", kind, uint64(fp))
	v, err, _ := e.group.Do(sfKey, func() (any, error) {
		// Re-check under the singleflight key: another caller may have
		// populated the cache between our unlocked check above and here.
		e.mu.Lock()
		if v, ok := e.cache[k]; ok {
			e.mu.Unlock()
			return v, nil
		}
		e.mu.Unlock()

		if e.store != nil && q.Decode != nil {
			if payload, ok, err := e.store.Get(k); err == nil && ok {
				if val, err := q.Decode(payload); err == nil {
					e.mu.Lock()
					e.cache[k] = val
					e.mu.Unlock()
					return val, nil
				}
			}
		}

		val, payload, err := q.Compute()
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		e.cache[k] = val
		e.mu.Unlock()
		if e.store != nil && payload != nil {
			_ = e.store.Put(k, payload) // best-effort: persistence failure never fails the query itself
		}
		return val, nil
	})
	return v, err
}

// TokensResult is the memoized artifact of the tokens query: the token
// stream produced for one fingerprinted source text. Diagnostics raised
// while scanning are not part of the cached artifact (internal/diagnostics'
// Queue carries unexported bookkeeping that is not meaningfully
// content-addressed), so they are only populated on an actual recompute —
// a cache hit returns a fresh, empty queue.
type TokensResult struct {
	Tokens []lexer.Token
}

// Tokens runs the tokens(file) query against src, memoizing by src's
// fingerprint. This is the one query in this engine backed by a genuine
// compiler phase, since internal/lexer is the only stage of the pipeline
// assembled end-to-end in this repository.
func (e *Engine) Tokens(file FileID, src string) ([]lexer.Token, *diagnostics.Queue, error) {
	fp := FingerprintString(src)
	diags := diagnostics.NewQueue()

	v, err := e.Run(KindTokens, fp, Query{
		Compute: func() (any, []byte, error) {
			toks := lexer.NewScanner(src, diags).ScanTokens()
			payload, encErr := gobEncode(TokensResult{Tokens: toks})
			if encErr != nil {
				// Encoding failure only disables persistence, not the query.
				return toks, nil, nil
			}
			return toks, payload, nil
		},
		Decode: func(payload []byte) (any, error) {
			var res TokensResult
			if err := gobDecode(payload, &res); err != nil {
				return nil, err
			}
			return res.Tokens, nil
		},
	})
	if err != nil {
		return nil, diags, err
	}
	return v.([]lexer.Token), diags, nil
}

// Parsed runs the parsed(file) query. No parser is assembled in this
// repository (see DESIGN.md), so Parsed is a generic memoizing pass-through:
// the caller supplies the actual computation (e.g. a test's hand-built
// module), and Parsed contributes caching, deduplication, and persistence
// around it.
func (e *Engine) Parsed(file FileID, fp Fingerprint, q Query) (any, error) {
	return e.Run(KindParsed, fp, q)
}

// Typed runs the typed(file) query, memoized the same way as Parsed.
func (e *Engine) Typed(file FileID, fp Fingerprint, q Query) (any, error) {
	return e.Run(KindTyped, fp, q)
}

// Canon runs the canon(file) query, memoized the same way as Parsed.
func (e *Engine) Canon(file FileID, fp Fingerprint, q Query) (any, error) {
	return e.Run(KindCanon, fp, q)
}

// Arc runs the arc(function) query, memoized per FunctionID fingerprint.
func (e *Engine) Arc(fn FunctionID, fp Fingerprint, q Query) (any, error) {
	return e.Run(KindArc, fp, q)
}

// Emitted runs the emitted(module) query, memoized per module fingerprint.
func (e *Engine) Emitted(module FileID, fp Fingerprint, q Query) (any, error) {
	return e.Run(KindEmitted, fp, q)
}

// RunAllResult pairs one scheduled item's FileID with its outcome, so
// RunAll's caller can recover which input produced which error.
type RunAllResult struct {
	File  FileID
	Value any
	Err   error
}

// RunAll schedules fn concurrently across files (bounded by maxConcurrent,
// or an unbounded errgroup if maxConcurrent <= 0) and returns results in
// the same order as files, regardless of completion order — the
// determinism spec.md's query engine requires for reproducible
// diagnostics.
func RunAll(files []FileID, maxConcurrent int, fn func(FileID) (any, error)) []RunAllResult {
	results := make([]RunAllResult, len(files))
	var g errgroup.Group
	if maxConcurrent > 0 {
		g.SetLimit(maxConcurrent)
	}
	for i, f := range files {
		i, f := i, f
		g.Go(func() error {
			v, err := fn(f)
			results[i] = RunAllResult{File: f, Value: v, Err: err}
			return nil // errors are carried per-item, not aggregated; one file's
			// failure must not cancel sibling files' independent compilation.
		})
	}
	_ = g.Wait()
	return results
}

// SortedFileIDs returns files in deterministic lexical order, the file
// enumeration order diagnostics ordering is defined against.
func SortedFileIDs(files []FileID) []FileID {
	out := make([]FileID, len(files))
	copy(out, files)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func gobEncode(v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gobDecode(payload []byte, out any) error {
	return gob.NewDecoder(bytes.NewReader(payload)).Decode(out)
}
