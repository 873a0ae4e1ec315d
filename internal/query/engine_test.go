package query

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
)

func TestFingerprintIsDeterministic(t *testing.T) {
	a := FingerprintString("fn main() {}")
	b := FingerprintString("fn main() {}")
	if a != b {
		t.Fatalf("fingerprint not deterministic: %x != %x", a, b)
	}
	c := FingerprintString("fn main() { }")
	if a == c {
		t.Fatalf("distinct inputs collided: %x", a)
	}
}

func TestEngineTokensMemoizesInProcess(t *testing.T) {
	e := NewEngine(nil)
	src := "let x = 1"

	toks1, diags1, err := e.Tokens(FileID("a.ori"), src)
	if err != nil {
		t.Fatalf("first Tokens call: %v", err)
	}
	if diags1.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", diags1.Items())
	}
	if len(toks1) == 0 {
		t.Fatalf("expected tokens")
	}

	// Second call with identical content, different FileID: the cache keys
	// on fingerprint, not file identity, so this must hit the cache and
	// return a fresh (empty) diagnostics queue rather than re-scanning.
	toks2, diags2, err := e.Tokens(FileID("b.ori"), src)
	if err != nil {
		t.Fatalf("second Tokens call: %v", err)
	}
	if diags2.Len() != 0 {
		t.Fatalf("cache hit must not carry over diagnostics: %+v", diags2.Items())
	}
	if len(toks1) != len(toks2) {
		t.Fatalf("cached token stream differs in length: %d vs %d", len(toks1), len(toks2))
	}
	for i := range toks1 {
		if toks1[i].Kind != toks2[i].Kind || toks1[i].Text != toks2[i].Text {
			t.Fatalf("token %d differs: %+v vs %+v", i, toks1[i], toks2[i])
		}
	}
}

func TestEnginePersistsAcrossInstances(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "cache.db")

	store1, err := OpenStore(dbPath)
	if err != nil {
		t.Fatalf("OpenStore: %v", err)
	}
	e1 := NewEngine(store1)
	src := "let y = 2"
	toks1, _, err := e1.Tokens(FileID("a.ori"), src)
	if err != nil {
		t.Fatalf("Tokens: %v", err)
	}
	if err := store1.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	store2, err := OpenStore(dbPath)
	if err != nil {
		t.Fatalf("reopening store: %v", err)
	}
	defer store2.Close()
	e2 := NewEngine(store2)
	toks2, _, err := e2.Tokens(FileID("a.ori"), src)
	if err != nil {
		t.Fatalf("Tokens from reopened store: %v", err)
	}
	if len(toks1) != len(toks2) {
		t.Fatalf("persisted token stream differs in length: %d vs %d", len(toks1), len(toks2))
	}
	for i := range toks1 {
		if toks1[i].Kind != toks2[i].Kind || toks1[i].Text != toks2[i].Text {
			t.Fatalf("token %d differs after reload: %+v vs %+v", i, toks1[i], toks2[i])
		}
	}
}

func TestEngineCollapsesConcurrentDuplicateRequests(t *testing.T) {
	e := NewEngine(nil)
	var calls int32

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := e.Parsed(FileID("shared.ori"), Fingerprint(42), Query{
				Compute: func() (any, []byte, error) {
					atomic.AddInt32(&calls, 1)
					return "parsed-once", nil, nil
				},
			})
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: %v", i, err)
		}
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected Compute to run exactly once, ran %d times", got)
	}
}

func TestRunAllPreservesInputOrderRegardlessOfCompletionOrder(t *testing.T) {
	files := []FileID{"c.ori", "a.ori", "b.ori"}
	results := RunAll(files, 0, func(f FileID) (any, error) {
		// Deliberately finish in reverse-ish order under concurrency; RunAll
		// must still report results aligned to the input slice.
		return string(f) + ":ok", nil
	})
	if len(results) != len(files) {
		t.Fatalf("expected %d results, got %d", len(files), len(results))
	}
	for i, f := range files {
		if results[i].File != f {
			t.Fatalf("result %d: expected file %s, got %s", i, f, results[i].File)
		}
		if results[i].Value != string(f)+":ok" {
			t.Fatalf("result %d: unexpected value %v", i, results[i].Value)
		}
	}
}

func TestSortedFileIDsDoesNotMutateInput(t *testing.T) {
	files := []FileID{"z.ori", "a.ori", "m.ori"}
	sorted := SortedFileIDs(files)
	want := []FileID{"a.ori", "m.ori", "z.ori"}
	for i := range want {
		if sorted[i] != want[i] {
			t.Fatalf("got %v, want %v", sorted, want)
		}
	}
	if files[0] != "z.ori" {
		t.Fatalf("SortedFileIDs must not mutate its input: %v", files)
	}
}

func TestTokenCancellation(t *testing.T) {
	tok := NewToken()
	if tok.Cancelled() {
		t.Fatalf("fresh token must not be cancelled")
	}
	select {
	case <-tok.Done():
		t.Fatalf("fresh token's Done channel must not be closed")
	default:
	}
	tok.Cancel()
	if !tok.Cancelled() {
		t.Fatalf("token must report cancelled after Cancel")
	}
	tok.Cancel() // must not panic on double-cancel
}
