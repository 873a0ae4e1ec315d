package diagnostics

import (
	"testing"

	"ori/internal/ident"
)

func TestQueueDedupesSameCodeAndSpan(t *testing.T) {
	q := NewQueue()
	sp := ident.Span{Start: 10, End: 20}
	q.Push(New(Error, ECodeUnboundName, sp, "unbound name `x`"))
	q.Push(New(Error, ECodeUnboundName, sp, "unbound name `x` (again)"))

	if q.Len() != 1 {
		t.Fatalf("expected 1 queued diagnostic, got %d", q.Len())
	}
}

func TestQueueSuppressesWarningsAfterError(t *testing.T) {
	q := NewQueue()
	q.Push(New(Error, ECodeTypeMismatch, ident.Span{Start: 0, End: 1}, "type mismatch"))
	q.Push(New(Warning, WCodeUnusedBinding, ident.Span{Start: 5, End: 6}, "unused binding `y`"))

	if q.Len() != 1 {
		t.Fatalf("expected warning to be suppressed after error, got %d items", q.Len())
	}
	if !q.HasErrors() {
		t.Fatalf("expected HasErrors to be true")
	}
}

func TestQueuePreservesDistinctDiagnostics(t *testing.T) {
	q := NewQueue()
	q.Push(New(Warning, WCodeNonExhaustiveSoft, ident.Span{Start: 0, End: 1}, "missing arm"))
	q.Push(New(Warning, WCodeDeadArm, ident.Span{Start: 2, End: 3}, "unreachable arm"))

	if q.Len() != 2 {
		t.Fatalf("expected 2 queued diagnostics, got %d", q.Len())
	}
}

func TestDiagnosticBuilders(t *testing.T) {
	d := Newf(Error, ECodeArityMismatch, ident.Span{Start: 1, End: 2}, "expected %d args, got %d", 2, 3).
		WithLabel(ident.Span{Start: 3, End: 4}, "function defined here").
		WithNote("named arguments are reordered to match the declaration").
		WithHelp("pass all required arguments")

	if d.Message != "expected 2 args, got 3" {
		t.Fatalf("unexpected message: %q", d.Message)
	}
	if len(d.Secondary) != 1 || d.Notes[0] == "" || d.Help == "" {
		t.Fatalf("builder methods did not populate diagnostic: %+v", d)
	}
}
