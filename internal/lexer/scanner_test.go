package lexer

import (
	"testing"

	"ori/internal/diagnostics"
)

func scan(t *testing.T, src string) ([]Token, *diagnostics.Queue) {
	t.Helper()
	q := diagnostics.NewQueue()
	toks := NewScanner(src, q).ScanTokens()
	return toks, q
}

func kinds(toks []Token) []Kind {
	out := make([]Kind, len(toks))
	for i, tok := range toks {
		out[i] = tok.Kind
	}
	return out
}

func TestScanTokensAlwaysEndsWithEOF(t *testing.T) {
	toks, _ := scan(t, "")
	if len(toks) != 1 || toks[0].Kind != KindEOF {
		t.Fatalf("expected a lone EOF token, got %+v", toks)
	}
}

func TestScanTokensKeywordsVsIdents(t *testing.T) {
	toks, q := scan(t, "fn let ori_fn Self self")
	if q.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", q.Items())
	}
	got := kinds(toks)
	want := []Kind{KindFn, KindLet, KindIdent, KindSelfType, KindSelfValue, KindEOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanTokensBooleanLiteralsCarryValue(t *testing.T) {
	toks, _ := scan(t, "true false")
	if toks[0].Kind != KindBool || !toks[0].Bool {
		t.Fatalf("expected true literal, got %+v", toks[0])
	}
	if toks[1].Kind != KindBool || toks[1].Bool {
		t.Fatalf("expected false literal, got %+v", toks[1])
	}
}

func TestScanTokensIntegerBasesAndUnderscores(t *testing.T) {
	toks, q := scan(t, "1_000 0xFF 0o17 0b101")
	if q.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", q.Items())
	}
	want := []string{"1_000", "0xFF", "0o17", "0b101"}
	for i, w := range want {
		if toks[i].Kind != KindInt || toks[i].Text != w {
			t.Fatalf("token %d: got %+v, want int %q", i, toks[i], w)
		}
	}
}

func TestScanTokensFloatLiteral(t *testing.T) {
	toks, q := scan(t, "3.14 2.5e10")
	if q.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", q.Items())
	}
	if toks[0].Kind != KindFloat || toks[0].Text != "3.14" {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Kind != KindFloat || toks[1].Text != "2.5e10" {
		t.Fatalf("got %+v", toks[1])
	}
}

func TestScanTokensDurationAndSizeSuffixes(t *testing.T) {
	toks, q := scan(t, "500ms 10s 2KB")
	if q.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", q.Items())
	}
	want := []string{"500ms", "10s", "2KB"}
	for i, w := range want {
		if toks[i].Kind != KindInt || toks[i].Text != w {
			t.Fatalf("token %d: got %+v, want %q", i, toks[i], w)
		}
	}
}

func TestScanTokensStringEscapes(t *testing.T) {
	toks, q := scan(t, `"hi\n\t\"there\""`)
	if q.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", q.Items())
	}
	if toks[0].Kind != KindString || toks[0].Text != "hi\n\t\"there\"" {
		t.Fatalf("got %+v", toks[0])
	}
}

func TestScanTokensUnterminatedStringReportsDiagnosticNotPanic(t *testing.T) {
	toks, q := scan(t, `"unterminated`)
	if q.Len() != 1 || q.Items()[0].Code != diagnostics.ECodeUnterminatedString {
		t.Fatalf("expected one unterminated-string diagnostic, got %+v", q.Items())
	}
	if toks[0].Kind != KindString {
		t.Fatalf("scanner must still emit a (partial) string token, got %+v", toks[0])
	}
}

func TestScanTokensInvalidEscapeReportsDiagnostic(t *testing.T) {
	_, q := scan(t, `"bad\qescape"`)
	if q.Len() != 1 || q.Items()[0].Code != diagnostics.ECodeInvalidEscape {
		t.Fatalf("expected one invalid-escape diagnostic, got %+v", q.Items())
	}
}

func TestScanTokensCharLiteral(t *testing.T) {
	toks, q := scan(t, `'a' '\n'`)
	if q.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", q.Items())
	}
	if toks[0].Kind != KindChar || toks[0].Text != "a" {
		t.Fatalf("got %+v", toks[0])
	}
	if toks[1].Kind != KindChar || toks[1].Text != "\n" {
		t.Fatalf("got %+v", toks[1])
	}
}

func TestScanTokensSkipsLineComments(t *testing.T) {
	toks, q := scan(t, "let x = 1 // trailing comment\nlet y = 2")
	if q.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", q.Items())
	}
	got := kinds(toks)
	want := []Kind{KindLet, KindIdent, KindAssign, KindInt, KindLet, KindIdent, KindAssign, KindInt, KindEOF}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestScanTokensOperatorsAndArrows(t *testing.T) {
	toks, q := scan(t, "-> => == != <= >= :: && ||")
	if q.Len() != 0 {
		t.Fatalf("unexpected diagnostics: %+v", q.Items())
	}
	got := kinds(toks)
	want := []Kind{
		KindArrow, KindFatArrow, KindEq, KindNe, KindLe, KindGe,
		KindDoubleColon, KindAndAnd, KindOrOr, KindEOF,
	}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("token %d: got %v, want %v", i, got[i], want[i])
		}
	}
}

func TestScanTokensSpansCoverExactLexeme(t *testing.T) {
	toks, _ := scan(t, "  let")
	// Leading whitespace is trivia and must not be included in the span.
	if toks[0].Span.Start != 2 || toks[0].Span.End != 5 {
		t.Fatalf("got span %+v, want 2..5", toks[0].Span)
	}
}
