package codegen

import "testing"

func TestMangleFunctionRoundTrips(t *testing.T) {
	m := MangleFunction("geo.shapes", "area")
	want := "_ori_geo>shapes$area"
	if m != want {
		t.Fatalf("got %q, want %q", m, want)
	}
	d, ok := Demangle(m)
	if !ok {
		t.Fatalf("expected demangle to succeed for %q", m)
	}
	if d.IsMethod || d.ModulePath != "geo.shapes" || d.Name != "area" {
		t.Fatalf("got %+v", d)
	}
}

func TestMangleMethodRoundTrips(t *testing.T) {
	m := MangleMethod("Point", "Eq", "equals")
	want := "_ori_Point$Eq$equals"
	if m != want {
		t.Fatalf("got %q, want %q", m, want)
	}
	d, ok := Demangle(m)
	if !ok {
		t.Fatalf("expected demangle to succeed for %q", m)
	}
	if !d.IsMethod || d.TypeName != "Point" || d.Trait != "Eq" || d.Name != "equals" {
		t.Fatalf("got %+v", d)
	}
}

func TestMangleGenericAppendsTypeArgsAndRoundTrips(t *testing.T) {
	base := MangleFunction("core", "identity")
	m := MangleGeneric(base, "List<int>", "Option[str]")
	want := "_ori_core$identity$GList$LTint$GT$GOption$LBstr$RB"
	if m != want {
		t.Fatalf("got %q, want %q", m, want)
	}
	d, ok := Demangle(m)
	if !ok {
		t.Fatalf("expected demangle to succeed for %q", m)
	}
	if len(d.GenericArgs) != 2 || d.GenericArgs[0] != "List<int>" || d.GenericArgs[1] != "Option[str]" {
		t.Fatalf("got %+v", d.GenericArgs)
	}
}

func TestDemangleRejectsForeignSymbols(t *testing.T) {
	if _, ok := Demangle("malloc"); ok {
		t.Fatalf("expected demangle to reject a non-ori symbol")
	}
}

func TestMangleGenericEscapesBracketsWithinArguments(t *testing.T) {
	base := MangleFunction("a.b", "wrap")
	m := MangleGeneric(base, "List<Option<int>>")
	d, ok := Demangle(m)
	if !ok {
		t.Fatalf("expected demangle to succeed for %q", m)
	}
	if len(d.GenericArgs) != 1 || d.GenericArgs[0] != "List<Option<int>>" {
		t.Fatalf("got %+v", d.GenericArgs)
	}
}
