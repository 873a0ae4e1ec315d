package match

import (
	"testing"

	"ori/internal/ident"
)

// leafChain walks every Fallback chain from a Decision, collecting leaf
// ArmIndex values in the order a runtime dispatch would try them.
func leafChain(d *Decision) []int {
	var out []int
	for d != nil && d.Kind == DecisionLeaf {
		out = append(out, d.ArmIndex)
		d = d.Fallback
	}
	return out
}

func TestCompilePatternsWildcardOnlyProducesSingleLeaf(t *testing.T) {
	pa := NewArena()
	wc := pa.NewWildcard()
	d := CompilePatterns(pa, []PatternRef{wc})
	if d.Kind != DecisionLeaf || d.ArmIndex != 0 {
		t.Fatalf("expected a single leaf for arm 0, got %+v", d)
	}
}

func TestCompilePatternsLiteralDispatchesByValue(t *testing.T) {
	pa := NewArena()
	one := pa.NewLiteralInt(1)
	two := pa.NewLiteralInt(2)
	wc := pa.NewWildcard()
	d := CompilePatterns(pa, []PatternRef{one, two, wc})

	if d.Kind != DecisionTest {
		t.Fatalf("expected a test node dispatching on the int literal")
	}
	if len(d.Cases) != 2 {
		t.Fatalf("expected two distinct literal cases, got %d", len(d.Cases))
	}
	if d.Cases[0].IntVal != 1 || d.Cases[1].IntVal != 2 {
		t.Fatalf("expected cases in first-seen order [1, 2], got %+v", d.Cases)
	}
	if d.Targets[0].ArmIndex != 0 || d.Targets[1].ArmIndex != 1 {
		t.Fatalf("expected case 1 to resolve to arm 0 and case 2 to arm 1")
	}
	if d.Default == nil || d.Default.Kind != DecisionLeaf || d.Default.ArmIndex != 2 {
		t.Fatalf("expected the default branch to fall through to the wildcard arm")
	}
}

func TestCompilePatternsBindingBindsAtCorrectPath(t *testing.T) {
	pa := NewArena()
	in := ident.NewInterner()
	x := in.Intern("x")
	bind := pa.NewBind(x)
	d := CompilePatterns(pa, []PatternRef{bind})

	if d.Kind != DecisionLeaf {
		t.Fatalf("a plain binding must compile directly to a leaf")
	}
	if len(d.Bindings) != 1 || d.Bindings[0].Name != x {
		t.Fatalf("expected binding of %v, got %+v", x, d.Bindings)
	}
}

func TestCompilePatternsNestedTupleOfConstructorsDispatchesByPath(t *testing.T) {
	pa := NewArena()
	in := ident.NewInterner()
	someName := in.Intern("Some")
	noneName := in.Intern("None")
	x := in.Intern("x")

	// (Some(x), 3)
	somePat := pa.NewConstructor(someName, []PatternRef{pa.NewBind(x)})
	three := pa.NewLiteralInt(3)
	armOne := pa.NewTuple([]PatternRef{somePat, three})

	// (None, _)
	nonePat := pa.NewConstructor(noneName, nil)
	wc := pa.NewWildcard()
	armTwo := pa.NewTuple([]PatternRef{nonePat, wc})

	d := CompilePatterns(pa, []PatternRef{armOne, armTwo})

	// First test must be on the tuple's first element (index 0), since
	// compileTuple unconditionally destructures before testing subpatterns.
	if d.Kind != DecisionTest {
		t.Fatalf("expected a constructor test at the tuple's first component")
	}
	if len(d.Path) != 1 || d.Path[0].Kind != StepTupleIndex || d.Path[0].Index != 0 {
		t.Fatalf("expected the first test's path to select tuple index 0, got %+v", d.Path)
	}

	foundSome, foundNone := false, false
	for i, c := range d.Cases {
		if !c.IsCtor {
			continue
		}
		if c.Ctor == someName {
			foundSome = true
			// Inside the Some branch there must be a further test on the
			// tuple's second component (the literal 3).
			inner := d.Targets[i]
			if inner.Kind != DecisionTest {
				t.Fatalf("expected a nested test for the literal 3 inside the Some branch")
			}
		}
		if c.Ctor == noneName {
			foundNone = true
		}
	}
	if !foundSome || !foundNone {
		t.Fatalf("expected both Some and None constructor cases, got %+v", d.Cases)
	}
}

func TestCompilePatternsEmptyRowsProduceFail(t *testing.T) {
	pa := NewArena()
	d := compile(pa, nil)
	if d.Kind != DecisionFail {
		t.Fatalf("compiling zero rows must produce a DecisionFail leaf")
	}
}

func TestCompilePatternsListArityDispatch(t *testing.T) {
	pa := NewArena()
	in := ident.NewInterner()
	rest := in.Intern("rest")

	empty := pa.NewList(nil, false, ident.Empty)
	headTail := pa.NewList([]PatternRef{pa.NewWildcard()}, true, rest)

	d := CompilePatterns(pa, []PatternRef{empty, headTail})
	if d.Kind != DecisionTest {
		t.Fatalf("expected a length test over the two list arms")
	}
	lens := map[int]bool{}
	for _, c := range d.Cases {
		if !c.IsLen {
			t.Fatalf("expected length-based cases for list patterns")
		}
		lens[c.Len] = true
	}
	if !lens[0] || !lens[1] {
		t.Fatalf("expected cases for length 0 and length 1, got %+v", d.Cases)
	}
}

func TestCompilePatternsOrderPreservesSourceArmPriority(t *testing.T) {
	pa := NewArena()
	a := pa.NewLiteralInt(1)
	b := pa.NewWildcard()
	c := pa.NewLiteralInt(1) // unreachable duplicate, still compiled in order

	d := CompilePatterns(pa, []PatternRef{a, b, c})
	chain := leafChain(compileFirstArmPath(pa, d))
	if len(chain) == 0 || chain[0] != 0 {
		t.Fatalf("expected arm 0 to be tried before the wildcard fallback, chain=%v", chain)
	}
}

// compileFirstArmPath steps from a test node into its first case's subtree
// (Targets[0]), and returns any other node unchanged, so the fallback-chain
// ordering assertion above has a concrete Decision to walk.
func compileFirstArmPath(pa *Arena, d *Decision) *Decision {
	if d.Kind == DecisionTest && len(d.Targets) > 0 {
		return d.Targets[0]
	}
	return d
}
