package match

import (
	"ori/internal/ident"
	"ori/internal/ir"
)

// Decision is one node of the compiled decision tree: a dag of tests that
// dispatch on a tag, tuple/list index, struct field, or literal, bottoming
// out at leaves that reference the original arm. Guard predicates are not a
// pattern shape (spec.md's "guarded patterns" are an arm-level boolean):
// the caller re-tests the guard expression after reaching a leaf and falls
// through to the leaf's Fallback on failure.
type Decision struct {
	Kind DecisionKind

	// Test subject, relative to the scrutinee path that reached this node.
	Path []PathStep

	Cases   []CaseValue
	Targets []*Decision
	Default *Decision

	// Leaf
	ArmIndex int
	Bindings []Binding
	Fallback *Decision // next candidate to try if this leaf's guard fails
}

// DecisionKind discriminates a Decision node.
type DecisionKind uint8

const (
	DecisionTest DecisionKind = iota
	DecisionLeaf
	DecisionFail // no arm matches; reachable only on a non-exhaustive match at runtime
)

// PathStepKind discriminates how to project from a parent value to a child.
type PathStepKind uint8

const (
	StepTupleIndex PathStepKind = iota
	StepListIndex
	StepStructField
	StepCtorArg
)

// PathStep is one projection step from the scrutinee down to the value
// being tested or bound.
type PathStep struct {
	Kind  PathStepKind
	Index int
	Field ident.Name
}

// CaseValue is one concrete value a DecisionTest branches on.
type CaseValue struct {
	IsCtor   bool
	Ctor     ident.Name // constructor/variant name, when IsCtor
	IsLen    bool
	Len      int // list-arity test, when IsLen
	IntVal   int64
	FloatVal float64
	StrVal   string
	CharVal  rune
	BoolVal  bool
}

// Binding is one pattern-introduced name, bound from the value found at
// Path when a leaf is reached.
type Binding struct {
	Name ident.Name
	Path []PathStep
}

// PatternRef is a pattern id within an Arena, identifying one match arm's
// pattern.
type PatternRef = ir.PatternId

// obligation is one still-unresolved test a row owes: "the value at Path
// must match Pat".
type obligation struct {
	path []PathStep
	pat  PatternRef
}

// rowState is one match arm's progress through compilation: the
// obligations left to resolve, plus bindings already committed as earlier
// obligations were popped.
type rowState struct {
	armIndex    int
	obligations []obligation
	bindings    []Binding
}

// CompilePatterns builds a decision tree for a match over the given arm
// patterns, one per row in source order. Rows are carried through
// compilation as obligation queues (Maranget-style): at each step the head
// obligation of the first remaining row is tested, rows are partitioned by
// whether their own head obligation agrees, and irrefutable heads (wildcard
// or binding) are popped into every partition plus the default branch
// without constraining it, for patterns nested inside tuples, structs, and
// constructors. The tested column is always the first row's head
// obligation; no column-selection heuristic (such as preferring the
// column with the smallest head-constructor set) is applied.
func CompilePatterns(pa *Arena, patterns []PatternRef) *Decision {
	rows := make([]rowState, len(patterns))
	for i, p := range patterns {
		rows[i] = rowState{armIndex: i, obligations: []obligation{{pat: p}}}
	}
	return compile(pa, rows)
}

func compile(pa *Arena, rows []rowState) *Decision {
	if len(rows) == 0 {
		return &Decision{Kind: DecisionFail}
	}
	first := rows[0]
	if len(first.obligations) == 0 {
		return &Decision{
			Kind:     DecisionLeaf,
			ArmIndex: first.armIndex,
			Bindings: first.bindings,
			Fallback: compile(pa, rows[1:]),
		}
	}

	head := first.obligations[0]
	switch pa.Kind(head.pat) {
	case PatWildcard, PatBind:
		// Irrefutable: pop it (binding if applicable) from the first row
		// only, and leave every other row's obligations untouched for this
		// step. The first row's remaining obligations continue to resolve
		// via recursion, with the fallback rows behind it kept intact.
		return compile(pa, popIrrefutable(pa, rows))
	case PatLiteralInt, PatLiteralFloat, PatLiteralString, PatLiteralChar, PatLiteralBool:
		return compileLiteral(pa, rows, head)
	case PatTuple:
		return compileTuple(pa, rows, head)
	case PatList:
		return compileList(pa, rows, head)
	case PatStruct:
		return compileStruct(pa, rows, head)
	case PatConstructor:
		return compileConstructor(pa, rows, head)
	default:
		return &Decision{Kind: DecisionFail}
	}
}

// popIrrefutable pops the head obligation of rows[0] (which must be
// PatWildcard/PatBind), threading the committed binding forward, and
// recurses with that row's remaining obligations at the front.
func popIrrefutable(pa *Arena, rows []rowState) []rowState {
	r := rows[0]
	head := r.obligations[0]
	var bindings []Binding
	if pa.Kind(head.pat) == PatBind {
		bindings = append(append([]Binding(nil), r.bindings...), Binding{Name: pa.BindName(head.pat), Path: head.path})
	} else {
		bindings = r.bindings
	}
	next := rowState{
		armIndex:    r.armIndex,
		obligations: r.obligations[1:],
		bindings:    bindings,
	}
	out := make([]rowState, 0, len(rows))
	out = append(out, next)
	out = append(out, rows[1:]...)
	return out
}

// partitionRows builds, for each row whose head obligation at headPath
// either matches test structurally or is irrefutable, a continuation row
// with the head obligation replaced by its sub-obligations (possibly
// none). Rows whose head obligation is a different refutable shape are
// dropped from this branch.
func partitionRows(pa *Arena, rows []rowState, matches func(pat PatternRef) (subs []obligation, ok bool)) []rowState {
	var out []rowState
	for _, r := range rows {
		head := r.obligations[0]
		rest := r.obligations[1:]
		switch pa.Kind(head.pat) {
		case PatWildcard:
			out = append(out, rowState{armIndex: r.armIndex, obligations: rest, bindings: r.bindings})
		case PatBind:
			b := append(append([]Binding(nil), r.bindings...), Binding{Name: pa.BindName(head.pat), Path: head.path})
			out = append(out, rowState{armIndex: r.armIndex, obligations: rest, bindings: b})
		default:
			if subs, ok := matches(head.pat); ok {
				merged := append(append([]obligation(nil), subs...), rest...)
				out = append(out, rowState{armIndex: r.armIndex, obligations: merged, bindings: r.bindings})
			}
		}
	}
	return out
}

func extend(path []PathStep, step PathStep) []PathStep {
	out := make([]PathStep, len(path)+1)
	copy(out, path)
	out[len(path)] = step
	return out
}

func compileLiteral(pa *Arena, rows []rowState, head obligation) *Decision {
	kind := pa.Kind(head.pat)
	seen := map[CaseValue]bool{}
	var order []CaseValue
	for _, r := range rows {
		h := r.obligations[0]
		if pa.Kind(h.pat) == kind {
			cv := literalCase(pa, h.pat)
			if !seen[cv] {
				seen[cv] = true
				order = append(order, cv)
			}
		}
	}
	d := &Decision{Kind: DecisionTest, Path: head.path}
	for _, cv := range order {
		target := cv
		sub := partitionRows(pa, rows, func(pat PatternRef) ([]obligation, bool) {
			if literalCase(pa, pat) == target {
				return nil, true
			}
			return nil, false
		})
		d.Cases = append(d.Cases, cv)
		d.Targets = append(d.Targets, compile(pa, sub))
	}
	d.Default = compile(pa, partitionRows(pa, rows, func(pat PatternRef) ([]obligation, bool) { return nil, false }))
	return d
}

func literalCase(pa *Arena, id PatternRef) CaseValue {
	switch pa.Kind(id) {
	case PatLiteralInt:
		return CaseValue{IntVal: pa.LiteralInt(id)}
	case PatLiteralFloat:
		return CaseValue{FloatVal: pa.LiteralFloat(id)}
	case PatLiteralString:
		return CaseValue{StrVal: pa.LiteralString(id)}
	case PatLiteralChar:
		return CaseValue{CharVal: pa.LiteralChar(id)}
	case PatLiteralBool:
		return CaseValue{BoolVal: pa.LiteralBool(id)}
	}
	return CaseValue{}
}

func compileTuple(pa *Arena, rows []rowState, head obligation) *Decision {
	arity := len(pa.TupleElems(head.pat))
	subObligations := func(pat PatternRef) ([]obligation, bool) {
		if pa.Kind(pat) != PatTuple {
			return nil, false
		}
		elems := pa.TupleElems(pat)
		obs := make([]obligation, arity)
		for i := 0; i < arity; i++ {
			obs[i] = obligation{path: extend(head.path, PathStep{Kind: StepTupleIndex, Index: i}), pat: elems[i]}
		}
		return obs, true
	}
	sub := partitionRows(pa, rows, subObligations)
	return compile(pa, sub)
}

func compileStruct(pa *Arena, rows []rowState, head obligation) *Decision {
	_, fields, _ := pa.StructParts(head.pat)
	subObligations := func(pat PatternRef) ([]obligation, bool) {
		if pa.Kind(pat) != PatStruct {
			return nil, false
		}
		_, rowFields, _ := pa.StructParts(pat)
		obs := make([]obligation, 0, len(rowFields))
		for _, f := range rowFields {
			obs = append(obs, obligation{path: extend(head.path, PathStep{Kind: StepStructField, Field: f.Name}), pat: f.Sub})
		}
		return obs, true
	}
	_ = fields
	sub := partitionRows(pa, rows, subObligations)
	return compile(pa, sub)
}

func compileList(pa *Arena, rows []rowState, head obligation) *Decision {
	seen := map[int]bool{}
	var order []int
	for _, r := range rows {
		h := r.obligations[0]
		if pa.Kind(h.pat) == PatList {
			head, _, _ := pa.ListParts(h.pat)
			n := len(head)
			if !seen[n] {
				seen[n] = true
				order = append(order, n)
			}
		}
	}
	d := &Decision{Kind: DecisionTest, Path: head.path}
	for _, n := range order {
		target := n
		sub := partitionRows(pa, rows, func(pat PatternRef) ([]obligation, bool) {
			if pa.Kind(pat) != PatList {
				return nil, false
			}
			elems, hasRest, restName := pa.ListParts(pat)
			if len(elems) != target {
				return nil, false
			}
			obs := make([]obligation, 0, len(elems)+1)
			for i, e := range elems {
				obs = append(obs, obligation{path: extend(head.path, PathStep{Kind: StepListIndex, Index: i}), pat: e})
			}
			if hasRest && restName != ident.Empty {
				bindPat := pa.NewBind(restName)
				obs = append(obs, obligation{path: extend(head.path, PathStep{Kind: StepListIndex, Index: len(elems)}), pat: bindPat})
			}
			return obs, true
		})
		d.Cases = append(d.Cases, CaseValue{IsLen: true, Len: n})
		d.Targets = append(d.Targets, compile(pa, sub))
	}
	d.Default = compile(pa, partitionRows(pa, rows, func(pat PatternRef) ([]obligation, bool) { return nil, false }))
	return d
}

func compileConstructor(pa *Arena, rows []rowState, head obligation) *Decision {
	seen := map[ident.Name]bool{}
	var order []ident.Name
	for _, r := range rows {
		h := r.obligations[0]
		if pa.Kind(h.pat) == PatConstructor {
			name, _ := pa.ConstructorParts(h.pat)
			if !seen[name] {
				seen[name] = true
				order = append(order, name)
			}
		}
	}
	d := &Decision{Kind: DecisionTest, Path: head.path}
	for _, tag := range order {
		target := tag
		sub := partitionRows(pa, rows, func(pat PatternRef) ([]obligation, bool) {
			if pa.Kind(pat) != PatConstructor {
				return nil, false
			}
			name, args := pa.ConstructorParts(pat)
			if name != target {
				return nil, false
			}
			obs := make([]obligation, len(args))
			for i, a := range args {
				obs[i] = obligation{path: extend(head.path, PathStep{Kind: StepCtorArg, Index: i}), pat: a}
			}
			return obs, true
		})
		d.Cases = append(d.Cases, CaseValue{IsCtor: true, Ctor: tag})
		d.Targets = append(d.Targets, compile(pa, sub))
	}
	d.Default = compile(pa, partitionRows(pa, rows, func(pat PatternRef) ([]obligation, bool) { return nil, false }))
	return d
}
