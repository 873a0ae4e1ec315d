package arc

import (
	"testing"

	"ori/internal/ident"
	"ori/internal/ir"
	"ori/internal/match"
	"ori/internal/types"
)

func countOp(f *Function, op Op) int {
	n := 0
	for _, b := range f.Blocks {
		for _, in := range b.Insts {
			if in.Op == op {
				n++
			}
		}
	}
	return n
}

// buildRunLenProgram builds `run(let xs = [1, 2, 3], xs.len())`, spec.md
// §8 scenario 5's ARC-elision case: xs is constructed, read once by a
// borrowing method call, and never touched again.
func buildRunLenProgram(t *testing.T) (*Lowering, ir.ExprId, ident.Name) {
	t.Helper()
	arena := ir.NewArena()
	patterns := match.NewArena()
	pool := types.NewPool()
	in := ident.NewInterner()

	span := ident.Span{}
	xsName := in.Intern("xs")
	lenName := in.Intern("len")

	list := arena.NewList(span, []ir.ExprId{
		arena.NewIntLit(span, 1),
		arena.NewIntLit(span, 2),
		arena.NewIntLit(span, 3),
	})
	bindPat := patterns.NewBind(xsName)
	binding := ir.Binding{Pattern: bindPat, Init: list}
	bindings := arena.AppendBindings([]ir.Binding{binding})

	xsRef := arena.NewIdent(span, xsName)
	call := arena.NewMethodCall(span, xsRef, lenName, nil)

	run := arena.NewFunctionSeq(span, ir.SeqData{Kind: ir.SeqRun, Bindings: bindings, Result: call})

	listType := pool.List(types.INT)
	exprTypes := map[ir.ExprId]types.TypeId{
		list: listType,
		call: types.INT,
		run:  types.INT,
	}

	lw := NewLowering(arena, patterns, pool, exprTypes, in)
	return lw, run, xsName
}

func TestLowerAndInsertRCReleasesListExactlyOnce(t *testing.T) {
	lw, run, _ := buildRunLenProgram(t)

	fn, err := lw.LowerFunction("main", nil, nil, types.INT, run)
	if err != nil {
		t.Fatalf("lowering failed: %v", err)
	}

	InsertRC(lw.Pool, fn)

	if got := countOp(fn, OpRelease); got != 1 {
		t.Fatalf("expected exactly one release, got %d", got)
	}
	if got := countOp(fn, OpRetain); got != 0 {
		t.Fatalf("expected no retains (xs is never duplicated), got %d", got)
	}

	// The release must be the last instruction in the entry block, after
	// the list is constructed and read by the len call, and it must
	// target the variable the construct produced.
	entry := fn.Block(fn.Entry)
	last := entry.Insts[len(entry.Insts)-1]
	if last.Op != OpRelease {
		t.Fatalf("expected the final instruction to be the release, got op %d", last.Op)
	}
	var listVar Var
	for _, in := range entry.Insts {
		if in.Op == OpConstructList {
			listVar = in.Dst
		}
	}
	if last.Args[0] != listVar {
		t.Fatalf("release target %d does not match the constructed list %d", last.Args[0], listVar)
	}
}

func TestEliminateRedundantCancelsAdjacentRetainRelease(t *testing.T) {
	fn := NewFunction("f", types.INT)
	b := fn.NewBlock()
	fn.Entry = b.Id
	v := fn.NewVar(types.STR)
	b.Emit(Inst{Op: OpConstString, Dst: v, StrVal: "hi", Type: types.STR})
	b.Emit(Inst{Op: OpRetain, Args: []Var{v}, Type: types.STR})
	b.Emit(Inst{Op: OpRelease, Args: []Var{v}, Type: types.STR})
	b.Term = Terminator{Kind: TermReturn, Value: v}

	EliminateRedundant(fn)

	for _, in := range fn.Block(fn.Entry).Insts {
		if in.Op == OpRetain || in.Op == OpRelease {
			t.Fatalf("expected retain/release pair to cancel, found op %d", in.Op)
		}
	}
}

func TestApplyReuseFusesReleaseAndConstructOfSameShape(t *testing.T) {
	fn := NewFunction("f", types.INT)
	b := fn.NewBlock()
	fn.Entry = b.Id

	listT := types.NewPool().List(types.INT) // distinct pool instance is fine: only identity within this test matters
	old := fn.NewVar(listT)
	b.Emit(Inst{Op: OpConstructList, Dst: old, Type: listT})
	b.Emit(Inst{Op: OpRelease, Args: []Var{old}, Type: listT})
	fresh := fn.NewVar(listT)
	b.Emit(Inst{Op: OpConstructList, Dst: fresh, Type: listT})
	b.Term = Terminator{Kind: TermReturn, Value: fresh}

	ApplyReuse(fn)

	insts := fn.Block(fn.Entry).Insts
	found := false
	for _, in := range insts {
		if in.Op == OpReuse && in.ReuseOf == old && in.Dst == fresh {
			found = true
		}
		if in.Op == OpRelease {
			t.Fatalf("release should have been fused away, found one")
		}
	}
	if !found {
		t.Fatalf("expected a Reuse instruction fusing release of %d into construct of %d", old, fresh)
	}
}

func TestReversePostorderVisitsPredecessorsBeforeSuccessors(t *testing.T) {
	fn := NewFunction("f", types.BOOL)
	entry := fn.NewBlock()
	thenB := fn.NewBlock()
	elseB := fn.NewBlock()
	join := fn.NewBlock()
	fn.Entry = entry.Id

	cond := fn.NewVar(types.BOOL)
	entry.Emit(Inst{Op: OpConstBool, Dst: cond, BoolVal: true, Type: types.BOOL})
	entry.Term = Terminator{Kind: TermBranch, Cond: cond, Then: thenB.Id, Else: elseB.Id}
	thenB.Term = Terminator{Kind: TermJump, Target: join.Id}
	elseB.Term = Terminator{Kind: TermJump, Target: join.Id}
	join.Term = Terminator{Kind: TermReturn, Value: cond}

	order := ReversePostorder(fn)
	pos := map[BlockId]int{}
	for i, id := range order {
		pos[id] = i
	}
	if pos[entry.Id] >= pos[thenB.Id] || pos[entry.Id] >= pos[elseB.Id] {
		t.Fatalf("entry must precede both branches in reverse postorder: %v", order)
	}
	if pos[thenB.Id] >= pos[join.Id] || pos[elseB.Id] >= pos[join.Id] {
		t.Fatalf("both branches must precede the join block: %v", order)
	}
}
