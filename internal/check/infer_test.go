package check

import (
	"testing"

	"ori/internal/ident"
	"ori/internal/ir"
	"ori/internal/match"
	"ori/internal/pattern"
	"ori/internal/types"
)

func newTestChecker() (*Checker, *ir.Arena, *match.Arena, *ident.Interner) {
	arena := ir.NewArena()
	patterns := match.NewArena()
	pool := types.NewPool()
	interner := ident.NewInterner()
	c := NewChecker(arena, patterns, pool, NewRegistry(), pattern.NewRegistry(), interner)
	return c, arena, patterns, interner
}

func TestInferLiterals(t *testing.T) {
	c, arena, _, _ := newTestChecker()
	env := NewEnv()

	span := ident.Span{}
	cases := []struct {
		id   ir.ExprId
		want types.TypeId
	}{
		{arena.NewIntLit(span, 1), types.INT},
		{arena.NewFloatLit(span, 1.5), types.FLOAT},
		{arena.NewStringLit(span, "hi"), types.STR},
		{arena.NewBoolLit(span, true), types.BOOL},
	}
	for _, tc := range cases {
		if got := c.Infer(env, tc.id); got != tc.want {
			t.Fatalf("got %d, want %d", got, tc.want)
		}
	}
}

func TestInferArithmeticUnifiesOperands(t *testing.T) {
	c, arena, _, _ := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	lhs := arena.NewIntLit(span, 1)
	rhs := arena.NewIntLit(span, 2)
	add := arena.NewBinary(span, ir.OpAdd, lhs, rhs)

	got := c.Infer(env, add)
	if got != types.INT {
		t.Fatalf("expected int, got %d", got)
	}
	if c.Diags.HasErrors() {
		t.Fatalf("unexpected diagnostics: %v", c.Diags.Items())
	}
}

func TestInferArithmeticMismatchReportsError(t *testing.T) {
	c, arena, _, _ := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	lhs := arena.NewIntLit(span, 1)
	rhs := arena.NewStringLit(span, "nope")
	add := arena.NewBinary(span, ir.OpAdd, lhs, rhs)

	c.Infer(env, add)
	if !c.Diags.HasErrors() {
		t.Fatalf("expected a type-mismatch diagnostic")
	}
}

func TestInferIfBranchesMustUnify(t *testing.T) {
	c, arena, _, _ := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	cond := arena.NewBoolLit(span, true)
	then := arena.NewIntLit(span, 1)
	els := arena.NewIntLit(span, 2)
	ifExpr := arena.NewIf(span, cond, then, els)

	if got := c.Infer(env, ifExpr); got != types.INT {
		t.Fatalf("expected int, got %d", got)
	}
}

func TestInferListElementsMustShareType(t *testing.T) {
	c, arena, _, _ := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	items := []ir.ExprId{arena.NewIntLit(span, 1), arena.NewIntLit(span, 2)}
	list := arena.NewList(span, items)

	got := c.Infer(env, list)
	if c.Pool.Tag(got) != types.TagList {
		t.Fatalf("expected list type")
	}
	if c.Pool.Child(got) != types.INT {
		t.Fatalf("expected list of int")
	}
}

func TestInferLambdaProducesFunctionType(t *testing.T) {
	c, arena, _, in := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	xName := in.Intern("x")
	param := arena.NewIdent(span, xName)
	body := arena.NewIdent(span, xName)
	lambda := arena.NewLambda(span, []ir.ExprId{param}, []ir.ExprId{ir.InvalidExpr}, body)

	got := c.Infer(env, lambda)
	if c.Pool.Tag(got) != types.TagFunction {
		t.Fatalf("expected function type, got tag %d", c.Pool.Tag(got))
	}
	params, ret := c.Pool.FunctionParts(got)
	if len(params) != 1 {
		t.Fatalf("expected one parameter")
	}
	if c.Ctx.Resolve(params[0]) != c.Ctx.Resolve(ret) {
		t.Fatalf("identity lambda should return the same type as its parameter")
	}
}

func TestInferCallUnifiesArgumentsAgainstSignature(t *testing.T) {
	c, arena, _, in := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	fnName := in.Intern("double")
	fnType := c.Pool.Function([]types.TypeId{types.INT}, types.INT)
	env.Bind(fnName, fnType)

	callee := arena.NewIdent(span, fnName)
	arg := arena.NewIntLit(span, 21)
	call := arena.NewCall(span, callee, []ir.ExprId{arg})

	if got := c.Infer(env, call); got != types.INT {
		t.Fatalf("expected int result, got %d", got)
	}
}

func TestInferCallArityMismatchOnWrongArgCount(t *testing.T) {
	c, arena, _, in := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	fnName := in.Intern("double")
	fnType := c.Pool.Function([]types.TypeId{types.INT}, types.INT)
	env.Bind(fnName, fnType)

	callee := arena.NewIdent(span, fnName)
	call := arena.NewCall(span, callee, nil)

	c.Infer(env, call)
	if !c.Diags.HasErrors() {
		t.Fatalf("expected an arity-mismatch diagnostic")
	}
}

func TestCheckSelfCaptureRejectsLambdaReferencingItsOwnLetName(t *testing.T) {
	c, arena, _, in := newTestChecker()
	span := ident.Span{}

	name := in.Intern("loop")
	selfRef := arena.NewIdent(span, name)
	lambda := arena.NewLambda(span, nil, nil, selfRef)

	if c.CheckSelfCapture(name, lambda) {
		t.Fatalf("expected self-capture to be rejected")
	}
}

func TestCheckSelfCaptureAllowsUnrelatedLambda(t *testing.T) {
	c, arena, _, in := newTestChecker()
	span := ident.Span{}

	name := in.Intern("loop")
	other := in.Intern("x")
	body := arena.NewIdent(span, other)
	lambda := arena.NewLambda(span, nil, nil, body)

	if !c.CheckSelfCapture(name, lambda) {
		t.Fatalf("unrelated lambda should not be flagged as self-capturing")
	}
}

func TestInferTryOnResultUnwrapsOkType(t *testing.T) {
	c, arena, _, _ := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	ok := arena.NewIntLit(span, 1)
	wrapped := arena.NewOk(span, ok)
	tryExpr := arena.NewTry(span, wrapped)

	if got := c.Infer(env, tryExpr); got != types.INT {
		t.Fatalf("expected int, got %d", got)
	}
}

func TestInferTryOutsideFallibleFunctionErrorsOnMismatchedReturn(t *testing.T) {
	c, arena, _, _ := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	c.SetReturnType(types.INT)
	ok := arena.NewIntLit(span, 1)
	wrapped := arena.NewOk(span, ok)
	tryExpr := arena.NewTry(span, wrapped)

	c.Infer(env, tryExpr)
	if !c.Diags.HasErrors() {
		t.Fatalf("expected a try-outside-fallible diagnostic")
	}
}

func TestInferMatchBindsArmPatternAndUnifiesBodies(t *testing.T) {
	c, arena, patterns, in := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	scrutinee := arena.NewIntLit(span, 1)
	xName := in.Intern("x")
	bindPat := patterns.NewBind(xName)
	wildcardPat := patterns.NewWildcard()

	armOne := ir.MatchArm{Pattern: bindPat, Body: arena.NewIdent(span, xName)}
	armTwo := ir.MatchArm{Pattern: wildcardPat, Body: arena.NewIntLit(span, 0)}
	arms := arena.AppendArms([]ir.MatchArm{armOne, armTwo})

	matchExpr := arena.NewFunctionSeq(span, ir.SeqData{
		Kind:      ir.SeqMatch,
		Scrutinee: scrutinee,
		Arms:      arms,
	})

	if got := c.Infer(env, matchExpr); got != types.INT {
		t.Fatalf("expected int, got %d", got)
	}
}

func TestInferRunSeqBindsLetAndReturnsResult(t *testing.T) {
	c, arena, patterns, in := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	xName := in.Intern("x")
	bindPat := patterns.NewBind(xName)
	init := arena.NewIntLit(span, 5)
	binding := ir.Binding{Pattern: bindPat, Init: init}
	bindings := arena.AppendBindings([]ir.Binding{binding})

	result := arena.NewIdent(span, xName)
	run := arena.NewFunctionSeq(span, ir.SeqData{Kind: ir.SeqRun, Bindings: bindings, Result: result})

	if got := c.Infer(env, run); got != types.INT {
		t.Fatalf("expected int, got %d", got)
	}
}

func TestInferParallelConstructProducesListOfBranchType(t *testing.T) {
	c, arena, _, in := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	branches := arena.NewList(span, []ir.ExprId{arena.NewIntLit(span, 1), arena.NewIntLit(span, 2)})
	args := arena.NewFunctionExp(span, ir.ExpParallel, []ir.NamedArg{{Name: in.Intern("branches"), Value: branches}})

	got := c.Infer(env, args)
	if c.Pool.Tag(got) != types.TagList {
		t.Fatalf("expected list type, got tag %d", c.Pool.Tag(got))
	}
	if elem := c.Pool.Child(got); c.Ctx.Resolve(elem) != types.INT {
		t.Fatalf("expected list of int, got elem type %d", elem)
	}
}

func TestInferPanicConstructIsNever(t *testing.T) {
	c, arena, _, in := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	msg := arena.NewStringLit(span, "boom")
	panicExpr := arena.NewFunctionExp(span, ir.ExpPanic, []ir.NamedArg{{Name: in.Intern("message"), Value: msg}})

	if got := c.Infer(env, panicExpr); got != types.NEVER {
		t.Fatalf("expected never, got %d", got)
	}
}

func TestInferMethodCallResolvesThroughRegistry(t *testing.T) {
	c, arena, _, in := newTestChecker()
	env := NewEnv()
	span := ident.Span{}

	pointType := c.Pool.Named(in.Intern("Point"), nil, nil, nil)
	methodName := in.Intern("to_str")
	fnType := c.Pool.Function(nil, types.STR)
	c.Traits.DefineMethod(pointType, methodName, fnType, MethodBuiltin)

	recvName := in.Intern("p")
	env.Bind(recvName, pointType)
	recv := arena.NewIdent(span, recvName)
	call := arena.NewMethodCall(span, recv, methodName, nil)

	if got := c.Infer(env, call); got != types.STR {
		t.Fatalf("expected str, got %d", got)
	}
}
