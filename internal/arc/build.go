package arc

import (
	"fmt"

	"ori/internal/ident"
	"ori/internal/ir"
	"ori/internal/match"
	"ori/internal/types"
)

// Lowering builds an ARC-bearing Function from a `run`/`try` FunctionSeq body
// (spec.md §3.2's SeqRun/SeqTry): a list of let-bindings feeding a result
// expression. This lowering covers the expression surface exercised by
// spec.md §8's scenarios — literals, identifiers, binary arithmetic, list
// construction, a borrowing builtin method call (`len`), and `if` — rather
// than the full ir.Kind catalogue; it is the bridge from canonical IR to
// basic-block ARC IR for exactly the constructs those scenarios need.
// Unsupported shapes return an error instead of silently mis-lowering.
type Lowering struct {
	Arena    *ir.Arena
	Patterns *match.Arena
	Pool     *types.Pool
	Types    map[ir.ExprId]types.TypeId
	Interner *ident.Interner

	fn  *Function
	cur *Block
	env map[ident.Name]Var
}

// NewLowering creates a Lowering context sharing the checker's arenas, pool
// and per-expression type table (populated by check.Checker.Infer).
func NewLowering(arena *ir.Arena, patterns *match.Arena, pool *types.Pool, exprTypes map[ir.ExprId]types.TypeId, in *ident.Interner) *Lowering {
	return &Lowering{Arena: arena, Patterns: patterns, Pool: pool, Types: exprTypes, Interner: in}
}

// LowerFunction lowers a run/try-seq body into a named, single-entry
// Function. paramNames names the owned parameters in order (all owned, since
// borrowed-parameter declaration syntax is outside this lowering's scope).
func (lw *Lowering) LowerFunction(name string, paramNames []ident.Name, paramTypes []types.TypeId, ret types.TypeId, body ir.ExprId) (*Function, error) {
	fn := NewFunction(name, ret)
	entry := fn.NewBlock()
	fn.Entry = entry.Id

	lw.fn = fn
	lw.cur = entry
	lw.env = make(map[ident.Name]Var, len(paramNames))

	for i, pn := range paramNames {
		v := fn.NewVar(paramTypes[i])
		fn.Params = append(fn.Params, ParamInfo{Var: v, Type: paramTypes[i], Owned: true})
		lw.env[pn] = v
	}

	result, err := lw.lowerExpr(body)
	if err != nil {
		return nil, err
	}
	lw.cur.Term = Terminator{Kind: TermReturn, Value: result}
	return fn, nil
}

func (lw *Lowering) typeOf(id ir.ExprId) types.TypeId {
	if t, ok := lw.Types[id]; ok {
		return t
	}
	return types.INFER
}

func (lw *Lowering) lowerExpr(id ir.ExprId) (Var, error) {
	e := lw.Arena.Get(id)
	switch e.Kind {
	case ir.KindIntLit:
		v := lw.fn.NewVar(types.INT)
		lw.cur.Emit(Inst{Op: OpConstInt, Dst: v, IntVal: lw.Arena.IntLit(id), Type: types.INT, Span: e.Span})
		return v, nil
	case ir.KindFloatLit:
		v := lw.fn.NewVar(types.FLOAT)
		lw.cur.Emit(Inst{Op: OpConstFloat, Dst: v, FloatVal: lw.Arena.FloatLit(id), Type: types.FLOAT, Span: e.Span})
		return v, nil
	case ir.KindStringLit:
		v := lw.fn.NewVar(types.STR)
		lw.cur.Emit(Inst{Op: OpConstString, Dst: v, StrVal: lw.Arena.StringLit(id), Type: types.STR, Span: e.Span})
		return v, nil
	case ir.KindBoolLit:
		v := lw.fn.NewVar(types.BOOL)
		lw.cur.Emit(Inst{Op: OpConstBool, Dst: v, BoolVal: lw.Arena.BoolLit(id), Type: types.BOOL, Span: e.Span})
		return v, nil
	case ir.KindIdent:
		name := lw.Arena.IdentName(id)
		v, ok := lw.env[name]
		if !ok {
			return InvalidVar, fmt.Errorf("arc: unbound identifier %q in lowering", lw.Interner.Lookup(name))
		}
		return v, nil
	case ir.KindBinary:
		op, l, r := lw.Arena.BinaryParts(id)
		lv, err := lw.lowerExpr(l)
		if err != nil {
			return InvalidVar, err
		}
		rv, err := lw.lowerExpr(r)
		if err != nil {
			return InvalidVar, err
		}
		t := lw.typeOf(id)
		dst := lw.fn.NewVar(t)
		lw.cur.Emit(Inst{Op: OpPrim, Dst: dst, Args: []Var{lv, rv}, PrimOp: op, Type: t, Span: e.Span})
		return dst, nil
	case ir.KindList:
		items := lw.Arena.ListItems(id)
		elems := make([]Var, len(items))
		for i, it := range items {
			v, err := lw.lowerExpr(it)
			if err != nil {
				return InvalidVar, err
			}
			elems[i] = v
		}
		t := lw.typeOf(id)
		dst := lw.fn.NewVar(t)
		lw.cur.Emit(Inst{Op: OpConstructList, Dst: dst, Args: elems, Type: t, Span: e.Span})
		return dst, nil
	case ir.KindMethodCall:
		recv, method, args, _, _ := lw.Arena.MethodCallParts(id)
		rv, err := lw.lowerExpr(recv)
		if err != nil {
			return InvalidVar, err
		}
		argVars := []Var{rv}
		for _, a := range args {
			v, err := lw.lowerExpr(a)
			if err != nil {
				return InvalidVar, err
			}
			argVars = append(argVars, v)
		}
		t := lw.typeOf(id)
		dst := lw.fn.NewVar(t)
		lw.cur.Emit(Inst{Op: OpCall, Dst: dst, Args: argVars, Callee: "rt_" + lw.Interner.Lookup(method), Type: t, Span: e.Span})
		return dst, nil
	case ir.KindIf:
		cond, then, els := lw.Arena.IfParts(id)
		condVar, err := lw.lowerExpr(cond)
		if err != nil {
			return InvalidVar, err
		}
		t := lw.typeOf(id)

		thenBlock := lw.fn.NewBlock()
		elseBlock := lw.fn.NewBlock()
		joinBlock := lw.fn.NewBlock()
		joinParam := lw.fn.NewVar(t)
		joinBlock.Params = []Var{joinParam}
		joinBlock.ParamTypes = []types.TypeId{t}

		lw.cur.Term = Terminator{Kind: TermBranch, Cond: condVar, Then: thenBlock.Id, Else: elseBlock.Id}

		lw.cur = thenBlock
		thenVar, err := lw.lowerExpr(then)
		if err != nil {
			return InvalidVar, err
		}
		lw.cur.Term = Terminator{Kind: TermJump, Target: joinBlock.Id, TargetArgs: []Var{thenVar}}

		lw.cur = elseBlock
		if els == ir.InvalidExpr {
			unitVar := lw.fn.NewVar(types.UNIT)
			elseBlock.Emit(Inst{Op: OpConstInt, Dst: unitVar, Type: types.UNIT})
			elseBlock.Term = Terminator{Kind: TermJump, Target: joinBlock.Id, TargetArgs: []Var{unitVar}}
		} else {
			elseVar, err := lw.lowerExpr(els)
			if err != nil {
				return InvalidVar, err
			}
			elseBlock.Term = Terminator{Kind: TermJump, Target: joinBlock.Id, TargetArgs: []Var{elseVar}}
		}

		lw.cur = joinBlock
		return joinParam, nil
	case ir.KindFunctionSeq:
		return lw.lowerSeq(id)
	default:
		return InvalidVar, fmt.Errorf("arc: unsupported expression kind %d in lowering", e.Kind)
	}
}

func (lw *Lowering) lowerSeq(id ir.ExprId) (Var, error) {
	data := lw.Arena.Seq(id)
	if data.Kind != ir.SeqRun && data.Kind != ir.SeqTry {
		return InvalidVar, fmt.Errorf("arc: lowering only supports run/try sequences, got kind %d", data.Kind)
	}
	for _, b := range lw.Arena.Bindings(data.Bindings) {
		v, err := lw.lowerExpr(b.Init)
		if err != nil {
			return InvalidVar, err
		}
		if b.IsStmt {
			continue
		}
		name, ok := lw.bindName(b.Pattern)
		if !ok {
			return InvalidVar, fmt.Errorf("arc: lowering only supports plain-identifier let patterns")
		}
		lw.env[name] = v
	}
	return lw.lowerExpr(data.Result)
}

func (lw *Lowering) bindName(p ir.PatternId) (ident.Name, bool) {
	if p == match.Invalid {
		return ident.Empty, false
	}
	if lw.Patterns.Kind(p) != match.PatBind {
		return ident.Empty, false
	}
	return lw.Patterns.BindName(p), true
}
