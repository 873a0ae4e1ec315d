package ir

import "ori/internal/ident"

// The New* methods are the arena's public construction surface: each
// appends one Expr record plus whatever payload the kind needs, and returns
// the freshly allocated ExprId. Allocation is append-only, so no existing
// id, Range, or payload entry is ever invalidated by a later New* call.

func (a *Arena) NewIntLit(span ident.Span, v int64) ExprId {
	id := a.append(Expr{Kind: KindIntLit, Span: span})
	a.intLit[id] = v
	return id
}

func (a *Arena) IntLit(id ExprId) int64 { return a.intLit[id] }

func (a *Arena) NewFloatLit(span ident.Span, v float64) ExprId {
	id := a.append(Expr{Kind: KindFloatLit, Span: span})
	a.floatLit[id] = v
	return id
}

func (a *Arena) FloatLit(id ExprId) float64 { return a.floatLit[id] }

func (a *Arena) NewStringLit(span ident.Span, v string) ExprId {
	id := a.append(Expr{Kind: KindStringLit, Span: span})
	a.stringLit[id] = v
	return id
}

func (a *Arena) StringLit(id ExprId) string { return a.stringLit[id] }

func (a *Arena) NewCharLit(span ident.Span, v rune) ExprId {
	id := a.append(Expr{Kind: KindCharLit, Span: span})
	a.charLit[id] = v
	return id
}

func (a *Arena) CharLit(id ExprId) rune { return a.charLit[id] }

func (a *Arena) NewBoolLit(span ident.Span, v bool) ExprId {
	id := a.append(Expr{Kind: KindBoolLit, Span: span})
	a.boolLit[id] = v
	return id
}

func (a *Arena) BoolLit(id ExprId) bool { return a.boolLit[id] }

func (a *Arena) NewDurationLit(span ident.Span, v int64, unit DurationUnit) ExprId {
	id := a.append(Expr{Kind: KindDurationLit, Span: span})
	a.durationLit[id] = durationPayload{Value: v, Unit: unit}
	return id
}

func (a *Arena) DurationLit(id ExprId) (int64, DurationUnit) {
	p := a.durationLit[id]
	return p.Value, p.Unit
}

func (a *Arena) NewSizeLit(span ident.Span, v int64, unit SizeUnit) ExprId {
	id := a.append(Expr{Kind: KindSizeLit, Span: span})
	a.sizeLit[id] = sizePayload{Value: v, Unit: unit}
	return id
}

func (a *Arena) SizeLit(id ExprId) (int64, SizeUnit) {
	p := a.sizeLit[id]
	return p.Value, p.Unit
}

func (a *Arena) NewIdent(span ident.Span, name ident.Name) ExprId {
	id := a.append(Expr{Kind: KindIdent, Span: span})
	a.identName[id] = name
	return id
}

func (a *Arena) IdentName(id ExprId) ident.Name { return a.identName[id] }

func (a *Arena) NewConst(span ident.Span, name ident.Name) ExprId {
	id := a.append(Expr{Kind: KindConst, Span: span})
	a.constName[id] = name
	return id
}

func (a *Arena) ConstName(id ExprId) ident.Name { return a.constName[id] }

func (a *Arena) NewSelfRef(span ident.Span) ExprId {
	return a.append(Expr{Kind: KindSelfRef, Span: span})
}

func (a *Arena) NewList(span ident.Span, items []ExprId) ExprId {
	id := a.append(Expr{Kind: KindList, Span: span})
	a.listItems[id] = a.AppendIds(items)
	return id
}

func (a *Arena) ListItems(id ExprId) []ExprId { return a.Ids(a.listItems[id]) }

func (a *Arena) NewTuple(span ident.Span, items []ExprId) ExprId {
	id := a.append(Expr{Kind: KindTuple, Span: span})
	a.tupleItems[id] = a.AppendIds(items)
	return id
}

func (a *Arena) TupleItems(id ExprId) []ExprId { return a.Ids(a.tupleItems[id]) }

// NewMap stores keys and values as alternating entries in a single Range:
// [k0, v0, k1, v1, ...].
func (a *Arena) NewMap(span ident.Span, keys, values []ExprId) ExprId {
	id := a.append(Expr{Kind: KindMap, Span: span})
	flat := make([]ExprId, 0, len(keys)*2)
	for i := range keys {
		flat = append(flat, keys[i], values[i])
	}
	a.mapEntries[id] = a.AppendIds(flat)
	return id
}

func (a *Arena) MapEntries(id ExprId) (keys, values []ExprId) {
	flat := a.Ids(a.mapEntries[id])
	for i := 0; i+1 < len(flat); i += 2 {
		keys = append(keys, flat[i])
		values = append(values, flat[i+1])
	}
	return
}

func (a *Arena) NewStruct(span ident.Span, typeName ident.Name, fields []FieldInit) ExprId {
	id := a.append(Expr{Kind: KindStruct, Span: span})
	a.structLit[id] = structPayload{TypeName: typeName, Fields: a.AppendFields(fields)}
	return id
}

func (a *Arena) StructFields(id ExprId) (ident.Name, []FieldInit) {
	p := a.structLit[id]
	return p.TypeName, a.Fields(p.Fields)
}

func (a *Arena) NewField(span ident.Span, object ExprId, field ident.Name) ExprId {
	id := a.append(Expr{Kind: KindField, Span: span})
	a.fieldAccess[id] = fieldPayload{Object: object, Field: field}
	return id
}

func (a *Arena) FieldAccess(id ExprId) (ExprId, ident.Name) {
	p := a.fieldAccess[id]
	return p.Object, p.Field
}

func (a *Arena) NewIndex(span ident.Span, object, index ExprId) ExprId {
	id := a.append(Expr{Kind: KindIndex, Span: span})
	a.indexPayload[id] = binPayload{A: object, B: index}
	return id
}

func (a *Arena) IndexParts(id ExprId) (ExprId, ExprId) {
	p := a.indexPayload[id]
	return p.A, p.B
}

func (a *Arena) NewCall(span ident.Span, callee ExprId, args []ExprId) ExprId {
	id := a.append(Expr{Kind: KindCall, Span: span})
	a.call[id] = callPayload{Callee: callee, Args: a.AppendIds(args)}
	return id
}

func (a *Arena) CallParts(id ExprId) (ExprId, []ExprId) {
	p := a.call[id]
	return p.Callee, a.Ids(p.Args)
}

func (a *Arena) NewCallNamed(span ident.Span, callee ExprId, args []NamedArg) ExprId {
	id := a.append(Expr{Kind: KindCallNamed, Span: span})
	a.callNamed[id] = callNamedPayload{Callee: callee, Args: a.AppendNamedArgs(args)}
	return id
}

func (a *Arena) CallNamedParts(id ExprId) (ExprId, []NamedArg) {
	p := a.callNamed[id]
	return p.Callee, a.NamedArgs(p.Args)
}

func (a *Arena) NewMethodCall(span ident.Span, receiver ExprId, method ident.Name, args []ExprId) ExprId {
	id := a.append(Expr{Kind: KindMethodCall, Span: span})
	a.methodCall[id] = methodCallPayload{Receiver: receiver, Method: method, Args: a.AppendIds(args)}
	return id
}

func (a *Arena) NewMethodCallNamed(span ident.Span, receiver ExprId, method ident.Name, args []NamedArg) ExprId {
	id := a.append(Expr{Kind: KindMethodCallNamed, Span: span})
	a.methodCall[id] = methodCallPayload{Receiver: receiver, Method: method, Named: a.AppendNamedArgs(args), IsNamed: true}
	return id
}

func (a *Arena) MethodCallParts(id ExprId) (receiver ExprId, method ident.Name, args []ExprId, named []NamedArg, isNamed bool) {
	p := a.methodCall[id]
	if p.IsNamed {
		return p.Receiver, p.Method, nil, a.NamedArgs(p.Named), true
	}
	return p.Receiver, p.Method, a.Ids(p.Args), nil, false
}

func (a *Arena) NewLambda(span ident.Span, params, paramTypes []ExprId, body ExprId) ExprId {
	id := a.append(Expr{Kind: KindLambda, Span: span})
	a.lambda[id] = lambdaPayload{Params: a.AppendIds(params), ParamTypes: a.AppendIds(paramTypes), Body: body}
	return id
}

func (a *Arena) LambdaParts(id ExprId) (params, paramTypes []ExprId, body ExprId) {
	p := a.lambda[id]
	return a.Ids(p.Params), a.Ids(p.ParamTypes), p.Body
}

func (a *Arena) NewBinary(span ident.Span, op BinaryOp, l, r ExprId) ExprId {
	id := a.append(Expr{Kind: KindBinary, Span: span})
	a.binary[id] = binaryPayload{Op: op, L: l, R: r}
	return id
}

func (a *Arena) BinaryParts(id ExprId) (BinaryOp, ExprId, ExprId) {
	p := a.binary[id]
	return p.Op, p.L, p.R
}

func (a *Arena) NewUnary(span ident.Span, op UnaryOp, operand ExprId) ExprId {
	id := a.append(Expr{Kind: KindUnary, Span: span})
	a.unary[id] = unaryPayload{Op: op, Operand: operand}
	return id
}

func (a *Arena) UnaryParts(id ExprId) (UnaryOp, ExprId) {
	p := a.unary[id]
	return p.Op, p.Operand
}

func (a *Arena) NewIf(span ident.Span, cond, then, els ExprId) ExprId {
	id := a.append(Expr{Kind: KindIf, Span: span})
	a.ifExpr[id] = ifPayload{Cond: cond, Then: then, Else: els}
	return id
}

func (a *Arena) IfParts(id ExprId) (cond, then, els ExprId) {
	p := a.ifExpr[id]
	return p.Cond, p.Then, p.Else
}

func (a *Arena) NewLoop(span ident.Span, body ExprId) ExprId {
	id := a.append(Expr{Kind: KindLoop, Span: span})
	a.loopExpr[id] = loopPayload{Body: body}
	return id
}

func (a *Arena) LoopBody(id ExprId) ExprId { return a.loopExpr[id].Body }

func (a *Arena) NewFor(span ident.Span, pattern PatternId, over, body ExprId, yields bool) ExprId {
	id := a.append(Expr{Kind: KindFor, Span: span})
	a.forExpr[id] = forPayload{Pattern: pattern, Over: over, Body: body, Yields: yields}
	return id
}

func (a *Arena) ForParts(id ExprId) (pattern PatternId, over, body ExprId, yields bool) {
	p := a.forExpr[id]
	return p.Pattern, p.Over, p.Body, p.Yields
}

func (a *Arena) NewBreak(span ident.Span, value ExprId) ExprId {
	id := a.append(Expr{Kind: KindBreak, Span: span})
	a.breakExpr[id] = value
	return id
}

func (a *Arena) BreakValue(id ExprId) ExprId { return a.breakExpr[id] }

func (a *Arena) NewContinue(span ident.Span) ExprId {
	return a.append(Expr{Kind: KindContinue, Span: span})
}

func (a *Arena) NewRange(span ident.Span, lo, hi ExprId) ExprId {
	id := a.append(Expr{Kind: KindRange, Span: span})
	a.rangeExpr[id] = binPayload{A: lo, B: hi}
	return id
}

func (a *Arena) RangeParts(id ExprId) (ExprId, ExprId) {
	p := a.rangeExpr[id]
	return p.A, p.B
}

func (a *Arena) newWrap(span ident.Span, kind Kind, inner ExprId) ExprId {
	id := a.append(Expr{Kind: kind, Span: span})
	a.wrap[id] = inner
	return id
}

func (a *Arena) NewOk(span ident.Span, inner ExprId) ExprId     { return a.newWrap(span, KindOk, inner) }
func (a *Arena) NewErr(span ident.Span, inner ExprId) ExprId    { return a.newWrap(span, KindErr, inner) }
func (a *Arena) NewSome(span ident.Span, inner ExprId) ExprId   { return a.newWrap(span, KindSome, inner) }
func (a *Arena) NewNone(span ident.Span) ExprId                 { return a.append(Expr{Kind: KindNone, Span: span}) }
func (a *Arena) NewTry(span ident.Span, inner ExprId) ExprId    { return a.newWrap(span, KindTry, inner) }
func (a *Arena) NewAwait(span ident.Span, inner ExprId) ExprId  { return a.newWrap(span, KindAwait, inner) }
func (a *Arena) WrapInner(id ExprId) ExprId                     { return a.wrap[id] }

func (a *Arena) NewFunctionSeq(span ident.Span, data SeqData) ExprId {
	id := a.append(Expr{Kind: KindFunctionSeq, Span: span})
	a.seq[id] = data
	return id
}

func (a *Arena) Seq(id ExprId) SeqData { return a.seq[id] }

func (a *Arena) NewFunctionExp(span ident.Span, kind ExpKind, args []NamedArg) ExprId {
	id := a.append(Expr{Kind: KindFunctionExp, Span: span})
	a.exp[id] = ExpData{Kind: kind, Args: a.AppendNamedArgs(args)}
	return id
}

func (a *Arena) Exp(id ExprId) (ExpData, []NamedArg) {
	d := a.exp[id]
	return d, a.NamedArgs(d.Args)
}
