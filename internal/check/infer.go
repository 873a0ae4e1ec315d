package check

import (
	"ori/internal/diagnostics"
	"ori/internal/ident"
	"ori/internal/ir"
	"ori/internal/match"
	"ori/internal/pattern"
	"ori/internal/types"
)

// Checker holds everything one compilation unit's body-checking pass
// needs: the expression arena being typed, the type pool, the union-find
// inference context, the trait/method registry, the pattern-construct
// registry, and the diagnostic queue inference errors are reported into.
type Checker struct {
	Arena      *ir.Arena
	Patterns   *match.Arena
	Pool       *types.Pool
	Ctx        *Context
	Traits     *Registry
	Constructs *pattern.Registry // named-argument construct definitions
	Interner   *ident.Interner
	Diags      *diagnostics.Queue

	// Types records every expression's inferred type, keyed by ExprId, for
	// consumption by ARC insertion and codegen.
	Types map[ir.ExprId]types.TypeId

	// currentReturn is the enclosing function's declared return type,
	// consulted by Try to check it propagates into a compatible shape.
	currentReturn types.TypeId
}

// NewChecker builds a Checker over an already-populated expression arena
// and pattern arena, sharing the Pool/Traits/pattern Registry across an
// entire compilation unit.
func NewChecker(arena *ir.Arena, patterns *match.Arena, pool *types.Pool, traits *Registry, patternDefs *pattern.Registry, in *ident.Interner) *Checker {
	return &Checker{
		Arena:      arena,
		Patterns:   patterns,
		Pool:       pool,
		Ctx:        NewContext(pool),
		Traits:     traits,
		Constructs: patternDefs,
		Interner:   in,
		Diags:      diagnostics.NewQueue(),
		Types:      make(map[ir.ExprId]types.TypeId),
	}
}

// SetReturnType establishes the enclosing function's declared return type
// before checking its body, for Try's propagation check.
func (c *Checker) SetReturnType(t types.TypeId) { c.currentReturn = t }

// record stores id's inferred type and returns it, so call sites can write
// `return c.record(id, t)`.
func (c *Checker) record(id ir.ExprId, t types.TypeId) types.TypeId {
	c.Types[id] = t
	return t
}

func (c *Checker) errorf(span ident.Span, code diagnostics.Code, format string, args ...any) types.TypeId {
	c.Diags.Push(diagnostics.Newf(diagnostics.Error, code, span, format, args...))
	return types.ERROR
}

func (c *Checker) unify(span ident.Span, a, b types.TypeId, context string) types.TypeId {
	if err := c.Ctx.Unify(a, b); err != nil {
		return c.errorf(span, diagnostics.ECodeTypeMismatch, "%s: %s", context, err)
	}
	return c.Ctx.Resolve(a)
}

// Infer is the single bidirectional-inference entry point: given an
// environment and an expression, it returns the expression's type,
// recording it into c.Types and pushing any diagnostics encountered.
func (c *Checker) Infer(env *Env, id ir.ExprId) types.TypeId {
	e := c.Arena.Get(id)
	switch e.Kind {
	case ir.KindIntLit:
		return c.record(id, types.INT)
	case ir.KindFloatLit:
		return c.record(id, types.FLOAT)
	case ir.KindStringLit:
		return c.record(id, types.STR)
	case ir.KindCharLit:
		return c.record(id, types.CHAR)
	case ir.KindBoolLit:
		return c.record(id, types.BOOL)
	case ir.KindDurationLit:
		return c.record(id, types.DURATION)
	case ir.KindSizeLit:
		return c.record(id, types.SIZE)

	case ir.KindIdent:
		name := c.Arena.IdentName(id)
		scheme, ok := env.Lookup(name)
		if !ok {
			return c.record(id, c.errorf(e.Span, diagnostics.ECodeUnboundName, "unknown identifier %q", c.Interner.Lookup(name)))
		}
		return c.record(id, c.Ctx.Instantiate(scheme))

	case ir.KindConst:
		name := c.Arena.ConstName(id)
		scheme, ok := env.Lookup(name)
		if !ok {
			return c.record(id, c.errorf(e.Span, diagnostics.ECodeUnboundName, "unknown configuration variable %q", c.Interner.Lookup(name)))
		}
		return c.record(id, c.Ctx.Instantiate(scheme))

	case ir.KindSelfRef:
		scheme, ok := env.Lookup(c.Interner.Intern("self"))
		if !ok {
			return c.record(id, c.errorf(e.Span, diagnostics.ECodeUnboundName, "self is not bound in this scope"))
		}
		return c.record(id, c.Ctx.Instantiate(scheme))

	case ir.KindList:
		items := c.Arena.ListItems(id)
		elem := c.Pool.Fresh()
		for _, it := range items {
			elem = c.unify(e.Span, elem, c.Infer(env, it), "list elements must share a type")
		}
		return c.record(id, c.Pool.List(elem))

	case ir.KindTuple:
		items := c.Arena.TupleItems(id)
		members := make([]types.TypeId, len(items))
		for i, it := range items {
			members[i] = c.Infer(env, it)
		}
		return c.record(id, c.Pool.Tuple(members))

	case ir.KindMap:
		keys, values := c.Arena.MapEntries(id)
		keyT := c.Pool.Fresh()
		valT := c.Pool.Fresh()
		for i := range keys {
			keyT = c.unify(e.Span, keyT, c.Infer(env, keys[i]), "map keys must share a type")
			valT = c.unify(e.Span, valT, c.Infer(env, values[i]), "map values must share a type")
		}
		return c.record(id, c.Pool.Map(keyT, valT))

	case ir.KindStruct:
		typeName, fields := c.Arena.StructFields(id)
		declT, ok := env.Lookup(typeName)
		if !ok {
			for _, f := range fields {
				c.Infer(env, f.Value)
			}
			return c.record(id, c.errorf(e.Span, diagnostics.ECodeUnboundName, "unknown type %q", c.Interner.Lookup(typeName)))
		}
		structT := c.Ctx.Instantiate(declT)
		_, _, declFields, _ := c.Pool.NamedInfo(c.Ctx.Resolve(structT))
		byName := make(map[ident.Name]types.TypeId, len(declFields))
		for _, f := range declFields {
			byName[f.Name] = f.Type
		}
		for _, f := range fields {
			fv := c.Infer(env, f.Value)
			if ft, ok := byName[f.Name]; ok {
				c.unify(e.Span, ft, fv, "field initializer type mismatch")
			} else {
				c.errorf(e.Span, diagnostics.ECodeNamedArgMismatch, "unknown field %q", c.Interner.Lookup(f.Name))
			}
		}
		return c.record(id, structT)

	case ir.KindField:
		obj, field := c.Arena.FieldAccess(id)
		objT := c.Ctx.Resolve(c.Infer(env, obj))
		if c.Pool.Tag(objT) == types.TagNamed {
			_, _, fields, _ := c.Pool.NamedInfo(objT)
			for _, f := range fields {
				if f.Name == field {
					return c.record(id, f.Type)
				}
			}
		}
		return c.record(id, c.errorf(e.Span, diagnostics.ECodeUnboundName, "unknown field %q", c.Interner.Lookup(field)))

	case ir.KindIndex:
		obj, idx := c.Arena.IndexParts(id)
		objT := c.Ctx.Resolve(c.Infer(env, obj))
		c.Infer(env, idx)
		switch c.Pool.Tag(objT) {
		case types.TagList:
			return c.record(id, c.Pool.Child(objT))
		case types.TagMap:
			_, v := c.Pool.TwoChildren(objT)
			return c.record(id, v)
		default:
			return c.record(id, c.errorf(e.Span, diagnostics.ECodeTypeMismatch, "type is not indexable"))
		}

	case ir.KindCall:
		return c.inferCall(env, id, e.Span)

	case ir.KindCallNamed:
		return c.inferCallNamed(env, id, e.Span)

	case ir.KindMethodCall, ir.KindMethodCallNamed:
		return c.inferMethodCall(env, id, e.Span)

	case ir.KindLambda:
		return c.inferLambda(env, id, e.Span)

	case ir.KindBinary:
		return c.inferBinary(env, id, e.Span)

	case ir.KindUnary:
		op, operand := c.Arena.UnaryParts(id)
		t := c.Infer(env, operand)
		if op == ir.OpNot {
			return c.record(id, c.unify(e.Span, t, types.BOOL, "! requires bool"))
		}
		return c.record(id, t)

	case ir.KindIf:
		cond, then, els := c.Arena.IfParts(id)
		c.unify(e.Span, c.Infer(env, cond), types.BOOL, "if condition must be bool")
		thenT := c.Infer(env, then)
		if els == ir.InvalidExpr {
			c.unify(e.Span, thenT, types.UNIT, "if without else must produce unit")
			return c.record(id, types.UNIT)
		}
		elsT := c.Infer(env, els)
		return c.record(id, c.unify(e.Span, thenT, elsT, "if branches must unify"))

	case ir.KindLoop:
		body := c.Arena.LoopBody(id)
		breakT := c.inferLoopBody(env, body)
		if breakT == 0 {
			return c.record(id, types.NEVER)
		}
		return c.record(id, breakT)

	case ir.KindFor:
		return c.inferFor(env, id, e.Span)

	case ir.KindBreak:
		v := c.Arena.BreakValue(id)
		if v == ir.InvalidExpr {
			return c.record(id, types.NEVER)
		}
		return c.record(id, c.Infer(env, v))

	case ir.KindContinue:
		return c.record(id, types.NEVER)

	case ir.KindRange:
		lo, hi := c.Arena.RangeParts(id)
		loT := c.Infer(env, lo)
		hiT := c.Infer(env, hi)
		elem := c.unify(e.Span, loT, hiT, "range bounds must share a type")
		return c.record(id, c.Pool.RangeOf(elem))

	case ir.KindOk:
		inner := c.Arena.WrapInner(id)
		t := c.Infer(env, inner)
		return c.record(id, c.Pool.Result(t, c.Pool.Fresh()))
	case ir.KindErr:
		inner := c.Arena.WrapInner(id)
		t := c.Infer(env, inner)
		return c.record(id, c.Pool.Result(c.Pool.Fresh(), t))
	case ir.KindSome:
		inner := c.Arena.WrapInner(id)
		t := c.Infer(env, inner)
		return c.record(id, c.Pool.Option(t))
	case ir.KindNone:
		return c.record(id, c.Pool.Option(c.Pool.Fresh()))

	case ir.KindTry:
		return c.inferTry(env, id, e.Span)

	case ir.KindAwait:
		inner := c.Arena.WrapInner(id)
		return c.record(id, c.Infer(env, inner))

	case ir.KindFunctionSeq:
		return c.inferSeq(env, id, e.Span)

	case ir.KindFunctionExp:
		return c.inferExp(env, id, e.Span)

	default:
		return c.record(id, c.errorf(e.Span, diagnostics.ECodeInternal, "checker: unhandled expression kind %d", e.Kind))
	}
}

func (c *Checker) inferBinary(env *Env, id ir.ExprId, span ident.Span) types.TypeId {
	op, l, r := c.Arena.BinaryParts(id)
	lt := c.Infer(env, l)
	rt := c.Infer(env, r)
	switch op {
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod:
		return c.record(id, c.unify(span, lt, rt, "arithmetic operands must share a type"))
	case ir.OpEq, ir.OpNe, ir.OpLt, ir.OpLe, ir.OpGt, ir.OpGe:
		c.unify(span, lt, rt, "comparison operands must share a type")
		return c.record(id, types.BOOL)
	case ir.OpAnd, ir.OpOr:
		c.unify(span, lt, types.BOOL, "logical operands must be bool")
		c.unify(span, rt, types.BOOL, "logical operands must be bool")
		return c.record(id, types.BOOL)
	default:
		return c.record(id, c.errorf(span, diagnostics.ECodeInternal, "checker: unhandled binary operator %d", op))
	}
}

func (c *Checker) inferCall(env *Env, id ir.ExprId, span ident.Span) types.TypeId {
	callee, args := c.Arena.CallParts(id)
	calleeT := c.Infer(env, callee)
	argTs := make([]types.TypeId, len(args))
	for i, a := range args {
		argTs[i] = c.Infer(env, a)
	}
	ret := c.Pool.Fresh()
	c.unify(span, calleeT, c.Pool.Function(argTs, ret), "call arguments do not match function signature")
	return c.record(id, c.Ctx.Resolve(ret))
}

func (c *Checker) inferCallNamed(env *Env, id ir.ExprId, span ident.Span) types.TypeId {
	callee, args := c.Arena.CallNamedParts(id)
	calleeT := c.Ctx.Resolve(c.Infer(env, callee))

	// Each argument expression is inferred exactly once, keyed by its
	// name.
	vals := make(map[ident.Name]types.TypeId, len(args))
	for _, a := range args {
		vals[a.Name] = c.Infer(env, a.Value)
	}

	if c.Pool.Tag(calleeT) != types.TagFunction {
		return c.record(id, c.errorf(span, diagnostics.ECodeTypeMismatch, "named call target is not a function"))
	}
	params, ret := c.Pool.FunctionParts(calleeT)
	if len(params) != len(args) {
		return c.record(id, c.errorf(span, diagnostics.ECodeArityMismatch, "expected %d named arguments, got %d", len(params), len(args)))
	}
	if len(args) != len(vals) {
		return c.record(id, c.errorf(span, diagnostics.ECodeNamedArgMismatch, "named arguments must use distinct names"))
	}
	// Function TypeIds carry parameter types, not parameter names, so a
	// named call unifies each supplied argument against the declared
	// parameter at the same position, in the order the call site wrote
	// it. Arguments are not reordered to declaration order, and argument
	// names are not checked against the callee's parameter names.
	for i, a := range args {
		c.unify(span, params[i], vals[a.Name], "named argument type mismatch")
	}
	return c.record(id, c.Ctx.Resolve(ret))
}

func (c *Checker) inferMethodCall(env *Env, id ir.ExprId, span ident.Span) types.TypeId {
	receiver, method, args, named, isNamed := c.Arena.MethodCallParts(id)
	recvT := c.Ctx.Resolve(c.Infer(env, receiver))

	argTs := make([]types.TypeId, 0, len(args)+len(named))
	if isNamed {
		for _, a := range named {
			argTs = append(argTs, c.Infer(env, a.Value))
		}
	} else {
		for _, a := range args {
			argTs = append(argTs, c.Infer(env, a))
		}
	}

	fnT, err := c.Traits.ResolveMethod(recvT, method)
	if err != nil {
		return c.record(id, c.errorf(span, diagnostics.ECodeAmbiguousMethod, "unknown method %q on this type", c.Interner.Lookup(method)))
	}
	params, ret := c.Pool.FunctionParts(c.Ctx.Resolve(fnT))
	if len(params) != len(argTs) {
		return c.record(id, c.errorf(span, diagnostics.ECodeArityMismatch, "method %q expects %d arguments, got %d", c.Interner.Lookup(method), len(params), len(argTs)))
	}
	for i := range params {
		c.unify(span, params[i], argTs[i], "method argument type mismatch")
	}
	return c.record(id, c.Ctx.Resolve(ret))
}

func (c *Checker) inferLambda(env *Env, id ir.ExprId, span ident.Span) types.TypeId {
	// Every parameter is given a fresh variable and inferred from its use
	// in the body. The type annotations LambdaParts returns alongside the
	// params are not read, so an annotated parameter is typed exactly like
	// an unannotated one.
	params, _, body := c.Arena.LambdaParts(id)
	inner := env.Child()
	paramTs := make([]types.TypeId, len(params))
	for i, p := range params {
		pt := c.Pool.Fresh()
		name := c.Arena.IdentName(p)
		inner.Bind(name, pt)
		paramTs[i] = pt
	}
	bodyT := c.Infer(inner, body)
	return c.record(id, c.Pool.Function(paramTs, bodyT))
}

// CheckSelfCapture implements the closure-self-capture rule: before
// inferring a lambda bound to name n by a let-binding, the lambda's body
// must not reference n — referencing the name being defined from inside
// its own closure would require an ARC-only reference cycle the checker
// forbids outright rather than detecting at runtime. The search descends
// only through identifiers, binary and unary operators, calls, if, field
// access and nested lambdas; a reference inside any other expression kind
// (a method call, list, sequence, ...) is not found, and a lambda
// parameter that shadows n is not excluded.
func (c *Checker) CheckSelfCapture(letName ident.Name, lambdaId ir.ExprId) bool {
	if c.Arena.Get(lambdaId).Kind != ir.KindLambda {
		return true
	}
	_, _, body := c.Arena.LambdaParts(lambdaId)
	return !c.referencesName(body, letName)
}

func (c *Checker) referencesName(id ir.ExprId, name ident.Name) bool {
	if id == ir.InvalidExpr {
		return false
	}
	e := c.Arena.Get(id)
	switch e.Kind {
	case ir.KindIdent:
		return c.Arena.IdentName(id) == name
	case ir.KindBinary:
		_, l, r := c.Arena.BinaryParts(id)
		return c.referencesName(l, name) || c.referencesName(r, name)
	case ir.KindUnary:
		_, operand := c.Arena.UnaryParts(id)
		return c.referencesName(operand, name)
	case ir.KindCall:
		callee, args := c.Arena.CallParts(id)
		if c.referencesName(callee, name) {
			return true
		}
		for _, a := range args {
			if c.referencesName(a, name) {
				return true
			}
		}
		return false
	case ir.KindIf:
		cond, then, els := c.Arena.IfParts(id)
		return c.referencesName(cond, name) || c.referencesName(then, name) || c.referencesName(els, name)
	case ir.KindField:
		obj, _ := c.Arena.FieldAccess(id)
		return c.referencesName(obj, name)
	case ir.KindLambda:
		_, _, body := c.Arena.LambdaParts(id)
		return c.referencesName(body, name)
	default:
		return false
	}
}

func (c *Checker) inferLoopBody(env *Env, body ir.ExprId) types.TypeId {
	c.Infer(env, body)
	var join types.TypeId
	var walk func(ir.ExprId)
	walk = func(id ir.ExprId) {
		if id == ir.InvalidExpr {
			return
		}
		e := c.Arena.Get(id)
		if e.Kind == ir.KindBreak {
			v := c.Arena.BreakValue(id)
			var t types.TypeId
			if v == ir.InvalidExpr {
				t = types.UNIT
			} else {
				t = c.Types[v]
			}
			if join == 0 {
				join = t
			} else {
				c.unify(e.Span, join, t, "break values must share a type")
			}
		}
		// Loop/lambda boundaries own their own break scope, so this
		// search does not need to descend into them.
	}
	walk(body)
	return join
}

func (c *Checker) inferFor(env *Env, id ir.ExprId, span ident.Span) types.TypeId {
	patId, over, body, yields := c.Arena.ForParts(id)
	overT := c.Ctx.Resolve(c.Infer(env, over))

	var elemT types.TypeId
	switch c.Pool.Tag(overT) {
	case types.TagList:
		elemT = c.Pool.Child(overT)
	case types.TagRange:
		elemT = c.Pool.Child(overT)
	default:
		elemT = c.errorf(span, diagnostics.ECodeTypeMismatch, "for-loop source must be a list or range")
	}

	inner := env.Child()
	c.bindPattern(inner, patId, elemT)
	bodyT := c.Infer(inner, body)

	if yields {
		return c.record(id, c.Pool.List(bodyT))
	}
	return c.record(id, types.UNIT)
}

// bindPattern binds every name a pattern introduces into env at the given
// scrutinee type. It does not validate structural compatibility beyond
// what the match decision-tree compiler already checks during match
// compilation; this entry point exists for for-loop and let-binding
// patterns, which bind without branching.
func (c *Checker) bindPattern(env *Env, id ir.PatternId, t types.TypeId) {
	switch c.Patterns.Kind(id) {
	case match.PatWildcard:
		return
	case match.PatBind:
		env.Bind(c.Patterns.BindName(id), t)
	case match.PatTuple:
		if c.Pool.Tag(t) == types.TagTuple {
			members := c.Pool.TupleMembers(t)
			for i, sub := range c.Patterns.TupleElems(id) {
				if i < len(members) {
					c.bindPattern(env, sub, members[i])
				} else {
					c.bindPattern(env, sub, c.Pool.Fresh())
				}
			}
		}
	case match.PatList:
		head, hasRest, restName := c.Patterns.ListParts(id)
		elem := t
		if c.Pool.Tag(t) == types.TagList {
			elem = c.Pool.Child(t)
		}
		for _, sub := range head {
			c.bindPattern(env, sub, elem)
		}
		if hasRest && restName != ident.Empty {
			env.Bind(restName, c.Pool.List(elem))
		}
	case match.PatStruct:
		_, fields, _ := c.Patterns.StructParts(id)
		var declFields []types.StructField
		if c.Pool.Tag(t) == types.TagNamed {
			_, _, declFields, _ = c.Pool.NamedInfo(t)
		}
		byName := make(map[ident.Name]types.TypeId, len(declFields))
		for _, f := range declFields {
			byName[f.Name] = f.Type
		}
		for _, f := range fields {
			ft, ok := byName[f.Name]
			if !ok {
				ft = c.Pool.Fresh()
			}
			c.bindPattern(env, f.Sub, ft)
		}
	case match.PatConstructor:
		_, args := c.Patterns.ConstructorParts(id)
		for _, sub := range args {
			c.bindPattern(env, sub, c.Pool.Fresh())
		}
	}
}

func (c *Checker) inferTry(env *Env, id ir.ExprId, span ident.Span) types.TypeId {
	inner := c.Arena.WrapInner(id)
	innerT := c.Ctx.Resolve(c.Infer(env, inner))

	switch c.Pool.Tag(innerT) {
	case types.TagResult:
		ok, errT := c.Pool.TwoChildren(innerT)
		if c.currentReturn != 0 {
			retT := c.Ctx.Resolve(c.currentReturn)
			if c.Pool.Tag(retT) == types.TagResult {
				_, retErr := c.Pool.TwoChildren(retT)
				c.unify(span, errT, retErr, "try's error type must match the function's return type")
			} else {
				c.errorf(span, diagnostics.ECodeTryOutsideFallible, "try requires an enclosing function returning Result or Option")
			}
		}
		return c.record(id, ok)
	case types.TagOption:
		elem := c.Pool.Child(innerT)
		if c.currentReturn != 0 {
			retT := c.Ctx.Resolve(c.currentReturn)
			if c.Pool.Tag(retT) != types.TagOption && c.Pool.Tag(retT) != types.TagResult {
				c.errorf(span, diagnostics.ECodeTryOutsideFallible, "try requires an enclosing function returning Result or Option")
			}
		}
		return c.record(id, elem)
	default:
		return c.record(id, c.errorf(span, diagnostics.ECodeTypeMismatch, "try requires a Result or Option operand"))
	}
}

func (c *Checker) inferSeq(env *Env, id ir.ExprId, span ident.Span) types.TypeId {
	data := c.Arena.Seq(id)
	switch data.Kind {
	case ir.SeqRun, ir.SeqTry:
		inner := env.Child()
		for _, b := range c.Arena.Bindings(data.Bindings) {
			if b.IsStmt {
				c.Infer(inner, b.Init)
				continue
			}
			initT := c.Infer(inner, b.Init)
			c.bindPattern(inner, b.Pattern, initT)
		}
		return c.record(id, c.Infer(inner, data.Result))

	case ir.SeqMatch:
		scrutT := c.Infer(env, data.Scrutinee)
		var result types.TypeId
		arms := c.Arena.Arms(data.Arms)
		patRefs := make([]match.PatternRef, len(arms))
		for i, arm := range arms {
			patRefs[i] = arm.Pattern
			armEnv := env.Child()
			c.bindPattern(armEnv, arm.Pattern, scrutT)
			if arm.Guard != ir.InvalidExpr {
				c.unify(span, c.Infer(armEnv, arm.Guard), types.BOOL, "match guard must be bool")
			}
			bodyT := c.Infer(armEnv, arm.Body)
			if result == 0 {
				result = bodyT
			} else {
				result = c.unify(span, result, bodyT, "match arms must unify")
			}
		}
		decision := match.CompilePatterns(c.Patterns, patRefs)
		if decision.Kind == match.DecisionFail && len(arms) > 0 {
			c.Diags.Push(diagnostics.New(diagnostics.Warning, diagnostics.WCodeNonExhaustiveSoft, span, "match may not cover every case"))
		}
		if result == 0 {
			result = types.UNIT
		}
		return c.record(id, result)

	case ir.SeqForPattern:
		overT := c.Ctx.Resolve(c.Infer(env, data.Over))
		elem := overT
		if c.Pool.Tag(overT) == types.TagList || c.Pool.Tag(overT) == types.TagRange {
			elem = c.Pool.Child(overT)
		}
		armEnv := env.Child()
		c.bindPattern(armEnv, data.Arm, elem)
		armT := c.Infer(armEnv, data.ArmBody)
		if data.Default != ir.InvalidExpr {
			defT := c.Infer(env, data.Default)
			armT = c.unify(span, armT, defT, "for-pattern default must match arm type")
		}
		return c.record(id, c.Pool.List(armT))

	default:
		return c.record(id, c.errorf(span, diagnostics.ECodeInternal, "checker: unhandled sequence kind %d", data.Kind))
	}
}

var expKeywords = map[ir.ExpKind]string{
	ir.ExpRecurse:     "recurse",
	ir.ExpParallel:    "parallel",
	ir.ExpSpawn:       "spawn",
	ir.ExpTimeout:     "timeout",
	ir.ExpCache:       "cache",
	ir.ExpWith:        "with",
	ir.ExpPrint:       "print",
	ir.ExpPanic:       "panic",
	ir.ExpCatch:       "catch",
	ir.ExpTodo:        "todo",
	ir.ExpUnreachable: "unreachable",
}

func (c *Checker) inferExp(env *Env, id ir.ExprId, span ident.Span) types.TypeId {
	data, args := c.Arena.Exp(id)
	keyword := expKeywords[data.Kind]
	def, ok := c.Constructs.Lookup(keyword)
	if !ok {
		return c.record(id, c.errorf(span, diagnostics.ECodeInternal, "checker: no pattern definition for keyword %q", keyword))
	}

	supplied := make(map[string]bool, len(args))
	propTypes := make(map[string]types.TypeId, len(args))
	for _, a := range args {
		name := c.Interner.Lookup(a.Name)
		supplied[name] = true
		scoped := def.ScopedBindingsFor(name)
		propEnv := env
		if len(scoped) > 0 {
			propEnv = env.Child()
			for _, s := range scoped {
				propEnv.Bind(c.Interner.Intern(s), c.Pool.Fresh())
			}
		}

		valueT := c.Infer(propEnv, a.Value)
		if spec, ok := def.Property(name); ok && spec.Type == pattern.PropExprList {
			// A PropExprList property's Value expression is the IR list
			// literal carrying the branches (e.g. parallel's `branches`);
			// TypeCheck wants the branches' own shared element type, not
			// the type of the list wrapping them.
			elem := c.Pool.Fresh()
			for _, item := range c.Arena.ListItems(a.Value) {
				elem = c.unify(span, elem, c.Types[item], "branch expressions must share a type")
			}
			valueT = elem
		}
		propTypes[name] = valueT
	}
	if err := def.Validate(supplied); err != nil {
		return c.record(id, c.errorf(span, diagnostics.ECodeNamedArgMismatch, "%s", err))
	}
	resultT, err := def.TypeCheck(c.Pool, propTypes)
	if err != nil {
		return c.record(id, c.errorf(span, diagnostics.ECodeTypeMismatch, "%s", err))
	}
	return c.record(id, resultT)
}
