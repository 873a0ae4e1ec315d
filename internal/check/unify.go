// Package check implements the bidirectional type checker: union-find
// inference over the type pool, scheme generalization, trait/impl
// coherence, derive-strategy dispatch, and the per-construct inference
// rules that walk the canonical IR.
package check

import (
	"fmt"

	"ori/internal/types"
)

// Context is one function body's (or top-level's) inference state: the
// union-find substitution over fresh type variables produced during this
// compilation. Substitutions are never removed, only added, matching the
// type pool's own append-only discipline.
type Context struct {
	pool  *types.Pool
	subst map[types.TypeId]types.TypeId
}

// NewContext creates an inference context over pool.
func NewContext(pool *types.Pool) *Context {
	return &Context{pool: pool, subst: make(map[types.TypeId]types.TypeId)}
}

// Resolve walks id through the union-find chain to its current
// representative. Non-variable types, and variables with no recorded
// substitution, resolve to themselves.
func (c *Context) Resolve(id types.TypeId) types.TypeId {
	for c.pool.IsVar(id) {
		next, ok := c.subst[id]
		if !ok {
			return id
		}
		id = next
	}
	return id
}

// Unify makes a and b equal, recording a substitution for whichever side is
// an unresolved variable. Returns an error describing the mismatch if a
// and b can never be made equal.
func (c *Context) Unify(a, b types.TypeId) error {
	a, b = c.Resolve(a), c.Resolve(b)
	if a == b {
		return nil
	}
	if c.pool.IsVar(a) {
		if occursIn(c, a, b) {
			return fmt.Errorf("infinite type: %s occurs in %s", c.pool.Format(a, nil, c.Resolve), c.pool.Format(b, nil, c.Resolve))
		}
		c.subst[a] = b
		return nil
	}
	if c.pool.IsVar(b) {
		return c.Unify(b, a)
	}

	ta, tb := c.pool.Tag(a), c.pool.Tag(b)
	if ta != tb {
		return fmt.Errorf("type mismatch: %s vs %s", c.pool.Format(a, nil, c.Resolve), c.pool.Format(b, nil, c.Resolve))
	}

	switch ta {
	case types.TagPrimitive:
		if a != b {
			return fmt.Errorf("type mismatch: %s vs %s", c.pool.Format(a, nil, c.Resolve), c.pool.Format(b, nil, c.Resolve))
		}
		return nil
	case types.TagList, types.TagOption, types.TagSet, types.TagChannel, types.TagRange:
		return c.Unify(c.pool.Child(a), c.pool.Child(b))
	case types.TagMap, types.TagResult, types.TagBorrowed:
		a1, a2 := c.pool.TwoChildren(a)
		b1, b2 := c.pool.TwoChildren(b)
		if err := c.Unify(a1, b1); err != nil {
			return err
		}
		return c.Unify(a2, b2)
	case types.TagFunction:
		ap, ar := c.pool.FunctionParts(a)
		bp, br := c.pool.FunctionParts(b)
		if len(ap) != len(bp) {
			return fmt.Errorf("function arity mismatch: %d vs %d", len(ap), len(bp))
		}
		for i := range ap {
			if err := c.Unify(ap[i], bp[i]); err != nil {
				return err
			}
		}
		return c.Unify(ar, br)
	case types.TagTuple:
		am, bm := c.pool.TupleMembers(a), c.pool.TupleMembers(b)
		if len(am) != len(bm) {
			return fmt.Errorf("tuple arity mismatch: %d vs %d", len(am), len(bm))
		}
		for i := range am {
			if err := c.Unify(am[i], bm[i]); err != nil {
				return err
			}
		}
		return nil
	case types.TagNamed:
		an, aargs, _, _ := c.pool.NamedInfo(a)
		bn, bargs, _, _ := c.pool.NamedInfo(b)
		if an != bn || len(aargs) != len(bargs) {
			return fmt.Errorf("named-type mismatch: %s vs %s", c.pool.Format(a, nil, c.Resolve), c.pool.Format(b, nil, c.Resolve))
		}
		for i := range aargs {
			if err := c.Unify(aargs[i], bargs[i]); err != nil {
				return err
			}
		}
		return nil
	case types.TagAlias:
		return c.Unify(c.pool.AliasTarget(a), c.pool.AliasTarget(b))
	case types.TagRigidVar:
		if a != b {
			return fmt.Errorf("rigid type variable mismatch: %s vs %s", c.pool.Format(a, nil, c.Resolve), c.pool.Format(b, nil, c.Resolve))
		}
		return nil
	default:
		return fmt.Errorf("cannot unify shape %d", ta)
	}
}

// occursIn reports whether the variable v appears free within t, which
// would make v = t an infinite type.
func occursIn(c *Context, v, t types.TypeId) bool {
	t = c.Resolve(t)
	if t == v {
		return true
	}
	switch c.pool.Tag(t) {
	case types.TagList, types.TagOption, types.TagSet, types.TagChannel, types.TagRange:
		return occursIn(c, v, c.pool.Child(t))
	case types.TagMap, types.TagResult, types.TagBorrowed:
		a, b := c.pool.TwoChildren(t)
		return occursIn(c, v, a) || occursIn(c, v, b)
	case types.TagFunction:
		params, ret := c.pool.FunctionParts(t)
		for _, p := range params {
			if occursIn(c, v, p) {
				return true
			}
		}
		return occursIn(c, v, ret)
	case types.TagTuple:
		for _, m := range c.pool.TupleMembers(t) {
			if occursIn(c, v, m) {
				return true
			}
		}
		return false
	case types.TagNamed:
		_, args, _, _ := c.pool.NamedInfo(t)
		for _, a := range args {
			if occursIn(c, v, a) {
				return true
			}
		}
		return false
	case types.TagAlias:
		return occursIn(c, v, c.pool.AliasTarget(t))
	default:
		return false
	}
}

// Instantiate replaces a scheme's quantified variables with fresh ones,
// returning the monomorphic instance used at one particular reference.
func (c *Context) Instantiate(scheme types.TypeId) types.TypeId {
	if c.pool.Tag(scheme) != types.TagScheme {
		return scheme
	}
	quantifiers, body := c.pool.SchemeParts(scheme)
	if len(quantifiers) == 0 {
		return body
	}
	fresh := make(map[types.TypeId]types.TypeId, len(quantifiers))
	for _, q := range quantifiers {
		fresh[q] = c.pool.Fresh()
	}
	return substitute(c.pool, body, fresh)
}

// substitute rewrites t, replacing any variable found in repl by its
// mapped replacement. Used to instantiate a scheme's quantified
// variables; unlike Resolve/Unify, this walks the whole type shape so
// variables nested inside containers and functions are replaced too.
func substitute(pool *types.Pool, t types.TypeId, repl map[types.TypeId]types.TypeId) types.TypeId {
	if r, ok := repl[t]; ok {
		return r
	}
	switch pool.Tag(t) {
	case types.TagList:
		return pool.List(substitute(pool, pool.Child(t), repl))
	case types.TagOption:
		return pool.Option(substitute(pool, pool.Child(t), repl))
	case types.TagSet:
		return pool.Set(substitute(pool, pool.Child(t), repl))
	case types.TagChannel:
		return pool.Channel(substitute(pool, pool.Child(t), repl))
	case types.TagRange:
		return pool.RangeOf(substitute(pool, pool.Child(t), repl))
	case types.TagMap:
		k, v := pool.TwoChildren(t)
		return pool.Map(substitute(pool, k, repl), substitute(pool, v, repl))
	case types.TagResult:
		ok, errT := pool.TwoChildren(t)
		return pool.Result(substitute(pool, ok, repl), substitute(pool, errT, repl))
	case types.TagBorrowed:
		of, _ := pool.TwoChildren(t)
		return pool.Borrowed(substitute(pool, of, repl))
	case types.TagFunction:
		params, ret := pool.FunctionParts(t)
		np := make([]types.TypeId, len(params))
		for i, p := range params {
			np[i] = substitute(pool, p, repl)
		}
		return pool.Function(np, substitute(pool, ret, repl))
	case types.TagTuple:
		members := pool.TupleMembers(t)
		nm := make([]types.TypeId, len(members))
		for i, m := range members {
			nm[i] = substitute(pool, m, repl)
		}
		return pool.Tuple(nm)
	case types.TagNamed:
		name, args, fields, variants := pool.NamedInfo(t)
		nargs := make([]types.TypeId, len(args))
		for i, a := range args {
			nargs[i] = substitute(pool, a, repl)
		}
		return pool.Named(name, nargs, fields, variants)
	case types.TagAlias:
		return pool.Alias(0, substitute(pool, pool.AliasTarget(t), repl))
	default:
		return t
	}
}

// Generalize produces a scheme over t, quantifying every unresolved
// variable in t that is not free in env (the caller passes the set of
// variables already bound in the enclosing environment, so let-bound
// locals generalize over exactly the variables introduced by their own
// initializer).
func (c *Context) Generalize(t types.TypeId, envFree map[types.TypeId]bool) types.TypeId {
	seen := map[types.TypeId]bool{}
	var quantifiers []types.TypeId
	var walk func(types.TypeId)
	walk = func(id types.TypeId) {
		id = c.Resolve(id)
		if seen[id] {
			return
		}
		seen[id] = true
		if c.pool.IsVar(id) {
			if !envFree[id] {
				quantifiers = append(quantifiers, id)
			}
			return
		}
		switch c.pool.Tag(id) {
		case types.TagList, types.TagOption, types.TagSet, types.TagChannel, types.TagRange:
			walk(c.pool.Child(id))
		case types.TagMap, types.TagResult, types.TagBorrowed:
			a, b := c.pool.TwoChildren(id)
			walk(a)
			walk(b)
		case types.TagFunction:
			params, ret := c.pool.FunctionParts(id)
			for _, p := range params {
				walk(p)
			}
			walk(ret)
		case types.TagTuple:
			for _, m := range c.pool.TupleMembers(id) {
				walk(m)
			}
		case types.TagNamed:
			_, args, _, _ := c.pool.NamedInfo(id)
			for _, a := range args {
				walk(a)
			}
		case types.TagAlias:
			walk(c.pool.AliasTarget(id))
		}
	}
	walk(t)
	if len(quantifiers) == 0 {
		return t
	}
	return c.pool.Scheme(quantifiers, t)
}
