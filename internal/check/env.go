package check

import (
	"ori/internal/ident"
	"ori/internal/types"
)

// Env is a lexical scope chain binding names to (possibly polymorphic)
// schemes. Each nested scope (function body, block, match arm, lambda
// parameter list) gets its own Env with the enclosing scope as parent;
// lookups walk outward. Bindings are immutable once made — shadowing adds
// a new entry in the current scope rather than mutating an outer one.
type Env struct {
	parent *Env
	names  map[ident.Name]types.TypeId
}

// NewEnv creates a root scope with no parent.
func NewEnv() *Env {
	return &Env{names: make(map[ident.Name]types.TypeId)}
}

// Child creates a nested scope.
func (e *Env) Child() *Env {
	return &Env{parent: e, names: make(map[ident.Name]types.TypeId)}
}

// Bind introduces name at the given type (a monotype for parameters and
// let-bound locals, or a Scheme type id for generalized top-level
// bindings) into this scope.
func (e *Env) Bind(name ident.Name, t types.TypeId) {
	e.names[name] = t
}

// Lookup finds name's bound type by walking outward through parent
// scopes, reporting false if it is unbound anywhere in the chain.
func (e *Env) Lookup(name ident.Name) (types.TypeId, bool) {
	for s := e; s != nil; s = s.parent {
		if t, ok := s.names[name]; ok {
			return t, true
		}
	}
	return 0, false
}

// FreeInEnv collects every unresolved type variable reachable from any
// binding visible in this scope chain, used by Generalize to avoid
// quantifying over variables that are still constrained by an enclosing
// binding.
func (e *Env) FreeInEnv(c *Context) map[types.TypeId]bool {
	free := map[types.TypeId]bool{}
	var collect func(types.TypeId)
	collect = func(t types.TypeId) {
		t = c.Resolve(t)
		if c.pool.IsVar(t) {
			free[t] = true
			return
		}
		switch c.pool.Tag(t) {
		case types.TagList, types.TagOption, types.TagSet, types.TagChannel, types.TagRange:
			collect(c.pool.Child(t))
		case types.TagMap, types.TagResult, types.TagBorrowed:
			a, b := c.pool.TwoChildren(t)
			collect(a)
			collect(b)
		case types.TagFunction:
			params, ret := c.pool.FunctionParts(t)
			for _, p := range params {
				collect(p)
			}
			collect(ret)
		case types.TagTuple:
			for _, m := range c.pool.TupleMembers(t) {
				collect(m)
			}
		case types.TagNamed:
			_, args, _, _ := c.pool.NamedInfo(t)
			for _, a := range args {
				collect(a)
			}
		case types.TagAlias:
			collect(c.pool.AliasTarget(t))
		}
	}
	for s := e; s != nil; s = s.parent {
		for _, t := range s.names {
			collect(t)
		}
	}
	return free
}
