// Package pattern implements the Pattern Definition trait and the
// keyword-to-definition Registry that unifies the named-argument
// constructs (recurse, parallel, spawn, timeout, cache, with, print,
// panic, catch, todo, unreachable) across the checker and the evaluator.
// Adding a new built-in construct means writing one Definition, not
// separate type-check and evaluate code paths.
package pattern

import (
	"fmt"

	"ori/internal/types"
)

// PropertyType describes the expected shape of one named property,
// independent of the full type-inference machinery: most built-ins only
// need to know "this is a block/expression", "this is a duration", or
// "this is a list of branches", and defer payload typing to the
// surrounding checker context.
type PropertyType uint8

const (
	PropExpr     PropertyType = iota // a single sub-expression
	PropExprList                     // a list of sub-expressions (e.g. parallel's branches)
	PropDuration                     // a duration literal/expression
	PropInt                          // an integer literal/expression
	PropIdent                        // a bare identifier, not evaluated (e.g. a capability name)
)

// PropertySpec describes one named property a construct accepts.
type PropertySpec struct {
	Name     string
	Type     PropertyType
	Required bool
	// Default is the literal used when an optional property is omitted.
	// Only meaningful when Required is false; nil means "no default, the
	// property is simply absent".
	Default any
	// ScopedBindings names identifiers this property's sub-expression may
	// reference in addition to the enclosing scope, e.g. recurse's "step"
	// property sees a bound "self". Empty for properties that introduce
	// no extra bindings.
	ScopedBindings []string
}

// TypeCheckFn computes a construct's result type given the inferred types
// of its supplied properties (keyed by property name), or returns an
// error describing why the construct does not type-check.
type TypeCheckFn func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error)

// Definition is one Pattern-Definition-trait implementation: a built-in
// named-argument construct's complete checker- and evaluator-facing
// contract.
type Definition struct {
	Keyword         string
	Properties      []PropertySpec
	AllowExtraProps bool
	TypeCheck       TypeCheckFn
}

// RequiredProperties returns the subset of Properties that are mandatory.
func (d *Definition) RequiredProperties() []PropertySpec {
	var out []PropertySpec
	for _, p := range d.Properties {
		if p.Required {
			out = append(out, p)
		}
	}
	return out
}

// Property looks up one property's spec by name.
func (d *Definition) Property(name string) (PropertySpec, bool) {
	for _, p := range d.Properties {
		if p.Name == name {
			return p, true
		}
	}
	return PropertySpec{}, false
}

// ScopedBindingsFor returns the extra names visible within the named
// property's sub-expression, or nil if that property introduces none. The
// checker interns these into ident.Name when it binds them into the
// property's local scope.
func (d *Definition) ScopedBindingsFor(property string) []string {
	spec, ok := d.Property(property)
	if !ok {
		return nil
	}
	return spec.ScopedBindings
}

// Registry maps a construct's keyword to its Definition.
type Registry struct {
	defs map[string]*Definition
}

// NewRegistry builds a Registry pre-populated with every built-in pattern
// definition.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]*Definition)}
	for _, d := range builtins() {
		r.Register(d)
	}
	return r
}

// Register adds or replaces a definition under its keyword.
func (r *Registry) Register(d *Definition) {
	r.defs[d.Keyword] = d
}

// Lookup finds a definition by keyword.
func (r *Registry) Lookup(keyword string) (*Definition, bool) {
	d, ok := r.defs[keyword]
	return d, ok
}

// Keywords returns every registered keyword.
func (r *Registry) Keywords() []string {
	out := make([]string, 0, len(r.defs))
	for k := range r.defs {
		out = append(out, k)
	}
	return out
}

// Validate checks that supplied (required and extra) property names
// satisfy d's contract: every required property present, and no unknown
// property unless AllowExtraProps.
func (d *Definition) Validate(supplied map[string]bool) error {
	for _, p := range d.RequiredProperties() {
		if !supplied[p.Name] {
			return fmt.Errorf("%s: missing required property %q", d.Keyword, p.Name)
		}
	}
	if d.AllowExtraProps {
		return nil
	}
	known := make(map[string]bool, len(d.Properties))
	for _, p := range d.Properties {
		known[p.Name] = true
	}
	for name := range supplied {
		if !known[name] {
			return fmt.Errorf("%s: unknown property %q", d.Keyword, name)
		}
	}
	return nil
}

func builtins() []*Definition {
	same := func(prop string) TypeCheckFn {
		return func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error) {
			t, ok := propTypes[prop]
			if !ok {
				return 0, fmt.Errorf("missing inferred type for %q", prop)
			}
			return t, nil
		}
	}

	return []*Definition{
		{
			Keyword: "recurse",
			Properties: []PropertySpec{
				{Name: "base", Type: PropExpr, Required: true},
				{Name: "step", Type: PropExpr, Required: true, ScopedBindings: []string{"self"}},
			},
			TypeCheck: func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error) {
				base, ok := propTypes["base"]
				if !ok {
					return 0, fmt.Errorf("recurse: missing inferred type for base")
				}
				step, ok := propTypes["step"]
				if !ok {
					return 0, fmt.Errorf("recurse: missing inferred type for step")
				}
				if base != step {
					return 0, fmt.Errorf("recurse: base and step must have the same type, got %d and %d", base, step)
				}
				return base, nil
			},
		},
		{
			Keyword: "parallel",
			Properties: []PropertySpec{
				{Name: "branches", Type: PropExprList, Required: true},
				{Name: "on_failure", Type: PropIdent, Required: false, Default: "fail_fast"},
			},
			TypeCheck: func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error) {
				t, ok := propTypes["branches"]
				if !ok {
					return 0, fmt.Errorf("parallel: missing inferred type for branches")
				}
				return pool.List(t), nil
			},
		},
		{
			Keyword: "spawn",
			Properties: []PropertySpec{
				{Name: "tasks", Type: PropExprList, Required: true},
				{Name: "max_concurrent", Type: PropInt, Required: false},
			},
			TypeCheck: func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error) {
				return types.UNIT, nil
			},
		},
		{
			Keyword: "timeout",
			Properties: []PropertySpec{
				{Name: "operation", Type: PropExpr, Required: true},
				{Name: "after", Type: PropDuration, Required: true},
			},
			TypeCheck: func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error) {
				op, ok := propTypes["operation"]
				if !ok {
					return 0, fmt.Errorf("timeout: missing inferred type for operation")
				}
				return pool.Result(op, types.ERROR), nil
			},
		},
		{
			Keyword: "cache",
			Properties: []PropertySpec{
				{Name: "key", Type: PropExpr, Required: true},
				{Name: "compute", Type: PropExpr, Required: true},
			},
			TypeCheck: same("compute"),
		},
		{
			Keyword:         "with",
			AllowExtraProps: true,
			Properties: []PropertySpec{
				{Name: "body", Type: PropExpr, Required: true},
			},
			TypeCheck: same("body"),
		},
		{
			Keyword: "print",
			Properties: []PropertySpec{
				{Name: "value", Type: PropExpr, Required: true},
			},
			TypeCheck: func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error) {
				return types.UNIT, nil
			},
		},
		{
			Keyword: "panic",
			Properties: []PropertySpec{
				{Name: "message", Type: PropExpr, Required: true},
			},
			TypeCheck: func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error) {
				return types.NEVER, nil
			},
		},
		{
			Keyword: "catch",
			Properties: []PropertySpec{
				{Name: "body", Type: PropExpr, Required: true},
				{Name: "handler", Type: PropExpr, Required: true, ScopedBindings: []string{"error"}},
			},
			TypeCheck: same("handler"),
		},
		{
			Keyword:    "todo",
			Properties: []PropertySpec{{Name: "message", Type: PropExpr, Required: false}},
			TypeCheck: func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error) {
				return types.NEVER, nil
			},
		},
		{
			Keyword:    "unreachable",
			Properties: []PropertySpec{{Name: "message", Type: PropExpr, Required: false}},
			TypeCheck: func(pool *types.Pool, propTypes map[string]types.TypeId) (types.TypeId, error) {
				return types.NEVER, nil
			},
		},
	}
}
