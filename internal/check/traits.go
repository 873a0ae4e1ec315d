package check

import (
	"fmt"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"ori/internal/ident"
	"ori/internal/types"
)

// TraitDef is a user-declared trait: a name and the method signatures it
// requires implementors to provide.
type TraitDef struct {
	Name    ident.Name
	Methods map[ident.Name]types.TypeId // method name -> function TypeId, Self left as SELF_TYPE
}

// implKey identifies one `impl Trait for Type` block for coherence
// checking: the same (trait, type) pair may only be implemented once.
type implKey struct {
	trait ident.Name
	typ   types.TypeId
}

// MethodSource records which tier of method resolution supplied a method,
// for diagnostics and for the checker's documented priority order.
type MethodSource uint8

const (
	MethodUser MethodSource = iota
	MethodDerived
	MethodBuiltin
)

type methodEntry struct {
	fn     types.TypeId
	source MethodSource
}

// Registry holds trait declarations, impl coherence records, and the
// method table consulted by method-call resolution. One Registry is
// shared for an entire compilation unit.
type Registry struct {
	traits map[ident.Name]*TraitDef
	impls  map[implKey]bool

	// methods[typ][name] holds every tier's definition for that method;
	// ResolveMethod prefers user over derived over builtin.
	methods map[types.TypeId]map[ident.Name][]methodEntry
}

// NewRegistry creates an empty trait/method registry.
func NewRegistry() *Registry {
	return &Registry{
		traits:  make(map[ident.Name]*TraitDef),
		impls:   make(map[implKey]bool),
		methods: make(map[types.TypeId]map[ident.Name][]methodEntry),
	}
}

// DeclareTrait registers a trait definition.
func (r *Registry) DeclareTrait(t *TraitDef) {
	r.traits[t.Name] = t
}

// Trait looks up a declared trait by name.
func (r *Registry) Trait(name ident.Name) (*TraitDef, bool) {
	t, ok := r.traits[name]
	return t, ok
}

// DeclareImpl records `impl trait for typ`, rejecting a second impl of the
// same trait for the same type (coherence).
func (r *Registry) DeclareImpl(trait ident.Name, typ types.TypeId) error {
	key := implKey{trait: trait, typ: typ}
	if r.impls[key] {
		return fmt.Errorf("duplicate impl of trait %d for type %d", trait, typ)
	}
	r.impls[key] = true
	return nil
}

// Implements reports whether typ has a recorded impl of trait, either
// user-written or derived (both call DeclareImpl).
func (r *Registry) Implements(trait ident.Name, typ types.TypeId) bool {
	return r.impls[implKey{trait: trait, typ: typ}]
}

// DefineMethod adds one method to typ's method table under the given
// source tier. Multiple tiers may coexist (e.g. a builtin and a derived
// method of the same name); DefineMethod does not itself enforce priority —
// that happens in ResolveMethod.
func (r *Registry) DefineMethod(typ types.TypeId, name ident.Name, fn types.TypeId, source MethodSource) {
	if r.methods[typ] == nil {
		r.methods[typ] = make(map[ident.Name][]methodEntry)
	}
	r.methods[typ][name] = append(r.methods[typ][name], methodEntry{fn: fn, source: source})
}

// ErrMethodNotFound is returned by ResolveMethod when no tier defines the
// requested method.
var ErrMethodNotFound = fmt.Errorf("method not found")

// ResolveMethod finds (Receiver, Name)'s function type, preferring a user
// impl over a derived impl over a built-in, per spec priority order.
func (r *Registry) ResolveMethod(typ types.TypeId, name ident.Name) (types.TypeId, error) {
	entries := r.methods[typ][name]
	if len(entries) == 0 {
		return 0, ErrMethodNotFound
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.source < best.source {
			best = e
		}
	}
	return best.fn, nil
}

// MethodNames lists every method name defined for typ across all tiers, in
// a stable sorted order. The method table itself is keyed by map for O(1)
// lookup; diagnostics that enumerate "did you mean" candidates or dump a
// type's method set need that listing to come out the same way on every
// run, so the map's keys are collected and sorted rather than ranged over
// directly.
func (r *Registry) MethodNames(typ types.TypeId) []ident.Name {
	byName := r.methods[typ]
	if len(byName) == 0 {
		return nil
	}
	names := maps.Keys(byName)
	slices.Sort(names)
	return names
}
