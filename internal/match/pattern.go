// Package match stores patterns and compiles them into decision trees for
// match-arm dispatch. Supported pattern shapes: wildcard, literal, binding,
// tuple, struct (with optional rest), list (with head/tail rest),
// constructor/variant (including Ok/Err/Some/None), and guards (handled at
// the arm level, not as a pattern shape, per spec.md's "guarded patterns").
package match

import (
	"ori/internal/ident"
	"ori/internal/ir"
)

// PatternKind discriminates a pattern node's shape.
type PatternKind uint8

const (
	PatWildcard PatternKind = iota
	PatLiteralInt
	PatLiteralFloat
	PatLiteralString
	PatLiteralChar
	PatLiteralBool
	PatBind   // plain identifier binding ("x"), always irrefutable
	PatTuple
	PatStruct
	PatList
	PatConstructor // enum variant, Ok/Err/Some/None
)

// StructPatField is one named field of a struct pattern.
type StructPatField struct {
	Name ident.Name
	Sub  ir.PatternId
}

// node is one pattern-arena entry. Only the fields relevant to Kind are
// populated.
type node struct {
	kind PatternKind

	// literals
	i int64
	f float64
	s string
	c rune
	b bool

	// bind
	name ident.Name

	// tuple / list elements
	elems []ir.PatternId

	// list-specific: rest binding after head elements (nil = no rest)
	hasRest  bool
	restName ident.Name

	// struct
	typeName ident.Name
	fields   []StructPatField
	hasStructRest bool

	// constructor
	ctorName ident.Name // variant name, or "Ok"/"Err"/"Some"/"None"
	ctorArgs []ir.PatternId
}

// Arena stores patterns for one compilation unit, addressed by ir.PatternId.
type Arena struct {
	nodes []node
}

// NewArena creates an empty pattern arena. PatternId 0 is reserved as
// "invalid".
func NewArena() *Arena {
	return &Arena{nodes: []node{{}}}
}

const Invalid ir.PatternId = 0

func (a *Arena) append(n node) ir.PatternId {
	id := ir.PatternId(len(a.nodes))
	a.nodes = append(a.nodes, n)
	return id
}

func (a *Arena) Kind(id ir.PatternId) PatternKind { return a.nodes[id].kind }

func (a *Arena) NewWildcard() ir.PatternId { return a.append(node{kind: PatWildcard}) }

func (a *Arena) NewLiteralInt(v int64) ir.PatternId {
	return a.append(node{kind: PatLiteralInt, i: v})
}
func (a *Arena) NewLiteralFloat(v float64) ir.PatternId {
	return a.append(node{kind: PatLiteralFloat, f: v})
}
func (a *Arena) NewLiteralString(v string) ir.PatternId {
	return a.append(node{kind: PatLiteralString, s: v})
}
func (a *Arena) NewLiteralChar(v rune) ir.PatternId {
	return a.append(node{kind: PatLiteralChar, c: v})
}
func (a *Arena) NewLiteralBool(v bool) ir.PatternId {
	return a.append(node{kind: PatLiteralBool, b: v})
}

func (a *Arena) LiteralInt(id ir.PatternId) int64     { return a.nodes[id].i }
func (a *Arena) LiteralFloat(id ir.PatternId) float64 { return a.nodes[id].f }
func (a *Arena) LiteralString(id ir.PatternId) string { return a.nodes[id].s }
func (a *Arena) LiteralChar(id ir.PatternId) rune     { return a.nodes[id].c }
func (a *Arena) LiteralBool(id ir.PatternId) bool     { return a.nodes[id].b }

// NewBind creates a plain identifier-binding pattern (`x`), always
// irrefutable.
func (a *Arena) NewBind(name ident.Name) ir.PatternId {
	return a.append(node{kind: PatBind, name: name})
}

func (a *Arena) BindName(id ir.PatternId) ident.Name {
	return a.nodes[id].name
}

func (a *Arena) NewTuple(elems []ir.PatternId) ir.PatternId {
	return a.append(node{kind: PatTuple, elems: append([]ir.PatternId(nil), elems...)})
}

func (a *Arena) TupleElems(id ir.PatternId) []ir.PatternId { return a.nodes[id].elems }

// NewList creates a list pattern: fixed head elements plus an optional rest
// binding capturing the remaining tail.
func (a *Arena) NewList(head []ir.PatternId, hasRest bool, restName ident.Name) ir.PatternId {
	return a.append(node{kind: PatList, elems: append([]ir.PatternId(nil), head...), hasRest: hasRest, restName: restName})
}

func (a *Arena) ListParts(id ir.PatternId) (head []ir.PatternId, hasRest bool, restName ident.Name) {
	n := a.nodes[id]
	return n.elems, n.hasRest, n.restName
}

// NewStruct creates a struct pattern. hasRest marks `{ x, .. }` patterns
// that don't bind every field.
func (a *Arena) NewStruct(typeName ident.Name, fields []StructPatField, hasRest bool) ir.PatternId {
	return a.append(node{kind: PatStruct, typeName: typeName, fields: append([]StructPatField(nil), fields...), hasStructRest: hasRest})
}

func (a *Arena) StructParts(id ir.PatternId) (ident.Name, []StructPatField, bool) {
	n := a.nodes[id]
	return n.typeName, n.fields, n.hasStructRest
}

// NewConstructor creates a sum-type variant or Ok/Err/Some/None pattern.
func (a *Arena) NewConstructor(ctorName ident.Name, args []ir.PatternId) ir.PatternId {
	return a.append(node{kind: PatConstructor, ctorName: ctorName, ctorArgs: append([]ir.PatternId(nil), args...)})
}

func (a *Arena) ConstructorParts(id ir.PatternId) (ident.Name, []ir.PatternId) {
	n := a.nodes[id]
	return n.ctorName, n.ctorArgs
}
