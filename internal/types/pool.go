// Package types implements the ori compiler's hash-consed type pool: every
// distinct type shape is stored once, and equality of non-variable types is
// identity of their TypeId.
package types

import (
	"fmt"
	"strings"

	"ori/internal/ident"
)

// TypeId is a handle into a Pool. Primitive types occupy fixed low indices;
// compound types are assigned as they are interned.
type TypeId uint32

// Primitive indices, fixed across every Pool instance.
const (
	INT TypeId = iota
	FLOAT
	BOOL
	STR
	CHAR
	BYTE
	UNIT
	NEVER
	ERROR
	DURATION
	SIZE
	ORDERING
	INFER
	SELF_TYPE
	firstCompound
)

// Tag is the 8-bit shape discriminator of a pool item.
type Tag uint8

const (
	TagPrimitive Tag = iota // primitives are identity-indexed

	// One-child containers
	TagList
	TagOption
	TagSet
	TagChannel
	TagRange

	// Two-child containers
	TagMap
	TagResult
	TagBorrowed

	// Multi-child
	TagFunction
	TagTuple
	TagStruct
	TagEnum
	TagAlias

	// Nominal named types
	TagNamed

	// Type variables
	TagVar
	TagRigidVar

	// Generalized schemes
	TagScheme
)

// item is a hash-consed pool entry: (Tag, Data). For one-child shapes Data
// is the child TypeId directly; for multi-child shapes Data is an offset
// into extra.
type item struct {
	tag  Tag
	data uint32
}

// StructField is a named, ordered field of a struct type.
type StructField struct {
	Name ident.Name
	Type TypeId
}

// EnumVariant is a named sum-type alternative with an ordered payload.
type EnumVariant struct {
	Name    ident.Name
	Payload []TypeId
}

// extraFunction is the shape stored in extra for TagFunction.
type extraFunction struct {
	params []TypeId
	ret    TypeId
}

// extraNamed is the shape stored in extra for TagNamed: a declared type with
// a display name and the underlying structural definition (struct fields or
// enum variants, whichever applies), plus generic arguments at this use.
type extraNamed struct {
	name     ident.Name
	args     []TypeId
	fields   []StructField
	variants []EnumVariant
}

// extraScheme is the shape for TagScheme: a polymorphic type with a
// quantifier list over type variables free in body.
type extraScheme struct {
	quantifiers []TypeId
	body        TypeId
}

// Pool is a hash-consed store of types. Equality of two non-variable types
// is equality of their TypeId; fresh type variables are never hash-consed
// and always receive a new id.
type Pool struct {
	items []item
	index map[item]TypeId // structural dedup for shapes with inline data

	// extra arrays, append-only, one per multi-child tag family.
	extraFunc   []extraFunction
	extraTuple  [][]TypeId
	extraNamed  []extraNamed
	extraScheme []extraScheme
	extraAlias  []TypeId // alias -> aliased type

	// structural dedup for the extra-backed shapes, keyed by a rendered
	// signature since extra payloads aren't comparable map keys directly.
	structIndex map[string]TypeId

	nextVar uint32
}

// NewPool creates a Pool with the fourteen primitives pre-interned at their
// fixed indices.
func NewPool() *Pool {
	p := &Pool{
		index:       make(map[item]TypeId),
		structIndex: make(map[string]TypeId),
	}
	for i := TypeId(0); i < firstCompound; i++ {
		p.items = append(p.items, item{tag: TagPrimitive, data: uint32(i)})
	}
	return p
}

func (p *Pool) intern(it item) TypeId {
	if id, ok := p.index[it]; ok {
		return id
	}
	id := TypeId(len(p.items))
	p.items = append(p.items, it)
	p.index[it] = id
	return id
}

// List interns List<elem>.
func (p *Pool) List(elem TypeId) TypeId { return p.intern(item{TagList, uint32(elem)}) }

// Option interns Option<elem>.
func (p *Pool) Option(elem TypeId) TypeId { return p.intern(item{TagOption, uint32(elem)}) }

// Set interns Set<elem>.
func (p *Pool) Set(elem TypeId) TypeId { return p.intern(item{TagSet, uint32(elem)}) }

// Channel interns Channel<elem>.
func (p *Pool) Channel(elem TypeId) TypeId { return p.intern(item{TagChannel, uint32(elem)}) }

// RangeOf interns Range<elem>.
func (p *Pool) RangeOf(elem TypeId) TypeId { return p.intern(item{TagRange, uint32(elem)}) }

// twoChild interns a two-child shape. Both children are stored in the
// extra-tuple table and the 32-bit data field holds their offset, so
// neither child is truncated.
func (p *Pool) twoChild(tag Tag, a, b TypeId) TypeId {
	sig := fmt.Sprintf("%d:%d:%d", tag, a, b)
	if id, ok := p.structIndex[sig]; ok {
		return id
	}
	offset := len(p.extraTuple)
	p.extraTuple = append(p.extraTuple, []TypeId{a, b})
	id := TypeId(len(p.items))
	p.items = append(p.items, item{tag: tag, data: uint32(offset)})
	p.structIndex[sig] = id
	return id
}

// Map interns Map<key,value>.
func (p *Pool) Map(key, value TypeId) TypeId { return p.twoChild(TagMap, key, value) }

// Result interns Result<ok,err>.
func (p *Pool) Result(ok, err TypeId) TypeId { return p.twoChild(TagResult, ok, err) }

// Borrowed interns a borrowed view of a type (the second child is unused,
// held as the same type for symmetry with other two-child shapes).
func (p *Pool) Borrowed(of TypeId) TypeId { return p.twoChild(TagBorrowed, of, of) }

// TwoChildren returns the two children of a Map/Result/Borrowed type.
func (p *Pool) TwoChildren(id TypeId) (TypeId, TypeId) {
	it := p.items[id]
	pair := p.extraTuple[it.data]
	return pair[0], pair[1]
}

// Function interns a function type from parameter types and a return type.
func (p *Pool) Function(params []TypeId, ret TypeId) TypeId {
	sig := sigInts(params, "fn", uint32(ret))
	if id, ok := p.structIndex[sig]; ok {
		return id
	}
	cp := append([]TypeId(nil), params...)
	offset := len(p.extraFunc)
	p.extraFunc = append(p.extraFunc, extraFunction{params: cp, ret: ret})
	id := TypeId(len(p.items))
	p.items = append(p.items, item{tag: TagFunction, data: uint32(offset)})
	p.structIndex[sig] = id
	return id
}

// FunctionParts returns the parameter types and return type of a Function.
func (p *Pool) FunctionParts(id TypeId) ([]TypeId, TypeId) {
	it := p.items[id]
	f := p.extraFunc[it.data]
	return f.params, f.ret
}

// Tuple interns a tuple type from its member types. A single-element tuple
// (distinguished in source by a trailing comma) is still a TagTuple of
// length one, not collapsed to its member type.
func (p *Pool) Tuple(members []TypeId) TypeId {
	sig := sigInts(members, "tuple", 0)
	if id, ok := p.structIndex[sig]; ok {
		return id
	}
	cp := append([]TypeId(nil), members...)
	offset := len(p.extraTuple)
	p.extraTuple = append(p.extraTuple, cp)
	id := TypeId(len(p.items))
	p.items = append(p.items, item{tag: TagTuple, data: uint32(offset)})
	p.structIndex[sig] = id
	return id
}

// TupleMembers returns the member types of a tuple.
func (p *Pool) TupleMembers(id TypeId) []TypeId {
	it := p.items[id]
	return p.extraTuple[it.data]
}

// Named interns a nominal struct or enum type at a given name, generic
// argument list, and structural definition. The same name+args combination
// always hash-conses to the same id.
func (p *Pool) Named(name ident.Name, args []TypeId, fields []StructField, variants []EnumVariant) TypeId {
	sig := fmt.Sprintf("named:%d:%v", name, args)
	if id, ok := p.structIndex[sig]; ok {
		return id
	}
	offset := len(p.extraNamed)
	p.extraNamed = append(p.extraNamed, extraNamed{
		name:     name,
		args:     append([]TypeId(nil), args...),
		fields:   append([]StructField(nil), fields...),
		variants: append([]EnumVariant(nil), variants...),
	})
	id := TypeId(len(p.items))
	p.items = append(p.items, item{tag: TagNamed, data: uint32(offset)})
	p.structIndex[sig] = id
	return id
}

// NamedInfo returns the declaration backing a Named type.
func (p *Pool) NamedInfo(id TypeId) (name ident.Name, args []TypeId, fields []StructField, variants []EnumVariant) {
	it := p.items[id]
	n := p.extraNamed[it.data]
	return n.name, n.args, n.fields, n.variants
}

// Alias interns a transparent alias to another type.
func (p *Pool) Alias(name ident.Name, aliased TypeId) TypeId {
	sig := fmt.Sprintf("alias:%d:%d", name, aliased)
	if id, ok := p.structIndex[sig]; ok {
		return id
	}
	offset := len(p.extraAlias)
	p.extraAlias = append(p.extraAlias, aliased)
	id := TypeId(len(p.items))
	p.items = append(p.items, item{tag: TagAlias, data: uint32(offset)})
	p.structIndex[sig] = id
	return id
}

// AliasTarget returns the type an Alias stands for.
func (p *Pool) AliasTarget(id TypeId) TypeId {
	it := p.items[id]
	return p.extraAlias[it.data]
}

// Fresh returns a brand new, never-hash-consed type variable.
func (p *Pool) Fresh() TypeId {
	v := p.nextVar
	p.nextVar++
	id := TypeId(len(p.items))
	p.items = append(p.items, item{tag: TagVar, data: v})
	return id
}

// FreshRigid returns a new rigid (skolem) type variable, used to check that
// a generic function body does not over-specialize a quantified parameter.
func (p *Pool) FreshRigid() TypeId {
	v := p.nextVar
	p.nextVar++
	id := TypeId(len(p.items))
	p.items = append(p.items, item{tag: TagRigidVar, data: v})
	return id
}

// Scheme interns a polymorphic scheme: quantifiers over body.
func (p *Pool) Scheme(quantifiers []TypeId, body TypeId) TypeId {
	offset := len(p.extraScheme)
	p.extraScheme = append(p.extraScheme, extraScheme{
		quantifiers: append([]TypeId(nil), quantifiers...),
		body:        body,
	})
	id := TypeId(len(p.items))
	p.items = append(p.items, item{tag: TagScheme, data: uint32(offset)})
	return id
}

// SchemeParts returns the quantifiers and body of a Scheme.
func (p *Pool) SchemeParts(id TypeId) ([]TypeId, TypeId) {
	it := p.items[id]
	s := p.extraScheme[it.data]
	return s.quantifiers, s.body
}

// Tag returns the shape tag of id. Primitives report TagPrimitive.
func (p *Pool) Tag(id TypeId) Tag {
	return p.items[id].tag
}

// Child returns the single child of a one-child container type.
func (p *Pool) Child(id TypeId) TypeId {
	return TypeId(p.items[id].data)
}

// IsVar reports whether id is an unresolved (non-rigid) type variable.
func (p *Pool) IsVar(id TypeId) bool {
	return p.items[id].tag == TagVar
}

func sigInts(ids []TypeId, kind string, extra uint32) string {
	var b strings.Builder
	b.WriteString(kind)
	b.WriteByte(':')
	for _, id := range ids {
		fmt.Fprintf(&b, "%d,", id)
	}
	fmt.Fprintf(&b, ";%d", extra)
	return b.String()
}

var primitiveNames = [...]string{
	"int", "float", "bool", "str", "char", "byte", "unit", "never",
	"error", "duration", "size", "ordering", "infer", "Self",
}

// Format renders a TypeId to a user-readable string. resolve resolves type
// variables through the checker's union-find; it may be nil to print raw
// variable numbers.
func (p *Pool) Format(id TypeId, in *ident.Interner, resolve func(TypeId) TypeId) string {
	if resolve != nil {
		id = resolve(id)
	}
	it := p.items[id]
	switch it.tag {
	case TagPrimitive:
		return primitiveNames[id]
	case TagList:
		return "List<" + p.Format(p.Child(id), in, resolve) + ">"
	case TagOption:
		return "Option<" + p.Format(p.Child(id), in, resolve) + ">"
	case TagSet:
		return "Set<" + p.Format(p.Child(id), in, resolve) + ">"
	case TagChannel:
		return "Channel<" + p.Format(p.Child(id), in, resolve) + ">"
	case TagRange:
		return "Range<" + p.Format(p.Child(id), in, resolve) + ">"
	case TagMap:
		k, v := p.TwoChildren(id)
		return "Map<" + p.Format(k, in, resolve) + ", " + p.Format(v, in, resolve) + ">"
	case TagResult:
		ok, err := p.TwoChildren(id)
		return "Result<" + p.Format(ok, in, resolve) + ", " + p.Format(err, in, resolve) + ">"
	case TagBorrowed:
		of, _ := p.TwoChildren(id)
		return "&" + p.Format(of, in, resolve)
	case TagFunction:
		params, ret := p.FunctionParts(id)
		var b strings.Builder
		b.WriteByte('(')
		for i, pt := range params {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Format(pt, in, resolve))
		}
		b.WriteString(") -> ")
		b.WriteString(p.Format(ret, in, resolve))
		return b.String()
	case TagTuple:
		members := p.TupleMembers(id)
		var b strings.Builder
		b.WriteByte('(')
		for i, m := range members {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(p.Format(m, in, resolve))
		}
		if len(members) == 1 {
			b.WriteByte(',')
		}
		b.WriteByte(')')
		return b.String()
	case TagNamed:
		name, args, _, _ := p.NamedInfo(id)
		s := in.Lookup(name)
		if len(args) > 0 {
			s += "<"
			for i, a := range args {
				if i > 0 {
					s += ", "
				}
				s += p.Format(a, in, resolve)
			}
			s += ">"
		}
		return s
	case TagAlias:
		return p.Format(p.AliasTarget(id), in, resolve)
	case TagVar:
		return fmt.Sprintf("?%d", it.data)
	case TagRigidVar:
		return fmt.Sprintf("'%d", it.data)
	case TagScheme:
		q, body := p.SchemeParts(id)
		var b strings.Builder
		b.WriteString("forall")
		for _, v := range q {
			b.WriteByte(' ')
			b.WriteString(p.Format(v, in, resolve))
		}
		b.WriteString(". ")
		b.WriteString(p.Format(body, in, resolve))
		return b.String()
	default:
		return fmt.Sprintf("<?tag=%d>", it.tag)
	}
}
