package check

import (
	"fmt"

	"ori/internal/ident"
	"ori/internal/types"
)

// FieldOp is the per-field operation a ForEachField struct-body strategy
// applies, one of the derivable comparison/hash traits.
type FieldOp uint8

const (
	OpEquals FieldOp = iota
	OpCompare
	OpHash
)

// Combine describes how a ForEachField strategy folds its per-field
// results into the derived method's single return value.
type Combine uint8

const (
	CombineAllTrue      Combine = iota // Eq: every field equal
	CombineLexicographic               // Compare: first non-equal field decides
	CombineHash                        // Hashable: fold field hashes together
)

// StructStrategy is the checker's declarative recipe for synthesizing a
// trait method body over a struct's fields; the backend interprets it
// during codegen rather than the checker generating IR directly.
type StructStrategy interface{ isStructStrategy() }

// ForEachField derives Eq/Compare/Hashable by applying Op to each field in
// declaration order and folding the results with Combine.
type ForEachField struct {
	Op      FieldOp
	Combine Combine
}

func (ForEachField) isStructStrategy() {}

// FormatFields derives Printable/Debug by concatenating each field's
// formatted representation, optionally prefixed by its name.
type FormatFields struct {
	Open, Sep, Suffix string
	IncludeNames      bool
}

func (FormatFields) isStructStrategy() {}

// DefaultConstruct derives Default by constructing the struct from each
// field's own Default.
type DefaultConstruct struct{}

func (DefaultConstruct) isStructStrategy() {}

// CloneFields derives Clone by cloning each field independently.
type CloneFields struct{}

func (CloneFields) isStructStrategy() {}

// SumStrategy is the checker's recipe for deriving a trait method body
// over a sum type's variants.
type SumStrategy interface{ isSumStrategy() }

// MatchVariants derives by dispatching on the variant tag: equal-tag pairs
// descend into Inner (the struct-body strategy applied to that variant's
// payload as if it were a struct), unequal tags fall back to tag
// ordering (used by Compare; ignored by Eq/Hashable, which only ever see
// equal-tag pairs survive to Inner).
type MatchVariants struct {
	Inner StructStrategy
}

func (MatchVariants) isSumStrategy() {}

// NotSupported marks a trait that sums cannot derive (only Default, which
// has no canonical "first variant" choice without an explicit marker).
type NotSupported struct{}

func (NotSupported) isSumStrategy() {}

// DeriveStrategyFor returns the built-in strategy for deriving trait on a
// struct, or an error if the pair is not one of the fixed built-in derives.
func DeriveStrategyFor(trait string) (StructStrategy, SumStrategy, error) {
	switch trait {
	case "Eq":
		return ForEachField{Op: OpEquals, Combine: CombineAllTrue}, MatchVariants{Inner: ForEachField{Op: OpEquals, Combine: CombineAllTrue}}, nil
	case "Comparable":
		return ForEachField{Op: OpCompare, Combine: CombineLexicographic}, MatchVariants{Inner: ForEachField{Op: OpCompare, Combine: CombineLexicographic}}, nil
	case "Hashable":
		return ForEachField{Op: OpHash, Combine: CombineHash}, MatchVariants{Inner: ForEachField{Op: OpHash, Combine: CombineHash}}, nil
	case "Printable":
		return FormatFields{Open: "(", Sep: ", ", Suffix: ")", IncludeNames: false}, MatchVariants{Inner: FormatFields{Open: "(", Sep: ", ", Suffix: ")"}}, nil
	case "Debug":
		return FormatFields{Open: " { ", Sep: ", ", Suffix: " }", IncludeNames: true}, MatchVariants{Inner: FormatFields{Open: " { ", Sep: ", ", Suffix: " }", IncludeNames: true}}, nil
	case "Default":
		return DefaultConstruct{}, NotSupported{}, nil
	case "Clone":
		return CloneFields{}, MatchVariants{Inner: CloneFields{}}, nil
	default:
		return nil, nil, fmt.Errorf("derive: unsupported trait %q", trait)
	}
}

// SynthesizedMethod is one derive-generated method definition the checker
// installs into the method registry; the backend later expands its Body
// by interpreting Strategy against typ's actual field/variant layout.
type SynthesizedMethod struct {
	Name     ident.Name
	Type     types.TypeId
	FnType   types.TypeId
	IsStruct bool
	Struct   StructStrategy
	Sum      SumStrategy
}

// deriveMethodNames maps a trait to the single method name its built-in
// strategy synthesizes. Multi-method traits are out of scope for the
// built-in derive set (only Eq/Comparable/Hashable/Printable/Debug/
// Default/Clone derive, each contributing exactly one method).
var deriveMethodNames = map[string]string{
	"Eq":         "equals",
	"Comparable": "compare",
	"Hashable":   "hash",
	"Printable":  "to_str",
	"Debug":      "debug_str",
	"Default":    "default",
	"Clone":      "clone",
}

// Derive synthesizes and registers typ's method for trait, choosing the
// struct or sum strategy according to isStruct, and records the coherence
// impl.
func Derive(r *Registry, in *ident.Interner, trait string, typ types.TypeId, fnType types.TypeId, isStruct bool) (*SynthesizedMethod, error) {
	structStrat, sumStrat, err := DeriveStrategyFor(trait)
	if err != nil {
		return nil, err
	}
	if !isStruct {
		if _, ok := sumStrat.(NotSupported); ok {
			return nil, fmt.Errorf("derive: %s cannot be derived for a sum type", trait)
		}
	}
	methodName, ok := deriveMethodNames[trait]
	if !ok {
		return nil, fmt.Errorf("derive: unknown trait %q", trait)
	}
	nameId := in.Intern(methodName)
	traitId := in.Intern(trait)
	if err := r.DeclareImpl(traitId, typ); err != nil {
		return nil, err
	}
	r.DefineMethod(typ, nameId, fnType, MethodDerived)

	sm := &SynthesizedMethod{Name: nameId, Type: typ, FnType: fnType, IsStruct: isStruct}
	if isStruct {
		sm.Struct = structStrat
	} else {
		sm.Sum = sumStrat
	}
	return sm, nil
}
