package codegen

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
)

// Layouts holds the backend struct types spec.md §4.7's value
// representation names: lists/maps carry an explicit length/capacity
// alongside a data pointer so codegen never has to special-case bounds
// checks for a "thin" pointer representation.
type Layouts struct {
	// ListStruct is `{i64 length, i64 capacity, i8* data}`.
	ListStruct *types.StructType
	// MapStruct is `{i64 length, i64 capacity, i8* keys, i8* values}`.
	MapStruct *types.StructType
	// StringStruct is `{i64 length, i8* data}`; the small-string
	// optimization (<=23 bytes inlined) is a codegen-time choice between
	// this struct and an inline byte array, selected by StringLayoutFor.
	StringStruct *types.StructType
}

// SmallStringMax is the inclusive inline-byte threshold spec.md's value
// representation gives for the small-string optimization.
const SmallStringMax = 23

// NewLayouts builds the backend's fixed aggregate struct types.
func NewLayouts() *Layouts {
	return &Layouts{
		ListStruct: types.NewStruct(types.I64, types.I64, types.NewPointer(types.I8)),
		MapStruct:  types.NewStruct(types.I64, types.I64, types.NewPointer(types.I8), types.NewPointer(types.I8)),
		StringStruct: types.NewStruct(types.I64, types.NewPointer(types.I8)),
	}
}

// StringLayoutFor picks the small-string-optimized inline array type for
// strings known at compile time to be short, or the heap-backed
// StringStruct otherwise.
func (l *Layouts) StringLayoutFor(byteLen int) types.Type {
	if byteLen <= SmallStringMax {
		return types.NewArray(uint64(byteLen), types.I8)
	}
	return l.StringStruct
}

// Runtime holds the external support functions codegen emits calls to:
// reference counting, the small builtin method set the ARC lowering in
// internal/arc targets (`rt_len`, ...), and the reuse fast path. These are
// declared, not defined — linking them to an actual allocator/runtime is
// explicitly out of this repository's scope (spec.md §1's "LLVM binding/
// linker glue").
type Runtime struct {
	Retain *ir.Func
	Release *ir.Func
	Reuse   *ir.Func
	Len     *ir.Func
}

// DeclareRuntime adds the runtime support function declarations to m.
func DeclareRuntime(m *ir.Module) *Runtime {
	ptr := types.NewPointer(types.I8)
	retain := m.NewFunc("ori_rt_retain", types.Void, ir.NewParam("p", ptr))
	release := m.NewFunc("ori_rt_release", types.Void, ir.NewParam("p", ptr))
	reuse := m.NewFunc("ori_rt_reuse", ptr, ir.NewParam("old", ptr), ir.NewParam("size", types.I64))
	length := m.NewFunc("ori_rt_len", types.I64, ir.NewParam("p", ptr))
	for _, f := range []*ir.Func{retain, release, reuse, length} {
		f.Linkage = 0 // external declaration; llir leaves these bodies empty
	}
	return &Runtime{Retain: retain, Release: release, Reuse: reuse, Len: length}
}
