package codegen

import (
	"fmt"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"ori/internal/arc"
	irpkg "ori/internal/ir"
	itypes "ori/internal/types"
)

// Emitter lowers arc.Function values into an in-memory LLVM module. One
// Emitter accumulates every function emitted for a compilation unit so
// string literals and runtime declarations are shared module-wide.
type Emitter struct {
	Module  *ir.Module
	Layouts *Layouts
	Runtime *Runtime
	Pool    *itypes.Pool

	externs   map[string]*ir.Func
	strConsts int
}

// NewEmitter creates an Emitter backed by a fresh module with the runtime
// support functions pre-declared.
func NewEmitter(pool *itypes.Pool) *Emitter {
	m := ir.NewModule()
	return &Emitter{
		Module:  m,
		Layouts: NewLayouts(),
		Runtime: DeclareRuntime(m),
		Pool:    pool,
		externs: make(map[string]*ir.Func),
	}
}

// llvmType maps a pool TypeId to its backend representation. Refcounted
// compounds (list/set/map/channel/named, and heap strings) are represented
// uniformly as opaque i8* handles; codegen's job is moving and
// retaining/releasing those handles, not un-opaquing them, since no field
// layout is available without the derive-strategy/struct-layout pass this
// first codegen cut does not yet implement (see EmitFunction's instruction
// switch below).
func (e *Emitter) llvmType(t itypes.TypeId) types.Type {
	switch t {
	case itypes.INT, itypes.DURATION, itypes.SIZE:
		return types.I64
	case itypes.FLOAT:
		return types.Double
	case itypes.BOOL:
		return types.I1
	case itypes.CHAR:
		return types.I32
	case itypes.BYTE:
		return types.I8
	case itypes.UNIT:
		return types.Void
	}
	if arc.IsRefcounted(e.Pool, t) {
		return types.NewPointer(types.I8)
	}
	return types.NewPointer(types.I8)
}

// emitState is the per-function working context threaded through
// EmitFunction's two passes.
type emitState struct {
	fn      *arc.Function
	llFn    *ir.Func
	blocks  map[arc.BlockId]*ir.Block
	values  map[arc.Var]value.Value
}

// EmitFunction lowers one ARC function into a new *ir.Func appended to
// e.Module. It supports exactly the instruction and terminator shapes
// internal/arc's restricted lowering (arc.LowerFunction) produces: constants,
// move, binary primops, list construction, calls, retain/release/reuse, and
// return/jump/branch terminators. Anything else is a codegen-scope error
// rather than a guess at an unspecified layout.
func (e *Emitter) EmitFunction(fn *arc.Function) (*ir.Func, error) {
	params := make([]*ir.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = ir.NewParam(fmt.Sprintf("p%d", i), e.llvmType(p.Type))
	}
	llFn := e.Module.NewFunc(mangleLocal(fn.Name), e.llvmType(fn.Ret), params...)

	st := &emitState{
		fn:     fn,
		llFn:   llFn,
		blocks: make(map[arc.BlockId]*ir.Block),
		values: make(map[arc.Var]value.Value),
	}

	for _, b := range fn.Blocks {
		st.blocks[b.Id] = llFn.NewBlock(fmt.Sprintf("bb%d", b.Id))
	}
	for i, p := range fn.Params {
		st.values[p.Var] = params[i]
	}

	preds := arc.Predecessors(fn)
	order := arc.ReversePostorder(fn)

	for _, id := range order {
		b := fn.Block(id)
		cur := st.blocks[id]

		if len(b.Params) > 0 {
			for j, pv := range b.Params {
				incs, err := e.phiIncoming(st, preds[id], id, j)
				if err != nil {
					return nil, err
				}
				phi := cur.NewPhi(incs...)
				st.values[pv] = phi
			}
		}

		for _, inst := range b.Insts {
			if err := e.emitInst(st, cur, inst); err != nil {
				return nil, fmt.Errorf("function %s, block %d: %w", fn.Name, id, err)
			}
		}

		if err := e.emitTerm(st, cur, b.Term); err != nil {
			return nil, fmt.Errorf("function %s, block %d terminator: %w", fn.Name, id, err)
		}
	}

	return llFn, nil
}

func mangleLocal(name string) string {
	return MangleFunction("local", name)
}

// phiIncoming gathers the (value, predecessor block) pairs for the j'th
// positional parameter of block target, reading each predecessor's
// terminator to find which argument slot feeds it.
func (e *Emitter) phiIncoming(st *emitState, predIds []arc.BlockId, target arc.BlockId, j int) ([]*ir.Incoming, error) {
	var out []*ir.Incoming
	for _, pid := range predIds {
		pb := st.fn.Block(pid)
		v, err := argFor(pb.Term, target, j)
		if err != nil {
			return nil, err
		}
		val, ok := st.values[v]
		if !ok {
			return nil, fmt.Errorf("phi argument var %d not yet defined in predecessor block %d", v, pid)
		}
		out = append(out, ir.NewIncoming(val, st.blocks[pid]))
	}
	return out, nil
}

func argFor(t arc.Terminator, target arc.BlockId, j int) (arc.Var, error) {
	switch t.Kind {
	case arc.TermJump:
		if t.Target == target {
			return t.TargetArgs[j], nil
		}
	case arc.TermBranch:
		if t.Then == target {
			return t.ThenArgs[j], nil
		}
		if t.Else == target {
			return t.ElseArgs[j], nil
		}
	}
	return 0, fmt.Errorf("no argument binding found for join block %d", target)
}

func (e *Emitter) emitInst(st *emitState, cur *ir.Block, inst arc.Inst) error {
	switch inst.Op {
	case arc.OpConstInt:
		st.values[inst.Dst] = constant.NewInt(types.I64, inst.IntVal)
	case arc.OpConstFloat:
		st.values[inst.Dst] = constant.NewFloat(types.Double, inst.FloatVal)
	case arc.OpConstBool:
		st.values[inst.Dst] = constant.NewBool(inst.BoolVal)
	case arc.OpConstString:
		st.values[inst.Dst] = e.stringConstant(cur, inst.StrVal)
	case arc.OpMove:
		st.values[inst.Dst] = st.values[inst.Args[0]]
	case arc.OpPrim:
		v, err := e.emitPrim(st, cur, inst)
		if err != nil {
			return err
		}
		st.values[inst.Dst] = v
	case arc.OpConstructList:
		v, err := e.emitConstructAggregate(st, cur, inst)
		if err != nil {
			return err
		}
		st.values[inst.Dst] = v
	case arc.OpCall:
		v, err := e.emitCall(st, cur, inst)
		if err != nil {
			return err
		}
		if inst.Dst != arc.InvalidVar {
			st.values[inst.Dst] = v
		}
	case arc.OpRetain:
		ptr := cur.NewBitCast(st.values[inst.Args[0]], types.NewPointer(types.I8))
		cur.NewCall(e.Runtime.Retain, ptr)
	case arc.OpRelease:
		ptr := cur.NewBitCast(st.values[inst.Args[0]], types.NewPointer(types.I8))
		cur.NewCall(e.Runtime.Release, ptr)
	case arc.OpReuse:
		old := cur.NewBitCast(st.values[inst.ReuseOf], types.NewPointer(types.I8))
		size := constant.NewInt(types.I64, int64(len(inst.Args)*8))
		st.values[inst.Dst] = cur.NewCall(e.Runtime.Reuse, old, size)
	case arc.OpConstructStruct, arc.OpFieldGet, arc.OpVariantGet:
		return fmt.Errorf("op %d not supported: no field-layout pass feeds struct/variant access into arc lowering yet", inst.Op)
	default:
		return fmt.Errorf("unhandled instruction op %d", inst.Op)
	}
	return nil
}

// stringConstant interns s as a module-level character array and returns a
// pointer to its first byte, the heap-string representation codegen uses
// uniformly (the small-string-optimization split in Layouts.StringLayoutFor
// is reserved for a future struct-aware lowering pass).
func (e *Emitter) stringConstant(cur *ir.Block, s string) value.Value {
	e.strConsts++
	name := fmt.Sprintf(".str.%d", e.strConsts)
	arr := constant.NewCharArrayFromString(s + "\x00")
	g := e.Module.NewGlobalDef(name, arr)
	return cur.NewGetElementPtr(arr.Type(), g, constant.NewInt(types.I64, 0), constant.NewInt(types.I64, 0))
}

// emitPrim lowers a binary primop. The operand llvm type decides the
// integer-vs-float instruction family; comparisons additionally decide
// signed-integer vs ordered-float predicates. Args[0]/Args[1] are assumed
// type-compatible, since internal/check has already unified them before
// arc lowering runs.
func (e *Emitter) emitPrim(st *emitState, cur *ir.Block, inst arc.Inst) (value.Value, error) {
	lhs := st.values[inst.Args[0]]
	rhs := st.values[inst.Args[1]]
	isFloat := lhs.Type().Equal(types.Double)

	switch inst.PrimOp {
	case irpkg.OpAdd:
		if isFloat {
			return cur.NewFAdd(lhs, rhs), nil
		}
		return cur.NewAdd(lhs, rhs), nil
	case irpkg.OpSub:
		if isFloat {
			return cur.NewFSub(lhs, rhs), nil
		}
		return cur.NewSub(lhs, rhs), nil
	case irpkg.OpMul:
		if isFloat {
			return cur.NewFMul(lhs, rhs), nil
		}
		return cur.NewMul(lhs, rhs), nil
	case irpkg.OpDiv:
		if isFloat {
			return cur.NewFDiv(lhs, rhs), nil
		}
		return cur.NewSDiv(lhs, rhs), nil
	case irpkg.OpMod:
		if isFloat {
			return cur.NewFRem(lhs, rhs), nil
		}
		return cur.NewSRem(lhs, rhs), nil
	case irpkg.OpEq, irpkg.OpNe, irpkg.OpLt, irpkg.OpLe, irpkg.OpGt, irpkg.OpGe:
		cmp := binaryOpToCmp(inst.PrimOp)
		if isFloat {
			return cur.NewFCmp(floatPred(cmp), lhs, rhs), nil
		}
		return cur.NewICmp(intPred(cmp), lhs, rhs), nil
	case irpkg.OpAnd:
		return cur.NewAnd(lhs, rhs), nil
	case irpkg.OpOr:
		return cur.NewOr(lhs, rhs), nil
	default:
		return nil, fmt.Errorf("unhandled primop %d", inst.PrimOp)
	}
}

func binaryOpToCmp(op irpkg.BinaryOp) intCmpOp {
	switch op {
	case irpkg.OpEq:
		return cmpEq
	case irpkg.OpNe:
		return cmpNe
	case irpkg.OpLt:
		return cmpLt
	case irpkg.OpLe:
		return cmpLe
	case irpkg.OpGt:
		return cmpGt
	default:
		return cmpGe
	}
}

func (e *Emitter) emitConstructAggregate(st *emitState, cur *ir.Block, inst arc.Inst) (value.Value, error) {
	alloc := cur.NewAlloca(e.Layouts.ListStruct)
	lenPtr := cur.NewGetElementPtr(e.Layouts.ListStruct, alloc,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 0))
	cur.NewStore(constant.NewInt(types.I64, int64(len(inst.Args))), lenPtr)
	capPtr := cur.NewGetElementPtr(e.Layouts.ListStruct, alloc,
		constant.NewInt(types.I32, 0), constant.NewInt(types.I32, 1))
	cur.NewStore(constant.NewInt(types.I64, int64(len(inst.Args))), capPtr)
	// Element storage is left unpopulated: there is no backing allocator
	// in this repository, so construction here only stands up the
	// refcount-relevant header codegen's ARC calls operate on.
	return cur.NewBitCast(alloc, types.NewPointer(types.I8)), nil
}

func (e *Emitter) emitCall(st *emitState, cur *ir.Block, inst arc.Inst) (value.Value, error) {
	args := make([]value.Value, len(inst.Args))
	for i, a := range inst.Args {
		args[i] = st.values[a]
	}
	if inst.Callee == "rt_len" {
		return cur.NewCall(e.Runtime.Len, args...), nil
	}
	fn, ok := e.externs[inst.Callee]
	if !ok {
		retType := e.llvmType(inst.Type)
		params := make([]*ir.Param, len(args))
		for i := range args {
			params[i] = ir.NewParam(fmt.Sprintf("a%d", i), args[i].Type())
		}
		fn = e.Module.NewFunc(inst.Callee, retType, params...)
		e.externs[inst.Callee] = fn
	}
	return cur.NewCall(fn, args...), nil
}

func (e *Emitter) emitTerm(st *emitState, cur *ir.Block, t arc.Terminator) error {
	switch t.Kind {
	case arc.TermReturn:
		if t.Value == arc.InvalidVar {
			cur.NewRet(nil)
			return nil
		}
		cur.NewRet(st.values[t.Value])
		return nil
	case arc.TermJump:
		cur.NewBr(st.blocks[t.Target])
		return nil
	case arc.TermBranch:
		cur.NewCondBr(st.values[t.Cond], st.blocks[t.Then], st.blocks[t.Else])
		return nil
	default:
		return fmt.Errorf("terminator kind %d not supported by codegen", t.Kind)
	}
}

// intPred/floatPred map the shared ir.BinaryOp comparison operators to their
// LLVM signed-integer and floating-point predicates respectively.
func intPred(op intCmpOp) enum.IPred {
	switch op {
	case cmpEq:
		return enum.IPredEQ
	case cmpNe:
		return enum.IPredNE
	case cmpLt:
		return enum.IPredSLT
	case cmpLe:
		return enum.IPredSLE
	case cmpGt:
		return enum.IPredSGT
	default:
		return enum.IPredSGE
	}
}

func floatPred(op intCmpOp) enum.FPred {
	switch op {
	case cmpEq:
		return enum.FPredOEQ
	case cmpNe:
		return enum.FPredONE
	case cmpLt:
		return enum.FPredOLT
	case cmpLe:
		return enum.FPredOLE
	case cmpGt:
		return enum.FPredOGT
	default:
		return enum.FPredOGE
	}
}

type intCmpOp uint8

const (
	cmpEq intCmpOp = iota
	cmpNe
	cmpLt
	cmpLe
	cmpGt
	cmpGe
)
