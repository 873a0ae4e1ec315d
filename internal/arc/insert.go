package arc

import "ori/internal/types"

// isTransferOp reports whether an instruction's operands are moved into a
// new owner (an aggregate being constructed, or a block-to-block move) as
// opposed to merely being read. Calls in this lowering are modeled as
// borrowing their arguments — spec.md's method-dispatch/call-lowering
// design passes `self`/arguments by reference by default, only specific
// ownership-transferring constructs (building a list/struct, explicit
// move) hand off a reference permanently.
func isTransferOp(op Op) bool {
	switch op {
	case OpConstructList, OpConstructStruct, OpMove:
		return true
	}
	return false
}

// nonTransferTermUses returns the terminator operands that are read but not
// handed to a successor as a join argument: a branch condition, or a
// switch discriminant.
func nonTransferTermUses(t Terminator) []Var {
	switch t.Kind {
	case TermBranch:
		return []Var{t.Cond}
	case TermSwitch:
		return []Var{t.Discr}
	default:
		return nil
	}
}

func usedLaterInBlock(b *Block, afterIdx int, v Var) bool {
	for i := afterIdx + 1; i < len(b.Insts); i++ {
		for _, u := range instUses(b.Insts[i]) {
			if u == v {
				return true
			}
		}
	}
	for _, u := range termUses(b.Term) {
		if u == v {
			return true
		}
	}
	return false
}

// InsertRC runs the retain/release insertion pass over f in place: a
// transfer op that duplicates a still-needed value is preceded by a
// Retain; any refcounted value read for the final time along its path by a
// non-transfer op is released immediately after; a value bound but never
// read again before going dead is released right after its definition.
// Owned parameters are eligible for release; borrowed parameters never are
// (spec.md §3.6/§4.6.3's ownership split).
func InsertRC(pool *types.Pool, f *Function) {
	live := Analyze(f)
	lu := ComputeLastUses(f, live)

	borrowed := make(map[Var]bool, len(f.Params))
	for _, p := range f.Params {
		if !p.Owned {
			borrowed[p.Var] = true
		}
	}

	for _, b := range f.Blocks {
		var out []Inst
		for i, in := range b.Insts {
			if isTransferOp(in.Op) {
				for _, v := range in.Args {
					t, ok := f.VarTypes[v]
					if ok && IsRefcounted(pool, t) && !lu.IsLastUseAt(b.Id, i, v) {
						out = append(out, Inst{Op: OpRetain, Args: []Var{v}, Type: t})
					}
				}
			}

			out = append(out, in)

			if !isTransferOp(in.Op) {
				for _, v := range in.Args {
					t, ok := f.VarTypes[v]
					if ok && IsRefcounted(pool, t) && !borrowed[v] && lu.IsLastUseAt(b.Id, i, v) {
						out = append(out, Inst{Op: OpRelease, Args: []Var{v}, Type: t})
					}
				}
			}

			if in.Dst != InvalidVar {
				t, ok := f.VarTypes[in.Dst]
				if ok && IsRefcounted(pool, t) && !live.Out[b.Id][in.Dst] && !usedLaterInBlock(b, i, in.Dst) {
					out = append(out, Inst{Op: OpRelease, Args: []Var{in.Dst}, Type: t})
				}
			}
		}

		for _, v := range nonTransferTermUses(b.Term) {
			t, ok := f.VarTypes[v]
			if ok && IsRefcounted(pool, t) && !borrowed[v] && lu.IsLastUseInTerm(b.Id, v) {
				out = append(out, Inst{Op: OpRelease, Args: []Var{v}, Type: t})
			}
		}

		b.Insts = out
	}
}
