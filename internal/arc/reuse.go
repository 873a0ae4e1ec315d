package arc

// ApplyReuse runs the best-effort reset/reuse pass (spec.md §4.6.6): when a
// value's last reference is released immediately before a construct of the
// same shape, and nothing else in the function ever retained that value
// (so its refcount, if it started unique, never grew), the release and
// the fresh allocation are fused into a single Reuse instruction. Codegen
// lowers Reuse to a runtime check (refcount == 1 mutate in place,
// otherwise allocate) rather than an unconditional in-place write, since
// this pass only has an approximate, function-local uniqueness oracle —
// it is not a precedence/ownership proof, just a candidate the runtime
// confirms. This is covered by explicit expected-IR-shape tests rather
// than a stated invariant, per spec.md's own framing of reset/reuse as
// best-effort.
func ApplyReuse(f *Function) {
	retainedAnywhere := make(map[Var]bool)
	for _, b := range f.Blocks {
		for _, in := range b.Insts {
			if in.Op == OpRetain {
				retainedAnywhere[in.Args[0]] = true
			}
		}
	}

	for _, b := range f.Blocks {
		var out []Inst
		for i := 0; i < len(b.Insts); i++ {
			cur := b.Insts[i]
			if i+1 < len(b.Insts) {
				nxt := b.Insts[i+1]
				if cur.Op == OpRelease && isConstructOp(nxt.Op) &&
					!retainedAnywhere[cur.Args[0]] &&
					f.VarTypes[cur.Args[0]] == nxt.Type {
					out = append(out, Inst{
						Op:      OpReuse,
						Dst:     nxt.Dst,
						Args:    nxt.Args,
						Type:    nxt.Type,
						ReuseOf: cur.Args[0],
						Callee:  nxt.Callee,
						Field:   nxt.Field,
						Index:   nxt.Index,
					})
					i++
					continue
				}
			}
			out = append(out, cur)
		}
		b.Insts = out
	}
}

func isConstructOp(op Op) bool {
	return op == OpConstructList || op == OpConstructStruct
}
