package arc

// VarSet is a small set of Vars, used throughout liveness/ownership as the
// per-program-point live set.
type VarSet map[Var]bool

func newVarSet(vs ...Var) VarSet {
	s := make(VarSet, len(vs))
	for _, v := range vs {
		if v != InvalidVar {
			s[v] = true
		}
	}
	return s
}

func (s VarSet) clone() VarSet {
	out := make(VarSet, len(s))
	for v := range s {
		out[v] = true
	}
	return out
}

func (s VarSet) union(other VarSet) (changed bool) {
	for v := range other {
		if !s[v] {
			s[v] = true
			changed = true
		}
	}
	return changed
}

// instUses returns the Vars an instruction reads.
func instUses(in Inst) []Var {
	switch in.Op {
	case OpRetain, OpRelease, OpReuse:
		return in.Args
	default:
		return in.Args
	}
}

// termUses returns the Vars a terminator reads: the condition/switch
// subject plus every join-argument list it passes to a successor.
func termUses(t Terminator) []Var {
	var out []Var
	switch t.Kind {
	case TermReturn:
		out = append(out, t.Value)
	case TermJump:
		out = append(out, t.TargetArgs...)
	case TermBranch:
		out = append(out, t.Cond)
		out = append(out, t.ThenArgs...)
		out = append(out, t.ElseArgs...)
	case TermSwitch:
		out = append(out, t.Discr)
		for _, c := range t.Cases {
			out = append(out, c.Args...)
		}
		out = append(out, t.DefaultArgs...)
	case TermInvoke:
		out = append(out, t.NormalArgs...)
		out = append(out, t.UnwindArgs...)
	}
	return out
}

// Liveness holds, for every block, the set of variables live at block
// entry (In) and live at block exit (Out), computed by the standard
// backward gen/kill fixpoint: Out(b) = union of In(s) over successors s;
// In(b) = (Gen(b) U (Out(b) - Kill(b))) - Params(b), since block
// parameters are defined on entry by the predecessors' join arguments.
type Liveness struct {
	In  map[BlockId]VarSet
	Out map[BlockId]VarSet
}

// Analyze computes liveness for f.
func Analyze(f *Function) *Liveness {
	rpo := ReversePostorder(f)
	l := &Liveness{In: make(map[BlockId]VarSet), Out: make(map[BlockId]VarSet)}
	for _, b := range f.Blocks {
		l.In[b.Id] = VarSet{}
		l.Out[b.Id] = VarSet{}
	}

	// Process in postorder (successors-first) repeatedly until fixpoint;
	// reverse-postorder with repeated sweeps converges fast for the
	// acyclic-dominated shapes this lowering ever produces, and remains
	// correct (if slower) in the presence of back edges.
	changed := true
	for changed {
		changed = false
		for i := len(rpo) - 1; i >= 0; i-- {
			id := rpo[i]
			b := f.Block(id)

			out := VarSet{}
			for _, s := range Successors(b) {
				out.union(l.In[s])
			}

			live := out.clone()
			for _, v := range termUses(b.Term) {
				live[v] = true
			}
			for i := len(b.Insts) - 1; i >= 0; i-- {
				in := b.Insts[i]
				if in.Dst != InvalidVar {
					delete(live, in.Dst)
				}
				for _, v := range instUses(in) {
					live[v] = true
				}
			}
			for _, p := range b.Params {
				delete(live, p)
			}

			if !setsEqual(l.Out[id], out) {
				l.Out[id] = out
				changed = true
			}
			if !setsEqual(l.In[id], live) {
				l.In[id] = live
				changed = true
			}
		}
	}
	return l
}

func setsEqual(a, b VarSet) bool {
	if len(a) != len(b) {
		return false
	}
	for v := range a {
		if !b[v] {
			return false
		}
	}
	return true
}
