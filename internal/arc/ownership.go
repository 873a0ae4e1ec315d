package arc

// UsePoint locates one read of a Var within a block: either at instruction
// index Inst (into Block.Insts) or, when IsTerm is true, within the block's
// terminator.
type UsePoint struct {
	Block  BlockId
	Inst   int
	IsTerm bool
}

// LastUses maps each (block, var) pair appearing in that block to whether
// the use at UsePoint is that variable's last read reachable from this
// point: the variable is neither used again later in the block nor live
// out of it. This is the ownership question spec.md §4.6.3 asks: "does
// this occurrence observe the value for the final time along this path."
type LastUses struct {
	// perBlock[b][i] is the set of Vars whose use at instruction i is last.
	perBlock map[BlockId]map[int]VarSet
	// perBlockTerm[b] is the set of Vars whose use in the terminator is last.
	perBlockTerm map[BlockId]VarSet
}

// IsLastUseAt reports whether v's occurrence at instruction index i in
// block b is its last use along every path reachable from there.
func (lu *LastUses) IsLastUseAt(b BlockId, i int, v Var) bool {
	m := lu.perBlock[b]
	if m == nil {
		return false
	}
	return m[i][v]
}

// IsLastUseInTerm reports whether v's occurrence in block b's terminator is
// its last use.
func (lu *LastUses) IsLastUseInTerm(b BlockId, v Var) bool {
	return lu.perBlockTerm[b][v]
}

// ComputeLastUses walks each block backward, using the already-computed
// Liveness.Out to decide whether a read is the variable's last: a read at
// position p is last iff the variable is not read again later in the block
// and is not present in the block's live-out set (i.e., no successor needs
// it).
func ComputeLastUses(f *Function, l *Liveness) *LastUses {
	lu := &LastUses{
		perBlock:     make(map[BlockId]map[int]VarSet),
		perBlockTerm: make(map[BlockId]VarSet),
	}
	for _, b := range f.Blocks {
		seenLater := l.Out[b.Id].clone()

		termUsed := termUses(b.Term)
		lastTerm := VarSet{}
		for _, v := range termUsed {
			if v == InvalidVar || seenLater[v] {
				continue
			}
			lastTerm[v] = true
		}
		lu.perBlockTerm[b.Id] = lastTerm
		for _, v := range termUsed {
			seenLater[v] = true
		}

		perInst := make(map[int]VarSet, len(b.Insts))
		for i := len(b.Insts) - 1; i >= 0; i-- {
			in := b.Insts[i]
			last := VarSet{}
			for _, v := range instUses(in) {
				if v == InvalidVar || seenLater[v] {
					continue
				}
				last[v] = true
			}
			perInst[i] = last
			for _, v := range instUses(in) {
				seenLater[v] = true
			}
			if in.Dst != InvalidVar {
				delete(seenLater, in.Dst)
			}
		}
		lu.perBlock[b.Id] = perInst
	}
	return lu
}
