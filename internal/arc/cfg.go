package arc

// Successors returns the block ids a block's terminator can transfer
// control to, in a fixed order (then-before-else, case-order-then-default,
// normal-before-unwind).
func Successors(b *Block) []BlockId {
	switch b.Term.Kind {
	case TermReturn, TermUnreachable, TermResume:
		return nil
	case TermJump:
		return []BlockId{b.Term.Target}
	case TermBranch:
		return []BlockId{b.Term.Then, b.Term.Else}
	case TermSwitch:
		out := make([]BlockId, 0, len(b.Term.Cases)+1)
		for _, c := range b.Term.Cases {
			out = append(out, c.Target)
		}
		return append(out, b.Term.Default)
	case TermInvoke:
		return []BlockId{b.Term.NormalTarget, b.Term.UnwindTarget}
	default:
		return nil
	}
}

// Predecessors maps every block id in f to the ids of blocks whose
// terminator targets it.
func Predecessors(f *Function) map[BlockId][]BlockId {
	preds := make(map[BlockId][]BlockId, len(f.Blocks))
	for _, b := range f.Blocks {
		for _, s := range Successors(b) {
			preds[s] = append(preds[s], b.Id)
		}
	}
	return preds
}

// ReversePostorder returns f's reachable blocks (from Entry) in reverse
// postorder, the traversal order liveness analysis and insertion passes
// rely on so that a block is only finalized after all its successors are.
func ReversePostorder(f *Function) []BlockId {
	visited := make(map[BlockId]bool, len(f.Blocks))
	var post []BlockId

	var visit func(id BlockId)
	visit = func(id BlockId) {
		if visited[id] {
			return
		}
		visited[id] = true
		for _, s := range Successors(f.Block(id)) {
			visit(s)
		}
		post = append(post, id)
	}
	visit(f.Entry)

	out := make([]BlockId, len(post))
	for i, id := range post {
		out[len(post)-1-i] = id
	}
	return out
}
