package ir

// BranchCalls returns the branch edges of a terminator instruction in
// operand order: jump-table edges default first, exception-table edges
// normal-return first. Non-branching terminators return nil.
func (f *Function) BranchCalls(i Inst) []BlockCall {
	d := &f.Insts[i]
	switch d.Op {
	case OpJump, OpBrif:
		return d.Calls
	case OpBrTable:
		return f.JumpTables[d.Table].AllCalls()
	case OpTryCall, OpTryCallIndirect:
		t := &f.ExceptionTables[d.ExTable]
		out := make([]BlockCall, 0, len(t.Items)+1)
		out = append(out, t.NormalReturn)
		for _, item := range t.Items {
			if item.Kind == ExItemContext {
				continue
			}
			out = append(out, item.Call)
		}
		return out
	}
	return nil
}

// Successors returns the successor blocks of block b in edge order.
func (f *Function) Successors(b Block) []Block {
	insts := f.Blocks[b].Insts
	if len(insts) == 0 {
		return nil
	}
	calls := f.BranchCalls(insts[len(insts)-1])
	if len(calls) == 0 {
		return nil
	}
	out := make([]Block, len(calls))
	for i, c := range calls {
		out[i] = c.Block
	}
	return out
}

// Idoms computes the immediate dominator of every block reachable from
// the entry, by the Cooper-Harvey-Kennedy iteration over reverse
// postorder. The entry and all unreachable blocks map to NoBlock.
func (f *Function) Idoms() []Block {
	idom := make([]Block, len(f.Blocks))
	for i := range idom {
		idom[i] = NoBlock
	}
	if f.Entry < 0 || int(f.Entry) >= len(f.Blocks) {
		return idom
	}

	// Postorder numbering of the reachable subgraph.
	post := make([]int32, len(f.Blocks))
	for i := range post {
		post[i] = -1
	}
	var order []Block
	seen := make([]bool, len(f.Blocks))
	var number func(Block)
	number = func(b Block) {
		seen[b] = true
		for _, s := range f.Successors(b) {
			if s < 0 || int(s) >= len(f.Blocks) {
				continue
			}
			if !seen[s] {
				number(s)
			}
		}
		post[b] = int32(len(order))
		order = append(order, b)
	}
	number(f.Entry)

	preds := make([][]Block, len(f.Blocks))
	for _, b := range order {
		for _, s := range f.Successors(b) {
			if s < 0 || int(s) >= len(f.Blocks) {
				continue
			}
			preds[s] = append(preds[s], b)
		}
	}

	intersect := func(a, b Block) Block {
		for a != b {
			for post[a] < post[b] {
				a = idom[a]
			}
			for post[b] < post[a] {
				b = idom[b]
			}
		}
		return a
	}

	idom[f.Entry] = f.Entry
	for changed := true; changed; {
		changed = false
		for i := len(order) - 1; i >= 0; i-- {
			b := order[i]
			if b == f.Entry {
				continue
			}
			nw := NoBlock
			for _, p := range preds[b] {
				if idom[p] == NoBlock {
					continue
				}
				if nw == NoBlock {
					nw = p
				} else {
					nw = intersect(nw, p)
				}
			}
			if nw != NoBlock && idom[b] != nw {
				idom[b] = nw
				changed = true
			}
		}
	}
	idom[f.Entry] = NoBlock
	return idom
}

// DFSPreorder visits every block reachable from entry in pre-order
// depth-first order, successors in edge order. Each reachable block is
// therefore visited after at least one of its predecessors.
func (f *Function) DFSPreorder(entry Block, visit func(Block)) {
	if entry == NoBlock {
		return
	}
	seen := make([]bool, len(f.Blocks))
	stack := []Block{entry}
	for len(stack) > 0 {
		b := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if seen[b] {
			continue
		}
		seen[b] = true
		visit(b)
		succs := f.Successors(b)
		for i := len(succs) - 1; i >= 0; i-- {
			if !seen[succs[i]] {
				stack = append(stack, succs[i])
			}
		}
	}
}
