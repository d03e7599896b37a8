package inline

import (
	"fmt"

	"crest/internal/ir"
)

// returnSite is one translated return-class instruction awaiting the
// deferred rewrite.
type returnSite struct {
	inst  ir.Inst
	block ir.Block
}

// translateBody walks the callee's blocks in pre-order depth-first order
// from the entry, so every block is visited after some dominating
// predecessor and operands are always translated before their uses. Each
// reachable instruction is remapped and appended to the caller block
// mirroring its callee block.
//
// Return-class instructions are collected for the deferred rewrite
// instead of receiving results. Calls inside the body get the outer
// call's stack-map entries merged in; when the outer site is a try_call
// they are additionally worklisted for the deferred exception fixup,
// because attaching edges now would split blocks and invalidate the
// block mapping this loop depends on.
//
// Afterwards, caller blocks that received no instructions mirror callee
// blocks unreachable from its entry and are removed from the layout.
func translateBody(caller, callee *ir.Function, em *entityMap, allocs *inliningAllocs, site *callSite) []returnSite {
	r := &instRemapper{caller: caller, callee: callee, em: em, allocs: allocs}
	var returns []returnSite

	callee.DFSPreorder(callee.Entry, func(b ir.Block) {
		nb := em.blockOf(b)
		for _, i := range callee.Blocks[b].Insts {
			d := &callee.Insts[i]
			if d.Op.IsUnlegalized() {
				panic(fmt.Sprintf("inline: callee %q is not legalized: inst%d is %s", callee.Name, i, d.Op))
			}
			nd := r.inst(d)
			ni := caller.Append(nb, nd)

			if d.Op.IsReturnClass() {
				returns = append(returns, returnSite{inst: ni, block: nb})
				continue
			}

			if len(d.Results) > 0 {
				types := make([]ir.Type, len(d.Results))
				for n, res := range d.Results {
					types[n] = callee.ValueType(res)
				}
				nres := caller.AllocResults(ni, types)
				for n, res := range d.Results {
					allocs.values[res] = nres[n]
				}
			}

			if d.Op.IsCall() {
				if len(site.stackMap) > 0 {
					caller.Insts[ni].StackMap = append(caller.Insts[ni].StackMap, site.stackMap...)
				}
				if site.isTry {
					allocs.exFixups = append(allocs.exFixups, ni)
				}
			}
		}
	})

	for bi := range callee.Blocks {
		nb := em.blockOf(ir.Block(int32(bi)))
		if len(caller.Blocks[nb].Insts) == 0 {
			caller.RemoveFromLayout(nb)
		}
	}

	return returns
}
