package inline

import (
	"fmt"

	"crest/internal/ir"
)

// callSite carries the per-operation facts about the call being inlined.
type callSite struct {
	call  ir.Inst
	block ir.Block
	op    ir.Opcode

	// retBlock is the single control-flow join point of the operation.
	// NoBlock for tail calls.
	retBlock ir.Block

	// isTry marks a try_call site; outerTable is its exception table,
	// already in caller index space.
	isTry      bool
	outerTable ir.ExceptionTable

	// stackMap holds the call's own detached stack-map entries, merged
	// onto calls inside the inlined body.
	stackMap []ir.StackMapEntry
}

// makeReturnBlock establishes the join point that translated returns
// jump to.
//
// Ordinary call: the call's block is split right after it; the new block
// gets one parameter per result type and the detached results are
// aliased to those parameters.
//
// Tail call: control never comes back, no join point.
//
// Try call: the existing normal-return target is reused when its
// forwarded arguments are exactly the call's ordinary returns in order;
// otherwise a small forwarding block with the result types is
// synthesized, jumping onward with TryCallRet arguments remapped to its
// own parameters.
func makeReturnBlock(caller, callee *ir.Function, site *callSite) {
	switch site.op {
	case ir.OpCall:
		results := caller.Insts[site.call].Results
		ret := caller.SplitAfter(site.block, site.call)
		for _, res := range results {
			p := caller.AppendBlockParam(ret, caller.ValueType(res))
			caller.ChangeToAlias(res, p)
		}
		caller.Insts[site.call].Results = nil
		site.retBlock = ret

	case ir.OpReturnCall:
		site.retBlock = ir.NoBlock

	case ir.OpTryCall:
		table := &caller.ExceptionTables[site.outerTable]
		nr := table.NormalReturn
		nres := len(callee.Sig.Results)
		if isPlainForward(nr.Args, nres) {
			site.retBlock = nr.Block
			return
		}
		fwd := caller.NewBlock()
		params := make([]ir.Value, nres)
		for i, t := range callee.Sig.Results {
			params[i] = caller.AppendBlockParam(fwd, t)
		}
		args := make([]ir.BlockArg, len(nr.Args))
		for i, a := range nr.Args {
			if a.Kind == ir.BlockArgTryCallRet {
				a = ir.ValueArg(params[a.Ret])
			}
			args[i] = a
		}
		caller.Append(fwd, ir.InstData{
			Op:    ir.OpJump,
			Calls: []ir.BlockCall{{Block: nr.Block, Args: args}},
		})
		caller.InsertBlockAfter(fwd, site.block)
		site.retBlock = fwd

	default:
		panic(fmt.Sprintf("inline: inst%d has opcode %s, not an inlinable call", site.call, site.op))
	}
}

// isPlainForward reports whether args forward exactly the n ordinary
// returns, unmodified and in order.
func isPlainForward(args []ir.BlockArg, n int) bool {
	if len(args) != n {
		return false
	}
	for i, a := range args {
		if a.Kind != ir.BlockArgTryCallRet || int(a.Ret) != i {
			return false
		}
	}
	return true
}

// spliceEntry binds every callee entry parameter directly to the
// matching call argument, detaches the call's stack-map entries for
// later merging, and replaces the call with a jump to the still-empty
// caller block mirroring the callee entry.
func spliceEntry(caller, callee *ir.Function, em *entityMap, allocs *inliningAllocs, site *callSite) {
	args := caller.Insts[site.call].Args
	params := callee.Blocks[callee.Entry].Params
	if len(args) != len(params) {
		panic(fmt.Sprintf("inline: inst%d passes %d args, callee %q entry takes %d",
			site.call, len(args), callee.Name, len(params)))
	}
	for i, p := range params {
		allocs.values[p] = caller.ResolveAliases(args[i])
	}

	site.stackMap = caller.Insts[site.call].StackMap

	caller.Insts[site.call] = ir.InstData{
		Op:    ir.OpJump,
		Calls: []ir.BlockCall{{Block: em.blockOf(callee.Entry)}},
	}
}

// spliceLayout inserts every freshly created inlined block into the
// caller layout in callee block order, immediately after the call's
// block. Placement is cosmetic; the semantics only need the blocks laid
// out somewhere.
func spliceLayout(caller, callee *ir.Function, em *entityMap, site *callSite) {
	after := site.block
	for bi := range callee.Blocks {
		nb := em.blockOf(ir.Block(int32(bi)))
		caller.InsertBlockAfter(nb, after)
		after = nb
	}
}
