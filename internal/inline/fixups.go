package inline

import (
	"crest/internal/ir"
)

// rewriteReturns turns the translated return-class instructions into
// jumps to the join point.
//
// A plain return becomes `jump retBlock(values)`. A return_call or
// return_call_indirect becomes an ordinary call followed by such a jump:
// a real caller frame now exists above the callee, so the tail transfer
// must degrade to a normal one. When the outer site was itself a tail
// call there is no join point and inner returns stay untouched.
func rewriteReturns(caller *ir.Function, allocs *inliningAllocs, site *callSite, returns []returnSite) {
	if site.retBlock == ir.NoBlock {
		return
	}
	for _, rs := range returns {
		switch caller.Insts[rs.inst].Op {
		case ir.OpReturn:
			vals := caller.Insts[rs.inst].Args
			args := make([]ir.BlockArg, len(vals))
			for i, v := range vals {
				args[i] = ir.ValueArg(v)
			}
			caller.Insts[rs.inst] = ir.InstData{
				Op:    ir.OpJump,
				Calls: []ir.BlockCall{{Block: site.retBlock, Args: args}},
			}

		case ir.OpReturnCall, ir.OpReturnCallIndirect:
			var resultTypes []ir.Type
			if caller.Insts[rs.inst].Op == ir.OpReturnCall {
				caller.Insts[rs.inst].Op = ir.OpCall
				resultTypes = caller.FuncRefSig(caller.Insts[rs.inst].Func).Results
			} else {
				caller.Insts[rs.inst].Op = ir.OpCallIndirect
				resultTypes = caller.SigRefs[caller.Insts[rs.inst].Sig].Results
			}
			results := caller.AllocResults(rs.inst, resultTypes)
			if len(site.stackMap) > 0 {
				caller.Insts[rs.inst].StackMap = append(caller.Insts[rs.inst].StackMap, site.stackMap...)
			}

			args := make([]ir.BlockArg, len(results))
			for i, v := range results {
				args[i] = ir.ValueArg(v)
			}
			caller.Append(rs.block, ir.InstData{
				Op:    ir.OpJump,
				Calls: []ir.BlockCall{{Block: site.retBlock, Args: args}},
			})

			if site.isTry {
				allocs.exFixups = append(allocs.exFixups, rs.inst)
			}
		}
	}
}

// applyExceptionFixups runs only when the outer site was a try_call. It
// gives every worklisted nested call the outer site's exception edges.
//
// A plain call or call_indirect is converted to its exceptional form:
// its block is split after it, its results become parameters of the new
// successor, and a clone of the outer table retargeted to that successor
// is attached. An already-exceptional call instead gets the outer items
// concatenated after its own, preserving first-match semantics: inner
// handlers still win, and tags nothing inner matches fall through to
// whatever the original call site would have caught.
func applyExceptionFixups(caller *ir.Function, allocs *inliningAllocs, site *callSite) {
	if !site.isTry || len(allocs.exFixups) == 0 {
		return
	}
	outerItems := caller.ExceptionTables[site.outerTable].Items

	for _, ci := range allocs.exFixups {
		switch caller.Insts[ci].Op {
		case ir.OpCall, ir.OpCallIndirect:
			convertToTryCall(caller, ci, outerItems)

		case ir.OpTryCall, ir.OpTryCallIndirect:
			et := caller.Insts[ci].ExTable
			caller.ExceptionTables[et].Items = append(caller.ExceptionTables[et].Items, outerItems...)
		}
	}
}

// convertToTryCall splits the call's block, turns the call's results
// into parameters of the new successor, and attaches a retargeted clone
// of the outer exception table. Earlier fixups may have moved the call
// into a freshly split block, so its block is located here rather than
// recorded on the worklist.
func convertToTryCall(caller *ir.Function, ci ir.Inst, outerItems []ir.ExTableItem) {
	blk := caller.FindBlock(ci)
	succ := caller.SplitAfter(blk, ci)

	results := caller.Insts[ci].Results
	retArgs := make([]ir.BlockArg, len(results))
	for n, res := range results {
		p := caller.AppendBlockParam(succ, caller.ValueType(res))
		caller.ChangeToAlias(res, p)
		retArgs[n] = ir.TryCallRetArg(int32(n))
	}
	caller.Insts[ci].Results = nil

	var sig ir.SigRef
	if caller.Insts[ci].Op == ir.OpCall {
		caller.Insts[ci].Op = ir.OpTryCall
		sig = caller.FuncRefs[caller.Insts[ci].Func].Sig
	} else {
		caller.Insts[ci].Op = ir.OpTryCallIndirect
		sig = caller.Insts[ci].Sig
	}

	caller.Insts[ci].ExTable = caller.DeclareExceptionTable(ir.ExceptionTableData{
		Sig:          sig,
		NormalReturn: ir.BlockCall{Block: succ, Args: retArgs},
		Items:        append([]ir.ExTableItem(nil), outerItems...),
	})
}
