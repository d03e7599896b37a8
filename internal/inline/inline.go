// Package inline implements the mechanics of replacing a call site with
// the callee's body inside a single SSA function. It does not decide
// which calls are worth inlining; that policy arrives through the Policy
// interface. Once told to inline, the pass guarantees the caller remains
// one valid SSA function semantically equivalent to having made the
// call.
//
// The callee is read-only input and is never mutated; after the
// operation the caller exclusively owns every migrated entity. Contract
// violations by the policy or the supplied callee (mismatched signature,
// un-legalized body, unresolvable values) are integration defects and
// surface as panics, not errors.
package inline

import (
	"fmt"

	"crest/internal/ir"
)

// Command is a policy decision for one call site.
type Command struct {
	callee *ir.Function
}

// KeepCall leaves the call site untouched.
func KeepCall() Command { return Command{} }

// InlineFunc orders the call site replaced with f's body. f must have
// exactly the call site's declared signature, be fully legalized, and be
// independently verifiable; only the first is checked here.
func InlineFunc(f *ir.Function) Command { return Command{callee: f} }

// Policy decides, per call site, whether to inline. All inputs are
// read-only views; implementations must not retain or mutate them.
type Policy interface {
	Inline(caller *ir.Function, call ir.Inst, op ir.Opcode, callee ir.FuncRef, args []ir.Value) Command
}

// Run scans f with a single forward cursor and consults the policy at
// every direct call, tail call, and try_call site; indirect variants
// have no statically known callee and are never offered. When the
// policy answers with a callee, the call is inlined and the cursor is
// reset to just before the replacing jump, so the next instructions
// visited are the freshly inlined ones. That repositioning is what
// enables multi-level inlining in one pass, without recursion.
//
// Reports whether anything was inlined. The error return exists for
// pipeline composability; this pass introduces no recoverable errors of
// its own.
func Run(f *ir.Function, policy Policy) (bool, error) {
	inlined := false
	allocs := newInliningAllocs()
	cur := ir.NewCursor(f)
	for {
		inst, ok := cur.Next()
		if !ok {
			break
		}
		op := f.Insts[inst].Op
		if !op.IsDirectCall() {
			continue
		}
		pos := cur.Pos()
		block := cur.Block()

		cmd := policy.Inline(f, inst, op, f.Insts[inst].Func, f.Insts[inst].Args)
		if cmd.callee == nil {
			continue
		}

		inlineOne(f, block, inst, cmd.callee, allocs)
		allocs.reset()
		cur.SetPos(pos)
		inlined = true
	}
	return inlined, nil
}

// inlineOne performs one complete inlining operation: entity migration,
// join-point creation, entry and layout splicing, body translation, and
// the deferred return and exception fixups.
func inlineOne(caller *ir.Function, callBlock ir.Block, call ir.Inst, callee *ir.Function, allocs *inliningAllocs) {
	declared := caller.FuncRefSig(caller.Insts[call].Func)
	if !declared.Equal(callee.Sig) {
		panic(fmt.Sprintf("inline: inst%d declares callee signature %s but policy supplied %q with %s",
			call, declared, callee.Name, callee.Sig))
	}

	site := &callSite{
		call:  call,
		block: callBlock,
		op:    caller.Insts[call].Op,
	}
	if site.op == ir.OpTryCall {
		site.isTry = true
		site.outerTable = caller.Insts[call].ExTable
	}

	em := migrateEntities(caller, callee, allocs)
	makeReturnBlock(caller, callee, site)
	spliceEntry(caller, callee, em, allocs, site)
	spliceLayout(caller, callee, em, site)
	returns := translateBody(caller, callee, em, allocs, site)
	rewriteReturns(caller, allocs, site, returns)
	applyExceptionFixups(caller, allocs, site)
}
