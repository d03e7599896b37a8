package inline

import (
	"fmt"

	"crest/internal/ir"
)

// instRemapper rewrites every entity reference of one callee instruction
// into caller index space: values through the value map (aliases
// resolved first), dense entities through the entityMap offsets,
// constants through the content map, and jump/exception tables by
// rebuilding, since their branch edges must themselves be remapped.
type instRemapper struct {
	caller *ir.Function
	callee *ir.Function
	em     *entityMap
	allocs *inliningAllocs
}

// value maps one callee value. A missing entry means an instruction was
// translated before its operand's definition, which the traversal order
// rules out; treat it as a contract violation.
func (r *instRemapper) value(v ir.Value) ir.Value {
	v = r.callee.ResolveAliases(v)
	nv, ok := r.allocs.values[v]
	if !ok {
		panic(fmt.Sprintf("inline: callee value v%d of %q used before its definition was translated", v, r.callee.Name))
	}
	return nv
}

func (r *instRemapper) valueList(vs []ir.Value) []ir.Value {
	if len(vs) == 0 {
		return nil
	}
	out := make([]ir.Value, len(vs))
	for i, v := range vs {
		out[i] = r.value(v)
	}
	return out
}

func (r *instRemapper) constant(c ir.Constant) ir.Constant {
	nc, ok := r.allocs.constants[c]
	if !ok {
		panic(fmt.Sprintf("inline: callee constant const%d of %q was not migrated", c, r.callee.Name))
	}
	return nc
}

// blockCall rewrites a branch edge: the target through the block offset,
// value arguments through the value map. TryCallRet markers name the
// enclosing call's ordinary returns positionally and pass through.
func (r *instRemapper) blockCall(c ir.BlockCall) ir.BlockCall {
	nc := ir.BlockCall{Block: r.em.blockOf(c.Block)}
	if len(c.Args) > 0 {
		nc.Args = make([]ir.BlockArg, len(c.Args))
		for i, a := range c.Args {
			if a.Kind == ir.BlockArgValue {
				a.Value = r.value(a.Value)
			}
			nc.Args[i] = a
		}
	}
	return nc
}

func (r *instRemapper) blockCalls(cs []ir.BlockCall) []ir.BlockCall {
	if len(cs) == 0 {
		return nil
	}
	out := make([]ir.BlockCall, len(cs))
	for i, c := range cs {
		out[i] = r.blockCall(c)
	}
	return out
}

// jumpTable rebuilds a callee jump table as a new caller arena entry.
func (r *instRemapper) jumpTable(t ir.JumpTable) ir.JumpTable {
	src := &r.callee.JumpTables[t]
	return r.caller.DeclareJumpTable(ir.JumpTableData{
		Default: r.blockCall(src.Default),
		Targets: r.blockCalls(src.Targets),
	})
}

// exceptionTable rebuilds a callee exception table as a new caller arena
// entry: Context items go through the value map, Tag and Default items
// through branch-edge translation.
func (r *instRemapper) exceptionTable(t ir.ExceptionTable) ir.ExceptionTable {
	src := &r.callee.ExceptionTables[t]
	nd := ir.ExceptionTableData{
		Sig:          r.em.sigRefOf(src.Sig),
		NormalReturn: r.blockCall(src.NormalReturn),
	}
	if len(src.Items) > 0 {
		nd.Items = make([]ir.ExTableItem, len(src.Items))
		for i, item := range src.Items {
			if item.Kind == ir.ExItemContext {
				item.Context = r.value(item.Context)
			} else {
				item.Call = r.blockCall(item.Call)
			}
			nd.Items[i] = item
		}
	}
	return r.caller.DeclareExceptionTable(nd)
}

func (r *instRemapper) stackMap(entries []ir.StackMapEntry) []ir.StackMapEntry {
	if len(entries) == 0 {
		return nil
	}
	out := make([]ir.StackMapEntry, len(entries))
	for i, e := range entries {
		e.Slot = r.em.stackSlotOf(e.Slot)
		out[i] = e
	}
	return out
}

// inst translates one callee instruction into caller index space.
// Results are not carried over; the translation loop allocates fresh
// ones.
func (r *instRemapper) inst(d *ir.InstData) ir.InstData {
	nd := ir.InstData{
		Op:       d.Op,
		Args:     r.valueList(d.Args),
		Calls:    r.blockCalls(d.Calls),
		StackMap: r.stackMap(d.StackMap),
	}
	switch d.Op {
	case ir.OpIconst, ir.OpF64const:
		nd.Imm = r.em.immediateOf(d.Imm)
	case ir.OpVconst:
		nd.Const = r.constant(d.Const)
	case ir.OpStackLoad, ir.OpStackStore:
		nd.Slot = r.em.stackSlotOf(d.Slot)
	case ir.OpDynamicStackLoad:
		nd.DynSlot = r.em.dynamicStackSlotOf(d.DynSlot)
	case ir.OpGlobalLoad:
		nd.Global = r.em.globalValueOf(d.Global)
	case ir.OpFuncAddr, ir.OpCall, ir.OpReturnCall, ir.OpTryCall:
		nd.Func = r.em.funcRefOf(d.Func)
	case ir.OpCallIndirect, ir.OpReturnCallIndirect, ir.OpTryCallIndirect:
		nd.Sig = r.em.sigRefOf(d.Sig)
	case ir.OpBrTable:
		nd.Table = r.jumpTable(d.Table)
	}
	switch d.Op {
	case ir.OpTryCall, ir.OpTryCallIndirect:
		nd.ExTable = r.exceptionTable(d.ExTable)
	}
	return nd
}
