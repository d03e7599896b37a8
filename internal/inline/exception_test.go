package inline_test

import (
	"testing"

	"crest/internal/inline"
	"crest/internal/ir"
)

// tryCaller builds a caller whose only call is `try_call f(x)` with
// handlers [tag1: h1, tag2: h2, default: hd] and the given normal-return
// arguments.
func tryCaller(t *testing.T, nrArgs func(ret ir.Block, x ir.Value) (ir.Block, []ir.BlockArg)) (*ir.Function, ir.FuncRef) {
	t.Helper()
	caller := ir.NewFunction("main", i64Sig(1, 1))
	b0 := caller.AddBlock()
	x := caller.AppendBlockParam(b0, ir.TypeI64)
	ref := declareCallee(caller, "f", i64Sig(1, 1))

	ret := caller.AddBlock()
	h1 := caller.AddBlock()
	h2 := caller.AddBlock()
	hd := caller.AddBlock()
	for _, h := range []ir.Block{h1, h2, hd} {
		caller.Append(h, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{x}})
	}

	nrBlock, args := nrArgs(ret, x)
	et := caller.DeclareExceptionTable(ir.ExceptionTableData{
		Sig:          caller.FuncRefs[ref].Sig,
		NormalReturn: ir.BlockCall{Block: nrBlock, Args: args},
		Items: []ir.ExTableItem{
			{Kind: ir.ExItemTag, Tag: 1, Call: ir.BlockCall{Block: h1}},
			{Kind: ir.ExItemTag, Tag: 2, Call: ir.BlockCall{Block: h2}},
			{Kind: ir.ExItemDefault, Call: ir.BlockCall{Block: hd}},
		},
	})
	caller.Append(b0, ir.InstData{Op: ir.OpTryCall, Func: ref, Args: []ir.Value{x}, ExTable: et})
	return caller, ref
}

// TestTryCallReuseNormalReturn: when the normal-return edge forwards
// exactly the ordinary returns, it is reused as the join point and no
// forwarding block is synthesized.
func TestTryCallReuseNormalReturn(t *testing.T) {
	caller, _ := tryCaller(t, func(ret ir.Block, _ ir.Value) (ir.Block, []ir.BlockArg) {
		return ret, []ir.BlockArg{ir.TryCallRetArg(0)}
	})
	// Finish the normal-return block: one param, returned.
	ret := caller.Layout[1]
	rp := caller.AppendBlockParam(ret, ir.TypeI64)
	caller.Append(ret, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{rp}})

	callee := doubler()
	callee.Name = "f"

	before := len(caller.Layout)
	if _, err := inline.Run(caller, onePolicy{name: "f", f: callee}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	mustValidate(t, caller)

	if got, want := len(caller.Layout), before+1; got != want {
		t.Fatalf("layout has %d blocks, want %d (reuse, no forwarding block):\n%s",
			got, want, ir.FuncString(caller))
	}
	// The rewritten return must jump straight to the original target.
	jumps := 0
	for _, b := range caller.Layout {
		for _, i := range caller.Blocks[b].Insts {
			if caller.Insts[i].Op == ir.OpJump && caller.Insts[i].Calls[0].Block == ret {
				jumps++
			}
		}
	}
	if jumps != 1 {
		t.Fatalf("expected one jump to the reused normal-return block, got %d:\n%s",
			jumps, ir.FuncString(caller))
	}
}

// TestTryCallForwardingBlock: a normal-return edge that mixes caller
// values with the ordinary returns cannot be reused; a forwarding block
// with the result types is synthesized instead.
func TestTryCallForwardingBlock(t *testing.T) {
	var retB ir.Block
	caller, _ := tryCaller(t, func(ret ir.Block, x ir.Value) (ir.Block, []ir.BlockArg) {
		retB = ret
		return ret, []ir.BlockArg{ir.ValueArg(x), ir.TryCallRetArg(0)}
	})
	rp0 := caller.AppendBlockParam(retB, ir.TypeI64)
	rp1 := caller.AppendBlockParam(retB, ir.TypeI64)
	sum := caller.Append(retB, ir.InstData{Op: ir.OpIadd, Args: []ir.Value{rp0, rp1}})
	sres := caller.AllocResults(sum, []ir.Type{ir.TypeI64})
	caller.Append(retB, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{sres[0]}})

	callee := doubler()
	callee.Name = "f"

	if _, err := inline.Run(caller, onePolicy{name: "f", f: callee}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	mustValidate(t, caller)

	// Find the forwarding block: one parameter, single jump passing two
	// arguments onward to the original normal-return block.
	found := false
	for _, b := range caller.Layout {
		insts := caller.Blocks[b].Insts
		if len(caller.Blocks[b].Params) != 1 || len(insts) != 1 {
			continue
		}
		d := &caller.Insts[insts[0]]
		if d.Op == ir.OpJump && d.Calls[0].Block == retB && len(d.Calls[0].Args) == 2 {
			found = true
		}
	}
	if !found {
		t.Fatalf("no forwarding block synthesized:\n%s", ir.FuncString(caller))
	}
}

// TestExceptionMergeOrder: an inlined nested try_call keeps its own
// items first and appends the outer site's items after them, so inner
// handlers win and unhandled tags fall through to what the original
// call site would have caught: [g1, g2, h1, h2, default].
func TestExceptionMergeOrder(t *testing.T) {
	caller, _ := tryCaller(t, func(ret ir.Block, _ ir.Value) (ir.Block, []ir.BlockArg) {
		return ret, []ir.BlockArg{ir.TryCallRetArg(0)}
	})
	ret := caller.Layout[1]
	rp := caller.AppendBlockParam(ret, ir.TypeI64)
	caller.Append(ret, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{rp}})

	// Callee f wraps its own try_call of g with handlers [tag3, tag4].
	callee := ir.NewFunction("f", i64Sig(1, 1))
	entry := callee.AddBlock()
	p := callee.AppendBlockParam(entry, ir.TypeI64)
	gref := declareCallee(callee, "g", i64Sig(1, 1))
	nr := callee.AddBlock()
	g1 := callee.AddBlock()
	g2 := callee.AddBlock()
	for _, h := range []ir.Block{g1, g2} {
		callee.Append(h, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{p}})
	}
	et := callee.DeclareExceptionTable(ir.ExceptionTableData{
		Sig:          callee.FuncRefs[gref].Sig,
		NormalReturn: ir.BlockCall{Block: nr, Args: []ir.BlockArg{ir.TryCallRetArg(0)}},
		Items: []ir.ExTableItem{
			{Kind: ir.ExItemTag, Tag: 3, Call: ir.BlockCall{Block: g1}},
			{Kind: ir.ExItemTag, Tag: 4, Call: ir.BlockCall{Block: g2}},
		},
	})
	callee.Append(entry, ir.InstData{Op: ir.OpTryCall, Func: gref, Args: []ir.Value{p}, ExTable: et})
	np := callee.AppendBlockParam(nr, ir.TypeI64)
	callee.Append(nr, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{np}})

	if _, err := inline.Run(caller, onePolicy{name: "f", f: callee}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	mustValidate(t, caller)

	nested := findOp(t, caller, ir.OpTryCall)
	items := caller.ExceptionTables[nested.ExTable].Items
	var order []string
	for _, item := range items {
		switch item.Kind {
		case ir.ExItemTag:
			order = append(order, tagName(item.Tag))
		case ir.ExItemDefault:
			order = append(order, "default")
		}
	}
	want := []string{"tag3", "tag4", "tag1", "tag2", "default"}
	if len(order) != len(want) {
		t.Fatalf("merged items = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("merged items = %v, want %v", order, want)
		}
	}
	// The nested call's own normal-return edge must survive the merge.
	if caller.ExceptionTables[nested.ExTable].NormalReturn.Block == ir.NoBlock {
		t.Fatal("nested normal-return edge lost")
	}
}

// TestExceptionContextRemap: a context item in an inlined exception
// table is carried through the value map like any other operand, so it
// ends up reading the caller-side value the callee formal was bound to.
func TestExceptionContextRemap(t *testing.T) {
	// Callee f wraps try_call g, threading its own parameter through a
	// context item.
	callee := ir.NewFunction("f", i64Sig(1, 1))
	entry := callee.AddBlock()
	p := callee.AppendBlockParam(entry, ir.TypeI64)
	gref := declareCallee(callee, "g", i64Sig(1, 1))
	nr := callee.AddBlock()
	hd := callee.AddBlock()
	callee.Append(hd, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{p}})
	et := callee.DeclareExceptionTable(ir.ExceptionTableData{
		Sig:          callee.FuncRefs[gref].Sig,
		NormalReturn: ir.BlockCall{Block: nr, Args: []ir.BlockArg{ir.TryCallRetArg(0)}},
		Items: []ir.ExTableItem{
			{Kind: ir.ExItemContext, Context: p},
			{Kind: ir.ExItemDefault, Call: ir.BlockCall{Block: hd}},
		},
	})
	callee.Append(entry, ir.InstData{Op: ir.OpTryCall, Func: gref, Args: []ir.Value{p}, ExTable: et})
	np := callee.AppendBlockParam(nr, ir.TypeI64)
	callee.Append(nr, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{np}})

	caller := ir.NewFunction("main", i64Sig(1, 1))
	b0 := caller.AddBlock()
	x := caller.AppendBlockParam(b0, ir.TypeI64)
	ref := declareCallee(caller, "f", i64Sig(1, 1))
	call := caller.Append(b0, ir.InstData{Op: ir.OpCall, Func: ref, Args: []ir.Value{x}})
	res := caller.AllocResults(call, []ir.Type{ir.TypeI64})
	caller.Append(b0, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{res[0]}})

	if _, err := inline.Run(caller, onePolicy{name: "f", f: callee}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	mustValidate(t, caller)

	nested := findOp(t, caller, ir.OpTryCall)
	items := caller.ExceptionTables[nested.ExTable].Items
	if len(items) != 2 {
		t.Fatalf("inlined table has %d items, want 2:\n%s", len(items), ir.FuncString(caller))
	}
	if items[0].Kind != ir.ExItemContext {
		t.Fatalf("first item kind = %v, want context", items[0].Kind)
	}
	if got := caller.ResolveAliases(items[0].Context); got != x {
		t.Fatalf("context resolves to v%d, want the caller argument v%d:\n%s",
			got, x, ir.FuncString(caller))
	}
}

func tagName(tag ir.Tag) string {
	switch tag {
	case 1:
		return "tag1"
	case 2:
		return "tag2"
	case 3:
		return "tag3"
	case 4:
		return "tag4"
	}
	return "tag?"
}

// TestExceptionFixupPlainCall: a plain call nested in a body inlined at
// a try_call site is converted to try_call: its block is split, its
// results become the successor's parameters, and a retargeted clone of
// the outer table is attached.
func TestExceptionFixupPlainCall(t *testing.T) {
	caller, _ := tryCaller(t, func(ret ir.Block, _ ir.Value) (ir.Block, []ir.BlockArg) {
		return ret, []ir.BlockArg{ir.TryCallRetArg(0)}
	})
	ret := caller.Layout[1]
	rp := caller.AppendBlockParam(ret, ir.TypeI64)
	caller.Append(ret, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{rp}})

	// Callee f: v = call g(p); w = iadd v, v; return w.
	callee := ir.NewFunction("f", i64Sig(1, 1))
	entry := callee.AddBlock()
	p := callee.AppendBlockParam(entry, ir.TypeI64)
	gref := declareCallee(callee, "g", i64Sig(1, 1))
	call := callee.Append(entry, ir.InstData{Op: ir.OpCall, Func: gref, Args: []ir.Value{p}})
	res := callee.AllocResults(call, []ir.Type{ir.TypeI64})
	add := callee.Append(entry, ir.InstData{Op: ir.OpIadd, Args: []ir.Value{res[0], res[0]}})
	ares := callee.AllocResults(add, []ir.Type{ir.TypeI64})
	callee.Append(entry, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{ares[0]}})

	if _, err := inline.Run(caller, onePolicy{name: "f", f: callee}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	mustValidate(t, caller)

	if countOps(caller, ir.OpCall) != 0 {
		t.Fatalf("nested call not converted:\n%s", ir.FuncString(caller))
	}
	nested := findOp(t, caller, ir.OpTryCall)
	table := caller.ExceptionTables[nested.ExTable]

	if got := len(table.Items); got != 3 {
		t.Fatalf("converted call has %d items, want the outer 3:\n%s", got, ir.FuncString(caller))
	}
	succ := table.NormalReturn.Block
	if len(caller.Blocks[succ].Params) != 1 {
		t.Fatalf("successor block%d has %d params, want 1", succ, len(caller.Blocks[succ].Params))
	}
	if len(table.NormalReturn.Args) != 1 || table.NormalReturn.Args[0].Kind != ir.BlockArgTryCallRet {
		t.Fatalf("normal-return args = %+v, want one TryCallRet", table.NormalReturn.Args)
	}
	// The iadd moved into the successor and reads its parameter.
	foundAdd := false
	for _, i := range caller.Blocks[succ].Insts {
		if caller.Insts[i].Op == ir.OpIadd {
			foundAdd = true
			for _, a := range caller.Insts[i].Args {
				if caller.ResolveAliases(a) != caller.Blocks[succ].Params[0] {
					t.Fatalf("iadd arg does not resolve to successor param:\n%s", ir.FuncString(caller))
				}
			}
		}
	}
	if !foundAdd {
		t.Fatalf("split did not move the tail into the successor:\n%s", ir.FuncString(caller))
	}
}
