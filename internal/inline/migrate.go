package inline

import (
	"crest/internal/ir"
)

// migrateEntities bulk-appends every callee arena onto the caller's
// matching arena and records the resulting offsets. The order is fixed
// because later kinds reference earlier ones: blocks, global values,
// signatures, external names, func refs (signatures + names), stack
// slots, dynamic types (global values), dynamic stack slots (dynamic
// types), immediates, constants.
func migrateEntities(caller, callee *ir.Function, allocs *inliningAllocs) *entityMap {
	em := &entityMap{}

	em.block = int32(len(caller.Blocks))
	migrateBlocks(caller, callee, em, allocs)

	em.globalValue = int32(len(caller.GlobalValues))
	for _, g := range callee.GlobalValues {
		if g.Kind == ir.GlobalValueLoad || g.Kind == ir.GlobalValueIAddImm {
			g.Base = em.globalValueOf(g.Base)
		}
		caller.GlobalValues = append(caller.GlobalValues, g)
	}

	em.sigRef = int32(len(caller.SigRefs))
	for _, s := range callee.SigRefs {
		caller.SigRefs = append(caller.SigRefs, ir.Signature{
			Params:  append([]ir.Type(nil), s.Params...),
			Results: append([]ir.Type(nil), s.Results...),
		})
	}

	migrateExternalNames(caller, callee, allocs)

	em.funcRef = int32(len(caller.FuncRefs))
	for _, r := range callee.FuncRefs {
		caller.FuncRefs = append(caller.FuncRefs, ir.FuncRefData{
			Sig:  em.sigRefOf(r.Sig),
			Name: allocs.names[r.Name],
		})
	}

	em.stackSlot = int32(len(caller.StackSlots))
	caller.StackSlots = append(caller.StackSlots, callee.StackSlots...)

	em.dynamicType = int32(len(caller.DynamicTypes))
	for _, t := range callee.DynamicTypes {
		t.Scale = em.globalValueOf(t.Scale)
		caller.DynamicTypes = append(caller.DynamicTypes, t)
	}

	em.dynamicStackSlot = int32(len(caller.DynamicStackSlots))
	for _, s := range callee.DynamicStackSlots {
		s.DynType = em.dynamicTypeOf(s.DynType)
		caller.DynamicStackSlots = append(caller.DynamicStackSlots, s)
	}

	em.immediate = int32(len(caller.Immediates))
	caller.Immediates = append(caller.Immediates, callee.Immediates...)

	for i, data := range callee.Constants.Entries {
		owned := append([]byte(nil), data...)
		allocs.constants[ir.Constant(int32(i))] = caller.Constants.Insert(owned)
	}

	return em
}

// migrateBlocks creates one caller block per callee block, in order, so
// that the block offset holds for the whole operation. Cold hints are
// propagated. Every non-entry block gets a caller parameter per callee
// parameter, registered in the value map; the entry block's formals are
// instead bound directly to the call's actual arguments, which is valid
// because the call block dominates the inlined entry.
func migrateBlocks(caller, callee *ir.Function, em *entityMap, allocs *inliningAllocs) {
	for bi := range callee.Blocks {
		b := ir.Block(int32(bi))
		nb := caller.NewBlock()
		caller.Blocks[nb].Cold = callee.Blocks[b].Cold
		if b == callee.Entry {
			continue
		}
		for _, p := range callee.Blocks[b].Params {
			np := caller.AppendBlockParam(nb, callee.ValueType(p))
			allocs.values[p] = np
		}
	}
}

// migrateExternalNames copies callee external names, reusing any caller
// name with the same symbol.
func migrateExternalNames(caller, callee *ir.Function, allocs *inliningAllocs) {
	existing := make(map[string]ir.ExternalName, len(caller.ExternalNames))
	for i, n := range caller.ExternalNames {
		if _, ok := existing[n.Name]; !ok {
			existing[n.Name] = ir.ExternalName(int32(i))
		}
	}
	for i, n := range callee.ExternalNames {
		cn, ok := existing[n.Name]
		if !ok {
			cn = caller.DeclareExternalName(n.Name)
			existing[n.Name] = cn
		}
		allocs.names[ir.ExternalName(int32(i))] = cn
	}
}
