package inline

import (
	"fmt"

	"fortio.org/safecast"

	"crest/internal/ir"
)

// addOffset adds a callee arena index to a caller offset, checked.
func addOffset(offset int32, idx int32) int32 {
	v, err := safecast.Conv[int32](int64(offset) + int64(idx))
	if err != nil {
		panic(fmt.Sprintf("inline: entity index overflow: %v", err))
	}
	return v
}

// entityMap translates callee dense-arena indices into caller index
// space. Each dense arena is migrated by bulk append, so a single
// integer offset per kind is enough: callee index i of a kind maps to
// caller index offset+i. Constants and external names are
// content-deduplicated and go through the maps on inliningAllocs
// instead.
type entityMap struct {
	block            int32
	globalValue      int32
	sigRef           int32
	funcRef          int32
	stackSlot        int32
	dynamicType      int32
	dynamicStackSlot int32
	immediate        int32
}

func (em *entityMap) blockOf(b ir.Block) ir.Block {
	return ir.Block(addOffset(em.block, int32(b)))
}

func (em *entityMap) globalValueOf(g ir.GlobalValue) ir.GlobalValue {
	return ir.GlobalValue(addOffset(em.globalValue, int32(g)))
}

func (em *entityMap) sigRefOf(s ir.SigRef) ir.SigRef {
	return ir.SigRef(addOffset(em.sigRef, int32(s)))
}

func (em *entityMap) funcRefOf(r ir.FuncRef) ir.FuncRef {
	return ir.FuncRef(addOffset(em.funcRef, int32(r)))
}

func (em *entityMap) stackSlotOf(s ir.StackSlot) ir.StackSlot {
	return ir.StackSlot(addOffset(em.stackSlot, int32(s)))
}

func (em *entityMap) dynamicTypeOf(t ir.DynamicType) ir.DynamicType {
	return ir.DynamicType(addOffset(em.dynamicType, int32(t)))
}

func (em *entityMap) dynamicStackSlotOf(s ir.DynamicStackSlot) ir.DynamicStackSlot {
	return ir.DynamicStackSlot(addOffset(em.dynamicStackSlot, int32(s)))
}

func (em *entityMap) immediateOf(m ir.Immediate) ir.Immediate {
	return ir.Immediate(addOffset(em.immediate, int32(m)))
}

// inliningAllocs is the scratch state of one inlining operation. It is
// reset between repeated inlinings in the same driver pass so the maps
// keep their capacity.
type inliningAllocs struct {
	// values maps callee values (aliases resolved) to caller values.
	values map[ir.Value]ir.Value
	// constants maps callee constants to caller constants; the caller
	// pool deduplicates by content, so no offset applies.
	constants map[ir.Constant]ir.Constant
	// names maps callee external names to caller external names,
	// deduplicated by symbol.
	names map[ir.ExternalName]ir.ExternalName
	// exFixups lists translated caller calls that still need the outer
	// try_call's exception edges. Editing them during translation would
	// split blocks and break the callee-to-caller block mapping, so the
	// edits run as a later pass.
	exFixups []ir.Inst
}

func newInliningAllocs() *inliningAllocs {
	return &inliningAllocs{
		values:    make(map[ir.Value]ir.Value),
		constants: make(map[ir.Constant]ir.Constant),
		names:     make(map[ir.ExternalName]ir.ExternalName),
	}
}

func (a *inliningAllocs) reset() {
	clear(a.values)
	clear(a.constants)
	clear(a.names)
	a.exFixups = a.exFixups[:0]
}
