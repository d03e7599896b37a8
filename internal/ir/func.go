package ir

import (
	"fmt"

	"fortio.org/safecast"
)

// mustInt32 converts an arena length to a handle, panicking on overflow.
// Arenas are bounded by int32 handles throughout the IR.
func mustInt32(n int) int32 {
	v, err := safecast.Conv[int32](n)
	if err != nil {
		panic(fmt.Sprintf("ir: arena overflow: %v", err))
	}
	return v
}

// Function is one SSA function: its values, instructions, blocks, layout,
// and every entity arena referenced by its instructions. A Function
// exclusively owns all of its entities.
type Function struct {
	Name string
	Sig  Signature

	Values []ValueData
	Insts  []InstData
	Blocks []BlockData
	Layout []Block
	Entry  Block

	StackSlots        []StackSlotData
	DynamicTypes      []DynamicTypeData
	DynamicStackSlots []DynamicStackSlotData
	GlobalValues      []GlobalValueData
	SigRefs           []Signature
	ExternalNames     []ExternalNameData
	FuncRefs          []FuncRefData
	Immediates        []uint64
	JumpTables        []JumpTableData
	ExceptionTables   []ExceptionTableData
	Constants         ConstantPool
}

// NewFunction returns an empty function with the given symbol name and
// signature.
func NewFunction(name string, sig Signature) *Function {
	return &Function{Name: name, Sig: sig, Entry: NoBlock}
}

// NewBlock allocates a block in the arena without placing it in the
// layout.
func (f *Function) NewBlock() Block {
	b := Block(mustInt32(len(f.Blocks)))
	f.Blocks = append(f.Blocks, BlockData{})
	return b
}

// AddBlock allocates a block and appends it to the layout. The first
// added block becomes the entry.
func (f *Function) AddBlock() Block {
	b := f.NewBlock()
	f.Layout = append(f.Layout, b)
	if f.Entry == NoBlock {
		f.Entry = b
	}
	return b
}

// AppendBlockParam adds a typed parameter to a block and returns its
// value.
func (f *Function) AppendBlockParam(b Block, t Type) Value {
	num := mustInt32(len(f.Blocks[b].Params))
	v := f.allocValue(ValueData{Kind: ValueParam, Type: t, Block: b, Num: num, Inst: NoInst, Alias: NoValue})
	f.Blocks[b].Params = append(f.Blocks[b].Params, v)
	return v
}

func (f *Function) allocValue(d ValueData) Value {
	v := Value(mustInt32(len(f.Values)))
	f.Values = append(f.Values, d)
	return v
}

// NewInst allocates an instruction without placing it in any block.
func (f *Function) NewInst(d InstData) Inst {
	i := Inst(mustInt32(len(f.Insts)))
	f.Insts = append(f.Insts, d)
	return i
}

// Append allocates an instruction and appends it to block b.
func (f *Function) Append(b Block, d InstData) Inst {
	i := f.NewInst(d)
	f.Blocks[b].Insts = append(f.Blocks[b].Insts, i)
	return i
}

// AppendInst places an already-allocated instruction at the end of
// block b.
func (f *Function) AppendInst(b Block, i Inst) {
	f.Blocks[b].Insts = append(f.Blocks[b].Insts, i)
}

// AllocResults creates one result value per type for instruction i and
// records them on the instruction.
func (f *Function) AllocResults(i Inst, types []Type) []Value {
	results := make([]Value, len(types))
	for n, t := range types {
		results[n] = f.allocValue(ValueData{
			Kind:  ValueInst,
			Type:  t,
			Inst:  i,
			Num:   mustInt32(n),
			Block: NoBlock,
			Alias: NoValue,
		})
	}
	f.Insts[i].Results = results
	return results
}

// ValueType returns the type of v.
func (f *Function) ValueType(v Value) Type {
	return f.Values[v].Type
}

// ResolveAliases follows alias redirects until a real definition is
// found. Panics on an alias cycle, which indicates corrupted IR.
func (f *Function) ResolveAliases(v Value) Value {
	for steps := 0; f.Values[v].Kind == ValueAlias; steps++ {
		if steps > len(f.Values) {
			panic(fmt.Sprintf("ir: alias cycle at v%d", v))
		}
		v = f.Values[v].Alias
	}
	return v
}

// ChangeToAlias redirects v to dest: every use of v now observes dest.
// The original definition of v is detached.
func (f *Function) ChangeToAlias(v, dest Value) {
	dest = f.ResolveAliases(dest)
	if v == dest {
		panic(fmt.Sprintf("ir: v%d cannot alias itself", v))
	}
	f.Values[v] = ValueData{Kind: ValueAlias, Type: f.Values[v].Type, Alias: dest, Inst: NoInst, Block: NoBlock}
}

// DeclareStackSlot appends a stack slot.
func (f *Function) DeclareStackSlot(d StackSlotData) StackSlot {
	s := StackSlot(mustInt32(len(f.StackSlots)))
	f.StackSlots = append(f.StackSlots, d)
	return s
}

// DeclareDynamicType appends a dynamic type.
func (f *Function) DeclareDynamicType(d DynamicTypeData) DynamicType {
	t := DynamicType(mustInt32(len(f.DynamicTypes)))
	f.DynamicTypes = append(f.DynamicTypes, d)
	return t
}

// DeclareDynamicStackSlot appends a dynamic stack slot.
func (f *Function) DeclareDynamicStackSlot(d DynamicStackSlotData) DynamicStackSlot {
	s := DynamicStackSlot(mustInt32(len(f.DynamicStackSlots)))
	f.DynamicStackSlots = append(f.DynamicStackSlots, d)
	return s
}

// DeclareGlobalValue appends a global value.
func (f *Function) DeclareGlobalValue(d GlobalValueData) GlobalValue {
	g := GlobalValue(mustInt32(len(f.GlobalValues)))
	f.GlobalValues = append(f.GlobalValues, d)
	return g
}

// DeclareSignature appends a signature reference.
func (f *Function) DeclareSignature(s Signature) SigRef {
	r := SigRef(mustInt32(len(f.SigRefs)))
	f.SigRefs = append(f.SigRefs, s)
	return r
}

// DeclareExternalName appends an external name.
func (f *Function) DeclareExternalName(name string) ExternalName {
	n := ExternalName(mustInt32(len(f.ExternalNames)))
	f.ExternalNames = append(f.ExternalNames, ExternalNameData{Name: name})
	return n
}

// DeclareFuncRef appends an external function reference.
func (f *Function) DeclareFuncRef(d FuncRefData) FuncRef {
	r := FuncRef(mustInt32(len(f.FuncRefs)))
	f.FuncRefs = append(f.FuncRefs, d)
	return r
}

// DeclareImmediate appends a 64-bit immediate.
func (f *Function) DeclareImmediate(bits uint64) Immediate {
	m := Immediate(mustInt32(len(f.Immediates)))
	f.Immediates = append(f.Immediates, bits)
	return m
}

// DeclareJumpTable appends a jump table.
func (f *Function) DeclareJumpTable(d JumpTableData) JumpTable {
	t := JumpTable(mustInt32(len(f.JumpTables)))
	f.JumpTables = append(f.JumpTables, d)
	return t
}

// DeclareExceptionTable appends an exception table.
func (f *Function) DeclareExceptionTable(d ExceptionTableData) ExceptionTable {
	t := ExceptionTable(mustInt32(len(f.ExceptionTables)))
	f.ExceptionTables = append(f.ExceptionTables, d)
	return t
}

// FuncRefName returns the symbol name behind a function reference.
func (f *Function) FuncRefName(r FuncRef) string {
	return f.ExternalNames[f.FuncRefs[r].Name].Name
}

// FuncRefSig returns the declared signature behind a function reference.
func (f *Function) FuncRefSig(r FuncRef) Signature {
	return f.SigRefs[f.FuncRefs[r].Sig]
}

// InstCount returns the number of laid-out instructions.
func (f *Function) InstCount() int {
	n := 0
	for _, b := range f.Layout {
		n += len(f.Blocks[b].Insts)
	}
	return n
}
