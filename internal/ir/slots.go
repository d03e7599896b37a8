package ir

// StackSlotData describes a fixed-size stack slot.
type StackSlotData struct {
	Size  uint32
	Align uint8
}

// GlobalValueKind distinguishes how a global value is computed.
type GlobalValueKind uint8

const (
	// GlobalValueSymbol is the address of a named symbol.
	GlobalValueSymbol GlobalValueKind = iota
	// GlobalValueLoad loads from another global value plus an offset.
	GlobalValueLoad
	// GlobalValueIAddImm adds a constant offset to another global value.
	GlobalValueIAddImm
)

// GlobalValueData describes a value computed from the runtime environment
// rather than from SSA dataflow. Load and IAddImm kinds chain through
// Base within the same arena.
type GlobalValueData struct {
	Kind   GlobalValueKind
	Symbol string
	Base   GlobalValue
	Offset int64
	Type   Type
}

// DynamicTypeData is a vector type whose lane count is scaled by a
// runtime global value.
type DynamicTypeData struct {
	Base  Type
	Scale GlobalValue
}

// DynamicStackSlotData is a stack slot sized by a dynamic type.
type DynamicStackSlotData struct {
	DynType DynamicType
}

// ExternalNameData names an entity outside the current function.
type ExternalNameData struct {
	Name string
}

// FuncRefData describes a callable external function: its name and its
// declared signature.
type FuncRefData struct {
	Sig  SigRef
	Name ExternalName
}
