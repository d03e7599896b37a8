package ir

// ValueKind distinguishes how a value is defined.
type ValueKind uint8

const (
	// ValueInst is a value defined as an instruction result.
	ValueInst ValueKind = iota
	// ValueParam is a value defined as a block parameter.
	ValueParam
	// ValueAlias is a value redirected to another value.
	ValueAlias
)

// ValueData describes one SSA value.
type ValueData struct {
	Kind ValueKind
	Type Type

	// Inst is the defining instruction for ValueInst values.
	Inst Inst
	// Block is the owning block for ValueParam values.
	Block Block
	// Num is the result or parameter position within the definition.
	Num int32
	// Alias is the redirect target for ValueAlias values.
	Alias Value
}
