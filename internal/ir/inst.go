package ir

// Opcode enumerates instruction kinds.
type Opcode uint8

const (
	OpInvalid Opcode = iota

	// Pure operations.
	OpIconst   // integer constant from the immediate pool
	OpF64const // float constant from the immediate pool
	OpVconst   // wide constant from the constant pool
	OpIadd
	OpIsub
	OpImul
	OpIcmpEq

	// Memory and entity-referencing operations.
	OpStackLoad        // reads a stack slot
	OpStackStore       // writes a stack slot
	OpDynamicStackLoad // reads a dynamic stack slot
	OpGlobalLoad       // materializes a global value
	OpFuncAddr         // materializes a function address

	// Un-legalized address materialization. Legalization lowers these;
	// none may remain in a function handed to the inliner.
	OpSymbolAddr
	OpTlsValue

	// Calls.
	OpCall
	OpCallIndirect
	OpReturnCall
	OpReturnCallIndirect
	OpTryCall
	OpTryCallIndirect

	// Control flow.
	OpReturn
	OpJump
	OpBrif
	OpBrTable
	OpTrap
)

var opcodeNames = [...]string{
	OpInvalid:            "invalid",
	OpIconst:             "iconst",
	OpF64const:           "f64const",
	OpVconst:             "vconst",
	OpIadd:               "iadd",
	OpIsub:               "isub",
	OpImul:               "imul",
	OpIcmpEq:             "icmp_eq",
	OpStackLoad:          "stack_load",
	OpStackStore:         "stack_store",
	OpDynamicStackLoad:   "dynamic_stack_load",
	OpGlobalLoad:         "global_load",
	OpFuncAddr:           "func_addr",
	OpSymbolAddr:         "symbol_addr",
	OpTlsValue:           "tls_value",
	OpCall:               "call",
	OpCallIndirect:       "call_indirect",
	OpReturnCall:         "return_call",
	OpReturnCallIndirect: "return_call_indirect",
	OpTryCall:            "try_call",
	OpTryCallIndirect:    "try_call_indirect",
	OpReturn:             "return",
	OpJump:               "jump",
	OpBrif:               "brif",
	OpBrTable:            "br_table",
	OpTrap:               "trap",
}

func (op Opcode) String() string {
	if int(op) < len(opcodeNames) && opcodeNames[op] != "" {
		return opcodeNames[op]
	}
	return "unknown"
}

// IsCall reports whether op transfers control into another function.
func (op Opcode) IsCall() bool {
	switch op {
	case OpCall, OpCallIndirect, OpReturnCall, OpReturnCallIndirect, OpTryCall, OpTryCallIndirect:
		return true
	}
	return false
}

// IsDirectCall reports whether op is a call with a statically known callee.
func (op Opcode) IsDirectCall() bool {
	switch op {
	case OpCall, OpReturnCall, OpTryCall:
		return true
	}
	return false
}

// IsReturnClass reports whether op leaves the current function frame.
func (op Opcode) IsReturnClass() bool {
	switch op {
	case OpReturn, OpReturnCall, OpReturnCallIndirect:
		return true
	}
	return false
}

// IsTerminator reports whether op must end a block.
func (op Opcode) IsTerminator() bool {
	switch op {
	case OpReturn, OpReturnCall, OpReturnCallIndirect, OpTryCall, OpTryCallIndirect,
		OpJump, OpBrif, OpBrTable, OpTrap:
		return true
	}
	return false
}

// IsUnlegalized reports whether op is a target-dependent address
// materialization that legalization must have removed.
func (op Opcode) IsUnlegalized() bool {
	return op == OpSymbolAddr || op == OpTlsValue
}

// BlockArgKind distinguishes branch-edge argument kinds.
type BlockArgKind uint8

const (
	// BlockArgValue passes an SSA value.
	BlockArgValue BlockArgKind = iota
	// BlockArgTryCallRet passes the i-th ordinary return of an
	// exceptional call along its normal-return edge.
	BlockArgTryCallRet
)

// BlockArg is one argument of a BlockCall.
type BlockArg struct {
	Kind  BlockArgKind
	Value Value
	Ret   int32
}

// ValueArg builds a plain value argument.
func ValueArg(v Value) BlockArg { return BlockArg{Kind: BlockArgValue, Value: v} }

// TryCallRetArg builds a normal-return forwarding argument.
func TryCallRetArg(i int32) BlockArg { return BlockArg{Kind: BlockArgTryCallRet, Ret: i} }

// BlockCall is a branch edge: a target block plus its arguments.
type BlockCall struct {
	Block Block
	Args  []BlockArg
}

// StackMapEntry records one live GC reference at a safepoint: a typed
// location inside a stack slot.
type StackMapEntry struct {
	Type   Type
	Slot   StackSlot
	Offset uint32
}

// InstData describes one instruction. Which fields are meaningful is
// determined by Op; unused entity fields keep their zero values and must
// not be read.
type InstData struct {
	Op   Opcode
	Args []Value

	// Calls holds branch edges for jump (one) and brif (then, else).
	Calls []BlockCall

	Slot    StackSlot
	DynSlot DynamicStackSlot
	Global  GlobalValue
	Sig     SigRef
	Func    FuncRef
	Imm     Immediate
	Const   Constant
	Table   JumpTable
	ExTable ExceptionTable

	Results []Value

	// StackMap lists live GC references across this instruction; only
	// call-class instructions carry one.
	StackMap []StackMapEntry
}
