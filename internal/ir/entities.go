package ir

// Entity handles index the dense per-function arenas. Handles are plain
// arena positions: entity i of a kind lives at index i of the matching
// slice on Function. The No* sentinels mark absent references.

type (
	Value            int32
	Inst             int32
	Block            int32
	StackSlot        int32
	DynamicType      int32
	DynamicStackSlot int32
	GlobalValue      int32
	SigRef           int32
	FuncRef          int32
	ExternalName     int32
	Immediate        int32
	Constant         int32
	JumpTable        int32
	ExceptionTable   int32
)

// Tag identifies an exception class matched by exception-table items.
type Tag int32

const (
	NoValue            Value            = -1
	NoInst             Inst             = -1
	NoBlock            Block            = -1
	NoStackSlot        StackSlot        = -1
	NoDynamicType      DynamicType      = -1
	NoDynamicStackSlot DynamicStackSlot = -1
	NoGlobalValue      GlobalValue      = -1
	NoSigRef           SigRef           = -1
	NoFuncRef          FuncRef          = -1
	NoExternalName     ExternalName     = -1
	NoImmediate        Immediate        = -1
	NoConstant         Constant         = -1
	NoJumpTable        JumpTable        = -1
	NoExceptionTable   ExceptionTable   = -1
)
