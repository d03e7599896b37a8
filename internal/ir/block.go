package ir

// BlockData describes one basic block: its parameters, its instruction
// sequence, and placement hints. Block order within the function lives in
// Function.Layout; a block present in the arena but absent from the
// layout is not emitted.
type BlockData struct {
	Params []Value
	Insts  []Inst

	// Cold marks the block as rarely executed.
	Cold bool
}
