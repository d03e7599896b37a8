package ir

// CursorPos is a saved cursor position: a block's layout index and an
// instruction index within that block. Positions stay valid across
// edits that only touch the layout after the position.
type CursorPos struct {
	BlockIdx int
	InstIdx  int
}

// Cursor walks a function's instructions in layout order. Next advances
// past the current position; Pos/SetPos save and restore it, which lets
// a pass re-scan freshly inserted code.
type Cursor struct {
	F   *Function
	pos CursorPos
}

// NewCursor returns a cursor positioned before the first instruction.
func NewCursor(f *Function) *Cursor {
	return &Cursor{F: f, pos: CursorPos{BlockIdx: 0, InstIdx: -1}}
}

// Pos returns the current position.
func (c *Cursor) Pos() CursorPos { return c.pos }

// SetPos restores a previously saved position.
func (c *Cursor) SetPos(p CursorPos) { c.pos = p }

// Next advances to the next laid-out instruction and returns it.
func (c *Cursor) Next() (Inst, bool) {
	for c.pos.BlockIdx < len(c.F.Layout) {
		b := c.F.Layout[c.pos.BlockIdx]
		if c.pos.InstIdx+1 < len(c.F.Blocks[b].Insts) {
			c.pos.InstIdx++
			return c.F.Blocks[b].Insts[c.pos.InstIdx], true
		}
		c.pos.BlockIdx++
		c.pos.InstIdx = -1
	}
	return NoInst, false
}

// Block returns the block holding the cursor's current instruction.
func (c *Cursor) Block() Block {
	return c.F.Layout[c.pos.BlockIdx]
}
