package ir

import "fmt"

// Layout manipulation. The layout is the emission order of blocks; block
// data stays in the arena when a block leaves the layout.

func (f *Function) layoutIndex(b Block) int {
	for i, lb := range f.Layout {
		if lb == b {
			return i
		}
	}
	return -1
}

// InLayout reports whether b currently has a position in the layout.
func (f *Function) InLayout(b Block) bool {
	return f.layoutIndex(b) >= 0
}

// InsertBlockAfter places b in the layout immediately after the block
// after. Panics if after is not laid out or b already is.
func (f *Function) InsertBlockAfter(b, after Block) {
	if f.layoutIndex(b) >= 0 {
		panic(fmt.Sprintf("ir: block%d already in layout", b))
	}
	idx := f.layoutIndex(after)
	if idx < 0 {
		panic(fmt.Sprintf("ir: block%d not in layout", after))
	}
	f.Layout = append(f.Layout, NoBlock)
	copy(f.Layout[idx+2:], f.Layout[idx+1:])
	f.Layout[idx+1] = b
}

// RemoveFromLayout takes b out of the layout. The block's data remains
// allocated; only its position is dropped.
func (f *Function) RemoveFromLayout(b Block) {
	idx := f.layoutIndex(b)
	if idx < 0 {
		return
	}
	f.Layout = append(f.Layout[:idx], f.Layout[idx+1:]...)
}

// FindBlock returns the laid-out block currently holding instruction i,
// or NoBlock.
func (f *Function) FindBlock(i Inst) Block {
	for _, b := range f.Layout {
		for _, in := range f.Blocks[b].Insts {
			if in == i {
				return b
			}
		}
	}
	return NoBlock
}

// SplitAfter splits block b right after instruction i: a new block is
// created, placed immediately after b in the layout, and receives every
// instruction following i. Panics if i is not in b.
func (f *Function) SplitAfter(b Block, i Inst) Block {
	insts := f.Blocks[b].Insts
	pos := -1
	for n, in := range insts {
		if in == i {
			pos = n
			break
		}
	}
	if pos < 0 {
		panic(fmt.Sprintf("ir: inst%d not in block%d", i, b))
	}
	nb := f.NewBlock()
	tail := insts[pos+1:]
	if len(tail) > 0 {
		moved := make([]Inst, len(tail))
		copy(moved, tail)
		f.Blocks[nb].Insts = moved
	}
	f.Blocks[b].Insts = insts[:pos+1]
	f.InsertBlockAfter(nb, b)
	return nb
}
