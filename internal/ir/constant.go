package ir

// ConstantPool stores constants content-addressed: inserting bytes equal
// to an existing entry returns the existing handle. Entries are exported
// for serialization; the lookup index is rebuilt lazily, so a decoded
// pool works without fix-up.
type ConstantPool struct {
	Entries [][]byte

	index map[string]Constant
}

func (p *ConstantPool) buildIndex() {
	p.index = make(map[string]Constant, len(p.Entries))
	for i, data := range p.Entries {
		p.index[string(data)] = Constant(i) //nolint:gosec // dense arena, bounded by int32 handles
	}
}

// Insert returns the handle for data, adding a new entry only if no
// entry with identical content exists.
func (p *ConstantPool) Insert(data []byte) Constant {
	if p.index == nil {
		p.buildIndex()
	}
	if c, ok := p.index[string(data)]; ok {
		return c
	}
	c := Constant(len(p.Entries)) //nolint:gosec // see above
	p.Entries = append(p.Entries, data)
	p.index[string(data)] = c
	return c
}

// Get returns the content of a constant.
func (p *ConstantPool) Get(c Constant) []byte {
	return p.Entries[c]
}

// Len returns the number of distinct constants.
func (p *ConstantPool) Len() int { return len(p.Entries) }
