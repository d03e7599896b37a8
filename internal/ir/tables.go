package ir

// JumpTableData is the branch table of a br_table terminator: a default
// edge plus index-addressed edges.
type JumpTableData struct {
	Default BlockCall
	Targets []BlockCall
}

// AllCalls returns every edge of the table, default first.
func (t *JumpTableData) AllCalls() []BlockCall {
	out := make([]BlockCall, 0, len(t.Targets)+1)
	out = append(out, t.Default)
	out = append(out, t.Targets...)
	return out
}

// ExItemKind distinguishes exception-table item kinds.
type ExItemKind uint8

const (
	// ExItemTag matches one exception tag and branches to a handler.
	ExItemTag ExItemKind = iota
	// ExItemDefault matches any tag and branches to a handler.
	ExItemDefault
	// ExItemContext threads a context value through the unwinder.
	ExItemContext
)

// ExTableItem is one entry of an exception table. Matching is first
// match wins over the item order.
type ExTableItem struct {
	Kind    ExItemKind
	Tag     Tag
	Call    BlockCall
	Context Value
}

// ExceptionTableData describes the edges of a try_call: the signature of
// the callee, the distinguished normal-return edge, and the ordered
// match sequence.
type ExceptionTableData struct {
	Sig          SigRef
	NormalReturn BlockCall
	Items        []ExTableItem
}
