package ir

import "strings"

// Signature describes the parameter and result types of a function or of
// an indirect call site.
type Signature struct {
	Params  []Type
	Results []Type
}

// Equal reports structural equality of two signatures.
func (s Signature) Equal(o Signature) bool {
	if len(s.Params) != len(o.Params) || len(s.Results) != len(o.Results) {
		return false
	}
	for i := range s.Params {
		if s.Params[i] != o.Params[i] {
			return false
		}
	}
	for i := range s.Results {
		if s.Results[i] != o.Results[i] {
			return false
		}
	}
	return true
}

func (s Signature) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	for i, t := range s.Params {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.String())
	}
	sb.WriteByte(')')
	if len(s.Results) > 0 {
		sb.WriteString(" -> ")
		for i, t := range s.Results {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(t.String())
		}
	}
	return sb.String()
}
