package ir

// Module is an ordered collection of functions.
type Module struct {
	Funcs []*Function
}

// Func returns the function with the given symbol name, or nil.
func (m *Module) Func(name string) *Function {
	for _, f := range m.Funcs {
		if f != nil && f.Name == name {
			return f
		}
	}
	return nil
}
