package ir

import (
	"fmt"
	"io"
	"strings"
)

// Fprint writes a human-readable representation of a function.
func Fprint(w io.Writer, f *Function) error {
	if w == nil || f == nil {
		return nil
	}
	fmt.Fprintf(w, "fn %s%s:\n", f.Name, f.Sig.String())
	for i := range f.StackSlots {
		s := f.StackSlots[i]
		fmt.Fprintf(w, "  ss%d: size=%d align=%d\n", i, s.Size, s.Align)
	}
	for i := range f.GlobalValues {
		fmt.Fprintf(w, "  gv%d: %s\n", i, formatGlobalValue(f.GlobalValues[i]))
	}
	for _, b := range f.Layout {
		fmt.Fprintf(w, "  %s:\n", formatBlockHeader(f, b))
		for _, in := range f.Blocks[b].Insts {
			fmt.Fprintf(w, "    %s\n", FormatInst(f, in))
		}
	}
	return nil
}

// FuncString returns the printed form of f.
func FuncString(f *Function) string {
	var sb strings.Builder
	_ = Fprint(&sb, f)
	return sb.String()
}

func formatBlockHeader(f *Function, b Block) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "block%d", b)
	params := f.Blocks[b].Params
	if len(params) > 0 {
		sb.WriteByte('(')
		for i, p := range params {
			if i > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "v%d: %s", p, f.ValueType(p))
		}
		sb.WriteByte(')')
	}
	if f.Blocks[b].Cold {
		sb.WriteString(" cold")
	}
	return sb.String()
}

func formatGlobalValue(g GlobalValueData) string {
	switch g.Kind {
	case GlobalValueSymbol:
		return fmt.Sprintf("symbol %q", g.Symbol)
	case GlobalValueLoad:
		return fmt.Sprintf("load gv%d+%d", g.Base, g.Offset)
	case GlobalValueIAddImm:
		return fmt.Sprintf("iadd_imm gv%d, %d", g.Base, g.Offset)
	default:
		return "unknown"
	}
}

func formatBlockCall(f *Function, c BlockCall) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "block%d", c.Block)
	if len(c.Args) > 0 {
		sb.WriteByte('(')
		for i, a := range c.Args {
			if i > 0 {
				sb.WriteString(", ")
			}
			switch a.Kind {
			case BlockArgTryCallRet:
				fmt.Fprintf(&sb, "ret%d", a.Ret)
			default:
				fmt.Fprintf(&sb, "v%d", f.ResolveAliases(a.Value))
			}
		}
		sb.WriteByte(')')
	}
	return sb.String()
}

func formatExTable(f *Function, et ExceptionTable) string {
	t := &f.ExceptionTables[et]
	var sb strings.Builder
	sb.WriteString(formatBlockCall(f, t.NormalReturn))
	sb.WriteString(", [")
	for i, item := range t.Items {
		if i > 0 {
			sb.WriteString("; ")
		}
		switch item.Kind {
		case ExItemTag:
			fmt.Fprintf(&sb, "tag%d: %s", item.Tag, formatBlockCall(f, item.Call))
		case ExItemDefault:
			fmt.Fprintf(&sb, "default: %s", formatBlockCall(f, item.Call))
		case ExItemContext:
			fmt.Fprintf(&sb, "context v%d", f.ResolveAliases(item.Context))
		}
	}
	sb.WriteString("]")
	return sb.String()
}

// FormatInst returns the printed form of one instruction.
func FormatInst(f *Function, i Inst) string {
	d := &f.Insts[i]
	var sb strings.Builder
	if len(d.Results) > 0 {
		for n, r := range d.Results {
			if n > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "v%d", r)
		}
		sb.WriteString(" = ")
	}
	sb.WriteString(d.Op.String())

	var extra []string
	switch d.Op {
	case OpIconst, OpF64const:
		extra = append(extra, fmt.Sprintf("%#x", f.Immediates[d.Imm]))
	case OpVconst:
		extra = append(extra, fmt.Sprintf("const%d", d.Const))
	case OpStackLoad, OpStackStore:
		extra = append(extra, fmt.Sprintf("ss%d", d.Slot))
	case OpDynamicStackLoad:
		extra = append(extra, fmt.Sprintf("dss%d", d.DynSlot))
	case OpGlobalLoad, OpSymbolAddr, OpTlsValue:
		extra = append(extra, fmt.Sprintf("gv%d", d.Global))
	case OpFuncAddr, OpCall, OpReturnCall, OpTryCall:
		extra = append(extra, f.FuncRefName(d.Func))
	case OpCallIndirect, OpReturnCallIndirect, OpTryCallIndirect:
		extra = append(extra, fmt.Sprintf("sig%d", d.Sig))
	}
	for _, a := range d.Args {
		extra = append(extra, fmt.Sprintf("v%d", f.ResolveAliases(a)))
	}
	switch d.Op {
	case OpJump, OpBrif:
		for _, c := range d.Calls {
			extra = append(extra, formatBlockCall(f, c))
		}
	case OpBrTable:
		t := &f.JumpTables[d.Table]
		extra = append(extra, formatBlockCall(f, t.Default))
		for _, c := range t.Targets {
			extra = append(extra, formatBlockCall(f, c))
		}
	case OpTryCall, OpTryCallIndirect:
		extra = append(extra, formatExTable(f, d.ExTable))
	}
	if len(extra) > 0 {
		sb.WriteByte(' ')
		sb.WriteString(strings.Join(extra, ", "))
	}
	return sb.String()
}
