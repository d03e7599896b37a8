package ir

import (
	"errors"
	"fmt"
)

// Validate checks function invariants: block termination, branch-target
// sanity, value-def dominance, and entity index bounds. Returns all
// violations joined.
func Validate(f *Function) error {
	if f == nil {
		return nil
	}
	var errs []error
	if err := validateLayout(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateTerminators(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateBranches(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateUses(f); err != nil {
		errs = append(errs, err)
	}
	if err := validateEntities(f); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func validateLayout(f *Function) error {
	var errs []error
	if len(f.Layout) == 0 {
		return errors.New("function has no laid-out blocks")
	}
	if f.Entry == NoBlock {
		errs = append(errs, errors.New("function has no entry block"))
	} else if f.Layout[0] != f.Entry {
		errs = append(errs, fmt.Errorf("entry block%d is not first in layout", f.Entry))
	}
	seen := make(map[Block]bool, len(f.Layout))
	for _, b := range f.Layout {
		if b < 0 || int(b) >= len(f.Blocks) {
			errs = append(errs, fmt.Errorf("layout references missing block%d", b))
			continue
		}
		if seen[b] {
			errs = append(errs, fmt.Errorf("block%d laid out twice", b))
		}
		seen[b] = true
	}
	if f.Entry != NoBlock && int(f.Entry) < len(f.Blocks) {
		params := f.Blocks[f.Entry].Params
		if len(params) != len(f.Sig.Params) {
			errs = append(errs, fmt.Errorf("entry block%d has %d params, signature has %d",
				f.Entry, len(params), len(f.Sig.Params)))
		} else {
			for i, p := range params {
				if f.ValueType(p) != f.Sig.Params[i] {
					errs = append(errs, fmt.Errorf("entry param %d has type %s, signature wants %s",
						i, f.ValueType(p), f.Sig.Params[i]))
				}
			}
		}
	}
	return errors.Join(errs...)
}

func validateTerminators(f *Function) error {
	var errs []error
	for _, b := range f.Layout {
		insts := f.Blocks[b].Insts
		if len(insts) == 0 {
			errs = append(errs, fmt.Errorf("block%d: empty block", b))
			continue
		}
		for n, i := range insts {
			last := n == len(insts)-1
			if last && !f.Insts[i].Op.IsTerminator() {
				errs = append(errs, fmt.Errorf("block%d: unterminated block (ends with %s)", b, f.Insts[i].Op))
			}
			if !last && f.Insts[i].Op.IsTerminator() {
				errs = append(errs, fmt.Errorf("block%d: terminator %s before end of block", b, f.Insts[i].Op))
			}
		}
	}
	return errors.Join(errs...)
}

func validateBranches(f *Function) error {
	var errs []error
	for _, b := range f.Layout {
		insts := f.Blocks[b].Insts
		if len(insts) == 0 {
			continue
		}
		term := insts[len(insts)-1]
		for _, call := range f.BranchCalls(term) {
			tgt := call.Block
			if tgt < 0 || int(tgt) >= len(f.Blocks) {
				errs = append(errs, fmt.Errorf("block%d: branch to missing block%d", b, tgt))
				continue
			}
			if !f.InLayout(tgt) {
				errs = append(errs, fmt.Errorf("block%d: branch to block%d outside layout", b, tgt))
			}
			params := f.Blocks[tgt].Params
			if len(call.Args) != len(params) {
				errs = append(errs, fmt.Errorf("block%d: branch to block%d passes %d args, wants %d",
					b, tgt, len(call.Args), len(params)))
			}
		}
	}
	return errors.Join(errs...)
}

// validateUses checks that every use is dominated by its definition:
// the defining block must dominate the using block, and inside one
// block the definition must come first. Blocks in the layout but not
// reachable from the entry have no dominators; uses there are only
// checked for a definition existing at all.
func validateUses(f *Function) error {
	var errs []error

	defBlock := make([]Block, len(f.Values))
	defPos := make([]int, len(f.Values))
	for i := range defBlock {
		defBlock[i] = NoBlock
	}
	for _, b := range f.Layout {
		for _, p := range f.Blocks[b].Params {
			defBlock[p] = b
			defPos[p] = -1
		}
		for n, i := range f.Blocks[b].Insts {
			for _, r := range f.Insts[i].Results {
				defBlock[r] = b
				defPos[r] = n
			}
		}
	}

	idom := f.Idoms()
	dominates := func(a, b Block) bool {
		for b != NoBlock {
			if b == a {
				return true
			}
			b = idom[b]
		}
		return false
	}
	reachable := func(b Block) bool {
		return b == f.Entry || idom[b] != NoBlock
	}

	checkUse := func(b Block, n int, v Value) {
		if v < 0 || int(v) >= len(f.Values) {
			errs = append(errs, fmt.Errorf("block%d: use of missing value v%d", b, v))
			return
		}
		v = f.ResolveAliases(v)
		db := defBlock[v]
		if db == NoBlock {
			errs = append(errs, fmt.Errorf("block%d: use of undefined value v%d", b, v))
			return
		}
		if !reachable(b) {
			return
		}
		if db == b {
			if defPos[v] >= n {
				errs = append(errs, fmt.Errorf("block%d: v%d used before its definition", b, v))
			}
			return
		}
		if !dominates(db, b) {
			errs = append(errs, fmt.Errorf("block%d: use of v%d not dominated by its definition in block%d", b, v, db))
		}
	}
	checkCall := func(b Block, n int, c BlockCall) {
		for _, a := range c.Args {
			if a.Kind == BlockArgValue {
				checkUse(b, n, a.Value)
			}
		}
	}

	for _, b := range f.Layout {
		for n, i := range f.Blocks[b].Insts {
			d := &f.Insts[i]
			for _, a := range d.Args {
				checkUse(b, n, a)
			}
			for _, c := range d.Calls {
				checkCall(b, n, c)
			}
			switch d.Op {
			case OpBrTable:
				t := &f.JumpTables[d.Table]
				checkCall(b, n, t.Default)
				for _, c := range t.Targets {
					checkCall(b, n, c)
				}
			case OpTryCall, OpTryCallIndirect:
				t := &f.ExceptionTables[d.ExTable]
				checkCall(b, n, t.NormalReturn)
				for _, item := range t.Items {
					if item.Kind == ExItemContext {
						checkUse(b, n, item.Context)
					} else {
						checkCall(b, n, item.Call)
					}
				}
			}
		}
	}
	return errors.Join(errs...)
}

func validateEntities(f *Function) error {
	var errs []error
	inBounds := func(idx, n int, kind string, b Block) {
		if idx < 0 || idx >= n {
			errs = append(errs, fmt.Errorf("block%d: %s index %d out of bounds (arena size %d)", b, kind, idx, n))
		}
	}
	for _, b := range f.Layout {
		for _, i := range f.Blocks[b].Insts {
			d := &f.Insts[i]
			switch d.Op {
			case OpIconst, OpF64const:
				inBounds(int(d.Imm), len(f.Immediates), "immediate", b)
			case OpVconst:
				inBounds(int(d.Const), f.Constants.Len(), "constant", b)
			case OpStackLoad, OpStackStore:
				inBounds(int(d.Slot), len(f.StackSlots), "stack slot", b)
			case OpDynamicStackLoad:
				inBounds(int(d.DynSlot), len(f.DynamicStackSlots), "dynamic stack slot", b)
			case OpGlobalLoad, OpSymbolAddr, OpTlsValue:
				inBounds(int(d.Global), len(f.GlobalValues), "global value", b)
			case OpFuncAddr, OpCall, OpReturnCall, OpTryCall:
				inBounds(int(d.Func), len(f.FuncRefs), "func ref", b)
			case OpCallIndirect, OpReturnCallIndirect, OpTryCallIndirect:
				inBounds(int(d.Sig), len(f.SigRefs), "signature", b)
			case OpBrTable:
				inBounds(int(d.Table), len(f.JumpTables), "jump table", b)
			}
			switch d.Op {
			case OpTryCall, OpTryCallIndirect:
				inBounds(int(d.ExTable), len(f.ExceptionTables), "exception table", b)
			}
			for _, e := range d.StackMap {
				inBounds(int(e.Slot), len(f.StackSlots), "stack map slot", b)
			}
		}
	}
	return errors.Join(errs...)
}
