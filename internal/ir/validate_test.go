package ir_test

import (
	"strings"
	"testing"

	"crest/internal/ir"
)

// straightLine builds `fn f(v0: i64) -> i64 { v1 = iadd v0, v0; return v1 }`.
func straightLine() *ir.Function {
	f := ir.NewFunction("f", ir.Signature{Params: []ir.Type{ir.TypeI64}, Results: []ir.Type{ir.TypeI64}})
	b := f.AddBlock()
	p := f.AppendBlockParam(b, ir.TypeI64)
	add := f.Append(b, ir.InstData{Op: ir.OpIadd, Args: []ir.Value{p, p}})
	res := f.AllocResults(add, []ir.Type{ir.TypeI64})
	f.Append(b, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{res[0]}})
	return f
}

func wantInvalid(t *testing.T, f *ir.Function, frag string) {
	t.Helper()
	err := ir.Validate(f)
	if err == nil {
		t.Fatalf("Validate passed, want error mentioning %q:\n%s", frag, ir.FuncString(f))
	}
	if !strings.Contains(err.Error(), frag) {
		t.Fatalf("Validate error %q does not mention %q", err, frag)
	}
}

func TestValidateOK(t *testing.T) {
	if err := ir.Validate(straightLine()); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateUnterminated(t *testing.T) {
	f := straightLine()
	b := f.Layout[0]
	f.Blocks[b].Insts = f.Blocks[b].Insts[:1]
	wantInvalid(t, f, "unterminated")
}

func TestValidateTerminatorMidBlock(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{})
	b := f.AddBlock()
	f.Append(b, ir.InstData{Op: ir.OpReturn})
	f.Append(b, ir.InstData{Op: ir.OpReturn})
	wantInvalid(t, f, "before end of block")
}

func TestValidateEntryParamMismatch(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{Params: []ir.Type{ir.TypeI64, ir.TypeI64}})
	b := f.AddBlock()
	f.AppendBlockParam(b, ir.TypeI64)
	f.Append(b, ir.InstData{Op: ir.OpReturn})
	wantInvalid(t, f, "signature has 2")
}

func TestValidateBranchArgCount(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{Params: []ir.Type{ir.TypeI64}})
	b0 := f.AddBlock()
	p := f.AppendBlockParam(b0, ir.TypeI64)
	b1 := f.AddBlock()
	f.AppendBlockParam(b1, ir.TypeI64)
	f.Append(b0, ir.InstData{Op: ir.OpJump, Calls: []ir.BlockCall{{Block: b1}}})
	f.Append(b1, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{p}})
	wantInvalid(t, f, "passes 0 args, wants 1")
}

func TestValidateBranchOutsideLayout(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{})
	b0 := f.AddBlock()
	dead := f.NewBlock()
	f.Append(b0, ir.InstData{Op: ir.OpJump, Calls: []ir.BlockCall{{Block: dead}}})
	wantInvalid(t, f, "outside layout")
}

func TestValidateUndefinedUse(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{})
	b0 := f.AddBlock()
	// A value defined by a detached instruction is not a definition.
	ghost := f.NewInst(ir.InstData{Op: ir.OpIadd})
	res := f.AllocResults(ghost, []ir.Type{ir.TypeI64})
	f.Append(b0, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{res[0]}})
	wantInvalid(t, f, "undefined value")
}

// TestValidateUseNotDominated: a definition on one arm of a brif does
// not cover the other arm.
func TestValidateUseNotDominated(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{Params: []ir.Type{ir.TypeI64}, Results: []ir.Type{ir.TypeI64}})
	b0 := f.AddBlock()
	p := f.AppendBlockParam(b0, ir.TypeI64)
	b1 := f.AddBlock()
	b2 := f.AddBlock()
	f.Append(b0, ir.InstData{Op: ir.OpBrif, Args: []ir.Value{p}, Calls: []ir.BlockCall{{Block: b1}, {Block: b2}}})
	add := f.Append(b1, ir.InstData{Op: ir.OpIadd, Args: []ir.Value{p, p}})
	res := f.AllocResults(add, []ir.Type{ir.TypeI64})
	f.Append(b1, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{res[0]}})
	f.Append(b2, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{res[0]}})
	wantInvalid(t, f, "not dominated")
}

// TestValidateDominatedUseOK: an entry definition covers both arms.
func TestValidateDominatedUseOK(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{Params: []ir.Type{ir.TypeI64}, Results: []ir.Type{ir.TypeI64}})
	b0 := f.AddBlock()
	p := f.AppendBlockParam(b0, ir.TypeI64)
	add := f.Append(b0, ir.InstData{Op: ir.OpIadd, Args: []ir.Value{p, p}})
	res := f.AllocResults(add, []ir.Type{ir.TypeI64})
	b1 := f.AddBlock()
	b2 := f.AddBlock()
	f.Append(b0, ir.InstData{Op: ir.OpBrif, Args: []ir.Value{p}, Calls: []ir.BlockCall{{Block: b1}, {Block: b2}}})
	f.Append(b1, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{res[0]}})
	f.Append(b2, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{res[0]}})
	if err := ir.Validate(f); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestValidateUseBeforeDef(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{Params: []ir.Type{ir.TypeI64}, Results: []ir.Type{ir.TypeI64}})
	b0 := f.AddBlock()
	p := f.AppendBlockParam(b0, ir.TypeI64)
	def := f.NewInst(ir.InstData{Op: ir.OpIadd, Args: []ir.Value{p, p}})
	res := f.AllocResults(def, []ir.Type{ir.TypeI64})
	use := f.NewInst(ir.InstData{Op: ir.OpIadd, Args: []ir.Value{res[0], res[0]}})
	f.AllocResults(use, []ir.Type{ir.TypeI64})
	f.AppendInst(b0, use)
	f.AppendInst(b0, def)
	f.Append(b0, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{res[0]}})
	wantInvalid(t, f, "used before its definition")
}

func TestValidateEntityBounds(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{})
	b0 := f.AddBlock()
	ld := f.Append(b0, ir.InstData{Op: ir.OpStackLoad, Slot: 3})
	f.AllocResults(ld, []ir.Type{ir.TypeI64})
	f.Append(b0, ir.InstData{Op: ir.OpReturn})
	wantInvalid(t, f, "stack slot index 3")
}

func TestValidateStackMapSlots(t *testing.T) {
	f := ir.NewFunction("f", ir.Signature{})
	b0 := f.AddBlock()
	ref := f.DeclareFuncRef(ir.FuncRefData{
		Sig:  f.DeclareSignature(ir.Signature{}),
		Name: f.DeclareExternalName("g"),
	})
	f.Append(b0, ir.InstData{
		Op:       ir.OpCall,
		Func:     ref,
		StackMap: []ir.StackMapEntry{{Type: ir.TypeI64, Slot: 7}},
	})
	f.Append(b0, ir.InstData{Op: ir.OpReturn})
	wantInvalid(t, f, "stack map slot")
}
