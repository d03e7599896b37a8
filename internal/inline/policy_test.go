package inline_test

import (
	"os"
	"path/filepath"
	"testing"

	"crest/internal/inline"
	"crest/internal/ir"
)

// callerOf builds a function whose entry calls each named symbol once
// and returns its own parameter.
func callerOf(name string, callees ...string) *ir.Function {
	f := ir.NewFunction(name, i64Sig(1, 1))
	b := f.AddBlock()
	p := f.AppendBlockParam(b, ir.TypeI64)
	for _, c := range callees {
		call := f.Append(b, ir.InstData{Op: ir.OpCall, Func: declareCallee(f, c, i64Sig(1, 1)), Args: []ir.Value{p}})
		f.AllocResults(call, []ir.Type{ir.TypeI64})
	}
	f.Append(b, ir.InstData{Op: ir.OpReturn, Args: []ir.Value{p}})
	return f
}

func TestSizePolicyThreshold(t *testing.T) {
	small := doubler()
	big := doubler()
	big.Name = "big"
	// Pad big past the threshold.
	entry := big.Entry
	p := big.Blocks[entry].Params[0]
	insts := big.Blocks[entry].Insts
	ret := insts[len(insts)-1]
	big.Blocks[entry].Insts = insts[:len(insts)-1]
	for i := 0; i < 5; i++ {
		pad := big.Append(entry, ir.InstData{Op: ir.OpIadd, Args: []ir.Value{p, p}})
		big.AllocResults(pad, []ir.Type{ir.TypeI64})
	}
	big.AppendInst(entry, ret)

	m := &ir.Module{Funcs: []*ir.Function{small, big}}
	policy := inline.NewSizePolicy(m, inline.PolicyConfig{Threshold: 3})

	caller := callerOf("main", "double", "big")
	changed, err := inline.Run(caller, policy)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !changed {
		t.Fatal("nothing inlined")
	}
	mustValidate(t, caller)
	if policy.Stats.Inlined != 1 || policy.Stats.SkippedSize != 1 {
		t.Fatalf("stats = %+v, want one inlined and one size skip", policy.Stats)
	}
	if countOps(caller, ir.OpCall) != 1 {
		t.Fatalf("want the call to big kept:\n%s", ir.FuncString(caller))
	}
}

func TestSizePolicyNeverList(t *testing.T) {
	d := doubler()
	m := &ir.Module{Funcs: []*ir.Function{d}}
	policy := inline.NewSizePolicy(m, inline.PolicyConfig{Threshold: 50, Never: []string{"double"}})

	caller := callerOf("main", "double")
	changed, err := inline.Run(caller, policy)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if changed || policy.Stats.SkippedNever != 1 {
		t.Fatalf("denylisted callee inlined anyway; stats = %+v", policy.Stats)
	}
}

func TestSizePolicyRecursionAndUnknown(t *testing.T) {
	rec := callerOf("loop", "loop", "mystery")
	m := &ir.Module{Funcs: []*ir.Function{rec}}
	policy := inline.NewSizePolicy(m, inline.DefaultPolicyConfig())

	changed, err := inline.Run(rec, policy)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if changed {
		t.Fatalf("self-recursive or unknown call inlined:\n%s", ir.FuncString(rec))
	}
	if policy.Stats.SkippedRecursive != 1 || policy.Stats.SkippedUnknown != 1 {
		t.Fatalf("stats = %+v", policy.Stats)
	}
}

// A self-recursive callee must be refused from every caller, not just
// from itself: splicing its body re-exposes a call to the same symbol
// and the driver would keep inlining it forever.
func TestSizePolicySelfRecursiveCallee(t *testing.T) {
	loopy := callerOf("loopy", "loopy")
	m := &ir.Module{Funcs: []*ir.Function{loopy}}
	policy := inline.NewSizePolicy(m, inline.DefaultPolicyConfig())

	caller := callerOf("main", "loopy")
	changed, err := inline.Run(caller, policy)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if changed {
		t.Fatalf("self-recursive callee inlined:\n%s", ir.FuncString(caller))
	}
	mustValidate(t, caller)
	if policy.Stats.SkippedRecursive != 1 {
		t.Fatalf("stats = %+v, want one recursion skip", policy.Stats)
	}
	if countOps(caller, ir.OpCall) != 1 {
		t.Fatalf("want the call kept:\n%s", ir.FuncString(caller))
	}
}

// Mutually recursive callees re-expose each other the same way a
// directly self-recursive one does; the cycle check has to look past
// one hop.
func TestSizePolicyMutualRecursion(t *testing.T) {
	ping := callerOf("ping", "pong")
	pong := callerOf("pong", "ping")
	m := &ir.Module{Funcs: []*ir.Function{ping, pong}}
	policy := inline.NewSizePolicy(m, inline.DefaultPolicyConfig())

	caller := callerOf("main", "ping")
	changed, err := inline.Run(caller, policy)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if changed || policy.Stats.SkippedRecursive != 1 {
		t.Fatalf("cycle member inlined; stats = %+v:\n%s", policy.Stats, ir.FuncString(caller))
	}
}

func TestLoadPolicyConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crest.toml")
	src := "[inline]\nthreshold = 12\nnever = [\"memcpy\", \"panic_bounds\"]\n"
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := inline.LoadPolicyConfig(path)
	if err != nil {
		t.Fatalf("LoadPolicyConfig: %v", err)
	}
	if cfg.Threshold != 12 || len(cfg.Never) != 2 || cfg.Never[0] != "memcpy" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadPolicyConfigDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crest.toml")
	if err := os.WriteFile(path, []byte("[inline]\nnever = [\"x\"]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := inline.LoadPolicyConfig(path)
	if err != nil {
		t.Fatalf("LoadPolicyConfig: %v", err)
	}
	if cfg.Threshold != inline.DefaultPolicyConfig().Threshold {
		t.Fatalf("missing threshold did not keep default: %+v", cfg)
	}
}

func TestLoadPolicyConfigRejectsNegative(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "crest.toml")
	if err := os.WriteFile(path, []byte("[inline]\nthreshold = -1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := inline.LoadPolicyConfig(path); err == nil {
		t.Fatal("negative threshold accepted")
	}
}
