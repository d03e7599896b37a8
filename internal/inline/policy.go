package inline

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"crest/internal/ir"
)

// PolicyConfig tunes SizePolicy.
type PolicyConfig struct {
	// Threshold is the largest callee instruction count still inlined.
	Threshold int `toml:"threshold"`
	// Never lists symbols that are never inlined.
	Never []string `toml:"never"`
}

// DefaultPolicyConfig returns the built-in tuning.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{Threshold: 50}
}

type policyFile struct {
	Inline PolicyConfig `toml:"inline"`
}

// LoadPolicyConfig reads a TOML policy file of the form:
//
//	[inline]
//	threshold = 50
//	never = ["big_helper"]
//
// Missing keys keep their defaults.
func LoadPolicyConfig(path string) (PolicyConfig, error) {
	file := policyFile{Inline: DefaultPolicyConfig()}
	if _, err := toml.DecodeFile(path, &file); err != nil {
		return PolicyConfig{}, fmt.Errorf("policy config %s: %w", path, err)
	}
	if file.Inline.Threshold < 0 {
		return PolicyConfig{}, fmt.Errorf("policy config %s: negative threshold", path)
	}
	return file.Inline, nil
}

// Stats counts policy decisions across one or more driver passes.
type Stats struct {
	CallsSeen        int
	Inlined          int
	SkippedSize      int
	SkippedRecursive int
	SkippedUnknown   int
	SkippedNever     int
	SkippedSignature int
}

// SizePolicy is a production-usable Policy: it inlines callees resolved
// from a module by symbol name whenever they are small enough, refusing
// recursive callees, denylisted symbols, and callees whose signature
// does not match the call site's declaration.
type SizePolicy struct {
	Module *ir.Module
	Config PolicyConfig
	Stats  Stats

	never     map[string]bool
	recursive map[string]bool
}

// NewSizePolicy builds a SizePolicy over a module.
func NewSizePolicy(m *ir.Module, cfg PolicyConfig) *SizePolicy {
	p := &SizePolicy{
		Module:    m,
		Config:    cfg,
		never:     make(map[string]bool, len(cfg.Never)),
		recursive: make(map[string]bool),
	}
	for _, name := range cfg.Never {
		p.never[name] = true
	}
	return p
}

// selfRecursive reports whether name can reach a direct call back to
// itself through the module's call graph. Splicing such a callee
// re-exposes a call to the same symbol inside the caller, the driver's
// cursor revisits it, and the caller grows without bound; the only
// terminating decision for these sites is to keep the call.
func (p *SizePolicy) selfRecursive(name string) bool {
	if v, ok := p.recursive[name]; ok {
		return v
	}
	seen := map[string]bool{name: true}
	stack := []string{name}
	found := false
	for len(stack) > 0 && !found {
		fn := p.Module.Func(stack[len(stack)-1])
		stack = stack[:len(stack)-1]
		if fn == nil {
			continue
		}
		for _, b := range fn.Layout {
			for _, i := range fn.Blocks[b].Insts {
				d := &fn.Insts[i]
				if !d.Op.IsDirectCall() {
					continue
				}
				sym := fn.FuncRefName(d.Func)
				if sym == name {
					found = true
				} else if !seen[sym] {
					seen[sym] = true
					stack = append(stack, sym)
				}
			}
		}
	}
	p.recursive[name] = found
	return found
}

// Inline implements Policy.
func (p *SizePolicy) Inline(caller *ir.Function, _ ir.Inst, _ ir.Opcode, ref ir.FuncRef, _ []ir.Value) Command {
	p.Stats.CallsSeen++

	name := caller.FuncRefName(ref)
	if p.never[name] {
		p.Stats.SkippedNever++
		return KeepCall()
	}
	callee := p.Module.Func(name)
	if callee == nil {
		p.Stats.SkippedUnknown++
		return KeepCall()
	}
	if callee.Name == caller.Name || p.selfRecursive(callee.Name) {
		p.Stats.SkippedRecursive++
		return KeepCall()
	}
	if !caller.FuncRefSig(ref).Equal(callee.Sig) {
		p.Stats.SkippedSignature++
		return KeepCall()
	}
	if callee.InstCount() > p.Config.Threshold {
		p.Stats.SkippedSize++
		return KeepCall()
	}
	p.Stats.Inlined++
	return InlineFunc(callee)
}
