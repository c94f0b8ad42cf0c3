package agent

import "github.com/hupe1980/matcharena/core"

// Provider supplies dynamic instruction text from the agent's configuration.
type Provider interface {
	Instruction(cfg core.AgentConfig) (string, error)
}

// InstructionFunc adapts an ordinary function into a Provider.
type InstructionFunc func(cfg core.AgentConfig) (string, error)

// Instruction implements Provider.
func (f InstructionFunc) Instruction(cfg core.AgentConfig) (string, error) { return f(cfg) }

// Instruction is either a static string or a dynamic provider.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(cfg core.AgentConfig) (string, error)) Instruction {
	return Instruction{provider: InstructionFunc(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction) Resolve(cfg core.AgentConfig) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(cfg)
	}
	return i.text, nil
}
