package core

import (
	"context"

	"github.com/hupe1980/matcharena/rng"
)

// Agent defines the contract every participant of a match implements.
//
// Agents are consumed by the engine through a gateway adapter; they never see
// scenario state, only the Observation produced for them each turn.
//
// Implementations must:
//   - Return from Act when ctx is done (an abandoned call's result is discarded)
//   - Use only actx.RNG for randomness so matches stay reproducible
//   - Treat the Observation as read-only
type Agent interface {
	ID() string
	Init(cfg AgentConfig) error
	Act(ctx context.Context, obs Observation, actx ActContext) (Action, error)
}

// AgentConfig is handed to Agent.Init once, before the first turn.
type AgentConfig struct {
	AgentID         string
	Seed            int32
	ScenarioName    string
	ScenarioVersion string
	Hints           Hints
	Briefing        string
}

// ActContext carries the per-call context of a single Act invocation.
// RNG and Trace are fresh for every call.
type ActContext struct {
	RNG     *rng.Source
	Turn    int
	AgentID string
	Trace   *Trace
}

// Trace is optional forensic metadata an agent may attach to one decision.
type Trace struct {
	// RawOutput is the unprocessed agent output (e.g. model completion text).
	RawOutput string
	// Method names how RawOutput was normalized into the returned action.
	Method   string
	Warnings []string
}

// Record stores raw output and the normalization method. It is a no-op on a
// nil receiver so agents can call it unconditionally.
func (t *Trace) Record(raw, method string, warnings ...string) {
	if t == nil {
		return
	}
	t.RawOutput = raw
	t.Method = method
	t.Warnings = append(t.Warnings, warnings...)
}

// Empty reports whether no metadata was attached.
func (t *Trace) Empty() bool {
	return t == nil || (t.RawOutput == "" && t.Method == "" && len(t.Warnings) == 0)
}
