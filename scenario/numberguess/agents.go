package numberguess

import (
	"context"

	"github.com/hupe1980/matcharena/agent"
	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/rng"
)

// RandomAgent guesses uniformly inside its current bounds.
type RandomAgent struct {
	agent.Base
}

// NewRandomAgent creates a RandomAgent.
func NewRandomAgent(id string) *RandomAgent {
	return &RandomAgent{Base: agent.NewBase(id)}
}

// Act implements core.Agent.
func (a *RandomAgent) Act(_ context.Context, obs core.Observation, actx core.ActContext) (core.Action, error) {
	low, high := bounds(obs)
	return core.Action{"guess": rng.RandomInt(actx.RNG, low, high)}, nil
}

// BaselineAgent bisects its current bounds.
type BaselineAgent struct {
	agent.Base
}

// NewBaselineAgent creates a BaselineAgent.
func NewBaselineAgent(id string) *BaselineAgent {
	return &BaselineAgent{Base: agent.NewBase(id)}
}

// Act implements core.Agent.
func (a *BaselineAgent) Act(_ context.Context, obs core.Observation, _ core.ActContext) (core.Action, error) {
	low, high := bounds(obs)
	return core.Action{"guess": low + (high-low)/2}, nil
}

// bounds reads min/max from an observation, accepting JSON-decoded numbers.
func bounds(obs core.Observation) (int, int) {
	view := core.Action(obs)
	low, ok := view.Int("min")
	if !ok {
		low = 1
	}
	high, ok := view.Int("max")
	if !ok {
		high = 100
	}
	return low, high
}
