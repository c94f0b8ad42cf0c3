package agent

import (
	"context"

	"github.com/hupe1980/matcharena/core"
)

// ActFunc is the signature of core.Agent.Act.
type ActFunc func(ctx context.Context, obs core.Observation, actx core.ActContext) (core.Action, error)

// Func adapts an ordinary function into a core.Agent.
type Func struct {
	Base
	fn ActFunc
}

// NewFunc creates an agent named id that decides with fn.
func NewFunc(id string, fn ActFunc) *Func {
	return &Func{Base: NewBase(id), fn: fn}
}

// Act implements core.Agent.
func (f *Func) Act(ctx context.Context, obs core.Observation, actx core.ActContext) (core.Action, error) {
	return f.fn(ctx, obs, actx)
}
