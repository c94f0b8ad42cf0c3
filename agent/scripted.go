package agent

import (
	"context"

	"github.com/hupe1980/matcharena/core"
)

// Scripted replays a fixed action list. The action for turn t is
// actions[t-1]; once the script runs out the last action repeats.
type Scripted struct {
	Base
	actions []core.Action
}

// NewScripted creates a scripted agent. It returns an empty action when the
// script is empty.
func NewScripted(id string, actions ...core.Action) *Scripted {
	return &Scripted{Base: NewBase(id), actions: actions}
}

// Act implements core.Agent.
func (s *Scripted) Act(_ context.Context, _ core.Observation, actx core.ActContext) (core.Action, error) {
	if len(s.actions) == 0 {
		return core.Action{}, nil
	}
	i := actx.Turn - 1
	if i < 0 {
		i = 0
	}
	if i >= len(s.actions) {
		i = len(s.actions) - 1
	}
	actx.Trace.Record("", "scripted")
	return s.actions[i].Clone(), nil
}
