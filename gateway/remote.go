package gateway

import (
	"context"
	"errors"

	"github.com/hupe1980/matcharena/core"
)

// ErrRemoteAgent is returned by RemoteAgent.Act: a remote participant only
// acts through its registered Adapter.
var ErrRemoteAgent = errors.New("gateway: remote agent acts only through its adapter")

// RemoteAgent names a participant whose decisions are made elsewhere. Pair it
// with an HTTPAdapter registered under the same id.
type RemoteAgent struct {
	id string
}

// NewRemoteAgent creates a placeholder for the remote agent id.
func NewRemoteAgent(id string) *RemoteAgent { return &RemoteAgent{id: id} }

// ID implements core.Agent.
func (r *RemoteAgent) ID() string { return r.id }

// Init implements core.Agent. Remote agents receive their configuration out of band.
func (r *RemoteAgent) Init(core.AgentConfig) error { return nil }

// Act implements core.Agent and always fails.
func (r *RemoteAgent) Act(context.Context, core.Observation, core.ActContext) (core.Action, error) {
	return nil, ErrRemoteAgent
}
