package testutil

import (
	"context"
	"sync"

	"github.com/hupe1980/matcharena/agent"
	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/rng"
)

// BlockingAgent never answers on its own; Act returns only after Release.
type BlockingAgent struct {
	agent.Base
	release chan struct{}
	once    sync.Once
}

// NewBlockingAgent creates a BlockingAgent. Call Release (typically in
// t.Cleanup) to let abandoned calls finish.
func NewBlockingAgent(id string) *BlockingAgent {
	return &BlockingAgent{Base: agent.NewBase(id), release: make(chan struct{})}
}

// Act blocks until Release is called.
func (b *BlockingAgent) Act(context.Context, core.Observation, core.ActContext) (core.Action, error) {
	<-b.release
	return core.Action{"inc": 10}, nil
}

// Release unblocks every pending and future call.
func (b *BlockingAgent) Release() { b.once.Do(func() { close(b.release) }) }

// StallingAgent waits for the deadline on the listed turns and increments
// by Inc on every other turn.
type StallingAgent struct {
	agent.Base
	Inc   int
	stall map[int]bool
}

// NewStallingAgent creates a StallingAgent that stalls on turns.
func NewStallingAgent(id string, inc int, turns ...int) *StallingAgent {
	stall := make(map[int]bool, len(turns))
	for _, t := range turns {
		stall[t] = true
	}
	return &StallingAgent{Base: agent.NewBase(id), Inc: inc, stall: stall}
}

// Act implements core.Agent.
func (s *StallingAgent) Act(ctx context.Context, _ core.Observation, actx core.ActContext) (core.Action, error) {
	if s.stall[actx.Turn] {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return core.Action{"inc": s.Inc}, nil
}

// DiceAgent increments by a random amount drawn from its per-call RNG.
type DiceAgent struct {
	agent.Base
}

// NewDiceAgent creates a DiceAgent.
func NewDiceAgent(id string) *DiceAgent { return &DiceAgent{Base: agent.NewBase(id)} }

// Act implements core.Agent.
func (d *DiceAgent) Act(_ context.Context, _ core.Observation, actx core.ActContext) (core.Action, error) {
	actx.Trace.Record("rolled", "dice")
	return core.Action{"inc": rng.RandomInt(actx.RNG, 0, 10)}, nil
}
