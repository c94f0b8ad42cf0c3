package gateway

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/internal/canonical"
	"github.com/hupe1980/matcharena/logging"
	"github.com/hupe1980/matcharena/rng"
)

// LocalOptions configures a LocalAdapter.
type LocalOptions struct {
	// DefaultDeadlineMs applies when a request carries no deadline.
	DefaultDeadlineMs int
	Logger            logging.Logger
}

// LocalAdapter runs an in-process agent under a deadline.
//
// Each call races Agent.Act against a timer. The losing computation is
// abandoned, never killed: it receives a cancelled context and its own fresh
// RNG and Trace, and whatever it produces afterwards is dropped on the floor.
type LocalAdapter struct {
	agent core.Agent
	opts  LocalOptions

	mu     sync.Mutex
	stream *rng.Source
}

// NewLocalAdapter wraps agent. seed feeds the agent's private RNG stream from
// which a fresh per-call source is derived.
func NewLocalAdapter(agent core.Agent, seed int32, optFns ...func(o *LocalOptions)) *LocalAdapter {
	opts := LocalOptions{
		DefaultDeadlineMs: DefaultConfig.DefaultDeadlineMs,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &LocalAdapter{agent: agent, opts: opts, stream: rng.New(seed)}
}

type actOutcome struct {
	action core.Action
	err    error
}

// RequestAction implements Adapter.
func (a *LocalAdapter) RequestAction(ctx context.Context, req *ObservationRequest, fallback core.Action) Result {
	started := time.Now()
	entry := newTranscript(req, TransportLocal, started)
	entry.Attempts = 1
	if body, err := canonical.Marshal(req); err == nil {
		entry.RequestBytes = len(body)
	}

	a.mu.Lock()
	callRNG := rng.New(rng.DeriveSeed(a.stream))
	a.mu.Unlock()

	// the agent may outlive the call; it never sees the caller's observation
	obs, _ := core.DeepCopy(req.Observation).(core.Observation)

	trace := &core.Trace{}
	actx := core.ActContext{RNG: callRNG, Turn: req.Turn, AgentID: req.AgentID, Trace: trace}

	callCtx, cancel := context.WithTimeout(ctx, effectiveDeadline(req, a.opts.DefaultDeadlineMs))
	defer cancel()

	// buffered so an abandoned call can always complete its send
	done := make(chan actOutcome, 1)
	go func() {
		var out actOutcome
		defer func() {
			if r := recover(); r != nil {
				out = actOutcome{err: fmt.Errorf("agent panicked: %v", r)}
			}
			done <- out
		}()
		out.action, out.err = a.agent.Act(callCtx, obs, actx)
	}()

	select {
	case out := <-done:
		if out.err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
				return finish(entry, StatusTimeout, nil, fallback, nil, timeoutMessage(req, a.opts.DefaultDeadlineMs), started)
			}
			a.opts.Logger.Warn("agent act failed", "agent_id", req.AgentID, "turn", req.Turn, "error", out.err)
			return finish(entry, StatusError, nil, fallback, trace, out.err.Error(), started)
		}
		if out.action == nil {
			return finish(entry, StatusInvalidResponse, nil, fallback, trace, "agent returned no action", started)
		}
		body, err := canonical.Marshal(out.action)
		if err != nil {
			return finish(entry, StatusInvalidResponse, nil, fallback, trace, fmt.Sprintf("action not serializable: %v", err), started)
		}
		entry.ResponseBytes = len(body)
		return finish(entry, StatusOK, core.DeepCopy(out.action).(core.Action), fallback, trace, "", started)

	case <-callCtx.Done():
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return finish(entry, StatusTimeout, nil, fallback, nil, timeoutMessage(req, a.opts.DefaultDeadlineMs), started)
		}
		return finish(entry, StatusError, nil, fallback, nil, fmt.Sprintf("request cancelled: %v", callCtx.Err()), started)
	}
}

func timeoutMessage(req *ObservationRequest, def int) string {
	return fmt.Sprintf("no action within %dms", effectiveDeadline(req, def).Milliseconds())
}
