package gateway

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/matcharena/agent"
	"github.com/hupe1980/matcharena/core"
)

var fallbackAction = core.Action{"noop": true}

func newTestRequest(turn, deadlineMs int) *ObservationRequest {
	return &ObservationRequest{
		ProtocolVersion: ProtocolVersion,
		MatchID:         "match-1",
		Turn:            turn,
		AgentID:         "alice",
		DeadlineMs:      deadlineMs,
		GameID:          "test",
		GameVersion:     "1.0.0",
		Observation:     core.Observation{"turn": turn},
		Constraints:     Constraints{MaxResponseBytes: 1024},
	}
}

func TestLocalAdapter_OK(t *testing.T) {
	a := agent.NewFunc("alice", func(_ context.Context, obs core.Observation, actx core.ActContext) (core.Action, error) {
		actx.Trace.Record(`{"move":"up"}`, "json")
		return core.Action{"move": "up", "turn": actx.Turn}, nil
	})

	res := NewLocalAdapter(a, 1).RequestAction(context.Background(), newTestRequest(2, 100), fallbackAction)

	assert.Equal(t, StatusOK, res.Status())
	assert.Equal(t, core.Action{"move": "up", "turn": 2}, res.Action)
	assert.False(t, res.Transcript.FallbackApplied)
	assert.Equal(t, TransportLocal, res.Transcript.Transport)
	assert.Equal(t, 1, res.Transcript.Attempts)
	assert.Equal(t, "alice", res.Transcript.AgentID)
	assert.Equal(t, "match-1", res.Transcript.MatchID)
	assert.Positive(t, res.Transcript.RequestBytes)
	assert.Positive(t, res.Transcript.ResponseBytes)
	require.NotNil(t, res.Trace)
	assert.Equal(t, "json", res.Trace.Method)
}

func TestLocalAdapter_TimeoutAppliesFallback(t *testing.T) {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })

	a := agent.NewFunc("alice", func(context.Context, core.Observation, core.ActContext) (core.Action, error) {
		<-release
		return core.Action{"late": true}, nil
	})

	res := NewLocalAdapter(a, 1).RequestAction(context.Background(), newTestRequest(1, 5), fallbackAction)

	assert.Equal(t, StatusTimeout, res.Status())
	assert.Equal(t, fallbackAction, res.Action)
	assert.True(t, res.Transcript.FallbackApplied)
	assert.Contains(t, res.Transcript.Error, "5ms")
	assert.Nil(t, res.Trace)
}

func TestLocalAdapter_ContextErrorAfterDeadlineIsTimeout(t *testing.T) {
	a := agent.NewFunc("alice", func(ctx context.Context, _ core.Observation, _ core.ActContext) (core.Action, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})

	res := NewLocalAdapter(a, 1).RequestAction(context.Background(), newTestRequest(1, 5), fallbackAction)
	assert.Equal(t, StatusTimeout, res.Status())
}

func TestLocalAdapter_Failures(t *testing.T) {
	tests := []struct {
		name    string
		fn      agent.ActFunc
		status  Status
		errText string
	}{
		{
			name: "error",
			fn: func(context.Context, core.Observation, core.ActContext) (core.Action, error) {
				return nil, errors.New("boom")
			},
			status:  StatusError,
			errText: "boom",
		},
		{
			name: "panic",
			fn: func(context.Context, core.Observation, core.ActContext) (core.Action, error) {
				panic("kaboom")
			},
			status:  StatusError,
			errText: "agent panicked: kaboom",
		},
		{
			name: "nil action",
			fn: func(context.Context, core.Observation, core.ActContext) (core.Action, error) {
				return nil, nil
			},
			status:  StatusInvalidResponse,
			errText: "no action",
		},
		{
			name: "unserializable action",
			fn: func(context.Context, core.Observation, core.ActContext) (core.Action, error) {
				return core.Action{"ch": make(chan int)}, nil
			},
			status:  StatusInvalidResponse,
			errText: "not serializable",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewLocalAdapter(agent.NewFunc("alice", tt.fn), 1).
				RequestAction(context.Background(), newTestRequest(1, 100), fallbackAction)

			assert.Equal(t, tt.status, res.Status())
			assert.Equal(t, fallbackAction, res.Action)
			assert.True(t, res.Transcript.FallbackApplied)
			assert.Contains(t, res.Transcript.Error, tt.errText)
		})
	}
}

func TestLocalAdapter_ParentCancellationIsError(t *testing.T) {
	a := agent.NewFunc("alice", func(ctx context.Context, _ core.Observation, _ core.ActContext) (core.Action, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := NewLocalAdapter(a, 1).RequestAction(ctx, newTestRequest(1, 1000), fallbackAction)
	assert.Equal(t, StatusError, res.Status())
	assert.True(t, res.Transcript.FallbackApplied)
}

func TestLocalAdapter_AbandonedCallCannotShiftRNG(t *testing.T) {
	release := make(chan struct{})
	drawn := make(chan struct{})

	draws := func(adapterSeed int32, blockFirst bool) float64 {
		var second float64
		a := agent.NewFunc("alice", func(_ context.Context, _ core.Observation, actx core.ActContext) (core.Action, error) {
			if blockFirst && actx.Turn == 1 {
				<-release
				for i := 0; i < 100; i++ {
					actx.RNG.Float64()
				}
				close(drawn)
				return core.Action{}, nil
			}
			return core.Action{"v": actx.RNG.Float64()}, nil
		})
		ad := NewLocalAdapter(a, adapterSeed)
		first := ad.RequestAction(context.Background(), newTestRequest(1, 5), fallbackAction)
		if blockFirst {
			require.Equal(t, StatusTimeout, first.Status())
			close(release)
			<-drawn
		}
		res := ad.RequestAction(context.Background(), newTestRequest(2, 100), fallbackAction)
		require.Equal(t, StatusOK, res.Status())
		second = res.Action["v"].(float64)
		return second
	}

	assert.Equal(t, draws(77, false), draws(77, true))
}

func TestLocalAdapter_AbandonedCallCannotTouchObservation(t *testing.T) {
	wrote := make(chan struct{})
	a := agent.NewFunc("alice", func(ctx context.Context, obs core.Observation, _ core.ActContext) (core.Action, error) {
		<-ctx.Done()
		obs["board"].([][]int)[0][0] = 99
		obs["turn"] = -1
		close(wrote)
		return nil, ctx.Err()
	})

	req := newTestRequest(1, 5)
	req.Observation["board"] = [][]int{{0, 0}, {0, 0}}

	res := NewLocalAdapter(a, 1).RequestAction(context.Background(), req, fallbackAction)
	require.Equal(t, StatusTimeout, res.Status())
	<-wrote

	assert.Equal(t, [][]int{{0, 0}, {0, 0}}, req.Observation["board"])
	assert.Equal(t, 1, req.Observation["turn"])
}

func TestLocalAdapter_ReturnedActionIsDetached(t *testing.T) {
	kept := core.Action{"moves": []int{1, 2}}
	a := agent.NewFunc("alice", func(context.Context, core.Observation, core.ActContext) (core.Action, error) {
		return kept, nil
	})

	res := NewLocalAdapter(a, 1).RequestAction(context.Background(), newTestRequest(1, 100), fallbackAction)
	require.Equal(t, StatusOK, res.Status())

	kept["moves"].([]int)[0] = 99
	assert.Equal(t, []int{1, 2}, res.Action["moves"])
}

func TestLocalAdapter_DefaultDeadline(t *testing.T) {
	a := agent.NewFunc("alice", func(ctx context.Context, _ core.Observation, _ core.ActContext) (core.Action, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Second):
			return core.Action{}, nil
		}
	})
	ad := NewLocalAdapter(a, 1, func(o *LocalOptions) { o.DefaultDeadlineMs = 10 })

	res := ad.RequestAction(context.Background(), newTestRequest(1, 0), fallbackAction)
	assert.Equal(t, StatusTimeout, res.Status())
}
