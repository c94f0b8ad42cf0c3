// Package matcharena provides a high-level façade over the match engine and
// its supporting services (agent gateway, transcript sinks, event log and
// logging) for running reproducible matches between agents. Most
// applications interact with this package by:
//  1. Creating an Arena via New() or NewFromConfig()
//  2. Building a scenario and its agents (in-process, LLM-backed or remote)
//  3. Playing a match synchronously (Play) or streaming its events (Stream)
//
// The façade delegates orchestration to engine.Run while keeping setup
// concise. Defaults are safe for local development and testing: local mode,
// no transcript sink, no-op logger.
package matcharena

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/matcharena/config"
	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/engine"
	"github.com/hupe1980/matcharena/eventlog"
	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/logging"
)

// Options configures the Arena instance.
type Options struct {
	// Engine configuration (seed, turn budget, deadlines, mode)
	EngineConfig engine.Config

	// Adapters overrides the gateway adapter per agent id. Required for
	// every agent in http mode.
	Adapters map[string]gateway.Adapter

	// TranscriptWriter receives one gateway transcript entry per agent-turn.
	TranscriptWriter gateway.TranscriptWriter

	// EventLog, when set, receives the canonical JSONL event log as events
	// are sequenced.
	EventLog io.Writer

	// EventBufferSize sets the channel buffer used by Stream.
	EventBufferSize int

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Arena is the high-level façade aggregating engine settings and services.
type Arena struct {
	opts    Options
	closers []io.Closer
}

// New creates a new Arena with optional overrides.
func New(optFns ...func(o *Options)) *Arena {
	opts := Options{
		EngineConfig:    engine.DefaultConfig,
		EventBufferSize: 64,
		Logger:          logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Arena{opts: opts}
}

// NewFromConfig creates an Arena from a validated match configuration: engine
// settings, HTTP adapters for agents with an endpoint, the configured logger
// and, when a Redis address is set, the Redis transcript sink. optFns run
// last. Call Close to release the sink.
func NewFromConfig(cfg *config.MatchConfig, optFns ...func(o *Options)) (*Arena, error) {
	sink, err := cfg.RedisTranscriptWriter()
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript sink: %w", err)
	}

	fns := []func(o *Options){func(o *Options) {
		o.EngineConfig = cfg.EngineConfig()
		o.Adapters = cfg.Adapters()
		o.Logger = cfg.Logger()
		if sink != nil {
			o.TranscriptWriter = sink
		}
	}}
	a := New(append(fns, optFns...)...)
	if sink != nil {
		a.closers = append(a.closers, sink)
	}
	return a, nil
}

// RemoteAgents returns a placeholder agent for every configured agent id.
// They stand in for agents served over HTTP.
func RemoteAgents(cfg *config.MatchConfig) []core.Agent {
	agents := make([]core.Agent, 0, len(cfg.Agents))
	for _, id := range cfg.AgentIDs() {
		agents = append(agents, gateway.NewRemoteAgent(id))
	}
	return agents
}

// Options returns a copy of the arena options.
func (a *Arena) Options() Options { return a.opts }

// Close releases the services created by NewFromConfig.
func (a *Arena) Close() error {
	var first error
	for _, c := range a.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	return first
}

// Play runs one match to completion and returns its result.
func Play[S any](ctx context.Context, a *Arena, scenario core.Scenario[S], agents []core.Agent) (*core.MatchResult, error) {
	return run(ctx, a, scenario, agents, nil)
}

// Stream starts a match asynchronously and returns its event and error
// channels. Events are delivered in seq order; both channels are closed when
// the match ends. The consumer must drain the event channel or cancel ctx.
func Stream[S any](ctx context.Context, a *Arena, scenario core.Scenario[S], agents []core.Agent) (<-chan core.Event, <-chan error) {
	eventsCh := make(chan core.Event, a.opts.EventBufferSize)
	errorsCh := make(chan error, 1)

	go func() {
		defer close(errorsCh)
		defer close(eventsCh)

		forward := func(ev core.Event) {
			select {
			case eventsCh <- ev:
			case <-ctx.Done():
			}
		}
		if _, err := run(ctx, a, scenario, agents, forward); err != nil {
			errorsCh <- err
		}
	}()

	return eventsCh, errorsCh
}

func run[S any](ctx context.Context, a *Arena, scenario core.Scenario[S], agents []core.Agent, forward func(core.Event)) (*core.MatchResult, error) {
	var logWriter *eventlog.Writer
	if a.opts.EventLog != nil {
		logWriter = eventlog.NewWriter(a.opts.EventLog)
	}

	res, err := engine.Run(ctx, scenario, agents, func(o *engine.Options) {
		o.Config = a.opts.EngineConfig
		o.Adapters = a.opts.Adapters
		o.TranscriptWriter = a.opts.TranscriptWriter
		o.Logger = a.opts.Logger
		o.OnEvent = func(ev core.Event) {
			if logWriter != nil {
				logWriter.OnEvent(ev)
			}
			if forward != nil {
				forward(ev)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	if logWriter != nil {
		if err := logWriter.Err(); err != nil {
			return res, fmt.Errorf("failed to write event log: %w", err)
		}
	}
	return res, nil
}
