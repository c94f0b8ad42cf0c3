package engine

import (
	"errors"
	"time"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/logging"
)

// Mode selects where agents are expected to run.
type Mode string

const (
	// ModeLocal runs agents in-process; missing adapters default to a
	// gateway.LocalAdapter.
	ModeLocal Mode = "local"
	// ModeHTTP requires an explicit adapter for every agent.
	ModeHTTP Mode = "http"
)

// Match modes reported in MatchStarted.
const (
	MatchModeStandard = "standard"
	MatchModeSolo     = "solo"
)

// Adjudication methods reported when the agent attached none.
const (
	MethodDirect   = "direct"
	MethodFallback = "fallback"
)

var (
	// ErrNoAgents is returned when a match is started without agents.
	ErrNoAgents = errors.New("engine: no agents")
	// ErrDuplicateAgent is returned when two agents share an id.
	ErrDuplicateAgent = errors.New("engine: duplicate agent id")
	// ErrAdapterMissing is returned in ModeHTTP when an agent has no adapter.
	ErrAdapterMissing = errors.New("engine: no adapter registered for agent")
	// ErrInvalidConfig wraps every other configuration problem.
	ErrInvalidConfig = errors.New("engine: invalid config")
)

// Config defines the parameters of one match.
type Config struct {
	// MatchID names the match. When empty a deterministic id is derived from
	// the scenario name, the seed and the agent ids.
	MatchID string

	// Seed is the master seed from which every other seed is derived.
	Seed int32

	// MaxTurns bounds the turn loop. Must be positive.
	MaxTurns int

	// MaxTurnTimeMs is the per agent-turn deadline. Non-positive values fall
	// back to Gateway.DefaultDeadlineMs.
	MaxTurnTimeMs int

	// MaxConsecutiveTimeouts is the forfeiture threshold. Non-positive values
	// disable forfeiture.
	MaxConsecutiveTimeouts int

	// Mode selects local or remote agents.
	Mode Mode

	// Gateway holds wire-level limits handed to adapters and requests.
	Gateway gateway.Config

	// ParallelSolo runs the two solo attempts of a SoloWorld scenario
	// concurrently.
	ParallelSolo bool
}

// DefaultConfig provides the default match parameters: 20 turns, forfeiture
// after 3 consecutive timeouts, local agents and the gateway defaults.
var DefaultConfig = Config{
	MaxTurns:               20,
	MaxConsecutiveTimeouts: 3,
	Mode:                   ModeLocal,
	Gateway:                gateway.DefaultConfig,
}

// TurnDeadlineMs resolves the deadline of one agent-turn.
func (c Config) TurnDeadlineMs() int {
	if c.MaxTurnTimeMs > 0 {
		return c.MaxTurnTimeMs
	}
	if c.Gateway.DefaultDeadlineMs > 0 {
		return c.Gateway.DefaultDeadlineMs
	}
	return gateway.DefaultConfig.DefaultDeadlineMs
}

// Options configures a match run using the functional options pattern.
//
// Example:
//
//	res, err := engine.Run(ctx, scenario, agents, func(o *engine.Options) {
//		o.Config.Seed = 42
//		o.TranscriptWriter = transcript.NewMemoryWriter()
//	})
type Options struct {
	// Config contains the match parameters. Defaults to DefaultConfig.
	Config Config

	// Adapters maps agent ids to gateway adapters. In ModeLocal agents
	// without an entry get a LocalAdapter; in ModeHTTP every agent needs one.
	Adapters map[string]gateway.Adapter

	// TranscriptWriter receives one entry per agent-turn. Optional; write
	// failures are logged and never affect the match.
	TranscriptWriter gateway.TranscriptWriter

	// Logger provides structured logging. Defaults to logging.NoOpLogger.
	Logger logging.Logger

	// Clock stamps turnStartedAt in gateway requests. Defaults to time.Now.
	// It never influences the event log.
	Clock func() time.Time

	// OnEvent is called synchronously with every event as it is sequenced.
	OnEvent func(core.Event)
}

func defaultOptions() Options {
	return Options{
		Config: DefaultConfig,
		Logger: logging.NoOpLogger{},
		Clock:  time.Now,
	}
}
