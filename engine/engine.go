package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/logging"
)

// strategy runs a validated match and produces its result.
type strategy[S any] func(ctx context.Context, scenario core.Scenario[S], agents []core.Agent, opts Options) (*core.MatchResult, error)

// Run plays one match of scenario between agents.
//
// Run validates the configuration before anything is emitted, resolves the
// match id, selects the standard or solo strategy and returns the terminal
// MatchResult. Agent failures never make Run fail; see the package
// documentation for the errors it does return.
func Run[S any](ctx context.Context, scenario core.Scenario[S], agents []core.Agent, optFns ...func(o *Options)) (*core.MatchResult, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	if err := validate(opts.Config, agents, opts.Adapters); err != nil {
		return nil, err
	}

	if opts.Config.MatchID == "" {
		opts.Config.MatchID = core.NewMatchID(scenario.Name(), opts.Config.Seed, agentIDs(agents))
	}

	return selectStrategy(scenario, agents)(ctx, scenario, agents, opts)
}

// selectStrategy picks the solo strategy for two agents on a SoloWorld
// scenario and the standard strategy otherwise.
func selectStrategy[S any](scenario core.Scenario[S], agents []core.Agent) strategy[S] {
	if sw, ok := any(scenario).(core.SoloWorld); ok && sw.SingleActiveAgent() && len(agents) == 2 {
		return runSolo[S]
	}
	return runStandard[S]
}

func validate(cfg Config, agents []core.Agent, adapters map[string]gateway.Adapter) error {
	if len(agents) == 0 {
		return ErrNoAgents
	}
	if cfg.MaxTurns <= 0 {
		return fmt.Errorf("%w: maxTurns must be positive, got %d", ErrInvalidConfig, cfg.MaxTurns)
	}
	switch cfg.Mode {
	case ModeLocal, ModeHTTP:
	default:
		return fmt.Errorf("%w: unknown mode %q", ErrInvalidConfig, cfg.Mode)
	}

	seen := make(map[string]struct{}, len(agents))
	for i, a := range agents {
		if a == nil {
			return fmt.Errorf("%w: agent %d is nil", ErrInvalidConfig, i)
		}
		id := a.ID()
		if id == "" {
			return fmt.Errorf("%w: agent %d has an empty id", ErrInvalidConfig, i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateAgent, id)
		}
		seen[id] = struct{}{}

		if cfg.Mode == ModeHTTP && adapters[id] == nil {
			return fmt.Errorf("%w: %q", ErrAdapterMissing, id)
		}
	}
	return nil
}

func agentIDs(agents []core.Agent) []string {
	ids := make([]string, len(agents))
	for i, a := range agents {
		ids[i] = a.ID()
	}
	return ids
}

func scopedLogger(l logging.Logger, matchID string) logging.Logger {
	if ml, ok := l.(*logging.MatchLogger); ok {
		return ml.WithComponent("engine").WithMatch(matchID)
	}
	return l
}
