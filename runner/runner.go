package runner

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/engine"
	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/logging"
)

// Options holds dependency + configuration overrides passed to New().
type Options struct {
	// MaxConcurrentMatches limits how many matches run at once.
	MaxConcurrentMatches int
	// Engine is the base match configuration. Seed and MatchID are set per
	// match.
	Engine engine.Config
	// TranscriptWriter receives the transcript entries of every match.
	TranscriptWriter gateway.TranscriptWriter
	// OnEvent observes the events of every match. Calls for different
	// matches may interleave.
	OnEvent func(core.Event)
	// Logging services.
	Logger logging.Logger
}

// AgentFactory builds the participants of one match. It must return fresh
// agents with the same ids on every call.
type AgentFactory func(seed int32) []core.Agent

// Runner plays match series. Public methods are safe for concurrent use.
type Runner struct {
	opts Options

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner with optional overrides.
func New(optFns ...func(o *Options)) *Runner {
	opts := Options{
		MaxConcurrentMatches: 4,
		Engine:               engine.DefaultConfig,
		Logger:               logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxConcurrentMatches <= 0 {
		opts.MaxConcurrentMatches = 1
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	return &Runner{opts: opts, activeRuns: make(map[string]context.CancelFunc)}
}

// Standing tallies one agent's series record.
type Standing struct {
	AgentID    string  `json:"agentId"`
	Wins       int     `json:"wins"`
	Draws      int     `json:"draws"`
	Losses     int     `json:"losses"`
	Forfeits   int     `json:"forfeits"`
	Timeouts   int     `json:"timeouts"`
	TotalScore float64 `json:"totalScore"`
}

// Series is the outcome of RunSeries.
type Series struct {
	Scenario string              `json:"scenario"`
	Seeds    []int32             `json:"seeds"`
	Results  []*core.MatchResult `json:"results"`
	// Standings is ordered by wins, then total score, then agent order.
	Standings []Standing `json:"standings"`
}

// RunSeries plays scenario once per seed. The first error cancels the
// remaining matches and is returned.
func RunSeries[S any](ctx context.Context, r *Runner, scenario core.Scenario[S], newAgents AgentFactory, seeds []int32) (*Series, error) {
	if len(seeds) == 0 {
		return nil, fmt.Errorf("runner: no seeds")
	}
	seen := make(map[int32]struct{}, len(seeds))
	for _, seed := range seeds {
		if _, dup := seen[seed]; dup {
			return nil, fmt.Errorf("runner: duplicate seed %d", seed)
		}
		seen[seed] = struct{}{}
	}

	results := make([]*core.MatchResult, len(seeds))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.MaxConcurrentMatches)

	for i, seed := range seeds {
		i, seed := i, seed
		g.Go(func() error {
			res, err := playMatch(gctx, r, scenario, newAgents(seed), seed)
			if err != nil {
				return fmt.Errorf("match with seed %d: %w", seed, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &Series{
		Scenario:  scenario.Name(),
		Seeds:     append([]int32(nil), seeds...),
		Results:   results,
		Standings: tally(results),
	}, nil
}

func playMatch[S any](ctx context.Context, r *Runner, scenario core.Scenario[S], agents []core.Agent, seed int32) (*core.MatchResult, error) {
	ids := make([]string, 0, len(agents))
	for _, a := range agents {
		if a != nil {
			ids = append(ids, a.ID())
		}
	}
	matchID := core.NewMatchID(scenario.Name(), seed, ids)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	r.mu.Lock()
	r.activeRuns[matchID] = cancel
	r.mu.Unlock()
	defer func() {
		r.mu.Lock()
		delete(r.activeRuns, matchID)
		r.mu.Unlock()
	}()

	r.opts.Logger.Debug("runner starting match", "match_id", matchID, "seed", seed)

	return engine.Run(ctx, scenario, agents, func(o *engine.Options) {
		o.Config = r.opts.Engine
		o.Config.Seed = seed
		o.Config.MatchID = matchID
		o.TranscriptWriter = r.opts.TranscriptWriter
		o.OnEvent = r.opts.OnEvent
		o.Logger = r.opts.Logger
	})
}

// Cancel cancels a running match by id.
func (r *Runner) Cancel(matchID string) error {
	r.mu.Lock()
	cancel, exists := r.activeRuns[matchID]
	r.mu.Unlock()

	if !exists {
		return fmt.Errorf("match %s not found", matchID)
	}

	cancel()

	return nil
}

// Active returns the ids of the matches currently running.
func (r *Runner) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.activeRuns))
	for id := range r.activeRuns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func tally(results []*core.MatchResult) []Standing {
	var order []string
	byID := map[string]*Standing{}
	for _, res := range results {
		for _, id := range res.AgentIDs {
			st, ok := byID[id]
			if !ok {
				st = &Standing{AgentID: id}
				byID[id] = st
				order = append(order, id)
			}
			switch {
			case res.Winner == id:
				st.Wins++
			case res.Winner == "":
				st.Draws++
			default:
				st.Losses++
			}
			if res.ForfeitedBy == id {
				st.Forfeits++
			}
			st.Timeouts += res.TimeoutsPerAgent[id]
			st.TotalScore += res.Scores[id]
		}
	}

	out := make([]Standing, len(order))
	for i, id := range order {
		out[i] = *byID[id]
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Wins != out[j].Wins {
			return out[i].Wins > out[j].Wins
		}
		return out[i].TotalScore > out[j].TotalScore
	})
	return out
}
