package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/rng"
)

// runSolo plays each agent in its own world and combines the attempts.
//
// Solo seeds are drawn from the master stream in agent order before either
// run starts. Each solo run is a standard run with one agent, match id
// <matchId>-<agentId> and an adapter set scoped to that agent. OnEvent
// observes the combined stream once both runs are done.
func runSolo[S any](ctx context.Context, scenario core.Scenario[S], agents []core.Agent, opts Options) (*core.MatchResult, error) {
	cfg := opts.Config
	ids := agentIDs(agents)

	master := rng.New(cfg.Seed)
	soloSeeds := make(map[string]int32, len(ids))
	for _, id := range ids {
		soloSeeds[id] = rng.DeriveSeed(master)
	}

	solos := make([]*core.MatchResult, len(agents))
	play := func(ctx context.Context, i int) error {
		a := agents[i]
		id := a.ID()

		soloOpts := opts
		soloOpts.Config.Seed = soloSeeds[id]
		soloOpts.Config.MatchID = cfg.MatchID + "-" + id
		soloOpts.Adapters = nil
		if ad := opts.Adapters[id]; ad != nil {
			soloOpts.Adapters = map[string]gateway.Adapter{id: ad}
		}
		soloOpts.OnEvent = nil

		res, err := runStandard(ctx, scenario, []core.Agent{a}, soloOpts)
		if err != nil {
			return fmt.Errorf("solo run %q: %w", id, err)
		}
		solos[i] = res
		return nil
	}

	if cfg.ParallelSolo {
		g, gctx := errgroup.WithContext(ctx)
		for i := range agents {
			i := i
			g.Go(func() error { return play(gctx, i) })
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range agents {
			if err := play(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	header := core.MatchStarted{
		Seed:            cfg.Seed,
		AgentIDs:        append([]string(nil), ids...),
		ScenarioName:    scenario.Name(),
		ScenarioVersion: scenario.Version(),
		MaxTurns:        cfg.MaxTurns,
		SoloSeeds:       soloSeeds,
	}

	res := Combine(cfg.MatchID, header, solos)
	if opts.OnEvent != nil {
		for _, ev := range res.Events {
			opts.OnEvent(ev)
		}
	}
	return res, nil
}

// Combine merges single-agent results, given in agent order, into one match.
//
// The combined stream holds one MatchStarted built from header (mode solo),
// the inner events of every solo run in agent order with their own
// MatchStarted and MatchEnded dropped, and one MatchEnded. Every event is
// re-sequenced from 0 and stamped with matchID.
//
// Scores are the raw solo scores. Timeouts are taken per agent. If an agent
// forfeited, the earliest forfeit (fewest turns, then agent order) is
// reported and the floor applies unless every agent forfeited. Equal scores
// are a draw. The result only depends on the order of solos, never on the
// order in which the solo runs finished.
func Combine(matchID string, header core.MatchStarted, solos []*core.MatchResult) *core.MatchResult {
	seq := newSequencer(matchID, nil)
	header.Mode = MatchModeSolo
	seq.emit(header)

	ids := make([]string, 0, len(solos))
	scores := make(core.Scores, len(solos))
	timeouts := make(map[string]int, len(solos))
	details := make(map[string]any, len(solos))

	turns := 0
	completed := true
	forfeitedBy, forfeitTurns, forfeits := "", 0, 0

	for _, r := range solos {
		if r == nil || len(r.AgentIDs) == 0 {
			continue
		}
		id := r.AgentIDs[0]
		ids = append(ids, id)

		for _, ev := range r.Events {
			if ev.Type == core.EventMatchStarted || ev.Type == core.EventMatchEnded {
				continue
			}
			seq.emit(ev.Payload)
		}

		scores[id] = r.Scores[id]
		timeouts[id] = r.TimeoutsPerAgent[id]
		turns = max(turns, r.Turns)
		if r.Reason != core.ReasonCompleted {
			completed = false
		}
		if r.Details != nil {
			details[id] = r.Details
		}
		if r.Forfeited() {
			forfeits++
			if forfeitedBy == "" || r.Turns < forfeitTurns {
				forfeitedBy, forfeitTurns = id, r.Turns
			}
		}
	}

	reason := core.ReasonMaxTurnsReached
	switch {
	case forfeitedBy != "":
		reason = core.ReasonAgentForfeited
		if forfeits < len(ids) {
			scores = ApplyForfeitFloor(scores, forfeitedBy, ids)
		}
	case completed && len(ids) > 0:
		reason = core.ReasonCompleted
	}

	var revealed any
	if len(details) > 0 {
		revealed = details
	}

	winner := core.Winner(scores, ids)
	seq.emit(core.MatchEnded{
		Reason:           reason,
		Scores:           scores.Clone(),
		Winner:           winner,
		Turns:            turns,
		TimeoutsPerAgent: copyCounts(timeouts),
		ForfeitedBy:      forfeitedBy,
		Details:          revealed,
	})

	return &core.MatchResult{
		MatchID:          matchID,
		Seed:             header.Seed,
		AgentIDs:         ids,
		Scores:           scores,
		Events:           seq.Events(),
		Turns:            turns,
		TimeoutsPerAgent: timeouts,
		ForfeitedBy:      forfeitedBy,
		Reason:           reason,
		Winner:           winner,
		Details:          revealed,
	}
}
