package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/logging"
	"github.com/hupe1980/matcharena/rng"
)

// match holds the mutable state of one standard run.
type match[S any] struct {
	scenario core.Scenario[S]
	opts     Options
	cfg      Config
	log      logging.Logger

	ids      []string
	adapters map[string]gateway.Adapter
	seq      *sequencer
	tracker  *TimeoutTracker
	fallback core.Action
	deadline int

	state S
}

// runStandard plays all agents in one shared world.
func runStandard[S any](ctx context.Context, scenario core.Scenario[S], agents []core.Agent, opts Options) (*core.MatchResult, error) {
	started := time.Now()
	cfg := opts.Config
	ids := agentIDs(agents)
	log := scopedLogger(opts.Logger, cfg.MatchID)

	master := rng.New(cfg.Seed)
	agentSeeds := make(map[string]int32, len(ids))
	for _, id := range ids {
		agentSeeds[id] = rng.DeriveSeed(master)
	}
	scenarioSeed := rng.DeriveSeed(master)

	if err := initAgents(scenario, agents, agentSeeds); err != nil {
		return nil, err
	}

	m := &match[S]{
		scenario: scenario,
		opts:     opts,
		cfg:      cfg,
		log:      log,
		ids:      ids,
		adapters: resolveAdapters(agents, agentSeeds, opts),
		seq:      newSequencer(cfg.MatchID, opts.OnEvent),
		tracker:  NewTimeoutTracker(cfg.MaxConsecutiveTimeouts, ids),
		fallback: scenario.DefaultAction(),
		deadline: cfg.TurnDeadlineMs(),
	}

	m.seq.emit(core.MatchStarted{
		Seed:            cfg.Seed,
		AgentIDs:        append([]string(nil), ids...),
		ScenarioName:    scenario.Name(),
		ScenarioVersion: scenario.Version(),
		MaxTurns:        cfg.MaxTurns,
		Mode:            MatchModeStandard,
		AgentSeeds:      agentSeeds,
		ScenarioSeed:    &scenarioSeed,
	})
	log.Info("Match started", "scenario", scenario.Name(), "seed", cfg.Seed, "agents", len(ids))

	m.state = scenario.Init(scenarioSeed, append([]string(nil), ids...))

	turns := 0
	forfeitedBy := ""
	for turn := 1; turn <= cfg.MaxTurns && forfeitedBy == "" && !scenario.IsTerminal(m.state); turn++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("match %s: %w", cfg.MatchID, err)
		}
		turns = turn
		m.seq.emit(core.TurnStarted{Turn: turn})

		for _, id := range ids {
			if m.playAgentTurn(ctx, turn, id) {
				forfeitedBy = id
				log.Warn("Agent forfeited", "agent_id", id, "turn", turn, "consecutive_timeouts", m.tracker.State(id).Consecutive)
				break
			}
		}

		m.seq.emit(core.StateUpdated{Turn: turn, Summary: core.DeepCopy(scenario.Summarize(m.state))})
	}

	res := m.finish(turns, forfeitedBy)
	if ml, ok := log.(*logging.MatchLogger); ok {
		ml.LogMatchEnded(string(res.Reason), res.Turns, res.Winner, time.Since(started))
	} else {
		log.Info("Match ended", "reason", string(res.Reason), "turns", res.Turns, "winner", res.Winner)
	}
	return res, nil
}

// playAgentTurn runs one agent-turn and reports whether the agent forfeited.
func (m *match[S]) playAgentTurn(ctx context.Context, turn int, id string) bool {
	obs := m.scenario.Observe(m.state, id)
	m.seq.emit(core.ObservationEmitted{Turn: turn, AgentID: id, Observation: copyObservation(obs)})

	req := &gateway.ObservationRequest{
		ProtocolVersion: gateway.ProtocolVersion,
		MatchID:         m.cfg.MatchID,
		Turn:            turn,
		AgentID:         id,
		DeadlineMs:      m.deadline,
		TurnStartedAt:   m.opts.Clock().UnixMilli(),
		GameID:          m.scenario.Name(),
		GameVersion:     m.scenario.Version(),
		Observation:     copyObservation(obs),
		Constraints:     gateway.Constraints{MaxResponseBytes: m.cfg.Gateway.MaxResponseBytes},
	}

	res := m.adapters[id].RequestAction(ctx, req, m.fallback.Clone())
	m.recordTranscript(ctx, res.Transcript)

	status := res.Status()
	var errs []string
	switch status {
	case gateway.StatusOK:
	case gateway.StatusTimeout, gateway.StatusError, gateway.StatusInvalidResponse:
		m.seq.emit(core.AgentError{Turn: turn, AgentID: id, ErrorType: string(status), Message: res.Transcript.Error})
		errs = []string{res.Transcript.Error}
	default:
		// adapters outside this module may invent statuses; treat them as errors
		m.seq.emit(core.AgentError{Turn: turn, AgentID: id, ErrorType: string(gateway.StatusError), Message: fmt.Sprintf("unknown gateway status %q", status)})
		errs = []string{res.Transcript.Error}
	}

	if res.Trace != nil && res.Trace.RawOutput != "" {
		sum := sha256.Sum256([]byte(res.Trace.RawOutput))
		m.seq.emit(core.AgentRawOutput{
			Turn:      turn,
			AgentID:   id,
			RawSHA256: hex.EncodeToString(sum[:]),
			RawBytes:  len(res.Trace.RawOutput),
		})
	}

	action := res.Action
	if action == nil {
		action = m.fallback.Clone()
	}
	m.seq.emit(core.ActionSubmitted{Turn: turn, AgentID: id, Action: copyAction(action)})

	adj := m.scenario.Adjudicate(m.state, id, copyAction(action))
	m.state = adj.State

	method, warnings := MethodDirect, []string(nil)
	if res.Transcript.FallbackApplied {
		method = MethodFallback
	}
	if res.Trace != nil {
		if res.Trace.Method != "" && !res.Transcript.FallbackApplied {
			method = res.Trace.Method
		}
		warnings = append(warnings, res.Trace.Warnings...)
	}

	feedback := core.DeepCopy(adj.Feedback)
	m.seq.emit(core.ActionAdjudicated{
		Turn:            turn,
		AgentID:         id,
		Valid:           adj.Valid,
		Feedback:        feedback,
		Method:          method,
		FallbackApplied: res.Transcript.FallbackApplied,
		Warnings:        warnings,
		Errors:          errs,
	})
	if !adj.Valid {
		m.seq.emit(core.InvalidAction{Turn: turn, AgentID: id, Feedback: core.DeepCopy(adj.Feedback)})
	}

	return m.tracker.Record(id, status)
}

func (m *match[S]) recordTranscript(ctx context.Context, entry gateway.TranscriptEntry) {
	if ml, ok := m.log.(*logging.MatchLogger); ok {
		ml.LogGatewayCall(entry.AgentID, entry.Turn, string(entry.Status), time.Duration(entry.DurationMs)*time.Millisecond, entry.FallbackApplied)
	} else if entry.Status != gateway.StatusOK {
		m.log.Warn("Gateway call degraded to fallback", "agent_id", entry.AgentID, "turn", entry.Turn, "status", string(entry.Status), "error", entry.Error)
	}

	if m.opts.TranscriptWriter == nil {
		return
	}
	if err := m.opts.TranscriptWriter.Write(ctx, entry); err != nil {
		m.log.Error("Transcript write failed", "agent_id", entry.AgentID, "turn", entry.Turn, "error", err)
	}
}

// finish scores the final state and emits MatchEnded.
func (m *match[S]) finish(turns int, forfeitedBy string) *core.MatchResult {
	scores := m.scenario.Score(m.state).Clone()

	reason := core.ReasonMaxTurnsReached
	switch {
	case forfeitedBy != "":
		reason = core.ReasonAgentForfeited
		scores = ApplyForfeitFloor(scores, forfeitedBy, m.ids)
	case m.scenario.IsTerminal(m.state):
		reason = core.ReasonCompleted
	}

	var details any
	if r, ok := any(m.scenario).(core.Revealer[S]); ok {
		details = core.DeepCopy(r.Reveal(m.state))
	}

	winner := core.Winner(scores, m.ids)
	timeouts := m.tracker.Totals()

	m.seq.emit(core.MatchEnded{
		Reason:           reason,
		Scores:           scores.Clone(),
		Winner:           winner,
		Turns:            turns,
		TimeoutsPerAgent: copyCounts(timeouts),
		ForfeitedBy:      forfeitedBy,
		Details:          details,
	})

	return &core.MatchResult{
		MatchID:          m.cfg.MatchID,
		Seed:             m.cfg.Seed,
		AgentIDs:         append([]string(nil), m.ids...),
		Scores:           scores,
		Events:           m.seq.Events(),
		Turns:            turns,
		TimeoutsPerAgent: timeouts,
		ForfeitedBy:      forfeitedBy,
		Reason:           reason,
		Winner:           winner,
		Details:          details,
	}
}

// initAgents hands every agent its derived seed, the hints and its briefing.
func initAgents[S any](scenario core.Scenario[S], agents []core.Agent, seeds map[string]int32) error {
	briefer, _ := any(scenario).(core.Briefer)
	for _, a := range agents {
		id := a.ID()
		cfg := core.AgentConfig{
			AgentID:         id,
			Seed:            seeds[id],
			ScenarioName:    scenario.Name(),
			ScenarioVersion: scenario.Version(),
			Hints:           copyHints(scenario.Hints()),
		}
		if briefer != nil {
			cfg.Briefing = briefer.Briefing(id)
		}
		if err := a.Init(cfg); err != nil {
			return fmt.Errorf("init agent %q: %w", id, err)
		}
	}
	return nil
}

// resolveAdapters returns the explicit adapter of each agent, or a
// LocalAdapter seeded with the agent's derived seed.
func resolveAdapters(agents []core.Agent, seeds map[string]int32, opts Options) map[string]gateway.Adapter {
	out := make(map[string]gateway.Adapter, len(agents))
	for _, a := range agents {
		id := a.ID()
		if ad := opts.Adapters[id]; ad != nil {
			out[id] = ad
			continue
		}
		out[id] = gateway.NewLocalAdapter(a, seeds[id], func(o *gateway.LocalOptions) {
			o.DefaultDeadlineMs = opts.Config.TurnDeadlineMs()
			o.Logger = opts.Logger
		})
	}
	return out
}

func copyObservation(obs core.Observation) core.Observation {
	if obs == nil {
		return core.Observation{}
	}
	return core.DeepCopy(obs).(core.Observation)
}

func copyAction(a core.Action) core.Action {
	if a == nil {
		return core.Action{}
	}
	return core.DeepCopy(a).(core.Action)
}

func copyHints(h core.Hints) core.Hints {
	if h == nil {
		return core.Hints{}
	}
	return core.DeepCopy(h).(core.Hints)
}

func copyCounts(m map[string]int) map[string]int {
	out := make(map[string]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
