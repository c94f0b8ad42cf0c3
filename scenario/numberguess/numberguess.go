// Package numberguess implements a small deterministic guessing game used to
// exercise the engine end to end.
//
// A secret integer is drawn from the scenario seed. Every turn each agent
// submits {"guess": n} and learns whether the secret is higher, lower or
// equal. Agents keep private bounds, so in the shared variant they race each
// other for the same secret; in the solo variant every agent plays its own
// world and the engine combines the attempts.
package numberguess

import (
	"fmt"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/internal/schema"
	"github.com/hupe1980/matcharena/rng"
)

const (
	// Name is the scenario id.
	Name = "numberguess"
	// Version is bumped whenever rules or scoring change.
	Version = "1.0.0"
)

// Feedback results.
const (
	ResultHigher  = "higher"
	ResultLower   = "lower"
	ResultCorrect = "correct"
)

// Options configures the game.
type Options struct {
	Min int
	Max int
	// Solo plays every agent in its own world instance.
	Solo bool
}

// Move is the action shape, {"guess": n}.
type Move struct {
	Guess int `json:"guess" description:"integer guess inside the current bounds"`
}

// Bounds is the interval an agent still considers possible.
type Bounds struct {
	Low  int
	High int
}

// AgentState is the per-agent part of the game state.
type AgentState struct {
	Bounds       Bounds
	Attempts     int
	LastGuess    int
	LastFeedback string
	SolvedAt     int
}

// State is the complete game state. Scenario methods never mutate a State
// they receive.
type State struct {
	Secret   int
	AgentIDs []string
	Agents   map[string]AgentState
}

func (s State) clone() State {
	agents := make(map[string]AgentState, len(s.Agents))
	for id, a := range s.Agents {
		agents[id] = a
	}
	return State{Secret: s.Secret, AgentIDs: append([]string(nil), s.AgentIDs...), Agents: agents}
}

// Game is the number guessing scenario.
type Game struct {
	opts Options
}

var (
	_ core.Scenario[State] = (*Game)(nil)
	_ core.Revealer[State] = (*Game)(nil)
	_ core.Briefer         = (*Game)(nil)
	_ core.SoloWorld       = (*Game)(nil)
)

// New creates the game. The default range is 1..100.
func New(optFns ...func(o *Options)) *Game {
	opts := Options{Min: 1, Max: 100}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Max < opts.Min {
		opts.Min, opts.Max = opts.Max, opts.Min
	}
	return &Game{opts: opts}
}

// Name implements core.Scenario.
func (g *Game) Name() string { return Name }

// Version implements core.Scenario.
func (g *Game) Version() string { return Version }

// SingleActiveAgent implements core.SoloWorld.
func (g *Game) SingleActiveAgent() bool { return g.opts.Solo }

// Init draws the secret from seed.
func (g *Game) Init(seed int32, agentIDs []string) State {
	s := State{
		Secret:   rng.RandomInt(rng.New(seed), g.opts.Min, g.opts.Max),
		AgentIDs: append([]string(nil), agentIDs...),
		Agents:   make(map[string]AgentState, len(agentIDs)),
	}
	for _, id := range agentIDs {
		s.Agents[id] = AgentState{Bounds: Bounds{Low: g.opts.Min, High: g.opts.Max}}
	}
	return s
}

// Observe implements core.Scenario.
func (g *Game) Observe(state State, agentID string) core.Observation {
	a := state.Agents[agentID]
	obs := core.Observation{
		"min":      a.Bounds.Low,
		"max":      a.Bounds.High,
		"attempts": a.Attempts,
		"solved":   a.SolvedAt > 0,
	}
	if a.LastFeedback != "" {
		obs["lastGuess"] = a.LastGuess
		obs["lastFeedback"] = a.LastFeedback
	}
	return obs
}

// Adjudicate checks a guess. Guesses outside the game range or without an
// integer "guess" are invalid but still count as an attempt.
func (g *Game) Adjudicate(state State, agentID string, action core.Action) core.AdjudicationResult[State] {
	next := state.clone()
	a, ok := next.Agents[agentID]
	if !ok {
		return core.AdjudicationResult[State]{
			Valid:    false,
			State:    state,
			Feedback: map[string]any{"error": fmt.Sprintf("unknown agent %q", agentID)},
		}
	}
	if a.SolvedAt > 0 {
		return core.AdjudicationResult[State]{
			Valid:    true,
			State:    state,
			Feedback: map[string]any{"result": ResultCorrect, "ignored": true},
		}
	}

	a.Attempts++
	guess, ok := action.Int("guess")
	if !ok || guess < g.opts.Min || guess > g.opts.Max {
		next.Agents[agentID] = a
		return core.AdjudicationResult[State]{
			Valid:    false,
			State:    next,
			Feedback: map[string]any{"error": fmt.Sprintf("guess must be an integer in [%d, %d]", g.opts.Min, g.opts.Max)},
		}
	}

	a.LastGuess = guess
	switch {
	case guess < state.Secret:
		a.LastFeedback = ResultHigher
		a.Bounds.Low = max(a.Bounds.Low, guess+1)
	case guess > state.Secret:
		a.LastFeedback = ResultLower
		a.Bounds.High = min(a.Bounds.High, guess-1)
	default:
		a.LastFeedback = ResultCorrect
		a.Bounds = Bounds{Low: guess, High: guess}
		a.SolvedAt = a.Attempts
	}
	next.Agents[agentID] = a

	return core.AdjudicationResult[State]{
		Valid:    true,
		State:    next,
		Feedback: map[string]any{"result": a.LastFeedback},
	}
}

// IsTerminal reports whether any agent found the secret.
func (g *Game) IsTerminal(state State) bool {
	for _, a := range state.Agents {
		if a.SolvedAt > 0 {
			return true
		}
	}
	return false
}

// Score awards 101 minus the attempts needed to an agent that found the
// secret, and zero otherwise.
func (g *Game) Score(state State) core.Scores {
	scores := make(core.Scores, len(state.Agents))
	for id, a := range state.Agents {
		if a.SolvedAt > 0 {
			scores[id] = float64(max(1, 101-a.SolvedAt))
			continue
		}
		scores[id] = 0
	}
	return scores
}

// Summarize exposes the public per-agent progress.
func (g *Game) Summarize(state State) any {
	agents := make(map[string]any, len(state.AgentIDs))
	for _, id := range state.AgentIDs {
		a := state.Agents[id]
		agents[id] = map[string]any{
			"attempts": a.Attempts,
			"solved":   a.SolvedAt > 0,
		}
	}
	return map[string]any{"agents": agents}
}

// DefaultAction guesses the middle of the range.
func (g *Game) DefaultAction() core.Action {
	return core.Action{"guess": g.opts.Min + (g.opts.Max-g.opts.Min)/2}
}

// Hints implements core.Scenario.
func (g *Game) Hints() core.Hints {
	return core.Hints{
		"min":          g.opts.Min,
		"max":          g.opts.Max,
		"actionSchema": schema.WithRange(schema.FromStruct(Move{}), "guess", float64(g.opts.Min), float64(g.opts.Max)),
	}
}

// Reveal discloses the secret.
func (g *Game) Reveal(state State) any {
	return map[string]any{"secret": state.Secret}
}

// Briefing implements core.Briefer.
func (g *Game) Briefing(agentID string) string {
	return fmt.Sprintf(
		"Agent %s: find the secret integer in [%d, %d]. Submit {\"guess\": n}; you will be told whether the secret is higher, lower or correct. Fewer attempts score more.",
		agentID, g.opts.Min, g.opts.Max,
	)
}
