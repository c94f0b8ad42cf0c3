package core

// Scenario is a deterministic rule set driven by the engine. The state type S
// is opaque to the engine: it is only ever passed back into the scenario.
//
// All methods must be pure with respect to their inputs. Adjudicate must not
// mutate the state it receives; it returns the successor state instead.
type Scenario[S any] interface {
	Name() string
	Version() string
	Init(seed int32, agentIDs []string) S
	Observe(state S, agentID string) Observation
	Adjudicate(state S, agentID string, action Action) AdjudicationResult[S]
	IsTerminal(state S) bool
	Score(state S) Scores
	Summarize(state S) any
	DefaultAction() Action
	Hints() Hints
}

// AdjudicationResult is the only channel through which an action may change
// scenario state.
type AdjudicationResult[S any] struct {
	Valid    bool
	State    S
	Feedback any
}

// Revealer is implemented by scenarios that disclose hidden information once
// the match has ended.
type Revealer[S any] interface {
	Reveal(state S) any
}

// Briefer is implemented by scenarios that hand each agent a textual briefing
// at match start.
type Briefer interface {
	Briefing(agentID string) string
}

// SoloWorld is implemented by scenarios whose state model supports exactly one
// active agent per world instance. Two-agent matches of such scenarios are run
// as independent solo attempts and combined.
type SoloWorld interface {
	SingleActiveAgent() bool
}
