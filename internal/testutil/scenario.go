package testutil

import (
	"fmt"

	"github.com/hupe1980/matcharena/core"
)

// CounterState is the state of CounterScenario.
type CounterState struct {
	Seed   int32
	Totals map[string]int
	Order  []string
}

// CounterScenario adds each agent's {"inc": n} (0 <= n <= 10) to its total.
// A Target of zero never terminates.
type CounterScenario struct {
	Target int
}

var (
	_ core.Scenario[CounterState] = CounterScenario{}
	_ core.Revealer[CounterState] = CounterScenario{}
	_ core.Briefer                = CounterScenario{}
)

func (CounterScenario) Name() string    { return "counter" }
func (CounterScenario) Version() string { return "0.0.1" }

func (CounterScenario) Init(seed int32, agentIDs []string) CounterState {
	s := CounterState{Seed: seed, Totals: make(map[string]int, len(agentIDs)), Order: append([]string(nil), agentIDs...)}
	for _, id := range agentIDs {
		s.Totals[id] = 0
	}
	return s
}

func (CounterScenario) Observe(s CounterState, agentID string) core.Observation {
	return core.Observation{"total": s.Totals[agentID]}
}

func (CounterScenario) Adjudicate(s CounterState, agentID string, action core.Action) core.AdjudicationResult[CounterState] {
	n, ok := action.Int("inc")
	if !ok || n < 0 || n > 10 {
		return core.AdjudicationResult[CounterState]{Valid: false, State: s, Feedback: map[string]any{"error": "inc must be in [0, 10]"}}
	}
	next := CounterState{Seed: s.Seed, Totals: make(map[string]int, len(s.Totals)), Order: s.Order}
	for k, v := range s.Totals {
		next.Totals[k] = v
	}
	next.Totals[agentID] += n
	return core.AdjudicationResult[CounterState]{Valid: true, State: next, Feedback: map[string]any{"total": next.Totals[agentID]}}
}

func (c CounterScenario) IsTerminal(s CounterState) bool {
	if c.Target <= 0 {
		return false
	}
	for _, v := range s.Totals {
		if v >= c.Target {
			return true
		}
	}
	return false
}

func (CounterScenario) Score(s CounterState) core.Scores {
	scores := make(core.Scores, len(s.Totals))
	for k, v := range s.Totals {
		scores[k] = float64(v)
	}
	return scores
}

func (CounterScenario) Summarize(s CounterState) any {
	totals := make(map[string]any, len(s.Totals))
	for k, v := range s.Totals {
		totals[k] = v
	}
	return map[string]any{"totals": totals}
}

func (CounterScenario) DefaultAction() core.Action { return core.Action{"inc": 1} }

func (CounterScenario) Hints() core.Hints { return core.Hints{"maxInc": 10} }

func (CounterScenario) Reveal(s CounterState) any { return map[string]any{"seed": s.Seed} }

func (CounterScenario) Briefing(agentID string) string {
	return fmt.Sprintf("%s: increment your counter", agentID)
}

// SoloCounterScenario is a CounterScenario whose worlds host one agent each.
type SoloCounterScenario struct {
	CounterScenario
}

// SingleActiveAgent implements core.SoloWorld.
func (SoloCounterScenario) SingleActiveAgent() bool { return true }
