package testutil

import "github.com/hupe1980/matcharena/core"

// EventBuilder builds well-formed event streams for tests. Seq numbers are
// assigned in call order starting at 0.
//
//	events := NewEventBuilder("m1").Started("a").Turn(1).Submit(1, "a", core.Action{"inc": 1}).Ended(core.ReasonCompleted).Build()
type EventBuilder struct {
	matchID string
	events  []core.Event
}

// NewEventBuilder creates a builder for matchID.
func NewEventBuilder(matchID string) *EventBuilder { return &EventBuilder{matchID: matchID} }

// Add appends an arbitrary payload.
func (b *EventBuilder) Add(p core.Payload) *EventBuilder {
	ev := core.NewEvent(p)
	ev.Seq = len(b.events)
	ev.MatchID = b.matchID
	b.events = append(b.events, ev)
	return b
}

// Started appends a standard MatchStarted for agentIDs.
func (b *EventBuilder) Started(agentIDs ...string) *EventBuilder {
	return b.Add(core.MatchStarted{AgentIDs: agentIDs, ScenarioName: "counter", ScenarioVersion: "0.0.1", MaxTurns: 20, Mode: "standard"})
}

// Turn appends a TurnStarted.
func (b *EventBuilder) Turn(turn int) *EventBuilder { return b.Add(core.TurnStarted{Turn: turn}) }

// Submit appends an ActionSubmitted.
func (b *EventBuilder) Submit(turn int, agentID string, action core.Action) *EventBuilder {
	return b.Add(core.ActionSubmitted{Turn: turn, AgentID: agentID, Action: action})
}

// Ended appends a MatchEnded.
func (b *EventBuilder) Ended(reason core.EndReason) *EventBuilder {
	return b.Add(core.MatchEnded{Reason: reason, Scores: core.Scores{}, TimeoutsPerAgent: map[string]int{}})
}

// Build returns the events.
func (b *EventBuilder) Build() []core.Event { return append([]core.Event(nil), b.events...) }
