package engine

import (
	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/gateway"
)

// TimeoutState is the timeout history of one agent.
type TimeoutState struct {
	// Consecutive counts timeouts since the last non-timeout turn.
	Consecutive int
	// Total counts every timeout of the match.
	Total int
	// Forfeited is set once Consecutive reaches the threshold.
	Forfeited bool
}

// TimeoutTracker keeps a TimeoutState per agent. It is owned by a single
// match and is not safe for concurrent use.
type TimeoutTracker struct {
	threshold int
	order     []string
	states    map[string]*TimeoutState
}

// NewTimeoutTracker creates a tracker for agentIDs. A non-positive
// maxConsecutive disables forfeiture.
func NewTimeoutTracker(maxConsecutive int, agentIDs []string) *TimeoutTracker {
	t := &TimeoutTracker{
		threshold: maxConsecutive,
		order:     append([]string(nil), agentIDs...),
		states:    make(map[string]*TimeoutState, len(agentIDs)),
	}
	for _, id := range agentIDs {
		t.states[id] = &TimeoutState{}
	}
	return t
}

// Record feeds the status of one agent-turn. Only a timeout advances the
// counters; any other status resets the consecutive count. It reports true
// exactly once, on the call that forfeits the agent.
func (t *TimeoutTracker) Record(agentID string, status gateway.Status) bool {
	st, ok := t.states[agentID]
	if !ok {
		st = &TimeoutState{}
		t.states[agentID] = st
		t.order = append(t.order, agentID)
	}

	if status != gateway.StatusTimeout {
		st.Consecutive = 0
		return false
	}

	st.Consecutive++
	st.Total++
	if st.Forfeited || t.threshold <= 0 || st.Consecutive < t.threshold {
		return false
	}
	st.Forfeited = true
	return true
}

// State returns a copy of the agent's timeout state.
func (t *TimeoutTracker) State(agentID string) TimeoutState {
	if st, ok := t.states[agentID]; ok {
		return *st
	}
	return TimeoutState{}
}

// Totals returns the cumulative timeout count of every agent, zeros included.
func (t *TimeoutTracker) Totals() map[string]int {
	out := make(map[string]int, len(t.order))
	for _, id := range t.order {
		out[id] = t.states[id].Total
	}
	return out
}

// ApplyForfeitFloor returns a copy of scores in which every agent other than
// forfeitedBy scores at least the forfeiting agent's score plus one. Scores
// already strictly greater are kept. An agent missing from scores counts as 0.
func ApplyForfeitFloor(scores core.Scores, forfeitedBy string, agentIDs []string) core.Scores {
	out := scores.Clone()
	if forfeitedBy == "" {
		return out
	}
	floor := out[forfeitedBy] + 1
	for _, id := range agentIDs {
		if id == forfeitedBy {
			continue
		}
		if out[id] <= out[forfeitedBy] {
			out[id] = floor
		}
	}
	if _, ok := out[forfeitedBy]; !ok {
		out[forfeitedBy] = 0
	}
	return out
}
