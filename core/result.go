package core

// EndReason explains why a match stopped.
type EndReason string

const (
	// ReasonCompleted means the scenario reported a terminal state.
	ReasonCompleted EndReason = "completed"
	// ReasonMaxTurnsReached means the turn budget ran out first.
	ReasonMaxTurnsReached EndReason = "maxTurnsReached"
	// ReasonAgentForfeited means an agent exceeded its consecutive timeout budget.
	ReasonAgentForfeited EndReason = "agentForfeited"
)

// MatchResult is the terminal aggregate of a match. Gateway transcripts are
// streamed separately and are not part of the result.
type MatchResult struct {
	MatchID          string         `json:"matchId"`
	Seed             int32          `json:"seed"`
	AgentIDs         []string       `json:"agentIds"`
	Scores           Scores         `json:"scores"`
	Events           []Event        `json:"events"`
	Turns            int            `json:"turns"`
	TimeoutsPerAgent map[string]int `json:"timeoutsPerAgent"`
	ForfeitedBy      string         `json:"forfeitedBy,omitempty"`
	Reason           EndReason      `json:"reason"`
	Winner           string         `json:"winner,omitempty"`
	// Details holds the scenario reveal, when the scenario provides one.
	Details any `json:"details,omitempty"`
}

// Forfeited reports whether the match ended by forfeiture.
func (r *MatchResult) Forfeited() bool { return r.ForfeitedBy != "" }
