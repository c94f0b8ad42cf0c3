package gateway

import (
	"time"

	"github.com/hupe1980/matcharena/core"
)

// ProtocolVersion is the wire protocol version spoken by adapters and handlers.
const ProtocolVersion = "0.1.0"

// Constraints bound the agent's answer.
type Constraints struct {
	MaxResponseBytes int64 `json:"maxResponseBytes"`
}

// ObservationRequest asks an agent for the action of one turn. MatchID, Turn
// and AgentID are correlation fields that must be echoed in the response.
type ObservationRequest struct {
	ProtocolVersion string           `json:"protocolVersion"`
	MatchID         string           `json:"matchId"`
	Turn            int              `json:"turn"`
	AgentID         string           `json:"agentId"`
	DeadlineMs      int              `json:"deadlineMs"`
	TurnStartedAt   int64            `json:"turnStartedAt"`
	GameID          string           `json:"gameId"`
	GameVersion     string           `json:"gameVersion"`
	Observation     core.Observation `json:"observation"`
	Constraints     Constraints      `json:"constraints"`
}

// Deadline returns the request deadline as a duration.
func (r *ObservationRequest) Deadline() time.Duration {
	return time.Duration(r.DeadlineMs) * time.Millisecond
}

// ActionMeta carries optional forensic metadata about how the action was made.
type ActionMeta struct {
	RawOutput           string   `json:"rawOutput,omitempty"`
	NormalizationMethod string   `json:"normalizationMethod,omitempty"`
	Warnings            []string `json:"warnings,omitempty"`
}

// ActionResponse is the agent's answer.
type ActionResponse struct {
	ProtocolVersion string      `json:"protocolVersion"`
	MatchID         string      `json:"matchId"`
	Turn            int         `json:"turn"`
	AgentID         string      `json:"agentId"`
	Action          core.Action `json:"action"`
	Meta            *ActionMeta `json:"meta,omitempty"`
}

// Trace converts the response metadata into a core.Trace (nil when absent).
func (r *ActionResponse) Trace() *core.Trace {
	if r.Meta == nil {
		return nil
	}
	t := &core.Trace{
		RawOutput: r.Meta.RawOutput,
		Method:    r.Meta.NormalizationMethod,
		Warnings:  r.Meta.Warnings,
	}
	if t.Empty() {
		return nil
	}
	return t
}

func metaFromTrace(t *core.Trace) *ActionMeta {
	if t.Empty() {
		return nil
	}
	return &ActionMeta{RawOutput: t.RawOutput, NormalizationMethod: t.Method, Warnings: t.Warnings}
}
