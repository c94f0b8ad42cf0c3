package gateway

import (
	"context"
	"time"

	"github.com/hupe1980/matcharena/core"
)

// Status classifies the outcome of one gateway interaction.
type Status string

const (
	StatusOK              Status = "ok"
	StatusTimeout         Status = "timeout"
	StatusError           Status = "error"
	StatusInvalidResponse Status = "invalid_response"
)

// Transport names where the agent ran.
const (
	TransportLocal = "local"
	TransportHTTP  = "http"
)

// TranscriptEntry is the audit record of one agent-turn gateway interaction.
// It is produced alongside, and independently of, the match event log.
type TranscriptEntry struct {
	ID              string    `json:"id"`
	MatchID         string    `json:"matchId"`
	Turn            int       `json:"turn"`
	AgentID         string    `json:"agentId"`
	Transport       string    `json:"transport"`
	Status          Status    `json:"status"`
	StartedAt       time.Time `json:"startedAt"`
	DurationMs      int64     `json:"durationMs"`
	DeadlineMs      int       `json:"deadlineMs"`
	RequestBytes    int       `json:"requestBytes"`
	ResponseBytes   int       `json:"responseBytes"`
	Attempts        int       `json:"attempts"`
	HTTPStatus      int       `json:"httpStatus,omitempty"`
	FallbackApplied bool      `json:"fallbackApplied"`
	Error           string    `json:"error,omitempty"`
}

// Result is the tagged outcome of RequestAction. Action is always usable:
// it is the agent's action when Status is ok and the fallback otherwise.
type Result struct {
	Action     core.Action
	Transcript TranscriptEntry
	// Trace is the forensic metadata attached by the agent, if any.
	Trace *core.Trace
}

// Status returns the classified outcome.
func (r Result) Status() Status { return r.Transcript.Status }

// Adapter asks one agent for an action. Implementations must never panic and
// must always return a usable Result.
type Adapter interface {
	RequestAction(ctx context.Context, req *ObservationRequest, fallback core.Action) Result
}

// TranscriptWriter receives one entry per agent-turn as it is produced.
type TranscriptWriter interface {
	Write(ctx context.Context, entry TranscriptEntry) error
}

// RetryPolicy bounds wire-level retries. Retries happen only on non-2xx HTTP
// statuses, never after a timeout or on a malformed body.
type RetryPolicy struct {
	MaxRetries int `yaml:"maxRetries" json:"maxRetries"`
	BackoffMs  int `yaml:"backoffMs" json:"backoffMs"`
}

// Config holds gateway-wide limits.
type Config struct {
	DefaultDeadlineMs int         `yaml:"defaultDeadlineMs" json:"defaultDeadlineMs"`
	MaxResponseBytes  int64       `yaml:"maxResponseBytes" json:"maxResponseBytes"`
	RetryPolicy       RetryPolicy `yaml:"retryPolicy" json:"retryPolicy"`
}

// DefaultConfig provides the gateway defaults: 5s deadline, 1 MiB response
// ceiling, two retries with 100ms backoff.
var DefaultConfig = Config{
	DefaultDeadlineMs: 5000,
	MaxResponseBytes:  1 << 20,
	RetryPolicy: RetryPolicy{
		MaxRetries: 2,
		BackoffMs:  100,
	},
}

// newTranscript starts an entry for req.
func newTranscript(req *ObservationRequest, transport string, startedAt time.Time) TranscriptEntry {
	return TranscriptEntry{
		ID:         core.NewRandomID(),
		MatchID:    req.MatchID,
		Turn:       req.Turn,
		AgentID:    req.AgentID,
		Transport:  transport,
		StartedAt:  startedAt,
		DeadlineMs: req.DeadlineMs,
	}
}

// finish classifies the entry and selects the action to return.
func finish(entry TranscriptEntry, status Status, action, fallback core.Action, trace *core.Trace, errMsg string, started time.Time) Result {
	entry.Status = status
	entry.DurationMs = time.Since(started).Milliseconds()
	entry.Error = errMsg
	if status != StatusOK {
		entry.FallbackApplied = true
		action = fallback.Clone()
	}
	if status == StatusTimeout {
		// the abandoned call may still be writing to its trace
		trace = nil
	}
	return Result{Action: action, Transcript: entry, Trace: trace}
}

// effectiveDeadline resolves the request deadline, falling back to def.
func effectiveDeadline(req *ObservationRequest, def int) time.Duration {
	if req.DeadlineMs > 0 {
		return req.Deadline()
	}
	if def > 0 {
		return time.Duration(def) * time.Millisecond
	}
	return time.Duration(DefaultConfig.DefaultDeadlineMs) * time.Millisecond
}
