package core

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// EventType identifies one of the closed set of match event kinds.
type EventType string

const (
	EventMatchStarted       EventType = "MatchStarted"
	EventTurnStarted        EventType = "TurnStarted"
	EventObservationEmitted EventType = "ObservationEmitted"
	EventAgentRawOutput     EventType = "AgentRawOutput"
	EventActionSubmitted    EventType = "ActionSubmitted"
	EventActionAdjudicated  EventType = "ActionAdjudicated"
	EventAgentError         EventType = "AgentError"
	EventStateUpdated       EventType = "StateUpdated"
	EventMatchEnded         EventType = "MatchEnded"
	EventInvalidAction      EventType = "InvalidAction"
)

// Payload is the type-specific body of an Event.
type Payload interface {
	EventType() EventType
}

// Event is one entry of the canonical match log. After emission it should be
// treated as immutable.
//
// Seq is assigned by the engine's single counter and is the only ordering
// key; events carry no wall-clock timestamps so that logs replay and hash
// identically. On the wire an Event is a flat object:
//
//	{"type":"TurnStarted","seq":1,"matchId":"...","turn":1}
type Event struct {
	Type    EventType
	Seq     int
	MatchID string
	Payload Payload
}

// MatchStarted opens the log.
type MatchStarted struct {
	Seed            int32            `json:"seed"`
	AgentIDs        []string         `json:"agentIds"`
	ScenarioName    string           `json:"scenarioName"`
	ScenarioVersion string           `json:"scenarioVersion"`
	MaxTurns        int              `json:"maxTurns"`
	Mode            string           `json:"mode"`
	AgentSeeds      map[string]int32 `json:"agentSeeds,omitempty"`
	ScenarioSeed    *int32           `json:"scenarioSeed,omitempty"`
	SoloSeeds       map[string]int32 `json:"soloSeeds,omitempty"`
}

// TurnStarted marks the beginning of a turn.
type TurnStarted struct {
	Turn int `json:"turn"`
}

// ObservationEmitted records what an agent was shown.
type ObservationEmitted struct {
	Turn        int         `json:"turn"`
	AgentID     string      `json:"agentId"`
	Observation Observation `json:"observation"`
}

// AgentRawOutput fingerprints raw agent output without storing it.
type AgentRawOutput struct {
	Turn      int    `json:"turn"`
	AgentID   string `json:"agentId"`
	RawSHA256 string `json:"rawSha256"`
	RawBytes  int    `json:"rawBytes"`
}

// ActionSubmitted records the action handed to the scenario.
type ActionSubmitted struct {
	Turn    int    `json:"turn"`
	AgentID string `json:"agentId"`
	Action  Action `json:"action"`
}

// ActionAdjudicated records the scenario's verdict on an action.
type ActionAdjudicated struct {
	Turn            int      `json:"turn"`
	AgentID         string   `json:"agentId"`
	Valid           bool     `json:"valid"`
	Feedback        any      `json:"feedback"`
	Method          string   `json:"method"`
	FallbackApplied bool     `json:"fallbackApplied"`
	Warnings        []string `json:"warnings,omitempty"`
	Errors          []string `json:"errors,omitempty"`
}

// InvalidAction is emitted after an ActionAdjudicated whose action was rejected.
type InvalidAction struct {
	Turn     int    `json:"turn"`
	AgentID  string `json:"agentId"`
	Feedback any    `json:"feedback"`
}

// AgentError reports a recoverable gateway failure. ErrorType is one of
// "timeout", "error" or "invalid_response".
type AgentError struct {
	Turn      int    `json:"turn"`
	AgentID   string `json:"agentId"`
	ErrorType string `json:"errorType"`
	Message   string `json:"message"`
}

// StateUpdated closes a turn with the scenario's public summary.
type StateUpdated struct {
	Turn    int `json:"turn"`
	Summary any `json:"summary"`
}

// MatchEnded is the single terminal event.
type MatchEnded struct {
	Reason           EndReason      `json:"reason"`
	Scores           Scores         `json:"scores"`
	Winner           string         `json:"winner,omitempty"`
	Turns            int            `json:"turns"`
	TimeoutsPerAgent map[string]int `json:"timeoutsPerAgent"`
	ForfeitedBy      string         `json:"forfeitedBy,omitempty"`
	Details          any            `json:"details,omitempty"`
}

func (MatchStarted) EventType() EventType       { return EventMatchStarted }
func (TurnStarted) EventType() EventType        { return EventTurnStarted }
func (ObservationEmitted) EventType() EventType { return EventObservationEmitted }
func (AgentRawOutput) EventType() EventType     { return EventAgentRawOutput }
func (ActionSubmitted) EventType() EventType    { return EventActionSubmitted }
func (ActionAdjudicated) EventType() EventType  { return EventActionAdjudicated }
func (InvalidAction) EventType() EventType      { return EventInvalidAction }
func (AgentError) EventType() EventType         { return EventAgentError }
func (StateUpdated) EventType() EventType       { return EventStateUpdated }
func (MatchEnded) EventType() EventType         { return EventMatchEnded }

// NewEvent wraps a payload. Seq and MatchID are assigned by the engine.
func NewEvent(p Payload) Event {
	return Event{Type: p.EventType(), Payload: p}
}

// Turn returns the turn number carried by the payload, or 0 for match-level events.
func (e Event) Turn() int {
	switch p := e.Payload.(type) {
	case TurnStarted:
		return p.Turn
	case ObservationEmitted:
		return p.Turn
	case AgentRawOutput:
		return p.Turn
	case ActionSubmitted:
		return p.Turn
	case ActionAdjudicated:
		return p.Turn
	case InvalidAction:
		return p.Turn
	case AgentError:
		return p.Turn
	case StateUpdated:
		return p.Turn
	default:
		return 0
	}
}

// MarshalJSON flattens the payload next to the envelope fields. HTML
// characters are left unescaped at every level.
func (e Event) MarshalJSON() ([]byte, error) {
	fields := map[string]json.RawMessage{}
	if e.Payload != nil {
		body, err := marshalRaw(e.Payload)
		if err != nil {
			return nil, fmt.Errorf("marshal %s payload: %w", e.Type, err)
		}
		if err := json.Unmarshal(body, &fields); err != nil {
			return nil, fmt.Errorf("flatten %s payload: %w", e.Type, err)
		}
	}
	var err error
	if fields["type"], err = marshalRaw(e.Type); err != nil {
		return nil, err
	}
	if fields["seq"], err = marshalRaw(e.Seq); err != nil {
		return nil, err
	}
	if fields["matchId"], err = marshalRaw(e.MatchID); err != nil {
		return nil, err
	}
	return marshalRaw(fields)
}

func marshalRaw(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// UnmarshalJSON restores the typed payload for every known event type.
func (e *Event) UnmarshalJSON(data []byte) error {
	var env struct {
		Type    EventType `json:"type"`
		Seq     int       `json:"seq"`
		MatchID string    `json:"matchId"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}

	p, err := decodePayload(env.Type, data)
	if err != nil {
		return err
	}

	e.Type, e.Seq, e.MatchID, e.Payload = env.Type, env.Seq, env.MatchID, p
	return nil
}

func decodePayload(t EventType, data []byte) (Payload, error) {
	switch t {
	case EventMatchStarted:
		return decodeAs[MatchStarted](data)
	case EventTurnStarted:
		return decodeAs[TurnStarted](data)
	case EventObservationEmitted:
		return decodeAs[ObservationEmitted](data)
	case EventAgentRawOutput:
		return decodeAs[AgentRawOutput](data)
	case EventActionSubmitted:
		return decodeAs[ActionSubmitted](data)
	case EventActionAdjudicated:
		return decodeAs[ActionAdjudicated](data)
	case EventInvalidAction:
		return decodeAs[InvalidAction](data)
	case EventAgentError:
		return decodeAs[AgentError](data)
	case EventStateUpdated:
		return decodeAs[StateUpdated](data)
	case EventMatchEnded:
		return decodeAs[MatchEnded](data)
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
}

func decodeAs[P Payload](data []byte) (Payload, error) {
	var p P
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, err
	}
	return p, nil
}
