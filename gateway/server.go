package gateway

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/logging"
)

// HandlerOptions configures the agent server returned by NewHandler.
type HandlerOptions struct {
	// Seed feeds the hosted agent's RNG stream.
	Seed int32
	// MaxRequestBytes bounds the accepted request body.
	MaxRequestBytes int64
	// DefaultDeadlineMs applies to requests without a deadline.
	DefaultDeadlineMs int
	Logger            logging.Logger
}

type errorBody struct {
	Error  string `json:"error"`
	Status Status `json:"status,omitempty"`
}

type agentHandler struct {
	agentID string
	local   *LocalAdapter
	opts    HandlerOptions
}

// NewHandler serves agent over the wire protocol. Each POST carries one
// ObservationRequest and is answered with a correlated ActionResponse. The
// agent runs under the request deadline through a LocalAdapter; failures are
// answered with a non-2xx status so the caller falls back.
func NewHandler(agent core.Agent, optFns ...func(o *HandlerOptions)) http.Handler {
	opts := HandlerOptions{
		MaxRequestBytes:   4 << 20,
		DefaultDeadlineMs: DefaultConfig.DefaultDeadlineMs,
		Logger:            logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	local := NewLocalAdapter(agent, opts.Seed, func(o *LocalOptions) {
		o.DefaultDeadlineMs = opts.DefaultDeadlineMs
		o.Logger = opts.Logger
	})
	return &agentHandler{agentID: agent.ID(), local: local, opts: opts}
}

func (h *agentHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
		return
	}

	var req ObservationRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, h.opts.MaxRequestBytes+1))
	if err := dec.Decode(&req); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request too large or truncated"})
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("decode request: %v", err)})
		return
	}
	if req.ProtocolVersion != ProtocolVersion {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: fmt.Sprintf("unsupported protocol version %q", req.ProtocolVersion)})
		return
	}
	if req.AgentID != h.agentID {
		writeJSON(w, http.StatusNotFound, errorBody{Error: fmt.Sprintf("unknown agent %q", req.AgentID)})
		return
	}

	res := h.local.RequestAction(r.Context(), &req, nil)
	switch res.Status() {
	case StatusOK:
		writeJSON(w, http.StatusOK, ActionResponse{
			ProtocolVersion: ProtocolVersion,
			MatchID:         req.MatchID,
			Turn:            req.Turn,
			AgentID:         req.AgentID,
			Action:          res.Action,
			Meta:            metaFromTrace(res.Trace),
		})
	case StatusTimeout:
		writeJSON(w, http.StatusGatewayTimeout, errorBody{Error: res.Transcript.Error, Status: StatusTimeout})
	case StatusError, StatusInvalidResponse:
		h.opts.Logger.Warn("hosted agent failed", "agent_id", h.agentID, "turn", req.Turn, "status", string(res.Status()))
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: res.Transcript.Error, Status: res.Status()})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
