package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/internal/canonical"
	"github.com/hupe1980/matcharena/logging"
)

// HTTPOptions configures an HTTPAdapter.
type HTTPOptions struct {
	Config  Config
	Client  *http.Client
	Headers map[string]string
	Logger  logging.Logger
}

// HTTPAdapter asks a remote agent for actions over the JSON wire protocol.
//
// The whole call, retries included, is bounded by the request deadline. The
// response is read through a byte ceiling and trusted only after its
// correlation fields match the request.
type HTTPAdapter struct {
	endpoint string
	opts     HTTPOptions
}

// NewHTTPAdapter creates an adapter posting to endpoint.
func NewHTTPAdapter(endpoint string, optFns ...func(o *HTTPOptions)) *HTTPAdapter {
	opts := HTTPOptions{
		Config: DefaultConfig,
		Client: http.DefaultClient,
		Logger: logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &HTTPAdapter{endpoint: endpoint, opts: opts}
}

// Endpoint returns the agent URL.
func (a *HTTPAdapter) Endpoint() string { return a.endpoint }

// RequestAction implements Adapter.
func (a *HTTPAdapter) RequestAction(ctx context.Context, req *ObservationRequest, fallback core.Action) Result {
	started := time.Now()
	entry := newTranscript(req, TransportHTTP, started)

	body, err := canonical.Marshal(req)
	if err != nil {
		return finish(entry, StatusError, nil, fallback, nil, fmt.Sprintf("encode request: %v", err), started)
	}
	entry.RequestBytes = len(body)

	limit := a.responseLimit(req)
	deadline := effectiveDeadline(req, a.opts.Config.DefaultDeadlineMs)
	callCtx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	timedOut := func() Result {
		return finish(entry, StatusTimeout, nil, fallback, nil, fmt.Sprintf("no response within %dms", deadline.Milliseconds()), started)
	}

	maxAttempts := 1 + max(0, a.opts.Config.RetryPolicy.MaxRetries)

	var resp *http.Response
	for attempt := 1; ; attempt++ {
		entry.Attempts = attempt

		resp, err = a.post(callCtx, body)
		if err != nil {
			if isDeadline(callCtx) {
				return timedOut()
			}
			return finish(entry, StatusError, nil, fallback, nil, fmt.Sprintf("transport: %v", err), started)
		}

		entry.HTTPStatus = resp.StatusCode
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			break
		}
		drainAndClose(resp)

		// the agent behind the endpoint ran out of time; a retry would invoke it again
		if resp.StatusCode == http.StatusGatewayTimeout {
			return finish(entry, StatusTimeout, nil, fallback, nil, "agent timed out behind endpoint: status 504", started)
		}

		if attempt >= maxAttempts {
			return finish(entry, StatusError, nil, fallback, nil,
				fmt.Sprintf("retries exhausted after %d attempt(s): status %d", attempt, resp.StatusCode), started)
		}

		a.opts.Logger.Debug("retrying agent request", "agent_id", req.AgentID, "turn", req.Turn, "status", resp.StatusCode, "attempt", attempt)

		if err := sleepContext(callCtx, time.Duration(a.opts.Config.RetryPolicy.BackoffMs)*time.Millisecond); err != nil {
			if isDeadline(callCtx) {
				return timedOut()
			}
			return finish(entry, StatusError, nil, fallback, nil, fmt.Sprintf("request cancelled: %v", err), started)
		}
	}
	defer resp.Body.Close()

	if resp.ContentLength > limit {
		return finish(entry, StatusInvalidResponse, nil, fallback, nil,
			fmt.Sprintf("response exceeds %d bytes (content-length %d)", limit, resp.ContentLength), started)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	entry.ResponseBytes = len(data)
	if err != nil {
		if isDeadline(callCtx) {
			return timedOut()
		}
		return finish(entry, StatusError, nil, fallback, nil, fmt.Sprintf("read response: %v", err), started)
	}
	if int64(len(data)) > limit {
		return finish(entry, StatusInvalidResponse, nil, fallback, nil, fmt.Sprintf("response exceeds %d bytes", limit), started)
	}

	action, trace, problem := decodeResponse(req, data)
	if problem != "" {
		return finish(entry, StatusInvalidResponse, nil, fallback, nil, problem, started)
	}
	return finish(entry, StatusOK, action, fallback, trace, "", started)
}

func (a *HTTPAdapter) post(ctx context.Context, body []byte) (*http.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	for k, v := range a.opts.Headers {
		httpReq.Header.Set(k, v)
	}
	return a.opts.Client.Do(httpReq)
}

// responseLimit is min(request constraint, configured max), ignoring unset values.
func (a *HTTPAdapter) responseLimit(req *ObservationRequest) int64 {
	limit := a.opts.Config.MaxResponseBytes
	if c := req.Constraints.MaxResponseBytes; c > 0 && (limit <= 0 || c < limit) {
		limit = c
	}
	if limit <= 0 {
		limit = DefaultConfig.MaxResponseBytes
	}
	return limit
}

// decodeResponse validates and decodes a response body. A non-empty problem
// means the body must not be trusted.
func decodeResponse(req *ObservationRequest, data []byte) (core.Action, *core.Trace, string) {
	if !gjson.ValidBytes(data) || !gjson.ParseBytes(data).IsObject() {
		return nil, nil, "malformed json"
	}

	fields := gjson.GetManyBytes(data, "protocolVersion", "matchId", "turn", "agentId", "action")
	switch {
	case fields[0].String() != ProtocolVersion:
		return nil, nil, fmt.Sprintf("protocol version mismatch: %q", fields[0].String())
	case fields[1].String() != req.MatchID:
		return nil, nil, "correlation mismatch: matchId"
	case fields[2].Type != gjson.Number || fields[2].Int() != int64(req.Turn):
		return nil, nil, "correlation mismatch: turn"
	case fields[3].String() != req.AgentID:
		return nil, nil, "correlation mismatch: agentId"
	case !fields[4].IsObject():
		return nil, nil, "action must be a JSON object"
	}

	var resp ActionResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, nil, fmt.Sprintf("malformed json: %v", err)
	}
	return resp.Action, resp.Trace(), ""
}

func isDeadline(ctx context.Context) bool {
	return errors.Is(ctx.Err(), context.DeadlineExceeded)
}

func drainAndClose(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	_ = resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
