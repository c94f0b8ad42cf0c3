package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/matcharena/core"
)

func echoResponse(t *testing.T, r *http.Request) ActionResponse {
	t.Helper()
	var req ObservationRequest
	require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
	return ActionResponse{
		ProtocolVersion: ProtocolVersion,
		MatchID:         req.MatchID,
		Turn:            req.Turn,
		AgentID:         req.AgentID,
		Action:          core.Action{"guess": 42},
	}
}

func fastRetries(cfg Config) func(o *HTTPOptions) {
	return func(o *HTTPOptions) {
		o.Config = cfg
	}
}

func TestHTTPAdapter_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Arena-Token"))
		resp := echoResponse(t, r)
		resp.Meta = &ActionMeta{RawOutput: "I guess 42", NormalizationMethod: "regex"}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	ad := NewHTTPAdapter(srv.URL, func(o *HTTPOptions) {
		o.Headers = map[string]string{"X-Arena-Token": "secret"}
	})
	res := ad.RequestAction(context.Background(), newTestRequest(3, 1000), fallbackAction)

	require.Equal(t, StatusOK, res.Status(), res.Transcript.Error)
	assert.Equal(t, float64(42), res.Action["guess"])
	assert.False(t, res.Transcript.FallbackApplied)
	assert.Equal(t, 1, res.Transcript.Attempts)
	assert.Equal(t, http.StatusOK, res.Transcript.HTTPStatus)
	assert.Equal(t, TransportHTTP, res.Transcript.Transport)
	require.NotNil(t, res.Trace)
	assert.Equal(t, "I guess 42", res.Trace.RawOutput)
	assert.Equal(t, "regex", res.Trace.Method)
	assert.Equal(t, srv.URL, ad.Endpoint())
}

func TestHTTPAdapter_RequestBodyIsCanonical(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ad := NewHTTPAdapter(srv.URL, fastRetries(Config{MaxResponseBytes: 1024}))
	ad.RequestAction(context.Background(), newTestRequest(1, 1000), fallbackAction)

	require.NotEmpty(t, body)
	assert.True(t, strings.HasPrefix(body, `{"agentId":"alice","constraints":{"maxResponseBytes":1024},"deadlineMs":1000,`), body)
	assert.Contains(t, body, `"protocolVersion":"0.1.0"`)
	assert.NotContains(t, body, "\n")
}

func TestHTTPAdapter_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	res := NewHTTPAdapter(srv.URL).RequestAction(context.Background(), newTestRequest(1, 20), fallbackAction)

	assert.Equal(t, StatusTimeout, res.Status())
	assert.Equal(t, fallbackAction, res.Action)
	assert.True(t, res.Transcript.FallbackApplied)
	assert.Equal(t, 1, res.Transcript.Attempts)
}

func TestHTTPAdapter_RetriesExhausted(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ad := NewHTTPAdapter(srv.URL, fastRetries(Config{RetryPolicy: RetryPolicy{MaxRetries: 2, BackoffMs: 1}}))
	res := ad.RequestAction(context.Background(), newTestRequest(1, 2000), fallbackAction)

	assert.Equal(t, StatusError, res.Status())
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, 3, res.Transcript.Attempts)
	assert.Equal(t, http.StatusServiceUnavailable, res.Transcript.HTTPStatus)
	assert.Equal(t, "retries exhausted after 3 attempt(s): status 503", res.Transcript.Error)
	assert.Equal(t, fallbackAction, res.Action)
}

func TestHTTPAdapter_GatewayTimeoutIsNotRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer srv.Close()

	ad := NewHTTPAdapter(srv.URL, fastRetries(Config{RetryPolicy: RetryPolicy{MaxRetries: 2, BackoffMs: 1}}))
	res := ad.RequestAction(context.Background(), newTestRequest(1, 2000), fallbackAction)

	assert.Equal(t, StatusTimeout, res.Status())
	assert.Equal(t, int32(1), hits.Load())
	assert.Equal(t, 1, res.Transcript.Attempts)
	assert.Equal(t, http.StatusGatewayTimeout, res.Transcript.HTTPStatus)
	assert.Equal(t, "agent timed out behind endpoint: status 504", res.Transcript.Error)
	assert.Equal(t, fallbackAction, res.Action)
}

func TestHTTPAdapter_RetryThenSuccess(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(echoResponse(t, r))
	}))
	defer srv.Close()

	ad := NewHTTPAdapter(srv.URL, fastRetries(Config{RetryPolicy: RetryPolicy{MaxRetries: 2, BackoffMs: 1}}))
	res := ad.RequestAction(context.Background(), newTestRequest(1, 2000), fallbackAction)

	assert.Equal(t, StatusOK, res.Status(), res.Transcript.Error)
	assert.Equal(t, 2, res.Transcript.Attempts)
}

func TestHTTPAdapter_NoRetryOnInvalidBody(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, "definitely not json")
	}))
	defer srv.Close()

	ad := NewHTTPAdapter(srv.URL, fastRetries(Config{RetryPolicy: RetryPolicy{MaxRetries: 5, BackoffMs: 1}}))
	res := ad.RequestAction(context.Background(), newTestRequest(1, 2000), fallbackAction)

	assert.Equal(t, StatusInvalidResponse, res.Status())
	assert.Equal(t, "malformed json", res.Transcript.Error)
	assert.Equal(t, int32(1), hits.Load())
}

func TestHTTPAdapter_OversizedResponse(t *testing.T) {
	big := `{"pad":"` + strings.Repeat("x", 4096) + `"}`

	t.Run("content-length", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Length", fmt.Sprint(len(big)))
			_, _ = io.WriteString(w, big)
		}))
		defer srv.Close()

		res := NewHTTPAdapter(srv.URL).RequestAction(context.Background(), newTestRequest(1, 2000), fallbackAction)
		assert.Equal(t, StatusInvalidResponse, res.Status())
		assert.Contains(t, res.Transcript.Error, "content-length")
	})

	t.Run("streamed", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			flusher := w.(http.Flusher)
			for i := 0; i < len(big); i += 512 {
				_, _ = io.WriteString(w, big[i:min(i+512, len(big))])
				flusher.Flush()
			}
		}))
		defer srv.Close()

		res := NewHTTPAdapter(srv.URL).RequestAction(context.Background(), newTestRequest(1, 2000), fallbackAction)
		assert.Equal(t, StatusInvalidResponse, res.Status())
		assert.Equal(t, "response exceeds 1024 bytes", res.Transcript.Error)
		assert.Equal(t, 1025, res.Transcript.ResponseBytes)
	})
}

func TestHTTPAdapter_RejectsUncorrelatedResponses(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m map[string]any)
		problem string
	}{
		{"match id", func(m map[string]any) { m["matchId"] = "other" }, "correlation mismatch: matchId"},
		{"turn", func(m map[string]any) { m["turn"] = 99 }, "correlation mismatch: turn"},
		{"turn as string", func(m map[string]any) { m["turn"] = "1" }, "correlation mismatch: turn"},
		{"agent id", func(m map[string]any) { m["agentId"] = "mallory" }, "correlation mismatch: agentId"},
		{"protocol version", func(m map[string]any) { m["protocolVersion"] = "9.9.9" }, `protocol version mismatch: "9.9.9"`},
		{"action not object", func(m map[string]any) { m["action"] = []int{1} }, "action must be a JSON object"},
		{"action missing", func(m map[string]any) { delete(m, "action") }, "action must be a JSON object"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				resp := echoResponse(t, r)
				data, _ := json.Marshal(resp)
				var m map[string]any
				_ = json.Unmarshal(data, &m)
				tt.mutate(m)
				_ = json.NewEncoder(w).Encode(m)
			}))
			defer srv.Close()

			res := NewHTTPAdapter(srv.URL).RequestAction(context.Background(), newTestRequest(1, 2000), fallbackAction)
			assert.Equal(t, StatusInvalidResponse, res.Status())
			assert.Equal(t, tt.problem, res.Transcript.Error)
			assert.Equal(t, fallbackAction, res.Action)
		})
	}
}

func TestHTTPAdapter_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	res := NewHTTPAdapter(url).RequestAction(context.Background(), newTestRequest(1, 2000), fallbackAction)
	assert.Equal(t, StatusError, res.Status())
	assert.True(t, strings.HasPrefix(res.Transcript.Error, "transport:"), res.Transcript.Error)
}

func TestHTTPAdapter_ResponseLimit(t *testing.T) {
	ad := NewHTTPAdapter("http://unused", fastRetries(Config{MaxResponseBytes: 2048}))

	req := newTestRequest(1, 10)
	assert.Equal(t, int64(1024), ad.responseLimit(req))

	req.Constraints.MaxResponseBytes = 0
	assert.Equal(t, int64(2048), ad.responseLimit(req))

	ad = NewHTTPAdapter("http://unused", fastRetries(Config{}))
	assert.Equal(t, DefaultConfig.MaxResponseBytes, ad.responseLimit(req))
}
