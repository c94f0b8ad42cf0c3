package config

import (
	"context"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/matcharena/agent"
	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/engine"
	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/internal/testutil"
	"github.com/hupe1980/matcharena/logging"
)

const httpMatch = `
matchId: demo
seed: 123
maxTurns: 12
maxTurnTimeMs: 2000
mode: http
gateway:
  maxResponseBytes: 65536
  retryPolicy:
    maxRetries: 1
agents:
  - id: alice
    endpoint: http://localhost:8081/act
  - id: bob
    endpoint: https://agents.example.com/bob
    headers:
      Authorization: Bearer token
`

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse([]byte(httpMatch))
	require.NoError(t, err)

	assert.Equal(t, "demo", cfg.MatchID)
	assert.Equal(t, int32(123), cfg.Seed)
	assert.Equal(t, 12, cfg.MaxTurns)
	assert.Equal(t, engine.ModeHTTP, cfg.Mode)
	assert.Equal(t, []string{"alice", "bob"}, cfg.AgentIDs())
	assert.Equal(t, "Bearer token", cfg.Agents[1].Headers["Authorization"])

	// unset keys keep their defaults
	assert.Equal(t, 3, cfg.MaxConsecutiveTimeouts)
	assert.Equal(t, 5000, cfg.Gateway.DefaultDeadlineMs)
	assert.Equal(t, 100, cfg.Gateway.RetryPolicy.BackoffMs)
	assert.Equal(t, 1, cfg.Gateway.RetryPolicy.MaxRetries)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParse_EnvOverlay(t *testing.T) {
	t.Setenv("ARENA_SEED", "7")
	t.Setenv("ARENA_MAX_TURNS", "3")
	t.Setenv("ARENA_PARALLEL_SOLO", "true")
	t.Setenv("ARENA_GATEWAY_RETRY_MAX_RETRIES", "0")
	t.Setenv("ARENA_TRANSCRIPT_REDIS_ADDR", "redis:6379")
	t.Setenv("ARENA_LOG_LEVEL", "debug")

	cfg, err := Parse([]byte(httpMatch))
	require.NoError(t, err)

	assert.Equal(t, int32(7), cfg.Seed)
	assert.Equal(t, 3, cfg.MaxTurns)
	assert.True(t, cfg.ParallelSolo)
	assert.Equal(t, 0, cfg.Gateway.RetryPolicy.MaxRetries)
	assert.Equal(t, "redis:6379", cfg.Transcript.RedisAddr)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "demo", cfg.MatchID, "untouched by the environment")
}

func TestParse_EnvTypeError(t *testing.T) {
	t.Setenv("ARENA_MAX_TURNS", "many")
	_, err := Parse([]byte(httpMatch))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to apply environment")
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("maxTurns: [1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestValidate(t *testing.T) {
	local := func(mut func(c *MatchConfig)) *MatchConfig {
		c := Default()
		c.Agents = []AgentConfig{{ID: "a"}, {ID: "b"}}
		mut(c)
		return c
	}

	require.NoError(t, local(func(*MatchConfig) {}).Validate())

	tests := []struct {
		name string
		cfg  *MatchConfig
		want string
	}{
		{"zero turns", local(func(c *MatchConfig) { c.MaxTurns = 0 }), "maxTurns must be > 0, got 0"},
		{"negative turn time", local(func(c *MatchConfig) { c.MaxTurnTimeMs = -1 }), "maxTurnTimeMs must be >= 0"},
		{"negative timeouts", local(func(c *MatchConfig) { c.MaxConsecutiveTimeouts = -2 }), "maxConsecutiveTimeouts must be >= 0"},
		{"unknown mode", local(func(c *MatchConfig) { c.Mode = "grpc" }), "unknown mode 'grpc'"},
		{"zero deadline", local(func(c *MatchConfig) { c.Gateway.DefaultDeadlineMs = 0 }), "gateway.defaultDeadlineMs must be > 0"},
		{"zero response bytes", local(func(c *MatchConfig) { c.Gateway.MaxResponseBytes = 0 }), "gateway.maxResponseBytes must be > 0"},
		{"negative retries", local(func(c *MatchConfig) { c.Gateway.RetryPolicy.MaxRetries = -1 }), "gateway.retryPolicy values must be >= 0"},
		{"no agents", local(func(c *MatchConfig) { c.Agents = nil }), "no agents defined"},
		{"empty id", local(func(c *MatchConfig) { c.Agents[1].ID = " " }), "agent 1 has no id"},
		{"duplicate", local(func(c *MatchConfig) { c.Agents[1].ID = "a" }), "duplicate agent id 'a' (agents 0 and 1)"},
		{"http without endpoint", local(func(c *MatchConfig) { c.Mode = engine.ModeHTTP }), "agent 'a' needs an endpoint in http mode"},
		{"relative endpoint", local(func(c *MatchConfig) { c.Agents[0].Endpoint = "/act" }), "agent 'a' endpoint must be an absolute http(s) URL"},
		{"bad scheme", local(func(c *MatchConfig) { c.Agents[0].Endpoint = "ftp://host/act" }), "absolute http(s) URL"},
		{"negative maxLen", local(func(c *MatchConfig) { c.Transcript.MaxLen = -1 }), "transcript.maxLen must be >= 0"},
		{"log level", local(func(c *MatchConfig) { c.Log.Level = "loud" }), "unknown log level 'loud'"},
		{"log format", local(func(c *MatchConfig) { c.Log.Format = "xml" }), "unknown log format 'xml'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.yml")
	require.NoError(t, os.WriteFile(path, []byte(httpMatch), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", cfg.MatchID)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestEngineConfig(t *testing.T) {
	cfg, err := Parse([]byte(httpMatch))
	require.NoError(t, err)

	ec := cfg.EngineConfig()
	assert.Equal(t, engine.Config{
		MatchID:                "demo",
		Seed:                   123,
		MaxTurns:               12,
		MaxTurnTimeMs:          2000,
		MaxConsecutiveTimeouts: 3,
		Mode:                   engine.ModeHTTP,
		Gateway: gateway.Config{
			DefaultDeadlineMs: 5000,
			MaxResponseBytes:  65536,
			RetryPolicy:       gateway.RetryPolicy{MaxRetries: 1, BackoffMs: 100},
		},
	}, ec)
}

func TestAdapters(t *testing.T) {
	cfg := Default()
	cfg.Agents = []AgentConfig{
		{ID: "alice", Endpoint: "http://localhost:8081/act", Headers: map[string]string{"X-Key": "k"}},
		{ID: "local"},
	}

	adapters := cfg.Adapters()
	require.Len(t, adapters, 1)
	ha, ok := adapters["alice"].(*gateway.HTTPAdapter)
	require.True(t, ok)
	assert.Equal(t, "http://localhost:8081/act", ha.Endpoint())
}

func TestAdapters_DriveAMatch(t *testing.T) {
	srv := httptest.NewServer(gateway.NewHandler(agent.NewScripted("alice", core.Action{"inc": 4})))
	defer srv.Close()

	cfg, err := Parse([]byte("mode: http\nmaxTurns: 2\nagents:\n  - id: alice\n    endpoint: " + srv.URL + "\n"))
	require.NoError(t, err)

	res, err := engine.Run(context.Background(), testutil.CounterScenario{}, []core.Agent{gateway.NewRemoteAgent("alice")}, func(o *engine.Options) {
		o.Config = cfg.EngineConfig()
		o.Adapters = cfg.Adapters()
	})
	require.NoError(t, err)
	assert.Equal(t, core.Scores{"alice": 8}, res.Scores)
}

func TestRedisTranscriptWriter(t *testing.T) {
	cfg := Default()
	w, err := cfg.RedisTranscriptWriter()
	require.NoError(t, err)
	assert.Nil(t, w)

	mr := miniredis.RunT(t)
	cfg.Transcript.RedisAddr = mr.Addr()
	cfg.Transcript.RedisPrefix = "arena"
	w, err = cfg.RedisTranscriptWriter()
	require.NoError(t, err)
	require.NotNil(t, w)
	defer w.Close()

	require.NoError(t, w.Ping(context.Background()))
	assert.Equal(t, "arena:transcript:m1", w.StreamKey("m1"))
}

func TestLogger(t *testing.T) {
	cfg := Default()
	cfg.Log.Format = "text"
	var l logging.Logger = cfg.Logger()
	assert.NotNil(t, l)
}
