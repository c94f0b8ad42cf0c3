// Package config loads match configuration from YAML with an environment
// overlay.
//
// A match file looks like:
//
//	matchId: demo
//	seed: 123
//	maxTurns: 20
//	maxTurnTimeMs: 2000
//	mode: http
//	gateway:
//	  maxResponseBytes: 65536
//	  retryPolicy:
//	    maxRetries: 1
//	agents:
//	  - id: alice
//	    endpoint: http://localhost:8081/act
//	  - id: bob
//	    endpoint: http://localhost:8082/act
//	    headers:
//	      Authorization: Bearer token
//	transcript:
//	  redisAddr: localhost:6379
//	log:
//	  level: debug
//
// Scalar settings can be overridden with ARENA_ prefixed variables, for
// example ARENA_SEED, ARENA_MAX_TURNS or ARENA_GATEWAY_RETRY_MAX_RETRIES.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/matcharena/engine"
	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/logging"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "ARENA_"

// MatchConfig is the root configuration document.
type MatchConfig struct {
	MatchID                string           `yaml:"matchId,omitempty" env:"MATCH_ID"`
	Seed                   int32            `yaml:"seed" env:"SEED"`
	MaxTurns               int              `yaml:"maxTurns" env:"MAX_TURNS"`
	MaxTurnTimeMs          int              `yaml:"maxTurnTimeMs,omitempty" env:"MAX_TURN_TIME_MS"`
	MaxConsecutiveTimeouts int              `yaml:"maxConsecutiveTimeouts" env:"MAX_CONSECUTIVE_TIMEOUTS"`
	Mode                   engine.Mode      `yaml:"mode" env:"MODE"`
	ParallelSolo           bool             `yaml:"parallelSolo,omitempty" env:"PARALLEL_SOLO"`
	Gateway                GatewayConfig    `yaml:"gateway" envPrefix:"GATEWAY_"`
	Agents                 []AgentConfig    `yaml:"agents" env:"-"`
	Transcript             TranscriptConfig `yaml:"transcript,omitempty" envPrefix:"TRANSCRIPT_"`
	Log                    LogConfig        `yaml:"log,omitempty" envPrefix:"LOG_"`
}

// GatewayConfig mirrors gateway.Config.
type GatewayConfig struct {
	DefaultDeadlineMs int         `yaml:"defaultDeadlineMs" env:"DEFAULT_DEADLINE_MS"`
	MaxResponseBytes  int64       `yaml:"maxResponseBytes" env:"MAX_RESPONSE_BYTES"`
	RetryPolicy       RetryConfig `yaml:"retryPolicy" envPrefix:"RETRY_"`
}

// RetryConfig mirrors gateway.RetryPolicy.
type RetryConfig struct {
	MaxRetries int `yaml:"maxRetries" env:"MAX_RETRIES"`
	BackoffMs  int `yaml:"backoffMs" env:"BACKOFF_MS"`
}

// AgentConfig declares one participant. Endpoint is required in http mode.
type AgentConfig struct {
	ID       string            `yaml:"id"`
	Endpoint string            `yaml:"endpoint,omitempty"`
	Headers  map[string]string `yaml:"headers,omitempty"`
}

// TranscriptConfig selects the transcript sink. An empty RedisAddr disables
// the Redis stream sink.
type TranscriptConfig struct {
	RedisAddr    string `yaml:"redisAddr,omitempty" env:"REDIS_ADDR"`
	RedisPrefix  string `yaml:"redisPrefix,omitempty" env:"REDIS_PREFIX"`
	RedisChannel string `yaml:"redisChannel,omitempty" env:"REDIS_CHANNEL"`
	MaxLen       int64  `yaml:"maxLen,omitempty" env:"MAX_LEN"`
}

// LogConfig configures the structured logger.
type LogConfig struct {
	Level  string `yaml:"level,omitempty" env:"LEVEL"`
	Format string `yaml:"format,omitempty" env:"FORMAT"`
}

// Default returns a configuration populated with the engine and gateway
// defaults.
func Default() *MatchConfig {
	d := engine.DefaultConfig
	return &MatchConfig{
		MaxTurns:               d.MaxTurns,
		MaxConsecutiveTimeouts: d.MaxConsecutiveTimeouts,
		Mode:                   d.Mode,
		Gateway: GatewayConfig{
			DefaultDeadlineMs: d.Gateway.DefaultDeadlineMs,
			MaxResponseBytes:  d.Gateway.MaxResponseBytes,
			RetryPolicy: RetryConfig{
				MaxRetries: d.Gateway.RetryPolicy.MaxRetries,
				BackoffMs:  d.Gateway.RetryPolicy.BackoffMs,
			},
		},
		Transcript: TranscriptConfig{RedisPrefix: "matcharena"},
		Log:        LogConfig{Level: "info", Format: "json"},
	}
}

// Load reads and validates a match file.
func Load(path string) (*MatchConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults, applies the environment overlay and
// validates the result.
func Parse(data []byte) (*MatchConfig, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("failed to apply environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate performs strict validation on the configuration.
func (c *MatchConfig) Validate() error {
	if c.MaxTurns <= 0 {
		return fmt.Errorf("maxTurns must be > 0, got %d", c.MaxTurns)
	}
	if c.MaxTurnTimeMs < 0 {
		return fmt.Errorf("maxTurnTimeMs must be >= 0 (0 = gateway default), got %d", c.MaxTurnTimeMs)
	}
	if c.MaxConsecutiveTimeouts < 0 {
		return fmt.Errorf("maxConsecutiveTimeouts must be >= 0 (0 = never forfeit), got %d", c.MaxConsecutiveTimeouts)
	}
	switch c.Mode {
	case engine.ModeLocal, engine.ModeHTTP:
	default:
		return fmt.Errorf("unknown mode '%s' (valid: 'local' or 'http')", c.Mode)
	}

	if c.Gateway.DefaultDeadlineMs <= 0 {
		return fmt.Errorf("gateway.defaultDeadlineMs must be > 0, got %d", c.Gateway.DefaultDeadlineMs)
	}
	if c.Gateway.MaxResponseBytes <= 0 {
		return fmt.Errorf("gateway.maxResponseBytes must be > 0, got %d", c.Gateway.MaxResponseBytes)
	}
	if c.Gateway.RetryPolicy.MaxRetries < 0 || c.Gateway.RetryPolicy.BackoffMs < 0 {
		return fmt.Errorf("gateway.retryPolicy values must be >= 0")
	}

	if len(c.Agents) == 0 {
		return fmt.Errorf("no agents defined")
	}
	seen := make(map[string]int, len(c.Agents))
	for i, a := range c.Agents {
		if err := a.Validate(i, c.Mode); err != nil {
			return err
		}
		if prev, dup := seen[a.ID]; dup {
			return fmt.Errorf("duplicate agent id '%s' (agents %d and %d)", a.ID, prev, i)
		}
		seen[a.ID] = i
	}

	if c.Transcript.MaxLen < 0 {
		return fmt.Errorf("transcript.maxLen must be >= 0, got %d", c.Transcript.MaxLen)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "", "json", "text":
	default:
		return fmt.Errorf("unknown log format '%s' (valid: 'json' or 'text')", c.Log.Format)
	}
	return nil
}

// Validate checks one agent entry at position i.
func (a AgentConfig) Validate(i int, mode engine.Mode) error {
	if strings.TrimSpace(a.ID) == "" {
		return fmt.Errorf("agent %d has no id", i)
	}
	if a.Endpoint == "" {
		if mode == engine.ModeHTTP {
			return fmt.Errorf("agent '%s' needs an endpoint in http mode", a.ID)
		}
		return nil
	}
	u, err := url.Parse(a.Endpoint)
	if err != nil {
		return fmt.Errorf("agent '%s' has an invalid endpoint: %w", a.ID, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("agent '%s' endpoint must be an absolute http(s) URL, got '%s'", a.ID, a.Endpoint)
	}
	return nil
}

// AgentIDs returns the agent ids in declaration order.
func (c *MatchConfig) AgentIDs() []string {
	ids := make([]string, len(c.Agents))
	for i, a := range c.Agents {
		ids[i] = a.ID
	}
	return ids
}

// GatewayConfig converts the gateway section.
func (c *MatchConfig) GatewayConfig() gateway.Config {
	return gateway.Config{
		DefaultDeadlineMs: c.Gateway.DefaultDeadlineMs,
		MaxResponseBytes:  c.Gateway.MaxResponseBytes,
		RetryPolicy: gateway.RetryPolicy{
			MaxRetries: c.Gateway.RetryPolicy.MaxRetries,
			BackoffMs:  c.Gateway.RetryPolicy.BackoffMs,
		},
	}
}

// EngineConfig converts the match settings.
func (c *MatchConfig) EngineConfig() engine.Config {
	return engine.Config{
		MatchID:                c.MatchID,
		Seed:                   c.Seed,
		MaxTurns:               c.MaxTurns,
		MaxTurnTimeMs:          c.MaxTurnTimeMs,
		MaxConsecutiveTimeouts: c.MaxConsecutiveTimeouts,
		Mode:                   c.Mode,
		Gateway:                c.GatewayConfig(),
		ParallelSolo:           c.ParallelSolo,
	}
}

// Adapters builds an HTTP adapter for every agent with an endpoint. optFns
// run after the configured gateway settings and headers are applied.
func (c *MatchConfig) Adapters(optFns ...func(o *gateway.HTTPOptions)) map[string]gateway.Adapter {
	gw := c.GatewayConfig()
	out := make(map[string]gateway.Adapter, len(c.Agents))
	for _, a := range c.Agents {
		if a.Endpoint == "" {
			continue
		}
		headers := make(map[string]string, len(a.Headers))
		for k, v := range a.Headers {
			headers[k] = v
		}
		fns := append([]func(o *gateway.HTTPOptions){func(o *gateway.HTTPOptions) {
			o.Config = gw
			o.Headers = headers
		}}, optFns...)
		out[a.ID] = gateway.NewHTTPAdapter(a.Endpoint, fns...)
	}
	return out
}

// Logger builds the configured MatchLogger.
func (c *MatchConfig) Logger() *logging.MatchLogger {
	level, _ := parseLevel(c.Log.Level)
	return logging.NewSlogLogger(level, c.Log.Format, false)
}

func parseLevel(s string) (logging.LogLevel, error) {
	switch strings.ToLower(s) {
	case "debug":
		return logging.LogLevelDebug, nil
	case "", "info":
		return logging.LogLevelInfo, nil
	case "warn", "warning":
		return logging.LogLevelWarn, nil
	case "error":
		return logging.LogLevelError, nil
	default:
		return logging.LogLevelInfo, fmt.Errorf("unknown log level '%s' (valid: debug, info, warn, error)", s)
	}
}
