package agent

import (
	"sync"

	"github.com/hupe1980/matcharena/core"
)

// Base bundles identity and the configuration received in Init. Embed it in
// concrete agents and supply an Act method to satisfy core.Agent. All
// exported methods are goroutine-safe.
type Base struct {
	id string

	mu          sync.RWMutex
	cfg         core.AgentConfig
	initialized bool
}

// NewBase constructs a Base for id.
func NewBase(id string) Base {
	return Base{id: id}
}

// ID returns the agent id.
func (b *Base) ID() string { return b.id }

// Init stores cfg. Calling Init again replaces the previous configuration.
func (b *Base) Init(cfg core.AgentConfig) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.cfg = cfg
	b.initialized = true
	return nil
}

// Config returns the configuration received in Init.
func (b *Base) Config() core.AgentConfig {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.cfg
}

// Initialized reports whether Init has been called.
func (b *Base) Initialized() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.initialized
}
