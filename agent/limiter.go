package agent

import (
	"errors"
	"fmt"
	"sync"
)

// ErrCallBudgetExceeded is returned once a CallLimiter runs out.
var ErrCallBudgetExceeded = errors.New("agent: model call budget exceeded")

// CallLimiter enforces a maximum number of model calls per match.
type CallLimiter struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewCallLimiter creates a limiter with a max number of calls.
// If max == 0, unlimited calls are allowed.
func NewCallLimiter(max int) *CallLimiter {
	return &CallLimiter{max: max}
}

// Increment increases the call counter and returns an error if the limit is exceeded.
func (l *CallLimiter) Increment() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count++
	if l.max > 0 && l.count > l.max {
		return fmt.Errorf("%w: %d", ErrCallBudgetExceeded, l.max)
	}

	return nil
}

// Count returns the current number of calls made.
func (l *CallLimiter) Count() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.count
}

// Remaining returns how many calls are left before hitting the limit.
func (l *CallLimiter) Remaining() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.max == 0 {
		return -1 // unlimited
	}

	return max(l.max-l.count, 0)
}

// Reset clears the counter.
func (l *CallLimiter) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.count = 0
}
