package transcript

import (
	"context"
	"sync"

	"github.com/hupe1980/matcharena/gateway"
)

// MemoryWriter collects transcript entries in memory.
type MemoryWriter struct {
	mu      sync.Mutex
	entries []gateway.TranscriptEntry
}

// NewMemoryWriter creates an empty MemoryWriter.
func NewMemoryWriter() *MemoryWriter { return &MemoryWriter{} }

// Write implements gateway.TranscriptWriter.
func (w *MemoryWriter) Write(_ context.Context, entry gateway.TranscriptEntry) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.entries = append(w.entries, entry)
	return nil
}

// Entries returns a snapshot of the entries written so far.
func (w *MemoryWriter) Entries() []gateway.TranscriptEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]gateway.TranscriptEntry(nil), w.entries...)
}

// ForMatch returns the entries belonging to matchID, in write order.
func (w *MemoryWriter) ForMatch(matchID string) []gateway.TranscriptEntry {
	w.mu.Lock()
	defer w.mu.Unlock()
	var out []gateway.TranscriptEntry
	for _, e := range w.entries {
		if e.MatchID == matchID {
			out = append(out, e)
		}
	}
	return out
}

var _ gateway.TranscriptWriter = (*MemoryWriter)(nil)
