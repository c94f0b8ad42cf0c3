package transcript

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/matcharena/gateway"
	"github.com/hupe1980/matcharena/internal/canonical"
)

// JSONLWriter appends one canonical JSON object per line to an io.Writer.
type JSONLWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewJSONLWriter creates a JSONLWriter on w.
func NewJSONLWriter(w io.Writer) *JSONLWriter { return &JSONLWriter{w: w} }

// Write implements gateway.TranscriptWriter.
func (w *JSONLWriter) Write(_ context.Context, entry gateway.TranscriptEntry) error {
	line, err := canonical.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript entry: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.w.Write(line); err != nil {
		return fmt.Errorf("failed to write transcript entry: %w", err)
	}
	return nil
}

var _ gateway.TranscriptWriter = (*JSONLWriter)(nil)
