// Package eventlog serializes match event streams as canonical JSON Lines.
//
// Every event is one canonical JSON object (keys sorted at every depth, no
// insignificant whitespace) on its own line, and the log ends with exactly one
// newline. Identical event slices therefore always produce identical bytes,
// which is what artifact hashing and replay verification rely on.
package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/internal/canonical"
)

// maxLineBytes bounds a single parsed line.
const maxLineBytes = 16 << 20

// Marshal encodes events as canonical JSONL.
func Marshal(events []core.Event) ([]byte, error) {
	var buf bytes.Buffer
	for _, ev := range events {
		line, err := canonical.Marshal(ev)
		if err != nil {
			return nil, fmt.Errorf("event %d (%s): %w", ev.Seq, ev.Type, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	return buf.Bytes(), nil
}

// Parse decodes a JSONL event log. Blank lines are skipped.
func Parse(r io.Reader) ([]core.Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	var events []core.Event
	line := 0
	for sc.Scan() {
		line++
		data := bytes.TrimSpace(sc.Bytes())
		if len(data) == 0 {
			continue
		}
		var ev core.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

// Writer streams events to an io.Writer as canonical JSONL. It is safe for
// concurrent use; its Write method can be passed as an engine OnEvent hook
// through Writer.OnEvent.
type Writer struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewWriter creates a Writer on w.
func NewWriter(w io.Writer) *Writer { return &Writer{w: w} }

// Write appends one event. After the first failure every call returns that
// failure.
func (w *Writer) Write(ev core.Event) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	line, err := canonical.Marshal(ev)
	if err != nil {
		w.err = fmt.Errorf("event %d (%s): %w", ev.Seq, ev.Type, err)
		return w.err
	}
	line = append(line, '\n')
	if _, err := w.w.Write(line); err != nil {
		w.err = err
	}
	return w.err
}

// OnEvent adapts Write to the engine's OnEvent hook. Failures are kept and
// reported by Err.
func (w *Writer) OnEvent(ev core.Event) { _ = w.Write(ev) }

// Err returns the first write failure, if any.
func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

// Verification failures reported by VerifySequence.
var (
	ErrEmptyLog        = errors.New("eventlog: empty log")
	ErrSeqGap          = errors.New("eventlog: seq is not contiguous")
	ErrMatchIDMismatch = errors.New("eventlog: mixed match ids")
	ErrNotStarted      = errors.New("eventlog: first event is not MatchStarted")
	ErrNotTerminated   = errors.New("eventlog: last event is not the only MatchEnded")
)

// VerifySequence checks the structural guarantees of a complete match log:
// it starts with MatchStarted, seq increases by exactly one from the first
// event, every event carries the same match id, and MatchEnded appears once,
// as the last event.
func VerifySequence(events []core.Event) error {
	if len(events) == 0 {
		return ErrEmptyLog
	}
	if events[0].Type != core.EventMatchStarted {
		return ErrNotStarted
	}

	first := events[0]
	for i, ev := range events {
		if ev.Seq != first.Seq+i {
			return fmt.Errorf("%w: index %d has seq %d, want %d", ErrSeqGap, i, ev.Seq, first.Seq+i)
		}
		if ev.MatchID != first.MatchID {
			return fmt.Errorf("%w: seq %d has %q, want %q", ErrMatchIDMismatch, ev.Seq, ev.MatchID, first.MatchID)
		}
		if ev.Type == core.EventMatchEnded && i != len(events)-1 {
			return fmt.Errorf("%w: MatchEnded at seq %d", ErrNotTerminated, ev.Seq)
		}
	}

	if events[len(events)-1].Type != core.EventMatchEnded {
		return ErrNotTerminated
	}
	return nil
}
