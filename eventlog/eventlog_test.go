package eventlog

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/matcharena/core"
	"github.com/hupe1980/matcharena/internal/testutil"
)

func sampleEvents() []core.Event {
	return testutil.NewEventBuilder("m1").
		Started("a", "b").
		Turn(1).
		Submit(1, "a", core.Action{"inc": 2}).
		Submit(1, "b", core.Action{"inc": 1}).
		Ended(core.ReasonCompleted).
		Build()
}

func TestMarshal_CanonicalLines(t *testing.T) {
	data, err := Marshal(sampleEvents())
	require.NoError(t, err)

	lines := strings.Split(string(data), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "", lines[5], "log ends with exactly one newline")
	assert.Equal(t, `{"matchId":"m1","seq":1,"turn":1,"type":"TurnStarted"}`, lines[1])
	assert.Equal(t, `{"action":{"inc":2},"agentId":"a","matchId":"m1","seq":2,"turn":1,"type":"ActionSubmitted"}`, lines[2])
}

func TestMarshal_HTMLCharactersUnescaped(t *testing.T) {
	events := testutil.NewEventBuilder("m1").
		Add(core.ObservationEmitted{Turn: 1, AgentID: "a", Observation: core.Observation{"note": "a<b & c>d"}}).
		Build()

	data, err := Marshal(events)
	require.NoError(t, err)
	assert.Equal(t, `{"agentId":"a","matchId":"m1","observation":{"note":"a<b & c>d"},"seq":0,"turn":1,"type":"ObservationEmitted"}`+"\n", string(data))

	parsed, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "a<b & c>d", parsed[0].Payload.(core.ObservationEmitted).Observation["note"])
}

func TestMarshal_Empty(t *testing.T) {
	data, err := Marshal(nil)
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestMarshal_Deterministic(t *testing.T) {
	a, err := Marshal(sampleEvents())
	require.NoError(t, err)
	b, err := Marshal(sampleEvents())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestParse_RoundTripBytes(t *testing.T) {
	data, err := Marshal(sampleEvents())
	require.NoError(t, err)

	events, err := Parse(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, events, 5)
	assert.Equal(t, core.EventActionSubmitted, events[2].Type)

	again, err := Marshal(events)
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestParse_SkipsBlankLines(t *testing.T) {
	in := "\n" + `{"type":"TurnStarted","seq":0,"matchId":"m","turn":3}` + "\n\n"
	events, err := Parse(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, 3, events[0].Turn())
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(strings.NewReader(`{"type":"TurnStarted","seq":0}` + "\n" + `{not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 2")

	_, err = Parse(strings.NewReader(`{"type":"Bogus","seq":0}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown event type "Bogus"`)
}

func TestWriter_MatchesMarshal(t *testing.T) {
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, ev := range sampleEvents() {
		w.OnEvent(ev)
	}
	require.NoError(t, w.Err())

	want, err := Marshal(sampleEvents())
	require.NoError(t, err)
	assert.Equal(t, string(want), buf.String())
}

type failingWriter struct{ calls int }

func (f *failingWriter) Write([]byte) (int, error) {
	f.calls++
	return 0, errors.New("disk full")
}

func TestWriter_StickyError(t *testing.T) {
	fw := &failingWriter{}
	w := NewWriter(fw)
	events := sampleEvents()

	require.EqualError(t, w.Write(events[0]), "disk full")
	require.EqualError(t, w.Write(events[1]), "disk full")
	assert.Equal(t, 1, fw.calls)
	assert.EqualError(t, w.Err(), "disk full")
}

func TestVerifySequence(t *testing.T) {
	require.NoError(t, VerifySequence(sampleEvents()))

	tests := []struct {
		name   string
		mutate func([]core.Event) []core.Event
		want   error
	}{
		{"empty", func([]core.Event) []core.Event { return nil }, ErrEmptyLog},
		{"not started", func(e []core.Event) []core.Event { return e[1:] }, ErrNotStarted},
		{"gap", func(e []core.Event) []core.Event { e[3].Seq = 7; return e }, ErrSeqGap},
		{"mixed match", func(e []core.Event) []core.Event { e[2].MatchID = "other"; return e }, ErrMatchIDMismatch},
		{"no end", func(e []core.Event) []core.Event { return e[:4] }, ErrNotTerminated},
		{"early end", func(e []core.Event) []core.Event {
			e[3] = core.NewEvent(core.MatchEnded{Reason: core.ReasonCompleted})
			e[3].Seq, e[3].MatchID = 3, "m1"
			return e
		}, ErrNotTerminated},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySequence(tt.mutate(sampleEvents()))
			assert.ErrorIs(t, err, tt.want)
		})
	}
}
