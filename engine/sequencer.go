package engine

import "github.com/hupe1980/matcharena/core"

// sequencer is the single owner of seq for one event stream.
type sequencer struct {
	matchID string
	next    int
	events  []core.Event
	onEvent func(core.Event)
}

func newSequencer(matchID string, onEvent func(core.Event)) *sequencer {
	return &sequencer{matchID: matchID, onEvent: onEvent}
}

// emit stamps p with the next seq and the match id and appends it.
func (s *sequencer) emit(p core.Payload) core.Event {
	ev := core.NewEvent(p)
	ev.Seq = s.next
	ev.MatchID = s.matchID
	s.next++
	s.events = append(s.events, ev)
	if s.onEvent != nil {
		s.onEvent(ev)
	}
	return ev
}

// Events returns the events sequenced so far.
func (s *sequencer) Events() []core.Event {
	return s.events
}
