package debate

import (
	"log"
	"sync/atomic"
	"time"
)

type EventType string

const (
	EventMessage  EventType = "message"
	EventSummary  EventType = "summary"
	EventError    EventType = "error"
	EventComplete EventType = "complete"
)

// Event is one tagged record pushed to the live subscriber. Only the fields
// of the tagged variant are populated; Turn is a pointer so that turn 0
// survives marshalling.
type Event struct {
	Type EventType `json:"type"`

	// message
	AgentID   uint64     `json:"agent_id,omitempty"`
	AgentName string     `json:"agent_name,omitempty"`
	AgentRole string     `json:"agent_role,omitempty"`
	Content   string     `json:"content,omitempty"`
	Turn      *int       `json:"turn,omitempty"`
	Timestamp *time.Time `json:"timestamp,omitempty"`

	// summary
	Summary            string `json:"summary,omitempty"`
	MessageCount       int    `json:"message_count,omitempty"`
	AgentsParticipated int    `json:"agents_participated,omitempty"`

	// error
	Reason string `json:"reason,omitempty"`
}

func messageEvent(t *Turn) Event {
	idx := t.TurnIndex
	ts := t.CreatedAt
	return Event{
		Type:      EventMessage,
		AgentID:   t.AgentID,
		AgentName: t.AgentName,
		AgentRole: t.AgentRole,
		Content:   t.Content,
		Turn:      &idx,
		Timestamp: &ts,
	}
}

func summaryEvent(s *Summary) Event {
	return Event{
		Type:               EventSummary,
		Summary:            s.Content,
		MessageCount:       s.MessageCount,
		AgentsParticipated: s.AgentsParticipated,
	}
}

func errorEvent(reason string) Event {
	return Event{Type: EventError, Reason: reason}
}

// Stream is the single-producer push channel between a running debate and
// its live subscriber. The buffer is sized for a whole run up front, so the
// producer never blocks on a slow or absent consumer; if the buffer ever
// fills the event is dropped and counted, never awaited. Late subscribers
// replay from the transcript read path instead.
type Stream struct {
	sessionID string
	ch        chan Event
	dropped   atomic.Int64
}

func newStream(sessionID string, capacity int) *Stream {
	if capacity < 8 {
		capacity = 8
	}
	return &Stream{sessionID: sessionID, ch: make(chan Event, capacity)}
}

// Events is the subscriber side. The channel is closed after the terminal
// complete event.
func (s *Stream) Events() <-chan Event {
	return s.ch
}

// Dropped reports how many events could not be buffered.
func (s *Stream) Dropped() int64 {
	return s.dropped.Load()
}

func (s *Stream) publish(e Event) {
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
		log.Printf("[debate] session=%s dropped %s event (subscriber too slow)", s.sessionID, e.Type)
	}
}

func (s *Stream) close() {
	close(s.ch)
}
