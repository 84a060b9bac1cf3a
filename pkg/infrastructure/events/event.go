// Package events journals planning runs. Each solve gets its own stream keyed
// by run id; the payload types live in planning_events.go.
package events

import (
	"time"
)

// Event is one journal entry of a planning run. Type is one of the constants
// in planning_events.go and Data carries the matching payload struct.
type Event interface {
	Type() string
	// StreamID is the run id the event belongs to.
	StreamID() string
	Data() any
	Timestamp() time.Time
	// Version is the 1-based position of the event within its run.
	Version() int
}

// EventHandler receives events of the types it subscribed to. Handlers run
// synchronously on the appending goroutine, after the store lock is released.
// The Prometheus exporter is the main handler.
type EventHandler interface {
	Handle(event Event) error
	CanHandle(eventType string) bool
}

// EventStore is the planning journal: solve progress and key normalization
// notes are appended per run and can be replayed per run or as a whole.
type EventStore interface {
	AppendEvent(runID string, event Event) error
	ReadEvents(runID string, fromVersion int) ([]Event, error)
	ReadAllEvents(fromPosition int) ([]Event, error)
	Subscribe(eventTypes []string, handler EventHandler) error
}

// BaseEvent is the stored form of an Event. It is what `solve --events`
// writes as JSON.
type BaseEvent struct {
	EventType    string    `json:"type"`
	Stream       string    `json:"stream"`
	EventData    any       `json:"data"`
	EventTime    time.Time `json:"time"`
	EventVersion int       `json:"version"`
}

func (e BaseEvent) Type() string         { return e.EventType }
func (e BaseEvent) StreamID() string     { return e.Stream }
func (e BaseEvent) Data() any            { return e.EventData }
func (e BaseEvent) Timestamp() time.Time { return e.EventTime }
func (e BaseEvent) Version() int         { return e.EventVersion }

// NewEvent stamps a planning payload for runID. The store assigns the final
// version on append.
func NewEvent(eventType, runID string, data any) Event {
	return BaseEvent{
		EventType:    eventType,
		Stream:       runID,
		EventData:    data,
		EventTime:    time.Now(),
		EventVersion: 1,
	}
}

// sequenced copies event into run runID at the given position
func sequenced(event Event, runID string, version int) BaseEvent {
	return BaseEvent{
		EventType:    event.Type(),
		Stream:       runID,
		EventData:    event.Data(),
		EventTime:    event.Timestamp(),
		EventVersion: version,
	}
}
