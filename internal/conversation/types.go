// Package conversation holds the persona routing and thread continuity
// logic that keeps a chat view consistent across persona switches and
// history backfills.
package conversation

import (
	"time"
)

// EventType identifies the type of event.
type EventType string

const (
	// EventRuntimeUpdated signals that the hosting runtime's thread state
	// (thread id or message list) may have changed.
	EventRuntimeUpdated EventType = "runtime_updated"
	// EventHistoryImported signals that a batch of older messages was
	// handed to the runtime.
	EventHistoryImported EventType = "history_imported"
	// EventLoadFailed signals that a history load ended in an error.
	EventLoadFailed EventType = "load_failed"
)

// Event represents something that happened around the active thread.
type Event struct {
	Type      EventType
	ThreadID  string
	Data      interface{}
	Timestamp time.Time
}

// Message is the hosting runtime's message shape.
type Message struct {
	ID        string
	Role      string
	Content   string
	CreatedAt time.Time
}

// Snapshot is a point-in-time view of the runtime's thread state.
type Snapshot struct {
	ThreadID string
	Messages []Message
}

// ThreadRuntime is the external chat runtime the controller observes and
// feeds. Implementations must tolerate Import being called from a goroutine
// other than their own event loop.
type ThreadRuntime interface {
	// State returns the current thread snapshot.
	State() Snapshot
	// Import integrates a batch of older messages into the visible list.
	Import(messages []Message)
}
