// Package notify is the boundary between the case engine and whatever
// delivers notifications. The engine appends to an in-memory Log on every
// state change (at-least-once); consumers either register a Sink callback or
// pull with a cursor, the way the webhook dispatcher does. Delivery,
// deduplication, and retries belong to the consumer.
package notify

import (
	"sync"
	"time"
)

// Kind names one category of engine notification.
type Kind string

const (
	KindCaseCreated        Kind = "case-created"
	KindStatusChanged      Kind = "status-changed"
	KindEventCreated       Kind = "event-created"
	KindEventStatusChanged Kind = "event-status-changed"
	KindTaskCreated        Kind = "task-created"
	KindTaskStatusChanged  Kind = "task-status-changed"
	KindTaskUnblocked      Kind = "task-unblocked"
	KindReminderFired      Kind = "reminder-fired"
)

// Notification is one emitted engine event.
type Notification struct {
	ID      int64          `json:"id"`
	CaseID  string         `json:"case_id"`
	Kind    Kind           `json:"kind"`
	Payload map[string]any `json:"payload"`
	TS      time.Time      `json:"ts"`
}

// Sink receives notifications. Sinks run on a dispatch goroutine and must not
// block the engine.
type Sink func(Notification)

// maxRetained bounds the log so a long-lived process does not grow without
// limit. Consumers that fall further behind miss entries.
const maxRetained = 65536

// Log is an append-only in-memory notification log with cursor reads.
type Log struct {
	mu      sync.Mutex
	seq     int64
	first   int64 // seq of entries[0]
	entries []Notification
	sinks   []Sink
	Now     func() time.Time
}

// NewLog returns an empty Log.
func NewLog() *Log {
	return &Log{Now: time.Now}
}

// Subscribe registers a callback for every future notification.
func (l *Log) Subscribe(s Sink) {
	l.mu.Lock()
	l.sinks = append(l.sinks, s)
	l.mu.Unlock()
}

// Emit appends a notification and dispatches it to sinks without waiting for
// them.
func (l *Log) Emit(caseID string, kind Kind, payload map[string]any) Notification {
	if payload == nil {
		payload = map[string]any{}
	}
	l.mu.Lock()
	l.seq++
	n := Notification{
		ID:      l.seq,
		CaseID:  caseID,
		Kind:    kind,
		Payload: payload,
		TS:      l.Now().UTC(),
	}
	if len(l.entries) == 0 {
		l.first = n.ID
	}
	l.entries = append(l.entries, n)
	if len(l.entries) > maxRetained {
		drop := len(l.entries) - maxRetained
		l.entries = append([]Notification(nil), l.entries[drop:]...)
		l.first += int64(drop)
	}
	sinks := append([]Sink(nil), l.sinks...)
	l.mu.Unlock()
	if len(sinks) > 0 {
		go func() {
			for _, s := range sinks {
				s(n)
			}
		}()
	}
	return n
}

// After returns up to limit notifications with id greater than cursor.
func (l *Log) After(cursor int64, limit int) []Notification {
	l.mu.Lock()
	defer l.mu.Unlock()
	start := 0
	if cursor >= l.first {
		start = int(cursor - l.first + 1)
	}
	if start >= len(l.entries) {
		return nil
	}
	end := len(l.entries)
	if limit > 0 && start+limit < end {
		end = start + limit
	}
	return append([]Notification(nil), l.entries[start:end]...)
}

// Latest returns the id of the most recent notification, or 0.
func (l *Log) Latest() int64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.seq
}
