package calendar

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Event is a calendar entry. Start and End always carry zone information.
type Event struct {
	ID          string
	Link        string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
	TimeZone    string
	Attendees   []string
}

// CreatedEvent identifies an event written to the backend.
type CreatedEvent struct {
	ID   string
	Link string
}

// Backend is the external calendar capability. Implementations are fallible
// and own no retry policy; callers decide whether a failure is fatal
// (availability falls back to degraded slots) or not (booking proceeds without
// a calendar link).
type Backend interface {
	ListEvents(ctx context.Context, start, end time.Time, maxResults int64) ([]Event, error)
	CreateEvent(ctx context.Context, ev Event) (*CreatedEvent, error)
}

// ErrBackend marks transport/auth failures from the calendar capability.
var ErrBackend = errors.New("calendar: backend failure")

// BackendError wraps a failed backend call with the operation that failed.
type BackendError struct {
	Op  string
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("calendar: %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return ErrBackend }
