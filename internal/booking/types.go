package booking

import (
	"errors"
	"fmt"
	"time"
)

// Booking is an active reservation owned by the ledger. Bookings are never
// mutated in place: cancel removes, it does not edit.
type Booking struct {
	BookingID       string    `json:"booking_id"`
	ClientName      string    `json:"client_name"`
	ClientPhone     string    `json:"client_phone"`
	Date            string    `json:"date"` // YYYY-MM-DD
	Time            string    `json:"time"` // HH:MM
	ClassType       string    `json:"class_type"`
	Instructor      string    `json:"instructor,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CalendarEventID string    `json:"calendar_event_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// ErrNotFound reports a missing cancellation target.
var ErrNotFound = errors.New("booking: not found")

// NotFoundError wraps ErrNotFound with the identifier that missed.
type NotFoundError struct {
	BookingID string
	Phone     string
	Date      string
	Time      string
}

func (e *NotFoundError) Error() string {
	if e.BookingID != "" {
		return fmt.Sprintf("booking: %s not found", e.BookingID)
	}
	return fmt.Sprintf("booking: no booking for %s on %s at %s", e.Phone, e.Date, e.Time)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
