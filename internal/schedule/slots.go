package schedule

import (
	"fmt"
	"time"
)

// BusyInterval is a time range already occupied on the calendar. Read-only,
// scoped to a single availability query.
type BusyInterval struct {
	Start time.Time
	End   time.Time
}

// Slot is a candidate one-hour scheduling opening. Produced per query, never
// persisted.
type Slot struct {
	Time            string `json:"time"` // HH:MM
	Date            string `json:"date"` // YYYY-MM-DD
	DurationMinutes int    `json:"duration_minutes"`
	Instructor      string `json:"instructor,omitempty"`
	Available       bool   `json:"available"`
	Degraded        bool   `json:"degraded,omitempty"`
}

// HourWindow bounds slot generation to [Start, End) whole hours.
type HourWindow struct {
	Start int
	End   int
}

// Engine computes open slots from pure interval math; busy intervals are
// supplied by the caller.
type Engine struct {
	businessHours HourWindow
}

// NewEngine builds an engine with the studio's business hours.
func NewEngine(businessHours HourWindow) *Engine {
	return &Engine{businessHours: businessHours}
}

// AvailableSlots generates one candidate slot per whole hour inside the
// requested window (business hours when the window is nil) and marks each
// against the busy intervals. The overlap test is intentionally start-only: a
// slot is unavailable iff its start instant falls in [intervalStart,
// intervalEnd). Events starting mid-slot are not detected, and an interval
// ending exactly on the hour frees that hour. Intended behavior, do not
// tighten to full interval intersection without product sign-off.
func (e *Engine) AvailableSlots(date time.Time, window *HourWindow, instructor string, busy []BusyInterval) []Slot {
	w := e.businessHours
	if window != nil {
		w = *window
	}

	loc := date.Location()
	y, m, d := date.Date()

	slots := make([]Slot, 0, max(0, w.End-w.Start))
	for hour := w.Start; hour < w.End; hour++ {
		slotStart := time.Date(y, m, d, hour, 0, 0, 0, loc).Truncate(time.Minute)
		available := true
		for _, interval := range busy {
			if !slotStart.Before(interval.Start) && slotStart.Before(interval.End) {
				available = false
				break
			}
		}
		slots = append(slots, Slot{
			Time:            fmt.Sprintf("%02d:00", hour),
			Date:            slotStart.Format("2006-01-02"),
			DurationMinutes: DefaultDurationMinutes,
			Instructor:      instructor,
			Available:       available,
		})
	}
	return slots
}

// FallbackSlots emits every-second-hour slots across business hours, flagged
// degraded. Used when the calendar backend is unreachable so availability
// queries answer with something rather than failing outright.
func (e *Engine) FallbackSlots(date time.Time, instructor string) []Slot {
	slots := make([]Slot, 0)
	for hour := e.businessHours.Start; hour < e.businessHours.End; hour++ {
		if hour%2 != 0 {
			continue
		}
		slots = append(slots, Slot{
			Time:            fmt.Sprintf("%02d:00", hour),
			Date:            date.Format("2006-01-02"),
			DurationMinutes: DefaultDurationMinutes,
			Instructor:      instructor,
			Available:       true,
			Degraded:        true,
		})
	}
	return slots
}
