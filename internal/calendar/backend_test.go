package calendar

import (
	"errors"
	"testing"
	"time"

	gcal "google.golang.org/api/calendar/v3"
)

func TestBackendErrorUnwrapsToErrBackend(t *testing.T) {
	err := &BackendError{Op: "list events", Err: errors.New("timeout")}
	if !errors.Is(err, ErrBackend) {
		t.Fatalf("BackendError must unwrap to ErrBackend")
	}
}

func TestEventTime(t *testing.T) {
	tests := []struct {
		name string
		edt  *gcal.EventDateTime
		want time.Time
		ok   bool
	}{
		{"nil", nil, time.Time{}, false},
		{"all-day event has date only", &gcal.EventDateTime{Date: "2024-01-20"}, time.Time{}, false},
		{"timed event", &gcal.EventDateTime{DateTime: "2024-01-20T10:00:00Z"},
			time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC), true},
		{"malformed", &gcal.EventDateTime{DateTime: "not-a-time"}, time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := eventTime(tt.edt)
			if ok != tt.ok {
				t.Fatalf("eventTime ok = %v, want %v", ok, tt.ok)
			}
			if ok && !got.Equal(tt.want) {
				t.Fatalf("eventTime = %v, want %v", got, tt.want)
			}
		})
	}
}
