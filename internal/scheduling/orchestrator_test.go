package scheduling

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andesfit/whatsapp-scheduler/internal/booking"
	"github.com/andesfit/whatsapp-scheduler/internal/calendar"
	"github.com/andesfit/whatsapp-scheduler/internal/timeparse"
)

// countingResolver wraps the real resolver and counts invocations, so tests
// can assert the canonical-input fast path never touches it.
type countingResolver struct {
	inner *timeparse.Resolver
	calls int
}

func (c *countingResolver) Resolve(text string, reference time.Time, tzName string) (*timeparse.ResolvedMoment, error) {
	c.calls++
	return c.inner.Resolve(text, reference, tzName)
}

type fakeCalendar struct {
	events    []calendar.Event
	listErr   error
	createErr error
	created   []calendar.Event
	listCalls int
	lastStart time.Time
	lastEnd   time.Time
}

func (f *fakeCalendar) ListEvents(_ context.Context, start, end time.Time, _ int64) ([]calendar.Event, error) {
	f.listCalls++
	f.lastStart, f.lastEnd = start, end
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.events, nil
}

func (f *fakeCalendar) CreateEvent(_ context.Context, ev calendar.Event) (*calendar.CreatedEvent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, ev)
	return &calendar.CreatedEvent{ID: "evt_1", Link: "https://calendar.example/evt_1"}, nil
}

func newTestOrchestrator(cal calendar.Backend) (*Orchestrator, *countingResolver) {
	resolver := &countingResolver{inner: timeparse.NewResolver()}
	o := NewOrchestrator(Config{
		Resolver: resolver,
		Calendar: cal,
		Timezone: "UTC",
		Now: func() time.Time {
			return time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC) // a Monday
		},
	})
	return o, resolver
}

func TestBookCanonicalInputBypassesResolver(t *testing.T) {
	cal := &fakeCalendar{}
	o, resolver := newTestOrchestrator(cal)

	conf, err := o.Book(context.Background(), BookRequest{
		ClientName:  "Maria",
		ClientPhone: "+573001112233",
		Date:        "2024-01-20",
		Time:        "15:00",
		ClassType:   "Yoga",
	})
	require.NoError(t, err)
	assert.Equal(t, 0, resolver.calls, "canonical date/time must not invoke the resolver")
	assert.Equal(t, "2024-01-20", conf.Date)
	assert.Equal(t, "15:00", conf.Time)
	assert.Equal(t, 60, conf.DurationMinutes)
	assert.Equal(t, "Available Staff", conf.Instructor)
	assert.Equal(t, "https://calendar.example/evt_1", conf.CalendarLink)
	assert.Equal(t, "Your Yoga class is confirmed for 2024-01-20 at 15:00", conf.Message)
	assert.NotEmpty(t, conf.BookingID)

	require.Len(t, cal.created, 1)
	ev := cal.created[0]
	assert.Equal(t, "Yoga - Maria", ev.Summary)
	assert.Equal(t, time.Date(2024, 1, 20, 15, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, time.Date(2024, 1, 20, 16, 0, 0, 0, time.UTC), ev.End)
}

func TestBookResolvesFreeText(t *testing.T) {
	o, resolver := newTestOrchestrator(nil)

	conf, err := o.Book(context.Background(), BookRequest{
		ClientName:  "Luis",
		ClientPhone: "+573004445566",
		Date:        "tomorrow",
		Time:        "at 3pm",
		ClassType:   "Pilates",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, resolver.calls)
	assert.Equal(t, "2024-01-16", conf.Date)
	assert.Equal(t, "15:00", conf.Time)
	assert.Equal(t, 45, conf.DurationMinutes)
	assert.Empty(t, conf.CalendarLink)
}

func TestBookUnknownClassTypeDefaultsDuration(t *testing.T) {
	o, _ := newTestOrchestrator(nil)
	conf, err := o.Book(context.Background(), BookRequest{
		ClientPhone: "+1555",
		Date:        "2024-02-01",
		Time:        "10:00",
		ClassType:   "Aerial Silks",
	})
	require.NoError(t, err)
	assert.Equal(t, 60, conf.DurationMinutes)
}

func TestBookProceedsWhenCalendarFails(t *testing.T) {
	cal := &fakeCalendar{createErr: &calendar.BackendError{Op: "create event", Err: errors.New("boom")}}
	o, _ := newTestOrchestrator(cal)

	conf, err := o.Book(context.Background(), BookRequest{
		ClientPhone: "+1555",
		Date:        "2024-02-01",
		Time:        "10:00",
		ClassType:   "Yoga",
	})
	require.NoError(t, err, "calendar failure must not block the booking")
	assert.Empty(t, conf.CalendarLink)

	listed, err := o.ListBookings(context.Background(), "+1555")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Empty(t, listed[0].CalendarEventID)
}

func TestBookUnresolvableReturnsTypedError(t *testing.T) {
	o, _ := newTestOrchestrator(nil)
	_, err := o.Book(context.Background(), BookRequest{
		ClientPhone: "+1555",
		Date:        "zzzzz qqqq",
		Time:        "xyz",
		ClassType:   "Yoga",
	})
	var unresolved *timeparse.UnresolvedError
	require.ErrorAs(t, err, &unresolved)
	assert.NotEmpty(t, unresolved.Suggestions)
}

func TestBookRoundTripListByPhone(t *testing.T) {
	o, _ := newTestOrchestrator(nil)
	conf, err := o.Book(context.Background(), BookRequest{
		ClientName:  "Ana",
		ClientPhone: "+573007778899",
		Date:        "2024-03-10",
		Time:        "09:00",
		ClassType:   "HIIT Training",
	})
	require.NoError(t, err)

	listed, err := o.ListBookings(context.Background(), "+573007778899")
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, conf.BookingID, listed[0].BookingID)
	assert.Equal(t, "2024-03-10", listed[0].Date)
	assert.Equal(t, "09:00", listed[0].Time)
	assert.Equal(t, "HIIT Training", listed[0].ClassType)

	_, err = o.Cancel(context.Background(), CancelRequest{BookingID: conf.BookingID})
	require.NoError(t, err)
	listed, err = o.ListBookings(context.Background(), "+573007778899")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestCancelByKeyResolvesFreeTextDate(t *testing.T) {
	o, resolver := newTestOrchestrator(nil)
	_, err := o.Book(context.Background(), BookRequest{
		ClientPhone: "+1555",
		Date:        "2024-01-16",
		Time:        "15:00",
		ClassType:   "Yoga",
	})
	require.NoError(t, err)

	canceled, err := o.Cancel(context.Background(), CancelRequest{
		ClientPhone: "+1555",
		Date:        "mañana",
		Time:        "15:00",
	})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-16", canceled.Date)
	assert.Equal(t, 1, resolver.calls)
}

func TestCancelInsufficientIdentifier(t *testing.T) {
	o, _ := newTestOrchestrator(nil)
	_, err := o.Cancel(context.Background(), CancelRequest{ClientPhone: "+1555"})
	assert.ErrorIs(t, err, ErrInsufficientIdentifier)
}

func TestCancelUnknownIDNotFound(t *testing.T) {
	o, _ := newTestOrchestrator(nil)
	_, err := o.Cancel(context.Background(), CancelRequest{BookingID: "BK_never_issued"})
	assert.ErrorIs(t, err, booking.ErrNotFound)
}

func TestCheckAvailabilityMapsBusyIntervals(t *testing.T) {
	day := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	cal := &fakeCalendar{events: []calendar.Event{
		{Start: day.Add(10 * time.Hour), End: day.Add(11 * time.Hour)},
	}}
	o, _ := newTestOrchestrator(cal)

	res, err := o.CheckAvailability(context.Background(), AvailabilityRequest{Date: "2024-01-20"})
	require.NoError(t, err)
	assert.False(t, res.Degraded)
	assert.Equal(t, "2024-01-20", res.Date)

	byTime := map[string]bool{}
	for _, s := range res.Slots {
		byTime[s.Time] = s.Available
	}
	assert.False(t, byTime["10:00"], "10:00 overlaps the busy interval")
	assert.True(t, byTime["11:00"], "interval end is exclusive")
}

func TestCheckAvailabilityTimeRangeWindow(t *testing.T) {
	cal := &fakeCalendar{}
	o, _ := newTestOrchestrator(cal)

	res, err := o.CheckAvailability(context.Background(), AvailabilityRequest{
		Date:      "2024-01-20",
		TimeRange: "morning",
	})
	require.NoError(t, err)
	require.Len(t, res.Slots, 3)
	assert.Equal(t, "09:00", res.Slots[0].Time)
	assert.Equal(t, "11:00", res.Slots[2].Time)

	day := time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, day.Add(9*time.Hour), cal.lastStart)
	assert.Equal(t, day.Add(12*time.Hour), cal.lastEnd)
}

func TestCheckAvailabilityDegradesOnCalendarFailure(t *testing.T) {
	cal := &fakeCalendar{listErr: &calendar.BackendError{Op: "list events", Err: errors.New("timeout")}}
	o, _ := newTestOrchestrator(cal)

	res, err := o.CheckAvailability(context.Background(), AvailabilityRequest{Date: "2024-01-20"})
	require.NoError(t, err, "calendar failure degrades, it does not propagate")
	assert.True(t, res.Degraded)
	require.NotEmpty(t, res.Slots)
	for _, s := range res.Slots {
		assert.True(t, s.Degraded)
		assert.True(t, s.Available)
	}
}

func TestCheckAvailabilityResolvesFreeTextDate(t *testing.T) {
	o, resolver := newTestOrchestrator(nil)
	res, err := o.CheckAvailability(context.Background(), AvailabilityRequest{Date: "tomorrow"})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-16", res.Date)
	assert.Equal(t, 1, resolver.calls)
}
