package scheduling

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/andesfit/whatsapp-scheduler/internal/booking"
	"github.com/andesfit/whatsapp-scheduler/internal/calendar"
	"github.com/andesfit/whatsapp-scheduler/internal/observability/metrics"
	"github.com/andesfit/whatsapp-scheduler/internal/schedule"
	"github.com/andesfit/whatsapp-scheduler/internal/timeparse"
	"github.com/andesfit/whatsapp-scheduler/pkg/logging"
)

var orchestratorTracer = otel.Tracer("scheduler.internal.scheduling")

// defaultInstructor labels bookings with no instructor preference.
const defaultInstructor = "Available Staff"

var (
	isoDatePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockTimePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

// Coarse time-of-day windows for availability queries.
var timeRangeWindows = map[string]schedule.HourWindow{
	"morning":   {Start: 9, End: 12},
	"afternoon": {Start: 12, End: 17},
	"evening":   {Start: 17, End: 20},
}

// MomentResolver interprets free-form date/time text. Satisfied by
// timeparse.Resolver.
type MomentResolver interface {
	Resolve(text string, reference time.Time, tzName string) (*timeparse.ResolvedMoment, error)
}

// Orchestrator composes the resolver, slot engine, ledger and calendar backend
// into the booking use cases. Dependencies are passed explicitly; the
// orchestrator holds no ambient state beyond them.
type Orchestrator struct {
	resolver MomentResolver
	engine   *schedule.Engine
	ledger   *booking.Ledger
	cal      calendar.Backend
	metrics  *metrics.SchedulerMetrics
	logger   *logging.Logger
	timezone string
	now      func() time.Time
}

// Config collects the orchestrator's dependencies. Calendar and Metrics may
// be nil; Timezone defaults to UTC.
type Config struct {
	Resolver MomentResolver
	Engine   *schedule.Engine
	Ledger   *booking.Ledger
	Calendar calendar.Backend
	Metrics  *metrics.SchedulerMetrics
	Logger   *logging.Logger
	Timezone string
	Now      func() time.Time
}

// NewOrchestrator wires the booking use cases together.
func NewOrchestrator(cfg Config) *Orchestrator {
	if cfg.Resolver == nil {
		cfg.Resolver = timeparse.NewResolver()
	}
	if cfg.Engine == nil {
		cfg.Engine = schedule.NewEngine(schedule.HourWindow{Start: 9, End: 17})
	}
	if cfg.Ledger == nil {
		cfg.Ledger = booking.NewLedger(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	if cfg.Timezone == "" {
		cfg.Timezone = "UTC"
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Orchestrator{
		resolver: cfg.Resolver,
		engine:   cfg.Engine,
		ledger:   cfg.Ledger,
		cal:      cfg.Calendar,
		metrics:  cfg.Metrics,
		logger:   cfg.Logger,
		timezone: cfg.Timezone,
		now:      cfg.Now,
	}
}

// BookRequest carries a booking intent. Date and Time may be canonical
// (YYYY-MM-DD, HH:MM) or free text in English or Spanish.
type BookRequest struct {
	ClientName  string
	ClientPhone string
	Date        string
	Time        string
	ClassType   string
	Instructor  string
	Notes       string
}

// BookingConfirmation is the caller-facing result of a successful booking.
type BookingConfirmation struct {
	BookingID       string `json:"booking_id"`
	Date            string `json:"date"`
	Time            string `json:"time"`
	ClassType       string `json:"class_type"`
	Instructor      string `json:"instructor"`
	DurationMinutes int    `json:"duration_minutes"`
	CalendarLink    string `json:"calendar_link,omitempty"`
	Message         string `json:"message"`
}

// Book resolves the requested moment, writes a calendar event best-effort and
// records the booking. Canonical date/time inputs bypass the resolver
// entirely. A calendar failure never blocks the booking: it is logged and the
// confirmation simply carries no calendar link.
func (o *Orchestrator) Book(ctx context.Context, req BookRequest) (*BookingConfirmation, error) {
	ctx, span := orchestratorTracer.Start(ctx, "scheduling.book")
	defer span.End()
	span.SetAttributes(
		attribute.String("scheduler.class_type", req.ClassType),
		attribute.String("scheduler.client_phone", req.ClientPhone),
	)

	date, timeHHMM := req.Date, req.Time
	if !isoDatePattern.MatchString(date) || !clockTimePattern.MatchString(timeHHMM) {
		moment, err := o.resolveMoment(fmt.Sprintf("%s %s", req.Date, req.Time))
		if err != nil {
			span.RecordError(err)
			o.metrics.ObserveBooking("create", "unresolved")
			return nil, err
		}
		date, timeHHMM = moment.Date, moment.Time
	}

	instructor := req.Instructor
	if instructor == "" {
		instructor = defaultInstructor
	}
	duration := schedule.ClassDuration(req.ClassType)

	eventID, link := o.createCalendarEvent(ctx, req, date, timeHHMM, instructor, duration)

	stored, err := o.ledger.Create(ctx, booking.Booking{
		ClientName:      req.ClientName,
		ClientPhone:     req.ClientPhone,
		Date:            date,
		Time:            timeHHMM,
		ClassType:       req.ClassType,
		Instructor:      instructor,
		Notes:           req.Notes,
		CalendarEventID: eventID,
	})
	if err != nil {
		span.RecordError(err)
		o.metrics.ObserveBooking("create", "error")
		return nil, fmt.Errorf("scheduling: failed to record booking: %w", err)
	}

	o.metrics.ObserveBooking("create", "ok")
	o.logger.Info("booking created",
		"booking_id", stored.BookingID,
		"class_type", stored.ClassType,
		"date", stored.Date,
		"time", stored.Time,
		"calendar_event", eventID != "",
	)

	return &BookingConfirmation{
		BookingID:       stored.BookingID,
		Date:            stored.Date,
		Time:            stored.Time,
		ClassType:       stored.ClassType,
		Instructor:      stored.Instructor,
		DurationMinutes: duration,
		CalendarLink:    link,
		Message:         fmt.Sprintf("Your %s class is confirmed for %s at %s", stored.ClassType, stored.Date, stored.Time),
	}, nil
}

// createCalendarEvent writes the event best-effort. Returns empty strings on
// any failure, including a nil backend.
func (o *Orchestrator) createCalendarEvent(ctx context.Context, req BookRequest, date, timeHHMM, instructor string, duration int) (string, string) {
	if o.cal == nil {
		return "", ""
	}
	loc := timeparse.Location(o.timezone)
	start, err := time.ParseInLocation("2006-01-02 15:04", date+" "+timeHHMM, loc)
	if err != nil {
		o.logger.Warn("skipping calendar event for unparseable start", "date", date, "time", timeHHMM)
		return "", ""
	}
	description := fmt.Sprintf("Client: %s\nPhone: %s", req.ClientName, req.ClientPhone)
	if req.Notes != "" {
		description += "\nNotes: " + req.Notes
	}
	created, err := o.cal.CreateEvent(ctx, calendar.Event{
		Summary:     fmt.Sprintf("%s - %s", req.ClassType, req.ClientName),
		Description: description,
		Start:       start,
		End:         start.Add(time.Duration(duration) * time.Minute),
		TimeZone:    o.timezone,
	})
	if err != nil {
		o.logger.Warn("calendar event creation failed, booking proceeds without link", "error", err)
		return "", ""
	}
	return created.ID, created.Link
}

// CancelRequest identifies a booking either by id or by the full
// (phone, date, time) key. Date may be free text.
type CancelRequest struct {
	BookingID   string
	ClientPhone string
	Date        string
	Time        string
}

// Cancel removes a booking. With a booking id it cancels by id; otherwise it
// needs phone, date and time, resolving the date first when it is not
// canonical. Anything less fails with an InsufficientIdentifierError.
func (o *Orchestrator) Cancel(ctx context.Context, req CancelRequest) (*booking.Booking, error) {
	ctx, span := orchestratorTracer.Start(ctx, "scheduling.cancel")
	defer span.End()

	if req.BookingID != "" {
		canceled, err := o.ledger.CancelByID(ctx, req.BookingID)
		if err != nil {
			span.RecordError(err)
			o.metrics.ObserveBooking("cancel", "not_found")
			return nil, err
		}
		o.metrics.ObserveBooking("cancel", "ok")
		o.logger.Info("booking canceled", "booking_id", canceled.BookingID)
		return canceled, nil
	}

	if req.ClientPhone == "" || req.Date == "" || req.Time == "" {
		err := &InsufficientIdentifierError{Phone: req.ClientPhone, Date: req.Date, Time: req.Time}
		span.RecordError(err)
		o.metrics.ObserveBooking("cancel", "insufficient")
		return nil, err
	}

	date := req.Date
	if !isoDatePattern.MatchString(date) {
		moment, err := o.resolveMoment(date)
		if err != nil {
			span.RecordError(err)
			o.metrics.ObserveBooking("cancel", "unresolved")
			return nil, err
		}
		date = moment.Date
	}

	canceled, err := o.ledger.CancelByKey(ctx, req.ClientPhone, date, req.Time)
	if err != nil {
		span.RecordError(err)
		o.metrics.ObserveBooking("cancel", "not_found")
		return nil, err
	}
	o.metrics.ObserveBooking("cancel", "ok")
	o.logger.Info("booking canceled", "booking_id", canceled.BookingID)
	return canceled, nil
}

// AvailabilityRequest asks for open slots on a date, optionally narrowed to a
// coarse time range ("morning", "afternoon", "evening") and an instructor.
type AvailabilityRequest struct {
	Date       string
	TimeRange  string
	Instructor string
}

// AvailabilityResult is the slot list for one date. Degraded is set when the
// calendar backend failed and the fallback generator answered instead.
type AvailabilityResult struct {
	Date     string          `json:"date"`
	Slots    []schedule.Slot `json:"slots"`
	Degraded bool            `json:"degraded,omitempty"`
}

// CheckAvailability resolves the date, fetches busy intervals from the
// calendar and delegates to the slot engine. Calendar failure degrades to the
// fallback slot list rather than propagating.
func (o *Orchestrator) CheckAvailability(ctx context.Context, req AvailabilityRequest) (*AvailabilityResult, error) {
	ctx, span := orchestratorTracer.Start(ctx, "scheduling.check_availability")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.time_range", req.TimeRange))

	loc := timeparse.Location(o.timezone)

	var day time.Time
	if isoDatePattern.MatchString(req.Date) {
		day, _ = time.ParseInLocation("2006-01-02", req.Date, loc)
	} else {
		moment, err := o.resolveMoment(req.Date)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		day = time.Date(moment.At.Year(), moment.At.Month(), moment.At.Day(), 0, 0, 0, 0, loc)
	}

	var window *schedule.HourWindow
	if w, ok := timeRangeWindows[req.TimeRange]; ok {
		window = &w
	}

	busy, degraded := o.busyIntervals(ctx, day, window)
	var slots []schedule.Slot
	if degraded {
		slots = o.engine.FallbackSlots(day, req.Instructor)
	} else {
		slots = o.engine.AvailableSlots(day, window, req.Instructor, busy)
	}

	o.metrics.ObserveAvailability(degraded)
	return &AvailabilityResult{
		Date:     day.Format("2006-01-02"),
		Slots:    slots,
		Degraded: degraded,
	}, nil
}

// busyIntervals lists calendar events for the queried window. A nil backend
// yields no busy intervals; a backend failure reports degraded.
func (o *Orchestrator) busyIntervals(ctx context.Context, day time.Time, window *schedule.HourWindow) ([]schedule.BusyInterval, bool) {
	if o.cal == nil {
		return nil, false
	}
	start := day
	end := day.AddDate(0, 0, 1)
	if window != nil {
		start = day.Add(time.Duration(window.Start) * time.Hour)
		end = day.Add(time.Duration(window.End) * time.Hour)
	}
	events, err := o.cal.ListEvents(ctx, start, end, 50)
	if err != nil {
		o.logger.Warn("calendar unavailable, answering with fallback slots", "error", err)
		return nil, true
	}
	busy := make([]schedule.BusyInterval, 0, len(events))
	for _, ev := range events {
		busy = append(busy, schedule.BusyInterval{Start: ev.Start, End: ev.End})
	}
	return busy, false
}

// ListBookings returns the client's active bookings in creation order.
func (o *Orchestrator) ListBookings(ctx context.Context, phone string) ([]booking.Booking, error) {
	ctx, span := orchestratorTracer.Start(ctx, "scheduling.list_bookings")
	defer span.End()
	return o.ledger.ListByPhone(ctx, phone)
}

// resolveMoment runs the resolver against the current instant and records the
// outcome metric.
func (o *Orchestrator) resolveMoment(text string) (*timeparse.ResolvedMoment, error) {
	moment, err := o.resolver.Resolve(text, o.now(), o.timezone)
	if err != nil {
		o.metrics.ObserveResolution("none", "failed")
		return nil, err
	}
	o.metrics.ObserveResolution(string(moment.Method), "ok")
	return moment, nil
}
