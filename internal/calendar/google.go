package calendar

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/andesfit/whatsapp-scheduler/pkg/logging"
)

var googleTracer = otel.Tracer("scheduler.internal.calendar.google")

// GoogleBackend talks to the Google Calendar v3 API.
type GoogleBackend struct {
	service    *gcal.Service
	calendarID string
	logger     *logging.Logger
}

// NewGoogleBackend builds a backend authenticated with a credentials file.
func NewGoogleBackend(ctx context.Context, credentialsPath, calendarID string, logger *logging.Logger) (*GoogleBackend, error) {
	if logger == nil {
		logger = logging.Default()
	}
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(credentialsPath),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, &BackendError{Op: "init", Err: err}
	}
	if calendarID == "" {
		calendarID = "primary"
	}
	return &GoogleBackend{service: svc, calendarID: calendarID, logger: logger}, nil
}

var _ Backend = (*GoogleBackend)(nil)

// ListEvents returns events overlapping [start, end], ordered by start time.
func (g *GoogleBackend) ListEvents(ctx context.Context, start, end time.Time, maxResults int64) ([]Event, error) {
	ctx, span := googleTracer.Start(ctx, "calendar.google.list_events")
	defer span.End()
	span.SetAttributes(
		attribute.String("scheduler.calendar_id", g.calendarID),
		attribute.String("scheduler.range_start", start.Format(time.RFC3339)),
	)

	if maxResults <= 0 {
		maxResults = 50
	}
	resp, err := g.service.Events.List(g.calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(maxResults).
		Context(ctx).
		Do()
	if err != nil {
		span.RecordError(err)
		return nil, &BackendError{Op: "list events", Err: err}
	}

	events := make([]Event, 0, len(resp.Items))
	for _, item := range resp.Items {
		startAt, ok := eventTime(item.Start)
		if !ok {
			continue // all-day events carry no clock time
		}
		endAt, ok := eventTime(item.End)
		if !ok {
			continue
		}
		events = append(events, Event{
			ID:      item.Id,
			Link:    item.HtmlLink,
			Summary: item.Summary,
			Start:   startAt,
			End:     endAt,
		})
	}
	return events, nil
}

// CreateEvent writes an event and returns its id and link.
func (g *GoogleBackend) CreateEvent(ctx context.Context, ev Event) (*CreatedEvent, error) {
	ctx, span := googleTracer.Start(ctx, "calendar.google.create_event")
	defer span.End()
	span.SetAttributes(attribute.String("scheduler.calendar_id", g.calendarID))

	entry := &gcal.Event{
		Summary:     ev.Summary,
		Description: ev.Description,
		Start: &gcal.EventDateTime{
			DateTime: ev.Start.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: ev.End.Format(time.RFC3339),
			TimeZone: ev.TimeZone,
		},
	}
	for _, email := range ev.Attendees {
		entry.Attendees = append(entry.Attendees, &gcal.EventAttendee{Email: email})
	}

	created, err := g.service.Events.Insert(g.calendarID, entry).Context(ctx).Do()
	if err != nil {
		span.RecordError(err)
		return nil, &BackendError{Op: "create event", Err: err}
	}
	g.logger.Info("calendar event created", "event_id", created.Id, "summary", ev.Summary)
	return &CreatedEvent{ID: created.Id, Link: created.HtmlLink}, nil
}

func eventTime(edt *gcal.EventDateTime) (time.Time, bool) {
	if edt == nil || edt.DateTime == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, edt.DateTime)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
