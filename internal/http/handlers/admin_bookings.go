package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/andesfit/whatsapp-scheduler/internal/booking"
	"github.com/andesfit/whatsapp-scheduler/internal/scheduling"
	"github.com/andesfit/whatsapp-scheduler/internal/timeparse"
	"github.com/andesfit/whatsapp-scheduler/pkg/logging"
)

// AdminBookingsHandler exposes the booking operations to staff tooling.
type AdminBookingsHandler struct {
	orch   *scheduling.Orchestrator
	logger *logging.Logger
}

func NewAdminBookingsHandler(orch *scheduling.Orchestrator, logger *logging.Logger) *AdminBookingsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminBookingsHandler{orch: orch, logger: logger}
}

// List returns a client's bookings. GET /admin/bookings?phone=...
func (h *AdminBookingsHandler) List(w http.ResponseWriter, r *http.Request) {
	phone := r.URL.Query().Get("phone")
	if phone == "" {
		respondError(w, http.StatusBadRequest, "phone query parameter required")
		return
	}
	bookings, err := h.orch.ListBookings(r.Context(), phone)
	if err != nil {
		h.logger.Error("list bookings failed", "error", err, "phone", phone)
		respondError(w, http.StatusInternalServerError, "unable to list bookings")
		return
	}
	if bookings == nil {
		bookings = []booking.Booking{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"bookings": bookings, "count": len(bookings)})
}

type createBookingRequest struct {
	ClientName  string `json:"client_name"`
	ClientPhone string `json:"client_phone"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	ClassType   string `json:"class_type"`
	Instructor  string `json:"instructor"`
	Notes       string `json:"notes"`
}

// Create books on a client's behalf. POST /admin/bookings
func (h *AdminBookingsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ClientPhone == "" || req.Date == "" || req.Time == "" || req.ClassType == "" {
		respondError(w, http.StatusBadRequest, "client_phone, date, time and class_type are required")
		return
	}
	conf, err := h.orch.Book(r.Context(), scheduling.BookRequest{
		ClientName:  req.ClientName,
		ClientPhone: req.ClientPhone,
		Date:        req.Date,
		Time:        req.Time,
		ClassType:   req.ClassType,
		Instructor:  req.Instructor,
		Notes:       req.Notes,
	})
	if err != nil {
		var unresolved *timeparse.UnresolvedError
		if errors.As(err, &unresolved) {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":       "could not interpret the requested date or time",
				"input":       unresolved.Input,
				"suggestions": unresolved.Suggestions,
			})
			return
		}
		h.logger.Error("admin booking failed", "error", err)
		respondError(w, http.StatusInternalServerError, "unable to create booking")
		return
	}
	respondJSON(w, http.StatusCreated, conf)
}

// Cancel removes a booking by id. DELETE /admin/bookings/{bookingID}
func (h *AdminBookingsHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "bookingID")
	canceled, err := h.orch.Cancel(r.Context(), scheduling.CancelRequest{BookingID: id})
	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			respondError(w, http.StatusNotFound, "booking not found")
			return
		}
		h.logger.Error("admin cancel failed", "error", err, "booking_id", id)
		respondError(w, http.StatusInternalServerError, "unable to cancel booking")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"status": "canceled", "booking": canceled})
}

// Availability answers slot queries. GET /admin/availability?date=...&time_range=...&instructor=...
func (h *AdminBookingsHandler) Availability(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	date := q.Get("date")
	if date == "" {
		respondError(w, http.StatusBadRequest, "date query parameter required")
		return
	}
	res, err := h.orch.CheckAvailability(r.Context(), scheduling.AvailabilityRequest{
		Date:       date,
		TimeRange:  q.Get("time_range"),
		Instructor: q.Get("instructor"),
	})
	if err != nil {
		var unresolved *timeparse.UnresolvedError
		if errors.As(err, &unresolved) {
			respondJSON(w, http.StatusUnprocessableEntity, map[string]any{
				"error":       "could not interpret the requested date",
				"input":       unresolved.Input,
				"suggestions": unresolved.Suggestions,
			})
			return
		}
		h.logger.Error("availability query failed", "error", err)
		respondError(w, http.StatusInternalServerError, "unable to check availability")
		return
	}
	respondJSON(w, http.StatusOK, res)
}
