package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/GonzaloEspina/barbatero-landing/internal/booking"
	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

// BookingService is the write side used by BookingHandler.
type BookingService interface {
	FindClient(ctx context.Context, email string) (booking.Client, error)
	CreateClient(ctx context.Context, in booking.NewClient) (booking.Client, error)
	ListServices(ctx context.Context) ([]booking.Offering, error)
	CreateAppointment(ctx context.Context, req booking.AppointmentRequest) (booking.Appointment, error)
	GetAppointment(ctx context.Context, id string) (booking.Appointment, error)
	CancelAppointment(ctx context.Context, id string) (booking.Appointment, error)
	ConfirmAppointment(ctx context.Context, id string) (booking.Appointment, error)
	ReserveMembership(ctx context.Context, req booking.MembershipRequest) (booking.Membership, error)
}

// BookingHandler serves the client, catalog, appointment and membership
// routes.
type BookingHandler struct {
	svc    BookingService
	logger *logging.Logger
}

func NewBookingHandler(svc BookingService, logger *logging.Logger) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{svc: svc, logger: logger.Component("handlers.booking")}
}

// FindClient handles GET /api/clients?email=.
func (h *BookingHandler) FindClient(w http.ResponseWriter, r *http.Request) {
	client, err := h.svc.FindClient(r.Context(), r.URL.Query().Get("email"))
	if err != nil {
		h.fail(w, "find client", err)
		return
	}
	writeJSON(w, http.StatusOK, client)
}

// CreateClient handles POST /api/clients. An already registered email
// answers 409 with the existing client.
func (h *BookingHandler) CreateClient(w http.ResponseWriter, r *http.Request) {
	var in booking.NewClient
	if err := decodeJSON(w, r, &in); err != nil {
		h.fail(w, "create client", err)
		return
	}
	client, err := h.svc.CreateClient(r.Context(), in)
	if errors.Is(err, booking.ErrClientExists) {
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "client": client})
		return
	}
	if err != nil {
		h.fail(w, "create client", err)
		return
	}
	writeJSON(w, http.StatusCreated, client)
}

// ListServices handles GET /api/services.
func (h *BookingHandler) ListServices(w http.ResponseWriter, r *http.Request) {
	offerings, err := h.svc.ListServices(r.Context())
	if err != nil {
		h.fail(w, "list services", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"services": offerings})
}

// appointmentBody accepts either "times" or a single "time".
type appointmentBody struct {
	ClientEmail string   `json:"clientEmail"`
	ServiceID   string   `json:"serviceId"`
	Date        string   `json:"date"`
	Time        string   `json:"time"`
	Times       []string `json:"times"`
}

// CreateAppointment handles POST /api/appointments.
func (h *BookingHandler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var body appointmentBody
	if err := decodeJSON(w, r, &body); err != nil {
		h.fail(w, "create appointment", err)
		return
	}
	date, err := calendar.ParseISO(body.Date)
	if err != nil {
		jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	times := body.Times
	if t := strings.TrimSpace(body.Time); t != "" {
		times = append(times, calendar.SplitTimes(t)...)
	}

	appt, err := h.svc.CreateAppointment(r.Context(), booking.AppointmentRequest{
		ClientEmail: body.ClientEmail,
		ServiceID:   body.ServiceID,
		Date:        date,
		Times:       times,
	})
	if err != nil {
		h.fail(w, "create appointment", err)
		return
	}
	writeJSON(w, http.StatusCreated, appt)
}

// GetAppointment handles GET /api/appointments/{id}.
func (h *BookingHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.GetAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "get appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// CancelAppointment handles POST /api/appointments/{id}/cancel.
func (h *BookingHandler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.CancelAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "cancel appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// ConfirmAppointment handles POST /api/appointments/{id}/confirm.
func (h *BookingHandler) ConfirmAppointment(w http.ResponseWriter, r *http.Request) {
	appt, err := h.svc.ConfirmAppointment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, "confirm appointment", err)
		return
	}
	writeJSON(w, http.StatusOK, appt)
}

// ReserveMembership handles POST /api/memberships.
func (h *BookingHandler) ReserveMembership(w http.ResponseWriter, r *http.Request) {
	var req booking.MembershipRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, "reserve membership", err)
		return
	}
	m, err := h.svc.ReserveMembership(r.Context(), req)
	if err != nil {
		h.fail(w, "reserve membership", err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *BookingHandler) fail(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("booking request failed", "op", op, "status", status, "error", err)
	} else {
		h.logger.Debug("booking request rejected", "op", op, "status", status, "error", err)
	}
	jsonError(w, publicMessage(err, status), status)
}

var _ BookingService = (*booking.Service)(nil)
