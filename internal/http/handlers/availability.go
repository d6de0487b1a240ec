package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/GonzaloEspina/barbatero-landing/internal/availability"
	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

// AvailabilityService is the read side used by AvailabilityHandler.
type AvailabilityService interface {
	DayAvailability(ctx context.Context, date calendar.Date) (availability.DayAvailability, error)
	RangeAvailability(ctx context.Context, start, end calendar.Date) ([]availability.DayAvailability, error)
}

// AvailabilityHandler serves GET /api/availability.
type AvailabilityHandler struct {
	svc    AvailabilityService
	logger *logging.Logger
}

func NewAvailabilityHandler(svc AvailabilityService, logger *logging.Logger) *AvailabilityHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AvailabilityHandler{svc: svc, logger: logger.Component("handlers.availability")}
}

// RangeResponse wraps a range query result.
type RangeResponse struct {
	Days []availability.DayAvailability `json:"days"`
}

// Get answers ?date=YYYY-MM-DD with one day, or ?start=&end= with a range.
func (h *AvailabilityHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("date")); raw != "" {
		date, err := calendar.ParseISO(raw)
		if err != nil {
			jsonError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		day, err := h.svc.DayAvailability(r.Context(), date)
		if err != nil {
			h.fail(w, err)
			return
		}
		writeJSON(w, http.StatusOK, day)
		return
	}

	rawStart, rawEnd := strings.TrimSpace(q.Get("start")), strings.TrimSpace(q.Get("end"))
	if rawStart == "" || rawEnd == "" {
		jsonError(w, "date or start and end are required", http.StatusBadRequest)
		return
	}
	start, err := calendar.ParseISO(rawStart)
	if err != nil {
		jsonError(w, "start must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}
	end, err := calendar.ParseISO(rawEnd)
	if err != nil {
		jsonError(w, "end must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	days, err := h.svc.RangeAvailability(r.Context(), start, end)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RangeResponse{Days: days})
}

func (h *AvailabilityHandler) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("availability request failed", "status", status, "error", err)
	}
	jsonError(w, publicMessage(err, status), status)
}

var _ AvailabilityService = (*availability.Service)(nil)
