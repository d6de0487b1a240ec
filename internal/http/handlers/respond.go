// Package handlers exposes the availability and booking operations over JSON.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/GonzaloEspina/barbatero-landing/internal/availability"
	"github.com/GonzaloEspina/barbatero-landing/internal/booking"
)

const maxBodyBytes = 64 << 10

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", booking.ErrInvalidRequest)
		}
		return fmt.Errorf("%w: invalid JSON body: %v", booking.ErrInvalidRequest, err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, booking.ErrInvalidRequest),
		errors.Is(err, availability.ErrRangeTooLarge):
		return http.StatusBadRequest
	case errors.Is(err, booking.ErrClientNotFound),
		errors.Is(err, booking.ErrAppointmentNotFound):
		return http.StatusNotFound
	case errors.Is(err, booking.ErrClientExists),
		errors.Is(err, booking.ErrSlotUnavailable),
		errors.Is(err, booking.ErrSlotHeld):
		return http.StatusConflict
	case errors.Is(err, availability.ErrStoreUnavailable),
		errors.Is(err, booking.ErrStoreUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// publicMessage hides internal detail on 5xx responses.
func publicMessage(err error, status int) string {
	switch status {
	case http.StatusBadGateway:
		return "no se pudo consultar la agenda, intentá de nuevo en unos minutos"
	case http.StatusInternalServerError:
		return "error interno"
	default:
		return err.Error()
	}
}
