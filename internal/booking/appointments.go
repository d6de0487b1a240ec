package booking

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/GonzaloEspina/barbatero-landing/internal/availability"
	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/internal/notify"
	"github.com/GonzaloEspina/barbatero-landing/internal/store"
)

var hhmm = regexp.MustCompile(`^\d{2}:\d{2}$`)

// AppointmentRequest is the booking payload. Several consecutive slots may be
// booked at once.
type AppointmentRequest struct {
	ClientEmail string        `json:"clientEmail"`
	ServiceID   string        `json:"serviceId"`
	Date        calendar.Date `json:"date"`
	Times       []string      `json:"times"`
}

// Appointment is the booking-side view of an appointment row.
type Appointment struct {
	ID          string        `json:"id"`
	Date        calendar.Date `json:"date"`
	Times       []string      `json:"times"`
	ServiceID   string        `json:"serviceId,omitempty"`
	ClientEmail string        `json:"clientEmail"`
	Status      string        `json:"status"`
}

func fromStored(a availability.Appointment) Appointment {
	date, _ := a.Date()
	return Appointment{
		ID:          a.ID,
		Date:        date,
		Times:       a.Times(),
		ServiceID:   a.ServiceID,
		ClientEmail: strings.ToLower(a.ClientRef),
		Status:      a.Status,
	}
}

// normalizeTimes canonicalizes, de-duplicates and sorts the requested slots.
func normalizeTimes(raw []string) ([]string, error) {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		t := calendar.ToHHMM(r)
		if !hhmm.MatchString(t) {
			return nil, invalid("time %q is not HH:MM", r)
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	if len(out) == 0 {
		return nil, invalid("at least one time is required")
	}
	sort.Strings(out)
	return out, nil
}

// CreateAppointment books req after checking the slots are still open. The
// row is written with status Pendiente.
func (s *Service) CreateAppointment(ctx context.Context, req AppointmentRequest) (Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.create_appointment")
	defer span.End()

	email, err := normalizeEmail(req.ClientEmail)
	if err != nil {
		return Appointment{}, err
	}
	if req.Date.IsZero() {
		return Appointment{}, invalid("date is required")
	}
	if req.Date.Before(s.today()) {
		return Appointment{}, invalid("date %s is in the past", req.Date.ISO())
	}
	times, err := normalizeTimes(req.Times)
	if err != nil {
		return Appointment{}, err
	}
	span.SetAttributes(
		attribute.String("booking.date", req.Date.ISO()),
		attribute.StringSlice("booking.times", times),
	)

	if s.availability != nil {
		day, err := s.availability.DayAvailability(ctx, req.Date)
		if err != nil {
			span.RecordError(err)
			return Appointment{}, fmt.Errorf("booking: check availability: %w", err)
		}
		if missing := missingSlots(day, times); len(missing) > 0 {
			s.logger.Info("requested slots not open", "date", req.Date.ISO(), "slots", missing)
			return Appointment{}, fmt.Errorf("%w: %s %s", ErrSlotUnavailable, req.Date.ISO(), strings.Join(missing, ", "))
		}
	}

	appt := Appointment{
		ID:          s.newID(),
		Date:        req.Date,
		Times:       times,
		ServiceID:   strings.TrimSpace(req.ServiceID),
		ClientEmail: email,
		Status:      StatusPending,
	}
	if !s.holds.Acquire(ctx, appt.Date, appt.Times, appt.ID) {
		return Appointment{}, ErrSlotHeld
	}

	cols := s.apptCols
	row := store.Row{
		cols.AppointmentID[0]:     appt.ID,
		cols.AppointmentDate[0]:   calendar.StoreFormat(appt.Date),
		cols.AppointmentTime[0]:   strings.Join(appt.Times, ", "),
		cols.AppointmentClient[0]: appt.ClientEmail,
		cols.AppointmentStatus[0]: appt.Status,
	}
	if appt.ServiceID != "" {
		row[cols.AppointmentService[0]] = appt.ServiceID
	}
	if err := s.add(ctx, s.tables.Appointments, row); err != nil {
		s.holds.Release(ctx, appt.Date, appt.Times, appt.ID)
		span.RecordError(err)
		return Appointment{}, err
	}

	s.logger.Info("appointment created", "appointment_id", appt.ID, "date", appt.Date.ISO(), "times", appt.Times)
	return appt, nil
}

func missingSlots(day availability.DayAvailability, times []string) []string {
	if !day.Available {
		return times
	}
	open := make(map[string]struct{}, len(day.OpenSlots))
	for _, slot := range day.OpenSlots {
		open[slot] = struct{}{}
	}
	var missing []string
	for _, t := range times {
		if _, ok := open[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}

// GetAppointment loads one appointment by id.
func (s *Service) GetAppointment(ctx context.Context, id string) (Appointment, error) {
	stored, err := s.findAppointment(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	return fromStored(stored), nil
}

func (s *Service) findAppointment(ctx context.Context, id string) (availability.Appointment, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return availability.Appointment{}, invalid("appointment id is required")
	}
	table := s.tables.Appointments
	rows, err := s.find(ctx, table, store.Filter(table, store.Equals(s.apptCols.AppointmentID[0], id)))
	if err != nil {
		return availability.Appointment{}, err
	}
	for _, row := range rows {
		if appt := availability.DecodeAppointment(row, s.apptCols); appt.ID == id {
			return appt, nil
		}
	}
	return availability.Appointment{}, ErrAppointmentNotFound
}

func (s *Service) setStatus(ctx context.Context, id, status string) error {
	return s.edit(ctx, s.tables.Appointments, store.Row{
		s.apptCols.AppointmentID[0]:     id,
		s.apptCols.AppointmentStatus[0]: status,
	})
}

// CancelAppointment marks an appointment Cancelado and frees its slots.
// Cancelling twice is a no-op.
func (s *Service) CancelAppointment(ctx context.Context, id string) (Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.cancel_appointment")
	defer span.End()
	span.SetAttributes(attribute.String("booking.appointment_id", id))

	stored, err := s.findAppointment(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	appt := fromStored(stored)
	if stored.Cancelled() {
		return appt, nil
	}

	if err := s.setStatus(ctx, appt.ID, StatusCancelled); err != nil {
		span.RecordError(err)
		return Appointment{}, err
	}
	appt.Status = StatusCancelled
	s.holds.Release(ctx, appt.Date, appt.Times, appt.ID)

	s.logger.Info("appointment cancelled", "appointment_id", appt.ID, "date", appt.Date.ISO())
	return appt, nil
}

// ConfirmAppointment marks an appointment Confirmado and emails the client.
// A failed email is logged and does not undo the confirmation.
func (s *Service) ConfirmAppointment(ctx context.Context, id string) (Appointment, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.confirm_appointment")
	defer span.End()
	span.SetAttributes(attribute.String("booking.appointment_id", id))

	stored, err := s.findAppointment(ctx, id)
	if err != nil {
		return Appointment{}, err
	}
	if stored.Cancelled() {
		return Appointment{}, invalid("appointment %s is cancelled", stored.ID)
	}
	appt := fromStored(stored)

	if err := s.setStatus(ctx, appt.ID, StatusConfirmed); err != nil {
		span.RecordError(err)
		return Appointment{}, err
	}
	appt.Status = StatusConfirmed
	s.logger.Info("appointment confirmed", "appointment_id", appt.ID, "date", appt.Date.ISO())

	if s.notifier != nil {
		if err := s.notifier.AppointmentConfirmed(ctx, s.confirmation(ctx, appt)); err != nil {
			s.logger.Warn("confirmation email not sent", "appointment_id", appt.ID, "error", err)
		}
	}
	return appt, nil
}

// confirmation gathers the email details. Missing client or service rows only
// make the email less specific.
func (s *Service) confirmation(ctx context.Context, appt Appointment) notify.Confirmation {
	c := notify.Confirmation{
		AppointmentID: appt.ID,
		ClientEmail:   appt.ClientEmail,
		Date:          appt.Date,
		Times:         appt.Times,
		ServiceName:   appt.ServiceID,
	}
	if client, err := s.FindClient(ctx, appt.ClientEmail); err == nil {
		c.ClientName = client.Name
	} else if !errors.Is(err, ErrClientNotFound) {
		s.logger.Debug("client lookup for confirmation failed", "error", err)
	}
	if appt.ServiceID != "" {
		if o, ok := s.findOffering(ctx, appt.ServiceID); ok {
			c.ServiceName = o.Name
		}
	}
	return c
}
