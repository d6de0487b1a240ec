package booking

import (
	"context"
	"strings"

	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/internal/store"
)

// MembershipRequest reserves a membership plan for a registered client.
type MembershipRequest struct {
	ClientEmail string `json:"clientEmail"`
	Plan        string `json:"plan"`
}

// Membership is a reserved plan. Payment and activation happen in the shop.
type Membership struct {
	ID          string        `json:"id"`
	ClientEmail string        `json:"clientEmail"`
	Plan        string        `json:"plan"`
	ReservedOn  calendar.Date `json:"reservedOn"`
	Status      string        `json:"status"`
}

// ReserveMembership writes a membership row with status Reservada.
func (s *Service) ReserveMembership(ctx context.Context, req MembershipRequest) (Membership, error) {
	ctx, span := bookingTracer.Start(ctx, "booking.reserve_membership")
	defer span.End()

	plan := strings.TrimSpace(req.Plan)
	if plan == "" {
		return Membership{}, invalid("plan is required")
	}
	client, err := s.FindClient(ctx, req.ClientEmail)
	if err != nil {
		return Membership{}, err
	}

	m := Membership{
		ID:          s.newID(),
		ClientEmail: client.Email,
		Plan:        plan,
		ReservedOn:  s.today(),
		Status:      StatusReserved,
	}
	row := store.Row{
		"ID":               m.ID,
		"Cliente":          m.ClientEmail,
		"Membresía":        m.Plan,
		"Fecha de Reserva": calendar.StoreFormat(m.ReservedOn),
		"Estado":           m.Status,
	}
	if err := s.add(ctx, s.tables.Memberships, row); err != nil {
		span.RecordError(err)
		return Membership{}, err
	}
	s.logger.Info("membership reserved", "membership_id", m.ID, "client_id", client.ID, "plan", m.Plan)
	return m, nil
}
