package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserveMembership(t *testing.T) {
	f := newFixture(t, nil)

	m, err := f.svc.ReserveMembership(context.Background(), MembershipRequest{ClientEmail: "LUCIA@example.com", Plan: " Mensual "})
	require.NoError(t, err)

	assert.Equal(t, "id-1", m.ID)
	assert.Equal(t, "Mensual", m.Plan)
	assert.Equal(t, StatusReserved, m.Status)
	assert.Equal(t, "2024-03-10", m.ReservedOn.ISO())

	rows := f.store.Tables["Membresias"]
	require.Len(t, rows, 1)
	assert.Equal(t, "lucia@example.com", rows[0]["Cliente"])
	assert.Equal(t, "03/10/2024", rows[0]["Fecha de Reserva"])
	assert.Equal(t, "Reservada", rows[0]["Estado"])
}

func TestReserveMembershipUnknownClient(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.ReserveMembership(context.Background(), MembershipRequest{ClientEmail: "nadie@example.com", Plan: "Mensual"})
	assert.ErrorIs(t, err, ErrClientNotFound)
	assert.Empty(t, f.store.Tables["Membresias"])
}

func TestReserveMembershipRequiresPlan(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.ReserveMembership(context.Background(), MembershipRequest{ClientEmail: "lucia@example.com"})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}
