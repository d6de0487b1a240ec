package booking

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GonzaloEspina/barbatero-landing/internal/store"
)

func bookingRequest(times ...string) AppointmentRequest {
	return AppointmentRequest{ClientEmail: "lucia@example.com", ServiceID: "s1", Date: monday, Times: times}
}

func TestCreateAppointment(t *testing.T) {
	f := newFixture(t, openDay("09:00", "09:30", "10:00"))

	appt, err := f.svc.CreateAppointment(context.Background(), bookingRequest("09:30:00", "09:00", "09:00"))
	require.NoError(t, err)

	assert.Equal(t, "id-1", appt.ID)
	assert.Equal(t, []string{"09:00", "09:30"}, appt.Times)
	assert.Equal(t, StatusPending, appt.Status)

	rows := f.store.Tables["Turnos"]
	require.Len(t, rows, 1)
	assert.Equal(t, store.Row{
		"ID":       "id-1",
		"Fecha":    "03/18/2024",
		"Hora":     "09:00, 09:30",
		"Servicio": "s1",
		"Cliente":  "lucia@example.com",
		"Estado":   "Pendiente",
	}, rows[0])

	owner, err := f.svc.holds.Holder(context.Background(), monday, "09:30")
	require.NoError(t, err)
	assert.Equal(t, "id-1", owner)
}

func TestCreateAppointmentSlotTaken(t *testing.T) {
	f := newFixture(t, openDay("09:00", "10:00"))

	_, err := f.svc.CreateAppointment(context.Background(), bookingRequest("09:30"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
	assert.Empty(t, f.store.Tables["Turnos"])
}

func TestCreateAppointmentClosedDay(t *testing.T) {
	f := newFixture(t, openDay())

	_, err := f.svc.CreateAppointment(context.Background(), bookingRequest("09:00"))
	assert.ErrorIs(t, err, ErrSlotUnavailable)
}

func TestCreateAppointmentAvailabilityError(t *testing.T) {
	boom := errors.New("store down")
	f := newFixture(t, stubAvailability{err: boom})

	_, err := f.svc.CreateAppointment(context.Background(), bookingRequest("09:00"))
	assert.ErrorIs(t, err, boom)
}

func TestCreateAppointmentHeldByAnotherRequest(t *testing.T) {
	f := newFixture(t, openDay("09:00", "09:30"))
	require.True(t, f.svc.holds.Acquire(context.Background(), monday, []string{"09:30"}, "other"))

	_, err := f.svc.CreateAppointment(context.Background(), bookingRequest("09:00", "09:30"))
	assert.ErrorIs(t, err, ErrSlotHeld)
	assert.Empty(t, f.store.Tables["Turnos"])

	// The partial hold on 09:00 was rolled back.
	owner, err := f.svc.holds.Holder(context.Background(), monday, "09:00")
	require.NoError(t, err)
	assert.Empty(t, owner)
}

func TestCreateAppointmentWriteFailureReleasesHold(t *testing.T) {
	f := newFixture(t, openDay("09:00"))
	f.store.WriteErr = errors.New("quota")

	_, err := f.svc.CreateAppointment(context.Background(), bookingRequest("09:00"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)

	owner, err := f.svc.holds.Holder(context.Background(), monday, "09:00")
	require.NoError(t, err)
	assert.Empty(t, owner)
}

func TestCreateAppointmentRedisDownFailsOpen(t *testing.T) {
	f := newFixture(t, openDay("09:00"))
	f.redis.Close()

	appt, err := f.svc.CreateAppointment(context.Background(), bookingRequest("09:00"))
	require.NoError(t, err)
	assert.Equal(t, StatusPending, appt.Status)
}

func TestCreateAppointmentValidation(t *testing.T) {
	f := newFixture(t, openDay("09:00"))

	cases := map[string]AppointmentRequest{
		"no email":  {Date: monday, Times: []string{"09:00"}},
		"no date":   {ClientEmail: "lucia@example.com", Times: []string{"09:00"}},
		"past date": {ClientEmail: "lucia@example.com", Date: monday.AddDays(-30), Times: []string{"09:00"}},
		"no times":  {ClientEmail: "lucia@example.com", Date: monday},
		"bad time":  {ClientEmail: "lucia@example.com", Date: monday, Times: []string{"pronto"}},
	}
	for name, req := range cases {
		_, err := f.svc.CreateAppointment(context.Background(), req)
		assert.ErrorIs(t, err, ErrInvalidRequest, name)
	}
	assert.Empty(t, f.store.Calls)
}

func TestCancelAppointment(t *testing.T) {
	f := newFixture(t, openDay("09:00", "09:30"))
	ctx := context.Background()
	created, err := f.svc.CreateAppointment(ctx, bookingRequest("09:00"))
	require.NoError(t, err)

	cancelled, err := f.svc.CancelAppointment(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusCancelled, cancelled.Status)
	assert.Equal(t, "2024-03-18", cancelled.Date.ISO())
	assert.Equal(t, "Cancelado", f.store.Tables["Turnos"][0]["Estado"])

	owner, err := f.svc.holds.Holder(ctx, monday, "09:00")
	require.NoError(t, err)
	assert.Empty(t, owner)

	again, err := f.svc.CancelAppointment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, again.Status)
	assert.Equal(t, 1, f.store.Count("edit", "Turnos"))
}

func TestCancelDoesNotReleaseForeignHold(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.store.Tables["Turnos"] = []store.Row{{"ID": "old", "Fecha": "03/18/2024", "Hora": "09:00:00", "Cliente": "lucia@example.com"}}
	require.True(t, f.svc.holds.Acquire(ctx, monday, []string{"09:00"}, "new-booking"))

	_, err := f.svc.CancelAppointment(ctx, "old")
	require.NoError(t, err)

	owner, err := f.svc.holds.Holder(ctx, monday, "09:00")
	require.NoError(t, err)
	assert.Equal(t, "new-booking", owner)
}

func TestCancelAppointmentNotFound(t *testing.T) {
	f := newFixture(t, nil)

	_, err := f.svc.CancelAppointment(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	_, err = f.svc.CancelAppointment(context.Background(), " ")
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestConfirmAppointmentSendsEmail(t *testing.T) {
	f := newFixture(t, openDay("09:00", "09:30"))
	ctx := context.Background()
	created, err := f.svc.CreateAppointment(ctx, bookingRequest("09:00", "09:30"))
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmAppointment(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusConfirmed, confirmed.Status)
	assert.Equal(t, "Confirmado", f.store.Tables["Turnos"][0]["Estado"])
	require.Len(t, f.notifier.sent, 1)
	sent := f.notifier.sent[0]
	assert.Equal(t, "Lucía Pérez", sent.ClientName)
	assert.Equal(t, "lucia@example.com", sent.ClientEmail)
	assert.Equal(t, "Corte", sent.ServiceName)
	assert.Equal(t, []string{"09:00", "09:30"}, sent.Times)
	assert.True(t, sent.Date.Equal(monday))
}

func TestConfirmAppointmentEmailFailureIsNotFatal(t *testing.T) {
	f := newFixture(t, openDay("09:00"))
	f.notifier.err = errors.New("smtp down")
	ctx := context.Background()
	created, err := f.svc.CreateAppointment(ctx, bookingRequest("09:00"))
	require.NoError(t, err)

	confirmed, err := f.svc.ConfirmAppointment(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, confirmed.Status)
}

func TestConfirmCancelledAppointment(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Tables["Turnos"] = []store.Row{{"ID": "a1", "Fecha": "03/18/2024", "Hora": "09:00", "Estado": "Cancelado"}}

	_, err := f.svc.ConfirmAppointment(context.Background(), "a1")
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Empty(t, f.notifier.sent)
}

func TestGetAppointment(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Tables["Turnos"] = []store.Row{{"ID": "a1", "Fecha": "03/18/24", "Hora": "09:00:00, 09:30:00", "Cliente": "Lucia@Example.com"}}

	appt, err := f.svc.GetAppointment(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-18", appt.Date.ISO())
	assert.Equal(t, []string{"09:00", "09:30"}, appt.Times)
	assert.Equal(t, "lucia@example.com", appt.ClientEmail)
}
