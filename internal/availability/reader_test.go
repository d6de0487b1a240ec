package availability

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/internal/observability/metrics"
	"github.com/GonzaloEspina/barbatero-landing/internal/store"
	"github.com/GonzaloEspina/barbatero-landing/internal/store/storetest"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

var testTables = Tables{Schedule: "Disponibilidad", Blackouts: "Cancelaciones", Appointments: "Turnos"}

func newTestReader(fake *storetest.Fake) (*Reader, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	m := metrics.NewAvailabilityMetrics(reg)
	return NewReader(fake, testTables, logging.New("error"), m), reg
}

func skippedRows(t *testing.T, reg *prometheus.Registry, table, reason string) float64 {
	return counterValue(t, reg, "barbatero_availability_skipped_rows_total", map[string]string{"table": table, "reason": reason})
}

func fallbackReads(t *testing.T, reg *prometheus.Registry, table, reason string) float64 {
	return counterValue(t, reg, "barbatero_store_fallback_reads_total", map[string]string{"table": table, "reason": reason})
}

func TestReaderLoadWeeklySchedule(t *testing.T) {
	fake := storetest.New()
	fake.Query["Disponibilidad"] = []store.Row{
		{"Número": "2", "Horarios": "09:00:00, 09:30:00"},
		{"Número": "2", "Horarios": []any{"09:30", "10:00"}},
		{"Numero": "Sábado", "Horario": "10:00"},
		{"Número": "", "Horarios": "11:00"},
		{"Número": "9", "Horarios": "11:00"},
		{"Número": "3", "Horarios": ""},
	}
	reader, reg := newTestReader(fake)

	schedule, err := reader.LoadWeeklySchedule(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"09:00", "09:30", "10:00"}, schedule.Slots(2))
	assert.Equal(t, []string{"10:00"}, schedule.Slots(7))
	assert.Empty(t, schedule.Slots(3))
	assert.Equal(t, 0, fake.Count("read", "Disponibilidad"))
	assert.Contains(t, fake.LastFilter("Disponibilidad"), "ISNOTBLANK([Horarios])")

	assert.Equal(t, 1.0, skippedRows(t, reg, "Disponibilidad", "missing_weekday"))
	assert.Equal(t, 1.0, skippedRows(t, reg, "Disponibilidad", "invalid_weekday"))
	assert.Equal(t, 1.0, skippedRows(t, reg, "Disponibilidad", "no_slots"))
}

func TestReaderFallsBackToFullRead(t *testing.T) {
	fake := storetest.New()
	fake.Tables["Disponibilidad"] = []store.Row{{"Número": "1", "Horarios": "12:00"}}
	reader, reg := newTestReader(fake)

	schedule, err := reader.LoadWeeklySchedule(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"12:00"}, schedule.Slots(1))
	assert.Equal(t, 1, fake.Count("query", "Disponibilidad"))
	assert.Equal(t, 1, fake.Count("read", "Disponibilidad"))
	assert.Equal(t, 1.0, fallbackReads(t, reg, "Disponibilidad", "empty"))
}

func TestReaderQueryErrorFallsBack(t *testing.T) {
	fake := storetest.New()
	fake.QueryErr["Cancelaciones"] = errors.New("bad selector")
	fake.Tables["Cancelaciones"] = []store.Row{{"Tipo": "Bloqueo único", "Día": "2024-03-18"}}
	reader, reg := newTestReader(fake)

	blackouts, err := reader.LoadBlackouts(context.Background())
	require.NoError(t, err)

	require.Len(t, blackouts, 1)
	assert.Equal(t, 1.0, fallbackReads(t, reg, "Cancelaciones", "error"))
}

func TestReaderStoreUnavailable(t *testing.T) {
	fake := storetest.New()
	fake.QueryErr["Cancelaciones"] = errors.New("timeout")
	fake.ReadErr["Cancelaciones"] = errors.New("timeout")
	reader, _ := newTestReader(fake)

	_, err := reader.LoadBlackouts(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestReaderClassifiesBlackouts(t *testing.T) {
	fake := storetest.New()
	fake.Query["Cancelaciones"] = []store.Row{
		{"Tipo": "Cancelación ÚNICA", "Día": "03/18/2024"},
		{"Tipo": "Vacaciones", "Desde": "2024-07-01", "Hasta": "07/14/24"},
		{"Tipo": "Bloqueo único", "Día": "pronto"},
		{"Tipo": "Vacaciones", "Desde": "2024-07-01"},
	}
	reader, reg := newTestReader(fake)

	blackouts, err := reader.LoadBlackouts(context.Background())
	require.NoError(t, err)
	require.Len(t, blackouts, 2)

	assert.Equal(t, BlackoutSingleDay, blackouts[0].Kind)
	assert.Equal(t, "2024-03-18", blackouts[0].Day.ISO())
	assert.Equal(t, BlackoutDateRange, blackouts[1].Kind)
	assert.Equal(t, "2024-07-01", blackouts[1].From.ISO())
	assert.Equal(t, "2024-07-14", blackouts[1].To.ISO())

	assert.Equal(t, 1.0, skippedRows(t, reg, "Cancelaciones", "missing_day"))
	assert.Equal(t, 1.0, skippedRows(t, reg, "Cancelaciones", "unclassified"))
}

// honestStore evaluates the blackout filter the way the store does for the
// two shapes the reader sends: kind set, or both bounds set.
type honestStore struct {
	*storetest.Fake
	rows []store.Row
}

func (h honestStore) QueryRows(ctx context.Context, table, filter string) ([]store.Row, error) {
	_, _ = h.Fake.QueryRows(ctx, table, filter)
	boundsAdmitted := strings.Contains(filter, "ISNOTBLANK([Desde])") && strings.Contains(filter, "ISNOTBLANK([Hasta])")
	var out []store.Row
	for _, row := range h.rows {
		kind := row.String("Tipo")
		bounds := row.String("Desde") != "" && row.String("Hasta") != ""
		if kind != "" || (boundsAdmitted && bounds) {
			out = append(out, row)
		}
	}
	return out, nil
}

func TestReaderKeepsUntaggedRangeNextToTaggedRows(t *testing.T) {
	rows := []store.Row{
		{"Tipo": "Bloqueo único", "Día": "03/18/24"},
		{"Desde": "03/20/24", "Hasta": "03/22/24"},
	}
	fake := storetest.New()
	fake.Tables["Cancelaciones"] = rows
	reg := prometheus.NewRegistry()
	reader := NewReader(honestStore{Fake: fake, rows: rows}, testTables, logging.New("error"), metrics.NewAvailabilityMetrics(reg))

	blackouts, err := reader.LoadBlackouts(context.Background())
	require.NoError(t, err)
	require.Len(t, blackouts, 2)
	assert.Equal(t, 0.0, fallbackReads(t, reg, "Cancelaciones", "empty"))
	assert.Equal(t,
		`Filter(Cancelaciones, OR(ISNOTBLANK([Tipo]), AND(ISNOTBLANK([Desde]), ISNOTBLANK([Hasta]))))`,
		fake.LastFilter("Cancelaciones"))

	day := Compute(calendar.NewDate(2024, time.March, 21), WeeklySchedule{5: {"09:00"}}, blackouts, nil)
	assert.True(t, day.BlackoutBlocked)
	assert.Empty(t, day.OpenSlots)
}

func TestReaderLoadAppointmentsQueriesEveryRepresentation(t *testing.T) {
	fake := storetest.New()
	day := calendar.NewDate(2024, time.March, 5)
	fake.Query["Turnos"] = []store.Row{
		{"ID": "a1", "Fecha": "03/05/2024", "Hora": "09:00:00"},
		// Day-first reading of the same text: 3 May, outside the request.
		{"ID": "a2", "Fecha": "05/03/2024", "Hora": "10:00:00"},
		{"ID": "a3", "Fecha": "sin fecha", "Hora": "11:00:00"},
	}
	reader, reg := newTestReader(fake)

	appts, err := reader.LoadAppointments(context.Background(), []calendar.Date{day})
	require.NoError(t, err)

	require.Len(t, appts, 1)
	assert.Equal(t, "a1", appts[0].ID)

	filter := fake.LastFilter("Turnos")
	for _, rep := range calendar.Representations(day) {
		assert.Contains(t, filter, `"`+rep+`"`)
	}
	assert.Equal(t, 1.0, skippedRows(t, reg, "Turnos", "unparseable_date"))
}

func TestReaderLoadAppointmentsNoDays(t *testing.T) {
	fake := storetest.New()
	reader, _ := newTestReader(fake)

	appts, err := reader.LoadAppointments(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, appts)
	assert.Empty(t, fake.Calls)
}
