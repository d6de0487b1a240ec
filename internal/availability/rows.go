package availability

import (
	"errors"
	"strconv"

	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/internal/store"
)

// ErrSkipRow marks a store row that cannot take part in any computation.
// Skips never abort a batch.
var ErrSkipRow = errors.New("availability: row skipped")

// RowSkip carries the reason a row was skipped; it matches ErrSkipRow.
type RowSkip struct {
	Reason string
}

func (e *RowSkip) Error() string { return "availability: row skipped: " + e.Reason }

func (e *RowSkip) Is(target error) bool { return target == ErrSkipRow }

func skip(reason string) error { return &RowSkip{Reason: reason} }

// skipReason extracts the reason from a skip error, "unknown" otherwise.
func skipReason(err error) string {
	var rs *RowSkip
	if errors.As(err, &rs) {
		return rs.Reason
	}
	return "unknown"
}

// Columns lists, per logical field, the column names the store app has used.
// The first name is the canonical one and is used in filter expressions.
type Columns struct {
	ScheduleWeekday []string
	ScheduleSlots   []string

	BlackoutKind []string
	BlackoutDay  []string
	BlackoutFrom []string
	BlackoutTo   []string

	AppointmentID      []string
	AppointmentDate    []string
	AppointmentTime    []string
	AppointmentService []string
	AppointmentClient  []string
	AppointmentStatus  []string
}

// DefaultColumns returns the column names of the production app.
func DefaultColumns() Columns {
	return Columns{
		ScheduleWeekday: []string{"Número", "Numero", "Nro", "number"},
		ScheduleSlots:   []string{"Horarios", "Horario", "Horas", "schedule"},

		BlackoutKind: []string{"Tipo", "Tipo de Cancelación", "Tipo de Bloqueo", "kind"},
		BlackoutDay:  []string{"Día", "Dia", "Fecha", "day"},
		BlackoutFrom: []string{"Desde", "Fecha Desde", "from"},
		BlackoutTo:   []string{"Hasta", "Fecha Hasta", "to"},

		AppointmentID:      []string{"ID", "Id", "Row ID", "id"},
		AppointmentDate:    []string{"Fecha", "date"},
		AppointmentTime:    []string{"Hora", "Horario", "time"},
		AppointmentService: []string{"Servicio", "service"},
		AppointmentClient:  []string{"Cliente", "Email", "client"},
		AppointmentStatus:  []string{"Estado", "status"},
	}
}

var weekdayNames = map[string]int{
	"domingo": 1, "lunes": 2, "martes": 3, "miercoles": 4, "jueves": 5, "viernes": 6, "sabado": 7,
	"sunday": 1, "monday": 2, "tuesday": 3, "wednesday": 4, "thursday": 5, "friday": 6, "saturday": 7,
}

// parseWeekday accepts "1".."7" (1 = Sunday) or a Spanish/English day name.
func parseWeekday(raw string) (int, bool) {
	if n, err := strconv.Atoi(raw); err == nil {
		return n, n >= 1 && n <= 7
	}
	n, ok := weekdayNames[fold(raw)]
	return n, ok
}

func decodeScheduleRow(row store.Row, cols Columns) (int, []string, error) {
	rawWeekday := row.String(cols.ScheduleWeekday...)
	if rawWeekday == "" {
		return 0, nil, skip("missing_weekday")
	}
	weekday, ok := parseWeekday(rawWeekday)
	if !ok {
		return 0, nil, skip("invalid_weekday")
	}
	slots := calendar.SplitTimes(row.Value(cols.ScheduleSlots...))
	if len(slots) == 0 {
		return 0, nil, skip("no_slots")
	}
	return weekday, slots, nil
}

func decodeBlackoutRow(row store.Row, cols Columns) (Blackout, error) {
	tag := row.String(cols.BlackoutKind...)
	if isSingleDayTag(tag) {
		day, ok := calendar.Parse(row.Value(cols.BlackoutDay...))
		if !ok {
			return Blackout{}, skip("missing_day")
		}
		return Blackout{Kind: BlackoutSingleDay, Tag: tag, Day: day}, nil
	}

	from, fromOK := calendar.Parse(row.Value(cols.BlackoutFrom...))
	to, toOK := calendar.Parse(row.Value(cols.BlackoutTo...))
	if fromOK && toOK {
		return Blackout{Kind: BlackoutDateRange, Tag: tag, From: from, To: to}, nil
	}
	return Blackout{}, skip("unclassified")
}

// DecodeAppointment reads an appointment row. Date and time stay raw.
func DecodeAppointment(row store.Row, cols Columns) Appointment {
	return Appointment{
		ID:        row.String(cols.AppointmentID...),
		RawDate:   row.Value(cols.AppointmentDate...),
		RawTime:   row.Value(cols.AppointmentTime...),
		ServiceID: row.String(cols.AppointmentService...),
		ClientRef: row.String(cols.AppointmentClient...),
		Status:    row.String(cols.AppointmentStatus...),
	}
}
