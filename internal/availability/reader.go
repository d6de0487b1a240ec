package availability

import (
	"context"
	"errors"
	"fmt"

	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/internal/observability/metrics"
	"github.com/GonzaloEspina/barbatero-landing/internal/store"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

// ErrStoreUnavailable is returned when the store could not be read even after
// the full-read fallback.
var ErrStoreUnavailable = errors.New("availability: store unavailable")

// ScheduleSource provides the weekly schedule and blackouts.
type ScheduleSource interface {
	LoadWeeklySchedule(ctx context.Context) (WeeklySchedule, error)
	LoadBlackouts(ctx context.Context) ([]Blackout, error)
}

// Tables names the store tables the reader touches.
type Tables struct {
	Schedule     string
	Blackouts    string
	Appointments string
}

// Reader loads schedule, blackout and appointment rows from the store.
type Reader struct {
	q       store.Querier
	tables  Tables
	cols    Columns
	logger  *logging.Logger
	metrics *metrics.AvailabilityMetrics
}

// NewReader creates a Reader. metrics may be nil.
func NewReader(q store.Querier, tables Tables, logger *logging.Logger, m *metrics.AvailabilityMetrics) *Reader {
	if logger == nil {
		logger = logging.Default()
	}
	return &Reader{
		q:       q,
		tables:  tables,
		cols:    DefaultColumns(),
		logger:  logger.Component("availability.reader"),
		metrics: m,
	}
}

// LoadWeeklySchedule reads the recurring schedule table.
func (r *Reader) LoadWeeklySchedule(ctx context.Context) (WeeklySchedule, error) {
	table := r.tables.Schedule
	filter := store.Filter(table, store.NotBlank(r.cols.ScheduleSlots[0]))
	rows, err := r.find(ctx, table, filter)
	if err != nil {
		return nil, err
	}

	builder := scheduleBuilder{}
	for _, row := range rows {
		weekday, slots, err := decodeScheduleRow(row, r.cols)
		if err != nil {
			r.skipped(table, err)
			continue
		}
		builder.add(weekday, slots)
	}
	return builder.build(), nil
}

// LoadBlackouts reads and classifies the blackout table. Rows that are
// neither a single-day nor a date-range block are dropped. A row without a
// kind still counts as a range when both bounds are set, so the filter
// admits it too.
func (r *Reader) LoadBlackouts(ctx context.Context) ([]Blackout, error) {
	table := r.tables.Blackouts
	filter := store.Filter(table, store.Or(
		store.NotBlank(r.cols.BlackoutKind[0]),
		store.And(store.NotBlank(r.cols.BlackoutFrom[0]), store.NotBlank(r.cols.BlackoutTo[0])),
	))
	rows, err := r.find(ctx, table, filter)
	if err != nil {
		return nil, err
	}

	blackouts := make([]Blackout, 0, len(rows))
	for _, row := range rows {
		b, err := decodeBlackoutRow(row, r.cols)
		if err != nil {
			r.skipped(table, err)
			continue
		}
		blackouts = append(blackouts, b)
	}
	return blackouts, nil
}

// LoadAppointments fetches the appointments booked on any of days with a
// single IN query over every textual form of every day. Rows are always
// filtered locally afterwards: the fallback returns the whole table, and the
// day-first/month-first forms of one day can name a different day.
func (r *Reader) LoadAppointments(ctx context.Context, days []calendar.Date) ([]Appointment, error) {
	if len(days) == 0 {
		return nil, nil
	}
	table := r.tables.Appointments

	var reps []string
	seen := map[string]struct{}{}
	wanted := make(map[string]struct{}, len(days))
	for _, d := range days {
		wanted[d.ISO()] = struct{}{}
		for _, rep := range calendar.Representations(d) {
			if _, ok := seen[rep]; ok {
				continue
			}
			seen[rep] = struct{}{}
			reps = append(reps, rep)
		}
	}

	filter := store.Filter(table, store.In(r.cols.AppointmentDate[0], reps))
	rows, err := r.find(ctx, table, filter)
	if err != nil {
		return nil, err
	}

	appts := make([]Appointment, 0, len(rows))
	for _, row := range rows {
		appt := DecodeAppointment(row, r.cols)
		date, ok := appt.Date()
		if !ok {
			r.skipped(table, skip("unparseable_date"))
			continue
		}
		if _, ok := wanted[date.ISO()]; !ok {
			continue
		}
		appts = append(appts, appt)
	}
	return appts, nil
}

// find applies the find-then-full-read policy and records fallbacks.
func (r *Reader) find(ctx context.Context, table, filter string) ([]store.Row, error) {
	res, err := store.FindWithFallback(ctx, r.q, table, filter)
	if err != nil {
		r.logger.Error("store read failed", "table", table, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if res.Fallback {
		reason := "empty"
		if res.QueryErr != nil {
			reason = "error"
			r.logger.Warn("filtered query failed, used full read", "table", table, "error", res.QueryErr)
		} else {
			r.logger.Debug("filtered query returned no rows, used full read", "table", table, "rows", len(res.Rows))
		}
		r.metrics.ObserveFallback(table, reason)
	}
	return res.Rows, nil
}

func (r *Reader) skipped(table string, err error) {
	reason := skipReason(err)
	r.metrics.ObserveSkippedRow(table, reason)
	r.logger.Debug("skipped store row", "table", table, "reason", reason)
}
