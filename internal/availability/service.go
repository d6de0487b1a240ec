package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/internal/observability/metrics"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

var availabilityTracer = otel.Tracer("barbatero.internal.availability")

// ErrRangeTooLarge is returned when a range spans more days than allowed.
var ErrRangeTooLarge = errors.New("availability: date range too large")

// AppointmentSource loads the appointments booked on a set of days.
type AppointmentSource interface {
	LoadAppointments(ctx context.Context, days []calendar.Date) ([]Appointment, error)
}

// Service answers day and range availability queries.
type Service struct {
	schedule     ScheduleSource
	appointments AppointmentSource
	maxRangeDays int
	logger       *logging.Logger
	metrics      *metrics.AvailabilityMetrics
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithMaxRangeDays caps the number of days a range query may span. Zero or
// negative disables the cap.
func WithMaxRangeDays(n int) ServiceOption {
	return func(s *Service) { s.maxRangeDays = n }
}

// WithMetrics attaches Prometheus observers.
func WithMetrics(m *metrics.AvailabilityMetrics) ServiceOption {
	return func(s *Service) { s.metrics = m }
}

// NewService wires a Service. The schedule source is usually a Reader,
// optionally wrapped in a CachedSource.
func NewService(schedule ScheduleSource, appointments AppointmentSource, logger *logging.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		schedule:     schedule,
		appointments: appointments,
		logger:       logger.Component("availability.service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RangeAvailability returns one DayAvailability per day in [start, end],
// ascending. An inverted range yields an empty slice without touching the
// store.
func (s *Service) RangeAvailability(ctx context.Context, start, end calendar.Date) ([]DayAvailability, error) {
	if end.Before(start) {
		return []DayAvailability{}, nil
	}
	// Checked before enumerating so a huge range costs nothing.
	if span := start.DaysUntil(end) + 1; s.maxRangeDays > 0 && span > s.maxRangeDays {
		return nil, fmt.Errorf("%w: %d days requested, limit is %d", ErrRangeTooLarge, span, s.maxRangeDays)
	}
	days := calendar.Range(start, end)

	ctx, span := availabilityTracer.Start(ctx, "availability.range", trace.WithAttributes(
		attribute.String("availability.start", start.ISO()),
		attribute.String("availability.end", end.ISO()),
		attribute.Int("availability.days", len(days)),
	))
	defer span.End()

	return s.compute(ctx, "range", days)
}

// DayAvailability computes a single date.
func (s *Service) DayAvailability(ctx context.Context, date calendar.Date) (DayAvailability, error) {
	ctx, span := availabilityTracer.Start(ctx, "availability.day", trace.WithAttributes(
		attribute.String("availability.date", date.ISO()),
	))
	defer span.End()

	out, err := s.compute(ctx, "day", []calendar.Date{date})
	if err != nil {
		return DayAvailability{}, err
	}
	return out[0], nil
}

func (s *Service) compute(ctx context.Context, scope string, days []calendar.Date) ([]DayAvailability, error) {
	started := time.Now()

	var (
		schedule     WeeklySchedule
		blackouts    []Blackout
		appointments []Appointment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		schedule, err = s.schedule.LoadWeeklySchedule(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		blackouts, err = s.schedule.LoadBlackouts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		appointments, err = s.appointments.LoadAppointments(gctx, days)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Error("availability load failed", "scope", scope, "days", len(days), "error", err)
		return nil, err
	}

	byDay := groupByDay(appointments)
	out := make([]DayAvailability, 0, len(days))
	for _, d := range days {
		out = append(out, Compute(d, schedule, blackouts, byDay[d.ISO()]))
	}

	s.metrics.ObserveCompute(scope, time.Since(started).Seconds())
	s.logger.Debug("availability computed",
		"scope", scope,
		"days", len(days),
		"blackouts", len(blackouts),
		"appointments", len(appointments),
	)
	return out, nil
}

// groupByDay buckets appointments by resolved ISO date. Rows whose date does
// not parse were already dropped by the reader; any left are ignored here.
func groupByDay(appointments []Appointment) map[string][]Appointment {
	byDay := make(map[string][]Appointment)
	for _, appt := range appointments {
		d, ok := appt.Date()
		if !ok {
			continue
		}
		byDay[d.ISO()] = append(byDay[d.ISO()], appt)
	}
	return byDay
}
