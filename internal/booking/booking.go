// Package booking implements the write-side collaborators around the
// availability core: client lookup and registration, the service catalog,
// appointment creation, cancellation and confirmation, and membership
// reservations. All rows live in the external store.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/GonzaloEspina/barbatero-landing/internal/availability"
	"github.com/GonzaloEspina/barbatero-landing/internal/calendar"
	"github.com/GonzaloEspina/barbatero-landing/internal/notify"
	"github.com/GonzaloEspina/barbatero-landing/internal/observability/metrics"
	"github.com/GonzaloEspina/barbatero-landing/internal/store"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

var bookingTracer = otel.Tracer("barbatero.internal.booking")

var (
	ErrInvalidRequest      = errors.New("booking: invalid request")
	ErrClientNotFound      = errors.New("booking: client not found")
	ErrClientExists        = errors.New("booking: client already registered")
	ErrAppointmentNotFound = errors.New("booking: appointment not found")
	ErrSlotUnavailable     = errors.New("booking: slot not available")
	ErrSlotHeld            = errors.New("booking: slot is being booked by another request")
	ErrStoreUnavailable    = errors.New("booking: store unavailable")
)

// Appointment statuses written to the store.
const (
	StatusPending   = "Pendiente"
	StatusCancelled = "Cancelado"
	StatusConfirmed = "Confirmado"
	StatusReserved  = "Reservada"
)

// Store is the read/write surface of the external store used here.
type Store interface {
	store.Querier
	store.Writer
}

// AvailabilityChecker answers whether a date still has open slots.
type AvailabilityChecker interface {
	DayAvailability(ctx context.Context, date calendar.Date) (availability.DayAvailability, error)
}

// ConfirmationSender delivers appointment confirmations.
type ConfirmationSender interface {
	AppointmentConfirmed(ctx context.Context, c notify.Confirmation) error
}

// Tables names the store tables written by this package.
type Tables struct {
	Clients      string
	Services     string
	Appointments string
	Memberships  string
}

// Service implements the booking operations.
type Service struct {
	store        Store
	tables       Tables
	availability AvailabilityChecker
	holds        *SlotHolds
	notifier     ConfirmationSender
	apptCols     availability.Columns
	loc          *time.Location
	now          func() time.Time
	newID        func() string
	logger       *logging.Logger
	metrics      *metrics.AvailabilityMetrics
}

// Option customizes a Service.
type Option func(*Service)

// WithSlotHolds enables short-lived slot reservations in Redis.
func WithSlotHolds(h *SlotHolds) Option { return func(s *Service) { s.holds = h } }

// WithNotifier sets the confirmation sender.
func WithNotifier(n ConfirmationSender) Option { return func(s *Service) { s.notifier = n } }

// WithLocation sets the shop time zone used to decide what "today" is.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithIDGenerator overrides row id generation.
func WithIDGenerator(gen func() string) Option { return func(s *Service) { s.newID = gen } }

// WithMetrics attaches Prometheus observers.
func WithMetrics(m *metrics.AvailabilityMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

func NewService(st Store, tables Tables, avail AvailabilityChecker, logger *logging.Logger, opts ...Option) *Service {
	if st == nil {
		panic("booking: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		store:        st,
		tables:       tables,
		availability: avail,
		apptCols:     availability.DefaultColumns(),
		loc:          time.UTC,
		now:          time.Now,
		newID:        newRowID,
		logger:       logger.Component("booking"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) today() calendar.Date {
	return calendar.FromTime(s.now().In(s.loc))
}

// find runs the find-then-full-read policy against table.
func (s *Service) find(ctx context.Context, table, filter string) ([]store.Row, error) {
	res, err := store.FindWithFallback(ctx, s.store, table, filter)
	if err != nil {
		s.logger.Error("store read failed", "table", table, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if res.Fallback {
		reason := "empty"
		if res.QueryErr != nil {
			reason = "error"
		}
		s.metrics.ObserveFallback(table, reason)
	}
	return res.Rows, nil
}

func (s *Service) add(ctx context.Context, table string, row store.Row) error {
	if _, err := s.store.AddRows(ctx, table, []store.Row{row}); err != nil {
		s.logger.Error("store write failed", "table", table, "error", err)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Service) edit(ctx context.Context, table string, row store.Row) error {
	if _, err := s.store.EditRows(ctx, table, []store.Row{row}); err != nil {
		s.logger.Error("store edit failed", "table", table, "error", err)
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}
