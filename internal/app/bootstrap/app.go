package bootstrap

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/GonzaloEspina/barbatero-landing/internal/api/router"
	"github.com/GonzaloEspina/barbatero-landing/internal/availability"
	"github.com/GonzaloEspina/barbatero-landing/internal/booking"
	appconfig "github.com/GonzaloEspina/barbatero-landing/internal/config"
	"github.com/GonzaloEspina/barbatero-landing/internal/http/handlers"
	httpmiddleware "github.com/GonzaloEspina/barbatero-landing/internal/http/middleware"
	"github.com/GonzaloEspina/barbatero-landing/internal/notify"
	"github.com/GonzaloEspina/barbatero-landing/internal/observability/metrics"
	"github.com/GonzaloEspina/barbatero-landing/internal/store"
	"github.com/GonzaloEspina/barbatero-landing/pkg/logging"
)

const defaultRequestTimeout = 30 * time.Second

// Deps carries optional collaborators built by the entrypoints.
type Deps struct {
	// Store replaces the HTTP store client. Used by tests.
	Store booking.Store
	Redis *redis.Client
	SES   notify.SESAPI
	// Registry defaults to a fresh registry with Go and process collectors.
	Registry *prometheus.Registry
}

// App is the assembled service graph.
type App struct {
	Handler      http.Handler
	Availability *availability.Service
	Booking      *booking.Service
	Cache        *availability.CachedSource
	Registry     *prometheus.Registry
}

// Build wires store, availability, booking, notify and HTTP layers from cfg.
func Build(cfg *appconfig.Config, deps Deps, logger *logging.Logger) *App {
	if logger == nil {
		logger = logging.Default()
	}
	reg := deps.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	m := metrics.NewAvailabilityMetrics(reg)

	var st booking.Store = deps.Store
	if st == nil {
		st = store.NewClient(store.Config{
			BaseURL:   cfg.StoreBaseURL,
			AppID:     cfg.StoreAppID,
			AccessKey: cfg.StoreAccessKey,
			Locale:    cfg.StoreLocale,
			Timeout:   cfg.StoreTimeout,
		}, logger)
	}
	loc := LoadLocation(cfg.ShopTimezone, logger)

	reader := availability.NewReader(st, availability.Tables{
		Schedule:     cfg.ScheduleTable,
		Blackouts:    cfg.BlackoutsTable,
		Appointments: cfg.AppointmentsTable,
	}, logger, m)
	schedule := availability.NewCachedSource(reader, deps.Redis, cfg.ScheduleCacheTTL, logger, m)
	availSvc := availability.NewService(schedule, reader, logger,
		availability.WithMaxRangeDays(cfg.MaxRangeDays),
		availability.WithMetrics(m),
	)

	notifier := notify.NewNotifier(BuildEmailSender(cfg, deps.SES, logger), cfg.EmailFromName, logger)
	bookingSvc := booking.NewService(st, booking.Tables{
		Clients:      cfg.ClientsTable,
		Services:     cfg.ServicesTable,
		Appointments: cfg.AppointmentsTable,
		Memberships:  cfg.MembershipsTable,
	}, availSvc, logger,
		booking.WithSlotHolds(booking.NewSlotHolds(deps.Redis, cfg.SlotHoldTTL, logger, m)),
		booking.WithNotifier(notifier),
		booking.WithLocation(loc),
		booking.WithMetrics(m),
	)

	var limiter *httpmiddleware.RateLimiter
	if cfg.WriteRatePerMinute > 0 {
		limiter = httpmiddleware.NewRateLimiter(cfg.WriteRatePerMinute, cfg.WriteRateBurst)
	}

	var handler http.Handler = router.New(&router.Config{
		Logger:             logger,
		Availability:       handlers.NewAvailabilityHandler(availSvc, logger),
		Booking:            handlers.NewBookingHandler(bookingSvc, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		WriteRateLimiter:   limiter,
		RequestTimeout:     defaultRequestTimeout,
	})
	handler = otelhttp.NewHandler(handler, "barbatero-api")

	app := &App{
		Handler:      handler,
		Availability: availSvc,
		Booking:      bookingSvc,
		Registry:     reg,
	}
	if cached, ok := schedule.(*availability.CachedSource); ok {
		app.Cache = cached
	}
	return app
}

// WarmCache loads the schedule once so the first request does not pay for it.
func (a *App) WarmCache(ctx context.Context, logger *logging.Logger) {
	if a == nil || a.Cache == nil {
		return
	}
	if logger == nil {
		logger = logging.Default()
	}
	if _, err := a.Cache.LoadWeeklySchedule(ctx); err != nil {
		logger.Warn("schedule cache warm-up failed", "error", err)
	}
}
