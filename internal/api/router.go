package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

type RouterConfig struct {
	Schedules ScheduleService
	Bookings  BookingService
	PgPool    *pgxpool.Pool
	Redis     *redis.Client
	Gatherer  prometheus.Gatherer
	Env       string
	Version   string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	gatherer := cfg.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Route("/clinics/{clinicID}", func(r chi.Router) {
		r.Get("/slots", listSlotsHandler(cfg.Schedules))

		r.Post("/appointments", bookAppointmentHandler(cfg.Bookings))
		r.Get("/appointments", listAppointmentsHandler(cfg.Bookings))
		r.Post("/appointments/{id}/cancel", transitionAppointmentHandler(cfg.Bookings.Cancel))
		r.Post("/appointments/{id}/complete", transitionAppointmentHandler(cfg.Bookings.Complete))
		r.Post("/appointments/{id}/reschedule", rescheduleAppointmentHandler(cfg.Bookings))

		r.Get("/settings", getSettingsHandler(cfg.Schedules))
		r.Put("/settings", putSettingsHandler(cfg.Schedules))

		r.Get("/disabled-slots", listDisabledSlotsHandler(cfg.Schedules))
		r.Post("/disabled-slots", addDisabledSlotHandler(cfg.Schedules))
		r.Delete("/disabled-slots/{id}", removeDisabledSlotHandler(cfg.Schedules))
	})

	return r
}
