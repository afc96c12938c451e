package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/clinicdesk/appointment-booking/internal/api"
	"github.com/clinicdesk/appointment-booking/internal/booking"
	"github.com/clinicdesk/appointment-booking/internal/cache"
	"github.com/clinicdesk/appointment-booking/internal/config"
	"github.com/clinicdesk/appointment-booking/internal/db"
	"github.com/clinicdesk/appointment-booking/internal/observability/metrics"
	"github.com/clinicdesk/appointment-booking/internal/patient"
	"github.com/clinicdesk/appointment-booking/internal/redisclient"
	"github.com/clinicdesk/appointment-booking/internal/schedule"
)

const version = "1.2.0"

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("api-server starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running in env=%s http_port=%s", cfg.Env, cfg.HTTPPort)

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, cfg.PgMaxConns, cfg.PgMinConns)
	cancelPg()
	if err != nil {
		log.Fatalf("postgres connection error: %v", err)
	}
	defer pgPool.Close()
	log.Println("connected to Postgres")

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	// Redis is an accelerator, not a dependency: without it reads fall
	// through to Postgres.
	var readCache cache.Cache
	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize, cfg.RedisTimeout)
	if err != nil {
		log.Printf("redis unavailable, running without read cache: %v", err)
		readCache = cache.NewPassThrough(cfg.ReadRetries, cfg.RetryBackoff)
	} else {
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Printf("error closing redis: %v", err)
			}
		}()
		log.Println("connected to Redis")

		rc := cache.NewRedis(rdb, cfg.ReadRetries, cfg.RetryBackoff)
		rc.OnLookup = m.ObserveCacheLookup
		readCache = rc
	}

	scheduleRepo := schedule.NewPgRepository(pgPool)
	bookingRepo := booking.NewPgRepository(pgPool)
	patientRepo := patient.NewPgRepository(pgPool)

	scheduleSvc := schedule.NewService(schedule.ServiceConfig{
		Settings:        scheduleRepo,
		Disabled:        scheduleRepo,
		Ledger:          bookingRepo,
		Cache:           readCache,
		Metrics:         m,
		SettingsTTL:     cfg.SettingsTTL,
		DisabledTTL:     cfg.DisabledTTL,
		AppointmentsTTL: cfg.AppointmentsTTL,
	})

	bookingSvc := booking.NewService(booking.ServiceConfig{
		Repo:      bookingRepo,
		Resolver:  patient.NewResolver(patientRepo),
		Schedules: scheduleSvc,
		Metrics:   m,
	})

	router := api.NewRouter(api.RouterConfig{
		Schedules: scheduleSvc,
		Bookings:  bookingSvc,
		PgPool:    pgPool,
		Redis:     rdb,
		Gatherer:  registry,
		Env:       cfg.Env,
		Version:   version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on :%s", cfg.HTTPPort)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-rootCtx.Done():
		log.Println("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("graceful shutdown error: %v", err)
	}

	log.Println("api-server stopped")
}
