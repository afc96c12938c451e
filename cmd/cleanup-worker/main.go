package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/clinicdesk/appointment-booking/internal/booking"
	"github.com/clinicdesk/appointment-booking/internal/config"
	"github.com/clinicdesk/appointment-booking/internal/db"
	"github.com/clinicdesk/appointment-booking/internal/observability/metrics"
	"github.com/clinicdesk/appointment-booking/internal/redisclient"
	"github.com/clinicdesk/appointment-booking/internal/schedule"
)

// cleanup-worker purges old cancelled/completed appointment rows on a cron
// schedule. A Redis job lock keeps replicas from purging concurrently.
func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("cleanup-worker starting up")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	log.Printf("running cleanup worker in env=%s cron=%q retention=%s", cfg.Env, cfg.CleanupCron, cfg.CleanupAfter)

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

	rdb, err := redisclient.NewRedisClient(cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword, cfg.RedisPoolSize, cfg.RedisTimeout)
	if err != nil {
		log.Fatalf("redis connection error: %v", err)
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			log.Printf("error closing redis: %v", err)
		}
	}()
	log.Println("connected to Redis")

	m := metrics.New(nil)
	locker := redisclient.NewRedisJobLocker(rdb, cfg.JobLockTTL)

	svc := booking.NewService(booking.ServiceConfig{
		Repo:    booking.NewPgRepository(pgPool),
		Metrics: m,
		// Cleanup never books; it needs no resolver and no schedule reader
		// beyond cache invalidation, which the TTL handles for purged rows.
		Schedules: noopSchedules{},
	})

	run := func() {
		err := locker.WithJobLock(rootCtx, "appointment-cleanup", func(ctx context.Context) error {
			start := time.Now()
			n, err := svc.PurgeFinished(ctx, cfg.CleanupAfter)
			if err != nil {
				return err
			}
			log.Printf("cleanup run complete: purged=%d duration=%s", n, time.Since(start))
			return nil
		})
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			log.Println("cleanup already running elsewhere, skipping")
			return
		}
		if err != nil {
			log.Printf("cleanup run error: %v", err)
		}
	}

	// Run once at startup, then on the cron schedule.
	run()

	c := cron.New()
	if _, err := c.AddFunc(cfg.CleanupCron, run); err != nil {
		log.Fatalf("invalid cleanup cron %q: %v", cfg.CleanupCron, err)
	}
	c.Start()

	<-rootCtx.Done()
	log.Println("shutdown signal received, stopping cleanup worker")

	stopCtx := c.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(cfg.ShutdownTimeout):
		log.Println("timed out waiting for running job")
	}
}

type noopSchedules struct{}

func (noopSchedules) Settings(ctx context.Context, clinicID uuid.UUID) (*schedule.Settings, error) {
	return nil, errors.New("not supported by cleanup worker")
}

func (noopSchedules) InvalidateBookings(ctx context.Context, clinicID uuid.UUID, date time.Time) {}
