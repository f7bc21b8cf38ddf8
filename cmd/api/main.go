package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"enrollment_crm_backend/internal/auth"
	"enrollment_crm_backend/internal/config"
	domainevents "enrollment_crm_backend/internal/events"
	apphttp "enrollment_crm_backend/internal/http"
	"enrollment_crm_backend/internal/http/router"
	"enrollment_crm_backend/internal/leads"
	"enrollment_crm_backend/internal/scheduler"
	"enrollment_crm_backend/platform/db"
	"enrollment_crm_backend/platform/events"
	"enrollment_crm_backend/platform/logger"
	"enrollment_crm_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg.DatabaseURL, cfg.MigrationsDir)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()
	log.Info("database connection established")

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	tasks, closeTasks := initTaskClient(cfg, log)
	if closeTasks != nil {
		defer closeTasks()
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	authModule := auth.NewModule(pool, val, cfg, log)
	leadsModule := leads.NewModule(pool, eventBus, val, cfg, log, tasks)

	// Deal inserts performed by other instances surface on the shared bus
	// through the database notify channel.
	go func() {
		if err := leadsModule.RunDealInsertListener(ctx, eventBus); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("deal insert listener stopped", "error", err)
		}
	}()

	// Log reconciliation-relevant events for audit trails
	eventBus.Subscribe(domainevents.DealInsertedName, events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		if e, ok := event.(domainevents.DealInserted); ok {
			log.Info("deal inserted", "deal_id", e.DealID, "lead_id", e.LeadID)
		}
		return nil
	}))

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   db.NewPoolAdapter(pool),
		EventBus: eventBus,
		Modules: []apphttp.Module{
			authModule,
			leadsModule,
		},
	}

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router.New(app),
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}

func initTaskClient(cfg *config.Config, log *logger.Logger) (scheduler.TaskScheduler, func()) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not configured; delayed reconciliation retries disabled")
		return nil, nil
	}

	client, err := scheduler.NewClient(cfg.RedisURL, cfg.AsynqQueue)
	if err != nil {
		log.Error("failed to initialize task client", "error", err)
		return nil, nil
	}

	return client, func() {
		_ = client.Close()
	}
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
