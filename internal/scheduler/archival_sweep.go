package scheduler

import (
	"context"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"enrollment_crm_backend/internal/leads/repository"
	"enrollment_crm_backend/internal/leads/service"
	"enrollment_crm_backend/platform/events"
	"enrollment_crm_backend/platform/logger"
)

const (
	defaultSweepInterval = 6 * time.Hour
	sweepStartupDelay    = 30 * time.Second
)

// ArchivalSweep periodically closes deals whose leads have gone stale. It
// runs once shortly after startup and then on an interval with jitter, so
// multiple instances do not fire in lockstep. Running it here, detached
// from any user session, means the sweep happens exactly once per interval
// regardless of how many agents are logged in.
type ArchivalSweep struct {
	svc      *service.Service
	log      *logger.Logger
	interval time.Duration
	jitter   time.Duration
}

func NewArchivalSweep(pool *pgxpool.Pool, bus events.Bus, log *logger.Logger, interval, jitter time.Duration, slaWarningHours, archiveThresholdDays int) *ArchivalSweep {
	if interval <= 0 {
		interval = defaultSweepInterval
	}

	return &ArchivalSweep{
		svc:      service.New(repository.New(pool), bus, log, slaWarningHours, archiveThresholdDays),
		log:      log,
		interval: interval,
		jitter:   jitter,
	}
}

// Run blocks until ctx is cancelled.
func (s *ArchivalSweep) Run(ctx context.Context) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(sweepStartupDelay):
	}

	s.sweep(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.nextInterval()):
			s.sweep(ctx)
		}
	}
}

func (s *ArchivalSweep) nextInterval() time.Duration {
	if s.jitter <= 0 {
		return s.interval
	}
	return s.interval + time.Duration(rand.Int63n(int64(s.jitter)))
}

func (s *ArchivalSweep) sweep(ctx context.Context) {
	start := time.Now()
	result, err := s.svc.ArchiveStale(ctx)
	if err != nil {
		s.log.Error("archival sweep failed", "error", err)
		return
	}
	s.log.SweepResult(result.Archived, result.Scanned, float64(time.Since(start).Milliseconds()))
}
