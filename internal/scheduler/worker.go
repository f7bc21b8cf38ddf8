package scheduler

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"

	"enrollment_crm_backend/internal/config"
	"enrollment_crm_backend/internal/leads/repository"
	"enrollment_crm_backend/internal/leads/service"
	"enrollment_crm_backend/platform/events"
	"enrollment_crm_backend/platform/logger"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	svc    *service.Service
	log    *logger.Logger
}

func NewWorker(cfg *config.Config, pool *pgxpool.Pool, bus events.Bus, log *logger.Logger) (*Worker, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(cfg.RedisURL)
	if err != nil {
		return nil, err
	}

	queue := cfg.AsynqQueue
	if queue == "" {
		queue = "default"
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: 10,
		Queues: map[string]int{
			queue: 1,
		},
	})

	mux := asynq.NewServeMux()
	w := &Worker{
		server: server,
		mux:    mux,
		svc:    service.New(repository.New(pool), bus, log, cfg.SLAWarningHours, cfg.ArchiveThresholdDays),
		log:    log,
	}

	mux.HandleFunc(TaskLeadsReconcile, w.handleLeadsReconcile)
	mux.HandleFunc(TaskDealsArchiveSweep, w.handleArchiveSweep)

	return w, nil
}

func (w *Worker) Run() error {
	return w.server.Run(w.mux)
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

func (w *Worker) handleLeadsReconcile(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseLeadsReconcilePayload(task)
	if err != nil {
		return err
	}

	actorID, err := uuid.Parse(payload.ActorID)
	if err != nil {
		return err
	}

	leadIDs := make([]uuid.UUID, 0, len(payload.LeadIDs))
	for _, raw := range payload.LeadIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			w.log.Error("reconcile task carries malformed lead id", "raw", raw)
			continue
		}
		leadIDs = append(leadIDs, id)
	}

	result, err := w.svc.Reconcile(ctx, leadIDs, actorID)
	if err != nil {
		return err
	}

	// Returning an error makes asynq retry the whole batch; a still-short
	// valid set is enough to trigger that.
	if len(result.ValidLeadIDs) < len(leadIDs) {
		return fmt.Errorf("reconcile left %d of %d leads inconsistent", len(leadIDs)-len(result.ValidLeadIDs), len(leadIDs))
	}

	w.log.Info("reconcile task complete", "leads", len(leadIDs), "inserted", result.Inserted, "repaired", result.Repaired)
	return nil
}

func (w *Worker) handleArchiveSweep(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseDealsArchiveSweepPayload(task)
	if err != nil {
		return err
	}

	result, err := w.svc.ArchiveStale(ctx)
	if err != nil {
		return err
	}

	w.log.Info("archive sweep complete", "triggered_by", payload.TriggeredBy, "scanned", result.Scanned, "archived", result.Archived)
	return nil
}
