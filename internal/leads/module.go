// Package leads provides the lead/deal/waiting-list bounded context module.
package leads

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"enrollment_crm_backend/internal/config"
	domainevents "enrollment_crm_backend/internal/events"
	apphttp "enrollment_crm_backend/internal/http"
	"enrollment_crm_backend/internal/leads/handler"
	"enrollment_crm_backend/internal/leads/repository"
	"enrollment_crm_backend/internal/leads/service"
	"enrollment_crm_backend/internal/scheduler"
	"enrollment_crm_backend/platform/events"
	"enrollment_crm_backend/platform/logger"
	"enrollment_crm_backend/platform/validator"
)

// reconcileRetryDelay is how long after a bulk import the follow-up
// verification pass runs. Long enough for transient storage failures to
// clear, short enough that inconsistent leads do not linger.
const reconcileRetryDelay = 5 * time.Minute

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	listener *repository.DealInsertListener
	log      *logger.Logger
}

// NewModule creates and initializes the leads module with all its
// dependencies. The tasks client may be nil when no queue is configured;
// delayed reconciliation retries are then skipped.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg *config.Config, log *logger.Logger, tasks scheduler.TaskScheduler) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log, cfg.SLAWarningHours, cfg.ArchiveThresholdDays)

	// Every bulk import gets a delayed follow-up reconciliation. The
	// import already reconciles inline; the retry catches leads whose
	// writes failed mid-batch.
	eventBus.Subscribe(domainevents.LeadBatchImportedName, events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(domainevents.LeadBatchImported)
		if !ok || tasks == nil || len(e.LeadIDs) == 0 {
			return nil
		}

		payload := scheduler.LeadsReconcilePayload{ActorID: e.ActorID.String()}
		for _, id := range e.LeadIDs {
			payload.LeadIDs = append(payload.LeadIDs, id.String())
		}

		if err := tasks.ScheduleReconcile(ctx, payload, reconcileRetryDelay); err != nil {
			log.Error("failed to schedule reconcile retry", "leads", len(e.LeadIDs), "error", err)
		}
		return nil
	}))

	return &Module{
		handler:  handler.New(svc, val, tasks),
		service:  svc,
		listener: repository.NewDealInsertListener(pool, log),
		log:      log,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// RegisterRoutes mounts the module's routes.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.Protected)
	m.handler.RegisterAdminRoutes(ctx.Admin)
}

// Service exposes the business operations for other composition roots
// (the scheduler binary reuses them).
func (m *Module) Service() *service.Service {
	return m.service
}

// RunDealInsertListener tails the database insert channel and republishes
// each notification on the event bus, so concurrently created deals become
// visible to in-process consumers without polling. Blocks until ctx is
// cancelled.
func (m *Module) RunDealInsertListener(ctx context.Context, bus events.Bus) error {
	return m.listener.Run(ctx, func(dealID, leadID uuid.UUID) {
		bus.Publish(ctx, domainevents.DealInserted{
			BaseEvent: events.NewBaseEvent(),
			DealID:    dealID,
			LeadID:    leadID,
		})
	})
}
