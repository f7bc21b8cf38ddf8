package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"enrollment_crm_backend/internal/leads/service"
	"enrollment_crm_backend/internal/scheduler"
	"enrollment_crm_backend/platform/events"
	"enrollment_crm_backend/platform/httpkit"
	"enrollment_crm_backend/platform/logger"
	"enrollment_crm_backend/platform/validator"
)

type stubScheduler struct {
	sweeps []string
	err    error
}

func (s *stubScheduler) ScheduleReconcile(_ context.Context, _ scheduler.LeadsReconcilePayload, _ time.Duration) error {
	return s.err
}

func (s *stubScheduler) EnqueueArchiveSweep(_ context.Context, triggeredBy string) error {
	if s.err != nil {
		return s.err
	}
	s.sweeps = append(s.sweeps, triggeredBy)
	return nil
}

func adminRouter(tasks scheduler.TaskScheduler, userID uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := logger.New("development")
	svc := service.New(nil, events.NewInMemoryBus(log), log, 0, 0)
	h := New(svc, validator.New(), tasks)

	engine := gin.New()
	admin := engine.Group("/", func(c *gin.Context) {
		c.Set(httpkit.ContextUserIDKey, userID)
		c.Set(httpkit.ContextRoleKey, httpkit.RoleAdmin)
	})
	h.RegisterAdminRoutes(admin)
	return engine
}

func TestRunArchiveSweepEnqueuesWhenQueueConfigured(t *testing.T) {
	tasks := &stubScheduler{}
	admin := uuid.New()
	engine := adminRouter(tasks, admin)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/archive-sweep", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusAccepted)
	}
	if len(tasks.sweeps) != 1 || tasks.sweeps[0] != admin.String() {
		t.Errorf("enqueued sweeps = %v, want one attributed to %s", tasks.sweeps, admin)
	}
}

func TestRunArchiveSweepReportsEnqueueFailure(t *testing.T) {
	tasks := &stubScheduler{err: errors.New("queue unreachable")}
	engine := adminRouter(tasks, uuid.New())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/archive-sweep", nil)
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}
