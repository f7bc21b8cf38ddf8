// Package auth provides the authentication module.
package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"

	"enrollment_crm_backend/internal/auth/handler"
	"enrollment_crm_backend/internal/auth/repository"
	"enrollment_crm_backend/internal/auth/service"
	"enrollment_crm_backend/internal/config"
	apphttp "enrollment_crm_backend/internal/http"
	"enrollment_crm_backend/platform/logger"
	"enrollment_crm_backend/platform/validator"
)

type Module struct {
	handler *handler.Handler
}

func NewModule(pool *pgxpool.Pool, val *validator.Validator, cfg *config.Config, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)
	return &Module{handler: handler.New(svc, val)}
}

func (m *Module) Name() string {
	return "auth"
}

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1, ctx.AuthRateLimiter)
	m.handler.RegisterProtectedRoutes(ctx.Protected)
}
