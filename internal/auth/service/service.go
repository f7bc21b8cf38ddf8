// Package service implements authentication: credential checks and access
// token issuance.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"enrollment_crm_backend/internal/auth/repository"
	"enrollment_crm_backend/internal/config"
	"enrollment_crm_backend/platform/apperr"
	"enrollment_crm_backend/platform/logger"
)

type Service struct {
	repo *repository.Repository
	cfg  *config.Config
	log  *logger.Logger
}

func New(repo *repository.Repository, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{repo: repo, cfg: cfg, log: log}
}

// LoginResult carries the issued token and the authenticated user.
type LoginResult struct {
	AccessToken string
	ExpiresAt   time.Time
	UserID      uuid.UUID
	Name        string
	Email       string
	Role        string
}

// Login verifies credentials and issues a signed access token. Invalid
// email and invalid password produce the same error so the endpoint does
// not leak which accounts exist.
func (s *Service) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.AuthEvent("login", email, false, "unknown email")
		return LoginResult{}, apperr.Unauthorized("invalid credentials")
	}
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.KindInternal, "storage failure", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.log.AuthEvent("login", email, false, "bad password")
		return LoginResult{}, apperr.Unauthorized("invalid credentials")
	}

	expiresAt := time.Now().Add(s.cfg.AccessTokenTTL)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  user.ID.String(),
		"role": user.Role,
		"type": "access",
		"iat":  time.Now().Unix(),
		"exp":  expiresAt.Unix(),
	})

	signed, err := token.SignedString([]byte(s.cfg.JWTAccessSecret))
	if err != nil {
		return LoginResult{}, apperr.Wrap(apperr.KindInternal, "failed to sign token", err)
	}

	s.log.AuthEvent("login", email, true, "")
	return LoginResult{
		AccessToken: signed,
		ExpiresAt:   expiresAt,
		UserID:      user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Role:        user.Role,
	}, nil
}

// Profile returns the account behind an authenticated request.
func (s *Service) Profile(ctx context.Context, userID uuid.UUID) (repository.User, error) {
	user, err := s.repo.GetByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.User{}, apperr.NotFound("user not found")
	}
	if err != nil {
		return repository.User{}, apperr.Wrap(apperr.KindInternal, "storage failure", err)
	}
	return user, nil
}
