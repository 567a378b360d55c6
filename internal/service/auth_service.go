package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spec-kit/wallboard-service/internal/auth"
	"github.com/spec-kit/wallboard-service/internal/config"
	"github.com/spec-kit/wallboard-service/internal/domain"
	"github.com/spec-kit/wallboard-service/internal/events"
	"github.com/spec-kit/wallboard-service/internal/repository"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// AuthService signs accounts in by their wallboard code. There is no password:
// possession of a live, active code is the credential.
type AuthService struct {
	accounts   repository.AccountRepository
	tokenMgr   *auth.TokenManager
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// AuthDependencies encapsulates collaborators of the auth service.
type AuthDependencies struct {
	Accounts   repository.AccountRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		accounts:   deps.Accounts,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		dispatcher: deps.Dispatcher,
		logger:     logger,
	}
}

// Login resolves code to a live account, stamps lastLoginAt and issues a token.
func (s *AuthService) Login(ctx context.Context, code string) (*domain.Session, error) {
	username := strings.ToUpper(strings.TrimSpace(code))
	if username == "" {
		return nil, apperrors.NewInvalidFormat("agent code, supervisor code, or username is required", nil)
	}

	account, err := s.accounts.FindByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("find account %s: %w", username, err)
	}
	if account == nil {
		s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "unknown"))
		return nil, apperrors.NewUnauthorized("invalid username")
	}
	if account.Status != domain.AccountStatusActive {
		s.logger.Info("login rejected", zap.String("username", username), zap.String("reason", "inactive"))
		return nil, apperrors.NewAccountInactive()
	}

	if err := s.accounts.RecordLogin(ctx, account.ID); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, apperrors.NewUnauthorized("invalid username")
		}
		return nil, fmt.Errorf("record login %s: %w", username, err)
	}
	if refreshed, err := s.accounts.FindByID(ctx, account.ID); err == nil && refreshed != nil {
		account = refreshed
	}

	token, exp, err := s.tokenMgr.GenerateToken(account)
	if err != nil {
		return nil, apperrors.NewInternalError(fmt.Errorf("sign token: %w", err))
	}

	s.logger.Info("login succeeded", zap.Int64("account_id", account.ID), zap.String("username", account.Username))
	if s.dispatcher != nil {
		id := account.ID
		event := events.NewEvent(events.EventAccountLoggedIn, account.Username,
			events.Actor{AccountID: &id, Username: account.Username},
			events.AccountLoggedInPayload{AccountID: account.ID, Username: account.Username, Role: account.Role})
		if err := s.dispatcher.Publish(ctx, event); err != nil {
			s.logger.Warn("event handlers failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		}
	}

	return &domain.Session{Account: account, Token: token, ExpiresAt: exp}, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
