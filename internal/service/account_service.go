package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spec-kit/wallboard-service/internal/auth"
	"github.com/spec-kit/wallboard-service/internal/domain"
	"github.com/spec-kit/wallboard-service/internal/events"
	"github.com/spec-kit/wallboard-service/internal/observability"
	"github.com/spec-kit/wallboard-service/internal/repository"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

const minFullNameLength = 2

// AccountService owns the account lifecycle: create, partial update, soft
// delete and reads. Storage constraints are the final arbiter of uniqueness and
// team references; the checks here only produce friendlier errors first.
type AccountService struct {
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
	logger     *zap.Logger
	metrics    *observability.Metrics
}

// AccountDependencies encapsulates collaborators of the account service.
type AccountDependencies struct {
	Accounts   repository.AccountRepository
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
	Metrics    *observability.Metrics
}

// NewAccountService constructs the service.
func NewAccountService(deps AccountDependencies) *AccountService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountService{
		accounts:   deps.Accounts,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		metrics:    deps.Metrics,
	}
}

// CreateAccount validates the draft and inserts a new Active account unless a
// status is given. An empty role is derived from the username prefix.
func (s *AccountService) CreateAccount(ctx context.Context, draft domain.AccountDraft) (*domain.Account, error) {
	normalized, err := normalizeDraft(draft)
	if err != nil {
		return nil, err
	}

	exists, err := s.accounts.UsernameExists(ctx, normalized.Username)
	if err != nil {
		return nil, fmt.Errorf("check username %s: %w", normalized.Username, err)
	}
	if exists {
		return nil, duplicateUsername(normalized.Username, nil)
	}

	if err := domain.CheckRoleTeam(normalized.Role, normalized.TeamID); err != nil {
		return nil, err
	}

	account, err := s.accounts.Insert(ctx, normalized)
	if err != nil {
		return nil, s.storageError("insert", err, normalized.Username, normalized.TeamID)
	}

	s.logger.Info("account created",
		zap.Int64("account_id", account.ID),
		zap.String("username", account.Username),
		zap.String("role", string(account.Role)))
	s.metrics.RecordAccountMutation("create")
	s.publish(ctx, events.EventAccountCreated, account.Username, events.AccountCreatedPayload{
		AccountID: account.ID,
		Username:  account.Username,
		Role:      account.Role,
		TeamID:    account.TeamID,
		Status:    account.Status,
	})
	return account, nil
}

// UpdateAccount applies the present fields of patch. The username is
// write-once; a null teamId clears the team. Role and team are validated
// against their effective values after the patch.
func (s *AccountService) UpdateAccount(ctx context.Context, id int64, patch domain.AccountPatch) (*domain.Account, error) {
	existing, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load account %d: %w", id, err)
	}
	if existing == nil {
		return nil, accountNotFound(id)
	}

	if patch.Username.Present {
		if patch.Username.Null || strings.TrimSpace(patch.Username.Value) != existing.Username {
			return nil, apperrors.NewImmutableField("username")
		}
	}

	changes, err := normalizePatch(existing, patch)
	if err != nil {
		return nil, err
	}
	if len(changes) == 0 {
		return nil, apperrors.NewInvalidFormat("no fields provided to update", nil)
	}

	_, roleChanged := changes[domain.FieldRole]
	_, teamChanged := changes[domain.FieldTeamID]
	if roleChanged || teamChanged {
		effective := changes.Apply(existing)
		if err := domain.CheckRoleTeam(effective.Role, effective.TeamID); err != nil {
			return nil, err
		}
	}

	updated, err := s.accounts.ApplyPartialUpdate(ctx, id, changes)
	if err != nil {
		var teamID *int64
		if v, ok := changes[domain.FieldTeamID]; ok {
			teamID = v.(*int64)
		}
		return nil, s.storageError("update", err, existing.Username, teamID)
	}
	if err := verifyPersisted(changes, updated); err != nil {
		s.logger.Error("account update not persisted", zap.Int64("account_id", id), zap.Error(err))
		return nil, apperrors.NewInternalError(err)
	}

	fields := changes.FieldNames()
	s.logger.Info("account updated",
		zap.Int64("account_id", id),
		zap.String("username", updated.Username),
		zap.Strings("fields", fields))
	s.metrics.RecordAccountMutation("update")
	s.publish(ctx, events.EventAccountUpdated, updated.Username, events.AccountUpdatedPayload{
		AccountID: id,
		Username:  updated.Username,
		Fields:    fields,
	})
	return updated, nil
}

// DeleteAccount soft-deletes a live account. Deleting twice yields NOT_FOUND.
func (s *AccountService) DeleteAccount(ctx context.Context, id int64) error {
	existing, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("load account %d: %w", id, err)
	}
	if existing == nil {
		return accountNotFound(id)
	}

	if err := s.accounts.SoftDelete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return accountNotFound(id)
		}
		return fmt.Errorf("delete account %d: %w", id, err)
	}

	s.logger.Info("account deleted", zap.Int64("account_id", id), zap.String("username", existing.Username))
	s.metrics.RecordAccountMutation("delete")
	s.publish(ctx, events.EventAccountDeleted, existing.Username, events.AccountDeletedPayload{
		AccountID: id,
		Username:  existing.Username,
	})
	return nil
}

// GetAccount returns a live account.
func (s *AccountService) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := s.accounts.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load account %d: %w", id, err)
	}
	if account == nil {
		return nil, accountNotFound(id)
	}
	return account, nil
}

// ListAccounts returns live accounts, newest first.
func (s *AccountService) ListAccounts(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	accounts, err := s.accounts.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func normalizeDraft(draft domain.AccountDraft) (domain.AccountDraft, error) {
	out := domain.AccountDraft{
		Username: strings.TrimSpace(draft.Username),
		TeamID:   draft.TeamID,
	}

	if _, err := domain.ParseUsername(out.Username); err != nil {
		return out, err
	}

	fullName, err := normalizeFullName(draft.FullName)
	if err != nil {
		return out, err
	}
	out.FullName = fullName

	if raw := strings.TrimSpace(string(draft.Role)); raw == "" {
		role, err := domain.RoleFromUsername(out.Username)
		if err != nil {
			return out, err
		}
		out.Role = role
	} else {
		role, err := domain.ParseRole(raw)
		if err != nil {
			return out, err
		}
		if err := domain.CheckRolePrefix(role, out.Username); err != nil {
			return out, err
		}
		out.Role = role
	}

	if raw := strings.TrimSpace(string(draft.Status)); raw == "" {
		out.Status = domain.AccountStatusActive
	} else {
		status, err := domain.ParseAccountStatus(raw)
		if err != nil {
			return out, err
		}
		out.Status = status
	}

	if err := checkTeamID(out.TeamID); err != nil {
		return out, err
	}
	return out, nil
}

func normalizePatch(existing *domain.Account, patch domain.AccountPatch) (domain.AccountChanges, error) {
	changes := domain.AccountChanges{}

	if patch.FullName.Present {
		if patch.FullName.Null {
			return nil, apperrors.NewInvalidFormat("fullName cannot be null", nil)
		}
		fullName, err := normalizeFullName(patch.FullName.Value)
		if err != nil {
			return nil, err
		}
		changes[domain.FieldFullName] = fullName
	}

	if patch.Role.Present {
		if patch.Role.Null {
			return nil, apperrors.NewInvalidFormat("role cannot be null", nil)
		}
		role, err := domain.ParseRole(patch.Role.Value)
		if err != nil {
			return nil, err
		}
		if err := domain.CheckRolePrefix(role, existing.Username); err != nil {
			return nil, err
		}
		changes[domain.FieldRole] = role
	}

	if patch.TeamID.Present {
		teamID := patch.TeamID.Ptr()
		if err := checkTeamID(teamID); err != nil {
			return nil, err
		}
		changes[domain.FieldTeamID] = teamID
	}

	if patch.Status.Present {
		if patch.Status.Null {
			return nil, apperrors.NewInvalidFormat("status cannot be null", nil)
		}
		status, err := domain.ParseAccountStatus(patch.Status.Value)
		if err != nil {
			return nil, err
		}
		changes[domain.FieldStatus] = status
	}

	return changes, nil
}

func normalizeFullName(raw string) (string, error) {
	fullName := strings.TrimSpace(raw)
	if utf8.RuneCountInString(fullName) < minFullNameLength {
		return "", apperrors.NewInvalidFormat(
			fmt.Sprintf("fullName must be at least %d characters", minFullNameLength), nil)
	}
	return fullName, nil
}

func checkTeamID(teamID *int64) error {
	if teamID != nil && *teamID <= 0 {
		return apperrors.NewInvalidFormat("teamId must be a positive integer",
			map[string]any{"team_id": *teamID})
	}
	return nil
}

// verifyPersisted guards against a gateway that accepted the update but
// returned a row without the validated values.
func verifyPersisted(changes domain.AccountChanges, persisted *domain.Account) error {
	if persisted == nil {
		return errors.New("gateway returned no row")
	}
	for field, value := range changes {
		var ok bool
		switch field {
		case domain.FieldFullName:
			ok = persisted.FullName == value.(string)
		case domain.FieldRole:
			ok = persisted.Role == value.(domain.Role)
		case domain.FieldStatus:
			ok = persisted.Status == value.(domain.AccountStatus)
		case domain.FieldTeamID:
			want := value.(*int64)
			ok = (want == nil && persisted.TeamID == nil) ||
				(want != nil && persisted.TeamID != nil && *want == *persisted.TeamID)
		}
		if !ok {
			return fmt.Errorf("field %s was not persisted", field)
		}
	}
	return nil
}

func (s *AccountService) storageError(op string, err error, username string, teamID *int64) error {
	switch {
	case errors.Is(err, repository.ErrAccountNotFound):
		return apperrors.NewNotFound("account", map[string]any{"username": username})
	case repository.IsConstraint(err, repository.ConstraintUnique):
		return duplicateUsername(username, err)
	case repository.IsConstraint(err, repository.ConstraintForeignKey):
		var id int64
		if teamID != nil {
			id = *teamID
		}
		return apperrors.NewInvalidTeam(id, err)
	}
	s.logger.Error("account storage failure", zap.String("op", op), zap.String("username", username), zap.Error(err))
	return fmt.Errorf("%s account %s: %w", op, username, err)
}

func (s *AccountService) publish(ctx context.Context, eventType events.EventType, subject string, payload any) {
	if s.dispatcher == nil {
		return
	}
	event := events.NewEvent(eventType, subject, actorFromContext(ctx), payload)
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handlers failed", zap.String("event_type", string(eventType)), zap.Error(err))
	}
}

func actorFromContext(ctx context.Context) events.Actor {
	account, ok := auth.AccountFromContext(ctx)
	if !ok {
		return events.Actor{}
	}
	id := account.ID
	return events.Actor{AccountID: &id, Username: account.Username}
}

func accountNotFound(id int64) error {
	return apperrors.NewNotFound("account", map[string]any{"id": id})
}

func duplicateUsername(username string, cause error) error {
	err := apperrors.NewDuplicate("username already exists", map[string]any{"username": username})
	if cause != nil {
		var de *apperrors.DomainError
		if errors.As(err, &de) {
			de.Err = cause
		}
	}
	return err
}
