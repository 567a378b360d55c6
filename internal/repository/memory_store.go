package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spec-kit/wallboard-service/internal/domain"
)

// MemoryStore is an in-process account and team store. It enforces the same
// username uniqueness and team foreign key as the Postgres schema, and is used
// when no database is configured and as a test double.
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]*domain.Account
	teams    map[int64]domain.Team
	now      func() time.Time
}

var (
	_ AccountRepository = (*MemoryStore)(nil)
	_ TeamRepository    = (*MemoryStore)(nil)
)

// NewMemoryStore seeds the store with the given teams.
func NewMemoryStore(teams ...domain.Team) *MemoryStore {
	s := &MemoryStore{
		accounts: make(map[int64]*domain.Account),
		teams:    make(map[int64]domain.Team),
		now:      time.Now,
	}
	for _, team := range teams {
		s.teams[team.ID] = team
	}
	return s
}

// WithClock replaces the time source, for tests.
func (s *MemoryStore) WithClock(now func() time.Time) *MemoryStore {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
	return s
}

// AddTeam registers a team.
func (s *MemoryStore) AddTeam(team domain.Team) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.teams[team.ID] = team
}

// Raw returns the stored row including soft-deleted ones, for assertions.
func (s *MemoryStore) Raw(id int64) (*domain.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	return account.Clone(), ok
}

func (s *MemoryStore) FindAll(_ context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := []domain.Account{}
	for _, account := range s.accounts {
		if account.IsDeleted() {
			continue
		}
		if filter.Role != nil && account.Role != *filter.Role {
			continue
		}
		if filter.Status != nil && account.Status != *filter.Status {
			continue
		}
		if filter.TeamID != nil && (account.TeamID == nil || *account.TeamID != *filter.TeamID) {
			continue
		}
		result = append(result, *s.view(account))
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (s *MemoryStore) FindByID(_ context.Context, id int64) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[id]
	if !ok || account.IsDeleted() {
		return nil, nil
	}
	return s.view(account), nil
}

func (s *MemoryStore) FindByUsername(_ context.Context, username string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if account := s.liveByUsername(username); account != nil {
		return s.view(account), nil
	}
	return nil, nil
}

func (s *MemoryStore) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.liveByUsername(username) != nil, nil
}

func (s *MemoryStore) Insert(_ context.Context, draft domain.AccountDraft) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.liveByUsername(draft.Username) != nil {
		return nil, &ConstraintError{Kind: ConstraintUnique, Constraint: "accounts_username_live_key"}
	}
	if err := s.checkTeam(draft.TeamID); err != nil {
		return nil, err
	}

	status := draft.Status
	if status == "" {
		status = domain.AccountStatusActive
	}
	s.nextID++
	now := s.now()
	account := &domain.Account{
		ID:        s.nextID,
		Username:  draft.Username,
		FullName:  draft.FullName,
		Role:      draft.Role,
		TeamID:    draft.TeamID,
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[account.ID] = account.Clone()
	return s.view(account), nil
}

func (s *MemoryStore) ApplyPartialUpdate(_ context.Context, id int64, changes domain.AccountChanges) (*domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok || account.IsDeleted() {
		return nil, ErrAccountNotFound
	}
	for field, value := range changes {
		switch field {
		case domain.FieldFullName, domain.FieldRole, domain.FieldStatus:
		case domain.FieldTeamID:
			if err := s.checkTeam(value.(*int64)); err != nil {
				return nil, err
			}
		default:
			return nil, fmt.Errorf("update account %d: unsupported field %q", id, field)
		}
	}

	updated := changes.Apply(account)
	updated.UpdatedAt = s.now()
	s.accounts[id] = updated
	return s.view(updated), nil
}

func (s *MemoryStore) SoftDelete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok || account.IsDeleted() {
		return ErrAccountNotFound
	}
	now := s.now()
	account.Status = domain.AccountStatusInactive
	account.DeletedAt = &now
	account.UpdatedAt = now
	return nil
}

func (s *MemoryStore) RecordLogin(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[id]
	if !ok || account.IsDeleted() {
		return ErrAccountNotFound
	}
	now := s.now()
	account.LastLoginAt = &now
	account.UpdatedAt = now
	return nil
}

// List implements TeamRepository.
func (s *MemoryStore) List(_ context.Context) ([]domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Team, 0, len(s.teams))
	for _, team := range s.teams {
		result = append(result, team)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// GetByID implements TeamRepository.
func (s *MemoryStore) GetByID(_ context.Context, id int64) (*domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	team, ok := s.teams[id]
	if !ok {
		return nil, ErrTeamNotFound
	}
	return &team, nil
}

func (s *MemoryStore) liveByUsername(username string) *domain.Account {
	for _, account := range s.accounts {
		if !account.IsDeleted() && account.Username == username {
			return account
		}
	}
	return nil
}

func (s *MemoryStore) checkTeam(teamID *int64) error {
	if teamID == nil {
		return nil
	}
	if _, ok := s.teams[*teamID]; !ok {
		return &ConstraintError{Kind: ConstraintForeignKey, Constraint: "accounts_team_id_fkey"}
	}
	return nil
}

// view must be called with the lock held.
func (s *MemoryStore) view(account *domain.Account) *domain.Account {
	out := account.Clone()
	out.TeamName = nil
	if out.TeamID != nil {
		if team, ok := s.teams[*out.TeamID]; ok {
			name := team.Name
			out.TeamName = &name
		}
	}
	return out
}
