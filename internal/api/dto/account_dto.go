package dto

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/spec-kit/wallboard-service/internal/domain"
	apperrors "github.com/spec-kit/wallboard-service/pkg/util"
)

// AccountResponse is the admin panel's view of an account.
type AccountResponse struct {
	ID          int64      `json:"id"`
	Username    string     `json:"username"`
	FullName    string     `json:"fullName"`
	Role        string     `json:"role"`
	TeamID      *int64     `json:"teamId"`
	TeamName    *string    `json:"teamName"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
	LastLoginAt *time.Time `json:"lastLoginAt"`
}

// NewAccountResponse maps a domain account.
func NewAccountResponse(a *domain.Account) AccountResponse {
	return AccountResponse{
		ID:          a.ID,
		Username:    a.Username,
		FullName:    a.FullName,
		Role:        string(a.Role),
		TeamID:      a.TeamID,
		TeamName:    a.TeamName,
		Status:      string(a.Status),
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
		LastLoginAt: a.LastLoginAt,
	}
}

// NewAccountResponses maps a listing.
func NewAccountResponses(accounts []domain.Account) []AccountResponse {
	out := make([]AccountResponse, 0, len(accounts))
	for i := range accounts {
		out = append(out, NewAccountResponse(&accounts[i]))
	}
	return out
}

// TeamIDInput accepts a team id as a JSON number, a numeric string, an empty
// string or null. The latter two clear the team. Malformed input is kept and
// reported when the request is converted.
type TeamIDInput struct {
	Present bool
	Null    bool
	Value   int64
	Invalid bool
}

func (t *TeamIDInput) UnmarshalJSON(data []byte) error {
	t.Present = true
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		t.Null = true
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Invalid = true
		return nil
	}
	switch v := raw.(type) {
	case float64:
		// float64(math.MaxInt64) rounds up to 2^63, which is itself out of range.
		if v < math.MinInt64 || v >= math.MaxInt64 || v != math.Trunc(v) {
			t.Invalid = true
			return nil
		}
		t.Value = int64(v)
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			t.Null = true
			return nil
		}
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			t.Invalid = true
			return nil
		}
		t.Value = n
	default:
		t.Invalid = true
	}
	return nil
}

func (t TeamIDInput) field() (domain.Field[int64], error) {
	switch {
	case !t.Present:
		return domain.Field[int64]{}, nil
	case t.Invalid:
		return domain.Field[int64]{}, apperrors.NewInvalidFormat("invalid teamId", nil)
	case t.Null:
		return domain.Null[int64](), nil
	}
	return domain.Set(t.Value), nil
}

// AccountCreateRequest payload for POST /api/users.
type AccountCreateRequest struct {
	Username string      `json:"username"`
	FullName string      `json:"fullName"`
	Role     string      `json:"role"`
	TeamID   TeamIDInput `json:"teamId"`
	Status   string      `json:"status"`
}

// ToDraft converts the request into an account draft.
func (r AccountCreateRequest) ToDraft() (domain.AccountDraft, error) {
	team, err := r.TeamID.field()
	if err != nil {
		return domain.AccountDraft{}, err
	}
	return domain.AccountDraft{
		Username: r.Username,
		FullName: r.FullName,
		Role:     domain.Role(r.Role),
		TeamID:   team.Ptr(),
		Status:   domain.AccountStatus(r.Status),
	}, nil
}

// AccountUpdateRequest payload for PUT /api/users/:id. Only keys present in
// the body are applied.
type AccountUpdateRequest struct {
	Username domain.Field[string] `json:"username"`
	FullName domain.Field[string] `json:"fullName"`
	Role     domain.Field[string] `json:"role"`
	TeamID   TeamIDInput          `json:"teamId"`
	Status   domain.Field[string] `json:"status"`
}

// ToPatch converts the request into an account patch.
func (r AccountUpdateRequest) ToPatch() (domain.AccountPatch, error) {
	team, err := r.TeamID.field()
	if err != nil {
		return domain.AccountPatch{}, err
	}
	return domain.AccountPatch{
		Username: r.Username,
		FullName: r.FullName,
		Role:     r.Role,
		TeamID:   team,
		Status:   r.Status,
	}, nil
}
