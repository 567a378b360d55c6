package domain

import (
	"sort"
	"time"
)

// Account is the identity record for an agent, supervisor or admin.
type Account struct {
	ID          int64
	Username    string
	FullName    string
	Role        Role
	TeamID      *int64
	TeamName    *string
	Status      AccountStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	LastLoginAt *time.Time
	DeletedAt   *time.Time
}

// IsDeleted reports whether the account has been soft-deleted.
func (a *Account) IsDeleted() bool {
	return a.DeletedAt != nil
}

// Clone returns a deep copy so callers can mutate pointer fields safely.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	out.TeamID = cloneInt64(a.TeamID)
	if a.TeamName != nil {
		name := *a.TeamName
		out.TeamName = &name
	}
	out.LastLoginAt = cloneTime(a.LastLoginAt)
	out.DeletedAt = cloneTime(a.DeletedAt)
	return &out
}

// AccountDraft carries the fields of an account about to be inserted.
// An empty Role means "derive from the username prefix".
type AccountDraft struct {
	Username string
	FullName string
	Role     Role
	TeamID   *int64
	Status   AccountStatus
}

// AccountFilter narrows account listings. Nil fields are ignored.
type AccountFilter struct {
	Role   *Role
	Status *AccountStatus
	TeamID *int64
}

// AccountField names a mutable account column. The set is closed.
type AccountField string

const (
	FieldFullName AccountField = "fullName"
	FieldRole     AccountField = "role"
	FieldTeamID   AccountField = "teamId"
	FieldStatus   AccountField = "status"
)

// AccountChanges maps mutable fields to their new values. A FieldTeamID entry
// holds a *int64 where nil clears the team.
type AccountChanges map[AccountField]any

// Apply copies the changes onto a clone of a and returns it.
func (c AccountChanges) Apply(a *Account) *Account {
	out := a.Clone()
	for field, value := range c {
		switch field {
		case FieldFullName:
			out.FullName = value.(string)
		case FieldRole:
			out.Role = value.(Role)
		case FieldTeamID:
			out.TeamID = cloneInt64(value.(*int64))
			if out.TeamID == nil {
				out.TeamName = nil
			}
		case FieldStatus:
			out.Status = value.(AccountStatus)
		}
	}
	return out
}

// FieldNames returns the changed field names in sorted order.
func (c AccountChanges) FieldNames() []string {
	names := make([]string, 0, len(c))
	for field := range c {
		names = append(names, string(field))
	}
	sort.Strings(names)
	return names
}

// AccountPatch is a partial update request. Absent fields are left unchanged;
// a null TeamID clears the team.
type AccountPatch struct {
	Username Field[string]
	FullName Field[string]
	Role     Field[string]
	TeamID   Field[int64]
	Status   Field[string]
}

func cloneInt64(v *int64) *int64 {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	out := *v
	return &out
}
