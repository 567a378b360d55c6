package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/wallboard-service/internal/domain"
)

// AccountRepository defines persistence access for accounts. Soft-deleted rows
// are invisible to every method.
type AccountRepository interface {
	FindAll(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error)
	// FindByID returns nil, nil when no live account has the id.
	FindByID(ctx context.Context, id int64) (*domain.Account, error)
	// FindByUsername returns nil, nil when no live account has the username.
	FindByUsername(ctx context.Context, username string) (*domain.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, draft domain.AccountDraft) (*domain.Account, error)
	ApplyPartialUpdate(ctx context.Context, id int64, changes domain.AccountChanges) (*domain.Account, error)
	SoftDelete(ctx context.Context, id int64) error
	RecordLogin(ctx context.Context, id int64) error
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

const accountColumns = `
        a.id, a.username, a.full_name, a.role, a.team_id, t.name, a.status,
        a.created_at, a.updated_at, a.last_login_at, a.deleted_at`

// mutableColumns fixes both the column names and the SET clause order.
var mutableColumns = []struct {
	field  domain.AccountField
	column string
}{
	{domain.FieldFullName, "full_name"},
	{domain.FieldRole, "role"},
	{domain.FieldTeamID, "team_id"},
	{domain.FieldStatus, "status"},
}

func (r *accountRepository) FindAll(ctx context.Context, filter domain.AccountFilter) ([]domain.Account, error) {
	query := `SELECT` + accountColumns + `
        FROM accounts a LEFT JOIN teams t ON t.id = a.team_id`
	args := []any{}
	clauses := []string{"a.deleted_at IS NULL"}

	if filter.Role != nil {
		args = append(args, string(*filter.Role))
		clauses = append(clauses, fmt.Sprintf("a.role=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		clauses = append(clauses, fmt.Sprintf("a.status=$%d", len(args)))
	}
	if filter.TeamID != nil {
		args = append(args, *filter.TeamID)
		clauses = append(clauses, fmt.Sprintf("a.team_id=$%d", len(args)))
	}
	query += " WHERE " + strings.Join(clauses, " AND ")
	query += " ORDER BY a.created_at DESC, a.id DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	result := []domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *account)
	}
	return result, rows.Err()
}

func (r *accountRepository) FindByID(ctx context.Context, id int64) (*domain.Account, error) {
	const query = `SELECT` + accountColumns + `
        FROM accounts a LEFT JOIN teams t ON t.id = a.team_id
        WHERE a.id=$1 AND a.deleted_at IS NULL`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

func (r *accountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	const query = `SELECT` + accountColumns + `
        FROM accounts a LEFT JOIN teams t ON t.id = a.team_id
        WHERE a.username=$1 AND a.deleted_at IS NULL`

	account, err := scanAccount(r.pool.QueryRow(ctx, query, username))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return account, err
}

func (r *accountRepository) UsernameExists(ctx context.Context, username string) (bool, error) {
	const query = `
        SELECT EXISTS (SELECT 1 FROM accounts WHERE username=$1 AND deleted_at IS NULL)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, username).Scan(&exists); err != nil {
		return false, fmt.Errorf("check username %s: %w", username, err)
	}
	return exists, nil
}

func (r *accountRepository) Insert(ctx context.Context, draft domain.AccountDraft) (*domain.Account, error) {
	status := draft.Status
	if status == "" {
		status = domain.AccountStatusActive
	}

	const query = `
        WITH a AS (
            INSERT INTO accounts (username, full_name, role, team_id, status)
            VALUES ($1, $2, $3, $4, $5)
            RETURNING *
        )
        SELECT` + accountColumns + `
        FROM a LEFT JOIN teams t ON t.id = a.team_id`

	account, err := scanAccount(r.pool.QueryRow(ctx, query,
		draft.Username,
		draft.FullName,
		string(draft.Role),
		draft.TeamID,
		string(status),
	))
	if err != nil {
		return nil, classifyPgError(err)
	}
	return account, nil
}

// ApplyPartialUpdate builds the SET clause from the fixed column list; field
// names never come from the caller.
func (r *accountRepository) ApplyPartialUpdate(ctx context.Context, id int64, changes domain.AccountChanges) (*domain.Account, error) {
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}

	for _, col := range mutableColumns {
		value, ok := changes[col.field]
		if !ok {
			continue
		}
		args = append(args, columnValue(value))
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", col.column, len(args)))
	}
	if len(args) != len(changes) {
		return nil, fmt.Errorf("update account %d: unsupported field in changes", id)
	}

	args = append(args, id)
	query := fmt.Sprintf(`
        WITH a AS (
            UPDATE accounts SET %s
            WHERE id = $%d AND deleted_at IS NULL
            RETURNING *
        )
        SELECT`+accountColumns+`
        FROM a LEFT JOIN teams t ON t.id = a.team_id`,
		strings.Join(setClauses, ", "), len(args))

	account, err := scanAccount(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, classifyPgError(err)
	}
	return account, nil
}

func (r *accountRepository) SoftDelete(ctx context.Context, id int64) error {
	const query = `
        UPDATE accounts
        SET status='Inactive', deleted_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("soft delete account %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) RecordLogin(ctx context.Context, id int64) error {
	const query = `
        UPDATE accounts SET last_login_at=NOW(), updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL`

	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("record login %d: %w", id, err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func columnValue(value any) any {
	switch v := value.(type) {
	case domain.Role:
		return string(v)
	case domain.AccountStatus:
		return string(v)
	default:
		return v
	}
}

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var (
		account domain.Account
		role    string
		status  string
	)
	if err := row.Scan(
		&account.ID,
		&account.Username,
		&account.FullName,
		&role,
		&account.TeamID,
		&account.TeamName,
		&status,
		&account.CreatedAt,
		&account.UpdatedAt,
		&account.LastLoginAt,
		&account.DeletedAt,
	); err != nil {
		return nil, err
	}
	account.Role = domain.Role(role)
	account.Status = domain.AccountStatus(status)
	return &account, nil
}
