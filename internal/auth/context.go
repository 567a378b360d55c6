package auth

import (
	"context"

	"github.com/spec-kit/wallboard-service/internal/domain"
)

type accountCtxKey struct{}

// WithAccount returns a context carrying the authenticated account.
func WithAccount(ctx context.Context, account *domain.Account) context.Context {
	return context.WithValue(ctx, accountCtxKey{}, account)
}

// AccountFromContext returns the authenticated account, if any.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	account, ok := ctx.Value(accountCtxKey{}).(*domain.Account)
	return account, ok && account != nil
}
