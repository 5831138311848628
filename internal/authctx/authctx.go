// Package authctx carries the authenticated user through the request context
// as a typed value.
package authctx

import (
	"context"

	"github.com/procura-app/procura/internal/domain"
)

type ctxKey struct{}

func WithUser(ctx context.Context, u *domain.User) context.Context {
	return context.WithValue(ctx, ctxKey{}, u)
}

func UserFromContext(ctx context.Context) (*domain.User, bool) {
	u, ok := ctx.Value(ctxKey{}).(*domain.User)
	return u, ok
}
