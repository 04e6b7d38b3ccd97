package middleware

import (
	"context"

	"github.com/harborline/stockgate/internal/domain"
)

type contextKey string

const (
	// ContextKeySession carries the validated *domain.Session for the request.
	ContextKeySession contextKey = "session"
)

// SessionFromContext returns the validated session the auth gate attached.
func SessionFromContext(ctx context.Context) (*domain.Session, bool) {
	v, ok := ctx.Value(ContextKeySession).(*domain.Session)
	return v, ok
}
