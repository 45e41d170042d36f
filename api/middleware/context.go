package middleware

import (
	"context"

	"github.com/tiendaya/marketplace-backend/pkg/auth"
	pkgerrors "github.com/tiendaya/marketplace-backend/pkg/errors"
)

type contextKey string

const ctxPrincipal contextKey = "principal"

// PrincipalFromContext returns the caller set by Auth.
func PrincipalFromContext(ctx context.Context) (auth.Principal, bool) {
	if ctx == nil {
		return auth.Principal{}, false
	}
	p, ok := ctx.Value(ctxPrincipal).(auth.Principal)
	return p, ok
}

// UserIDFromContext returns the caller's id as a string, or "".
func UserIDFromContext(ctx context.Context) string {
	p, ok := PrincipalFromContext(ctx)
	if !ok {
		return ""
	}
	return p.UserID.String()
}

// WithPrincipal injects the verified caller into the context.
func WithPrincipal(ctx context.Context, p auth.Principal) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxPrincipal, p)
}

// RequirePrincipal is PrincipalFromContext for handlers that sit behind
// Auth. It yields CodeUnauthorized when the caller is missing.
func RequirePrincipal(ctx context.Context) (auth.Principal, error) {
	p, ok := PrincipalFromContext(ctx)
	if !ok || p.IsSystem() {
		return auth.Principal{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return p, nil
}
