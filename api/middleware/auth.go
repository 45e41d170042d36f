package middleware

import (
	"net/http"

	"github.com/tiendaya/marketplace-backend/api/responses"
	"github.com/tiendaya/marketplace-backend/api/validators"
	pkgAuth "github.com/tiendaya/marketplace-backend/pkg/auth"
	"github.com/tiendaya/marketplace-backend/pkg/config"
	pkgerrors "github.com/tiendaya/marketplace-backend/pkg/errors"
	"github.com/tiendaya/marketplace-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// caller's principal.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := validators.BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			principal := claims.Principal()
			if principal.IsSystem() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "token has no subject"))
				return
			}

			ctx := WithPrincipal(r.Context(), principal)
			if logg != nil {
				ctx = logg.WithUserID(ctx, principal.UserID.String())
				ctx = logg.WithActorRole(ctx, principal.Role.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
