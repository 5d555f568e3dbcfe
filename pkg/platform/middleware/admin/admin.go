// Package admin authenticates callers of the admin API.
package admin

import (
	"log/slog"
	"net/http"
	"strings"

	jwttoken "casbinder/internal/jwt_token"
	dErrors "casbinder/pkg/domain-errors"
	"casbinder/pkg/platform/httputil"
	"casbinder/pkg/requestcontext"
)

// TokenValidator validates admin bearer tokens.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwttoken.AdminClaims, error)
}

// RequireAdminToken validates the bearer token and stores the principal on
// the request context. Privilege checks happen in the admin service.
func RequireAdminToken(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "admin request without token",
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}
			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "admin token rejected",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				httputil.WriteError(w, err)
				return
			}
			ctx = requestcontext.WithPrincipal(ctx, requestcontext.AdminPrincipal{
				Subject:     claims.Subject,
				Username:    claims.Username,
				IsSuperuser: claims.Superuser,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
