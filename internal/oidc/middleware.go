package oidc

import (
	"log/slog"
	"net/http"
	"strings"

	dErrors "casbinder/pkg/domain-errors"
	"casbinder/pkg/platform/httputil"
	"casbinder/pkg/requestcontext"
)

// TokenFromRequest reads the access_token query parameter, falling back to
// an Authorization bearer header.
func TokenFromRequest(r *http.Request) string {
	if t := r.URL.Query().Get("access_token"); t != "" {
		return t
	}
	const prefix = "Bearer "
	if h := r.Header.Get("Authorization"); len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// RequireToken authenticates the request's access token and stores the
// account id and claims on the request context.
func RequireToken(auth *Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := TokenFromRequest(r)
			if token == "" {
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication credentials were not provided"))
				return
			}
			account, claims, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
					w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				} else {
					logger.WarnContext(r.Context(), "token authentication failed", "error", err)
				}
				httputil.WriteError(w, err)
				return
			}
			ctx := requestcontext.WithAccountID(r.Context(), account.ID)
			ctx = WithClaims(ctx, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireScopeClaim rejects requests whose token claims lack claim set to true.
// Must run after RequireToken.
func RequireScopeClaim(claim string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, _ := ClaimsFromContext(r.Context())
			if !claims.Has(claim) {
				httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "Scope claim "+claim+" is missing"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
