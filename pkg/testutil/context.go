package testutil

import (
	"context"
	"net/http"

	id "casbinder/pkg/domain"
	"casbinder/pkg/requestcontext"
)

// WithAccountID attaches an account ID the way the token middleware would.
// Invalid IDs are ignored.
func WithAccountID(req *http.Request, accountID string) *http.Request {
	parsed, err := id.ParseAccountID(accountID)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithAccountID(req.Context(), parsed))
}

// WithAdmin attaches an admin principal as RequireAdminToken would.
func WithAdmin(req *http.Request, username string, superuser bool) *http.Request {
	p := requestcontext.AdminPrincipal{Subject: username, Username: username, IsSuperuser: superuser}
	return req.WithContext(requestcontext.WithPrincipal(req.Context(), p))
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}
