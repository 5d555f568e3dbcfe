package httptransport

//go:generate mockgen -source=handlers_login.go -destination=mocks/login-mocks.go -package=mocks TicketVerifier,Binder

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	dErrors "casbinder/pkg/domain-errors"
	"casbinder/pkg/platform/httputil"
	"casbinder/pkg/requestcontext"
)

// TicketVerifier exchanges a CAS service ticket for the provider identity.
type TicketVerifier interface {
	LoginURL(service string) string
	LogoutURL(service string) string
	VerifyTicket(ctx context.Context, ticket, service string) (*models.VerifiedIdentity, error)
}

// Binder resolves the local account for a verified identity.
type Binder interface {
	Bind(ctx context.Context, req models.BindRequest) (*models.BindResult, error)
	GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error)
}

type LoginHandler struct {
	verifier TicketVerifier
	binder   Binder
	logger   *slog.Logger
}

func NewLoginHandler(verifier TicketVerifier, binder Binder, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{verifier: verifier, binder: binder, logger: logger}
}

// loginResponse is returned once a ticket has been bound to an account.
type loginResponse struct {
	AccountID              string `json:"account_id"`
	Username               string `json:"username"`
	Created                bool   `json:"created"`
	ProxyGrantingTicketIOU string `json:"pgt_iou,omitempty"`
	Next                   string `json:"next,omitempty"`
}

type meResponse struct {
	AccountID string `json:"account_id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// handleLogin redirects to the provider, or completes the login when the
// provider has sent the browser back with a ticket.
func (h *LoginHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	service := serviceURL(r)
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		http.Redirect(w, r, h.verifier.LoginURL(service), http.StatusFound)
		return
	}

	ctx := r.Context()
	identity, err := h.verifier.VerifyTicket(ctx, ticket, service)
	if err != nil {
		h.logger.WarnContext(ctx, "ticket verification failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		h.authenticationFailed(w)
		return
	}

	req := models.BindRequestFromIdentity(identity, models.Correlation{Ticket: ticket, Service: service})
	result, err := h.binder.Bind(ctx, req)
	if err != nil {
		if !dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			h.logger.ErrorContext(ctx, "bind failed",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
		}
		h.authenticationFailed(w)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, loginResponse{
		AccountID:              result.Account.ID.String(),
		Username:               result.Account.Username,
		Created:                result.Created,
		ProxyGrantingTicketIOU: result.ProxyGrantingTicketIOU,
		Next:                   r.URL.Query().Get("next"),
	})
}

func (h *LoginHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	next := r.URL.Query().Get("next")
	if next != "" {
		next = absoluteURL(r, next)
	}
	http.Redirect(w, r, h.verifier.LogoutURL(next), http.StatusFound)
}

// handleMe returns the account resolved by the token middleware.
func (h *LoginHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	account, err := h.binder.GetAccount(r.Context(), requestcontext.AccountID(r.Context()))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, meResponse{
		AccountID: account.ID.String(),
		Username:  account.Username,
		Email:     account.Email,
		FirstName: account.FirstName,
		LastName:  account.LastName,
	})
}

// authenticationFailed never tells the browser why.
func (h *LoginHandler) authenticationFailed(w http.ResponseWriter) {
	httputil.WriteJSON(w, http.StatusUnauthorized, map[string]string{"error": "authentication failed"})
}

// serviceURL rebuilds the callback URL the provider saw, without the ticket.
// Verification fails unless it matches byte for byte.
func serviceURL(r *http.Request) string {
	q := r.URL.Query()
	q.Del("ticket")
	u := url.URL{
		Scheme:   scheme(r),
		Host:     r.Host,
		Path:     r.URL.Path,
		RawQuery: q.Encode(),
	}
	return u.String()
}

func absoluteURL(r *http.Request, next string) string {
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() {
		return next
	}
	base := url.URL{Scheme: scheme(r), Host: r.Host}
	return base.ResolveReference(u).String()
}

func scheme(r *http.Request) string {
	if p := r.Header.Get("X-Forwarded-Proto"); p == "https" || p == "http" {
		return p
	}
	if r.TLS != nil {
		return "https"
	}
	return "http"
}
