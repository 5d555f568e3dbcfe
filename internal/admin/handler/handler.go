// Package handler exposes administrative actions over HTTP.
package handler

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"casbinder/internal/admin"
	"casbinder/internal/binder/bulk"
	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	dErrors "casbinder/pkg/domain-errors"
	"casbinder/pkg/platform/httputil"
	"casbinder/pkg/requestcontext"
)

// Service is the admin surface the handler drives.
type Service interface {
	AvailableActions(p models.Principal) []admin.Action
	ListAccounts(ctx context.Context) ([]*models.Account, error)
	EnableCASLogin(ctx context.Context, p models.Principal, accountIDs []id.AccountID) (*models.AssignReport, error)
	AssignUniversalIDs(ctx context.Context, p models.Principal, mapping map[string]string) (*models.AssignReport, error)
	CreateAccount(ctx context.Context, p models.Principal, username, email, universalID string) (*models.Account, error)
	ExportUsers(ctx context.Context, p models.Principal, accountIDs []id.AccountID, w io.Writer) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the admin routes. Authentication middleware must already
// be on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/actions", h.handleActions)
	r.Get("/accounts", h.handleListAccounts)
	r.Post("/accounts", h.handleCreateAccount)
	r.Post("/accounts/enable-cas-login", h.handleEnableCASLogin)
	r.Post("/accounts/assign", h.handleAssign)
	r.Post("/accounts/export", h.handleExport)
}

type selectionRequest struct {
	AccountIDs []id.AccountID `json:"account_ids"`
}

type assignRequest struct {
	Mapping map[string]string `json:"mapping"`
}

type createAccountRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	UniversalID string `json:"universal_id"`
}

func principal(r *http.Request) models.Principal {
	p, _ := requestcontext.Principal(r.Context())
	return models.Principal{Subject: p.Subject, Username: p.Username, IsSuperuser: p.IsSuperuser}
}

func (h *Handler) handleActions(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, admin.ActionsResponse{Actions: h.service.AvailableActions(principal(r))})
}

func (h *Handler) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.service.ListAccounts(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, admin.ToAccountsListResponse(accounts))
}

func (h *Handler) handleCreateAccount(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[createAccountRequest](r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	account, err := h.service.CreateAccount(r.Context(), principal(r), req.Username, req.Email, req.UniversalID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, admin.ToAccountResponse(account))
}

func (h *Handler) handleEnableCASLogin(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[selectionRequest](r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	report, err := h.service.EnableCASLogin(r.Context(), principal(r), req.AccountIDs)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleAssign(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[assignRequest](r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	report, err := h.service.AssignUniversalIDs(r.Context(), principal(r), req.Mapping)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeJSON[selectionRequest](r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	// Buffered so a failure can still produce a JSON error.
	var buf bytes.Buffer
	if err := h.service.ExportUsers(r.Context(), principal(r), req.AccountIDs, &buf); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="users.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()
	var batch *bulk.BatchError
	if errors.As(err, &batch) {
		h.logger.WarnContext(ctx, "universal id lookup reported errors",
			"count", len(batch.Messages),
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteJSON(w, http.StatusBadGateway, admin.BatchErrorResponse{
			Error:    string(dErrors.CodeUpstream),
			Messages: batch.Messages,
		})
		return
	}
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		h.logger.ErrorContext(ctx, "admin request failed",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
	}
	httputil.WriteError(w, err)
}
