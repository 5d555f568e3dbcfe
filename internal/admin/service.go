// Package admin gates administrative identity operations behind superuser
// privilege.
package admin

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	dErrors "casbinder/pkg/domain-errors"
	audit "casbinder/pkg/platform/audit"
	"casbinder/pkg/requestcontext"
)

// Action names an administrative operation offered to a principal.
type Action string

const (
	ActionListAccounts   Action = "list_accounts"
	ActionEnableCASLogin Action = "enable_cas_login"
	ActionExportUsers    Action = "export_users"
	ActionAssignIDs      Action = "assign_universal_ids"
	ActionCreateAccount  Action = "create_account"
)

// ErrPrivilegeViolation is returned when a non-superuser attempts a gated
// action. Nothing has been read from the provider or written when it is returned.
var ErrPrivilegeViolation = errors.New("privilege violation")

type BulkAssigner interface {
	AssignAll(ctx context.Context, mapping map[string]string) (*models.AssignReport, error)
	ResolveThenAssign(ctx context.Context, accountIDs []id.AccountID) (*models.AssignReport, error)
}

type AccountCreator interface {
	CreateAccount(ctx context.Context, username, email, universalID string) (*models.Account, error)
}

type AccountStore interface {
	FindByIDs(ctx context.Context, ids []id.AccountID) ([]*models.Account, error)
	List(ctx context.Context) ([]*models.Account, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs administrative actions on behalf of a principal.
type Service struct {
	assigner BulkAssigner
	creator  AccountCreator
	accounts AccountStore

	logger  *slog.Logger
	auditor AuditPublisher
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(s *Service) {
		s.auditor = p
	}
}

func New(assigner BulkAssigner, creator AccountCreator, accounts AccountStore, opts ...Option) (*Service, error) {
	if assigner == nil {
		return nil, errors.New("bulk assigner is required")
	}
	if creator == nil {
		return nil, errors.New("account creator is required")
	}
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	s := &Service{
		assigner: assigner,
		creator:  creator,
		accounts: accounts,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AvailableActions lists the actions p may run. Gated actions are hidden
// from non-superusers.
func (s *Service) AvailableActions(p models.Principal) []Action {
	actions := []Action{ActionListAccounts}
	if p.IsSuperuser {
		actions = append(actions, ActionEnableCASLogin, ActionExportUsers, ActionAssignIDs, ActionCreateAccount)
	}
	return actions
}

// ListAccounts is open to every administrator.
func (s *Service) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	accounts, err := s.accounts.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list accounts")
	}
	return accounts, nil
}

// EnableCASLogin looks up the universal ids of the selected accounts and
// links them. A *bulk.BatchError means nothing was assigned.
func (s *Service) EnableCASLogin(ctx context.Context, p models.Principal, accountIDs []id.AccountID) (*models.AssignReport, error) {
	if err := s.require(ctx, p, ActionEnableCASLogin); err != nil {
		return nil, err
	}
	if len(accountIDs) == 0 {
		return nil, dErrors.New(dErrors.CodeBadRequest, "no accounts selected")
	}
	ctx = asActor(ctx, p)
	report, err := s.assigner.ResolveThenAssign(ctx, accountIDs)
	if err != nil {
		return report, err
	}
	s.record(ctx, p, ActionEnableCASLogin, fmt.Sprintf("%d accounts processed", len(report.Rows)))
	return report, nil
}

// AssignUniversalIDs applies an email to universal id mapping.
func (s *Service) AssignUniversalIDs(ctx context.Context, p models.Principal, mapping map[string]string) (*models.AssignReport, error) {
	if err := s.require(ctx, p, ActionAssignIDs); err != nil {
		return nil, err
	}
	return s.assigner.AssignAll(asActor(ctx, p), mapping)
}

// CreateAccount provisions an account linked to universalID.
func (s *Service) CreateAccount(ctx context.Context, p models.Principal, username, email, universalID string) (*models.Account, error) {
	if err := s.require(ctx, p, ActionCreateAccount); err != nil {
		return nil, err
	}
	return s.creator.CreateAccount(asActor(ctx, p), username, email, universalID)
}

// ExportUsers writes email,username,password_hash rows for the selected
// accounts, or for every account when none are selected.
func (s *Service) ExportUsers(ctx context.Context, p models.Principal, accountIDs []id.AccountID, w io.Writer) error {
	if err := s.require(ctx, p, ActionExportUsers); err != nil {
		return err
	}

	var (
		accounts []*models.Account
		err      error
	)
	if len(accountIDs) == 0 {
		accounts, err = s.accounts.List(ctx)
	} else {
		accounts, err = s.accounts.FindByIDs(ctx, accountIDs)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load accounts")
	}

	cw := csv.NewWriter(w)
	for _, a := range accounts {
		if err := cw.Write([]string{a.Email, a.Username, a.PasswordHash}); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	s.record(ctx, p, ActionExportUsers, fmt.Sprintf("%d accounts exported", len(accounts)))
	return nil
}

func (s *Service) require(ctx context.Context, p models.Principal, action Action) error {
	if p.IsSuperuser {
		return nil
	}
	s.logger.WarnContext(ctx, "privileged action refused",
		"action", action,
		"subject", p.Subject,
		"request_id", requestcontext.RequestID(ctx),
	)
	if s.auditor != nil {
		if err := s.auditor.Emit(ctx, audit.Event{
			ActorID: p.Subject,
			Subject: p.Username,
			Action:  string(audit.EventPrivilegeRefused),
			Reason:  string(action),
		}); err != nil {
			s.logger.ErrorContext(ctx, "failed to record refused action", "error", err)
		}
	}
	return dErrors.Wrap(ErrPrivilegeViolation, dErrors.CodeForbidden,
		fmt.Sprintf("%s attempted by a non-superuser", action))
}

func (s *Service) record(ctx context.Context, p models.Principal, action Action, reason string) {
	if s.auditor == nil {
		return
	}
	event := audit.Event{ActorID: p.Subject, Subject: p.Username, Reason: reason}
	switch action {
	case ActionEnableCASLogin:
		event.Action = string(audit.EventCASLoginEnabled)
	case ActionExportUsers:
		event.Action = string(audit.EventUsersExported)
	default:
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to record admin action", "action", action, "error", err)
	}
}

func asActor(ctx context.Context, p models.Principal) context.Context {
	return requestcontext.WithPrincipal(ctx, requestcontext.AdminPrincipal{
		Subject:     p.Subject,
		Username:    p.Username,
		IsSuperuser: p.IsSuperuser,
	})
}
