// Package service implements the account binder: it turns a verified
// provider identity into exactly one local account.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"casbinder/internal/binder/models"
	"casbinder/internal/binder/username"
	"casbinder/internal/platform/metrics"
	id "casbinder/pkg/domain"
	audit "casbinder/pkg/platform/audit"
)

// AccountStore is the slice of the account directory the binder needs.
type AccountStore interface {
	Create(ctx context.Context, a *models.Account) error
	Update(ctx context.Context, a *models.Account) error
	FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	FindByIDForUpdate(ctx context.Context, accountID id.AccountID) (*models.Account, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}

// LinkStore is the identity link repository.
type LinkStore interface {
	FindByUniversalID(ctx context.Context, universalID string) (*models.Link, error)
	FindByAccountForUpdate(ctx context.Context, accountID id.AccountID) (*models.Link, error)
	LockUniversalID(ctx context.Context, universalID string) error
	Create(ctx context.Context, l *models.Link) error
}

// Listener receives AuthenticatedEvent after a bind commits.
type Listener interface {
	OnAuthenticated(ctx context.Context, event models.AuthenticatedEvent) error
}

// AuditPublisher persists compliance events inside the bind transaction.
type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config is the binding policy, fixed at construction.
type Config struct {
	// CreateAccounts allows first-time universal ids to get a new account.
	CreateAccounts bool
	// SyncAttributes names provider attributes copied onto the account on
	// every login. Only email, first_name and last_name are honoured.
	SyncAttributes []string
	// UsernameTriesLimit bounds username allocation.
	UsernameTriesLimit int
}

// Binder resolves or creates the local account for a provider identity.
type Binder struct {
	accounts AccountStore
	links    LinkStore
	tx       Tx
	cfg      Config

	logger   *slog.Logger
	metrics  *metrics.Metrics
	listener Listener
	auditor  AuditPublisher
	tracer   trace.Tracer
}

type Option func(*Binder)

func WithLogger(logger *slog.Logger) Option {
	return func(b *Binder) {
		b.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(b *Binder) {
		b.metrics = m
	}
}

// WithListener sets the post-authentication listener.
func WithListener(l Listener) Option {
	return func(b *Binder) {
		b.listener = l
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(b *Binder) {
		b.auditor = p
	}
}

func WithTracer(t trace.Tracer) Option {
	return func(b *Binder) {
		b.tracer = t
	}
}

// New constructs a Binder. tx must cover both stores.
func New(accounts AccountStore, links LinkStore, tx Tx, cfg Config, opts ...Option) (*Binder, error) {
	if accounts == nil || links == nil {
		return nil, errors.New("account and link stores are required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	if cfg.UsernameTriesLimit == 0 {
		cfg.UsernameTriesLimit = username.DefaultMaxAttempts
	}
	b := &Binder{
		accounts: accounts,
		links:    links,
		tx:       tx,
		cfg:      cfg,
		logger:   slog.Default(),
		tracer:   otel.Tracer("casbinder/binder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Config returns the binding policy.
func (b *Binder) Config() Config {
	return b.cfg
}

func (b *Binder) emitAudit(ctx context.Context, action audit.AuditEvent, a *models.Account, universalID, reason string) error {
	if b.auditor == nil {
		return nil
	}
	return b.auditor.Emit(ctx, audit.Event{
		AccountID:   a.ID,
		Subject:     a.Username,
		UniversalID: universalID,
		Action:      string(action),
		Reason:      reason,
	})
}

func (b *Binder) notify(ctx context.Context, event models.AuthenticatedEvent) {
	if b.listener == nil {
		return
	}
	if err := b.listener.OnAuthenticated(ctx, event); err != nil {
		b.logger.WarnContext(ctx, "authenticated listener failed",
			"account_id", event.Account.ID,
			"error", err,
		)
	}
}

func (b *Binder) isTaken(ctx context.Context) username.IsTakenFunc {
	return func(candidate string) (bool, error) {
		return b.accounts.UsernameExists(ctx, candidate)
	}
}

func touch(a *models.Account, now time.Time) {
	a.UpdatedAt = now
}
