// Package bulk assigns universal ids to existing accounts in batches,
// correlating by email.
package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"casbinder/internal/binder/models"
	"casbinder/internal/platform/logger"
	"casbinder/internal/platform/metrics"
	id "casbinder/pkg/domain"
	dErrors "casbinder/pkg/domain-errors"
	audit "casbinder/pkg/platform/audit"
	"casbinder/pkg/platform/sentinel"
	strutil "casbinder/pkg/platform/strings"
	"casbinder/pkg/requestcontext"
)

type AccountStore interface {
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	FindByIDs(ctx context.Context, ids []id.AccountID) ([]*models.Account, error)
}

type LinkStore interface {
	FindByAccountForUpdate(ctx context.Context, accountID id.AccountID) (*models.Link, error)
	Upsert(ctx context.Context, accountID id.AccountID, universalID string, now time.Time) (*models.Link, bool, error)
}

// UniversalIDFetcher resolves emails to universal ids in one provider call.
// Per-row provider failures come back as *BatchError.
type UniversalIDFetcher interface {
	Fetch(ctx context.Context, emails []string) (map[string]string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Tx interface {
	RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error
}

// Assigner writes identity links for existing accounts. Every row is its own
// transaction; the first failing row stops the run.
type Assigner struct {
	accounts AccountStore
	links    LinkStore
	fetcher  UniversalIDFetcher
	tx       Tx

	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor AuditPublisher
	tracer  trace.Tracer
}

type Option func(*Assigner)

func WithLogger(logger *slog.Logger) Option {
	return func(a *Assigner) {
		a.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Assigner) {
		a.metrics = m
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(a *Assigner) {
		a.auditor = p
	}
}

// WithFetcher enables ResolveThenAssign.
func WithFetcher(f UniversalIDFetcher) Option {
	return func(a *Assigner) {
		a.fetcher = f
	}
}

func New(accounts AccountStore, links LinkStore, tx Tx, opts ...Option) (*Assigner, error) {
	if accounts == nil {
		return nil, errors.New("account store is required")
	}
	if links == nil {
		return nil, errors.New("link store is required")
	}
	if tx == nil {
		return nil, errors.New("transaction runner is required")
	}
	a := &Assigner{
		accounts: accounts,
		links:    links,
		tx:       tx,
		logger:   slog.Default(),
		tracer:   otel.Tracer("casbinder/bulk"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// AssignAll links the account owning each email to its universal id.
// Emails are processed in sorted order. Unknown emails are reported as
// skipped and are not an error.
func (a *Assigner) AssignAll(ctx context.Context, mapping map[string]string) (report *models.AssignReport, err error) {
	ctx, span := a.tracer.Start(ctx, "bulk.AssignAll", trace.WithAttributes(attribute.Int("bulk.rows", len(mapping))))
	defer func() { endSpan(span, err) }()

	emails := make([]string, 0, len(mapping))
	for email := range mapping {
		emails = append(emails, email)
	}
	sort.Strings(emails)

	report = &models.AssignReport{}
	for _, email := range emails {
		row := models.AssignRow{Email: email, UniversalID: mapping[email]}
		err := a.tx.RunInTx(ctx, func(txCtx context.Context) error {
			account, err := a.accounts.FindByEmail(txCtx, email)
			if errors.Is(err, sentinel.ErrNotFound) {
				row.Outcome = models.RowSkipped
				return nil
			}
			if err != nil {
				return err
			}
			row.AccountID = account.ID
			row.Outcome, err = a.assign(txCtx, account, row.UniversalID)
			return err
		})
		if err != nil {
			return a.fail(ctx, report, row, err)
		}
		a.record(ctx, report, row)
	}
	a.logger.InfoContext(ctx, "bulk assignment finished",
		"rows", len(report.Rows),
		"created", report.Count(models.RowCreated),
		"updated", report.Count(models.RowUpdated),
		"skipped", report.Count(models.RowSkipped),
	)
	return report, nil
}

// ResolveThenAssign looks up the universal ids of the given accounts with a
// single provider call and links each account. Nothing is assigned unless
// the provider resolves every email.
func (a *Assigner) ResolveThenAssign(ctx context.Context, accountIDs []id.AccountID) (report *models.AssignReport, err error) {
	ctx, span := a.tracer.Start(ctx, "bulk.ResolveThenAssign", trace.WithAttributes(attribute.Int("bulk.accounts", len(accountIDs))))
	defer func() { endSpan(span, err) }()

	if a.fetcher == nil {
		return nil, errors.New("universal id fetcher is not configured")
	}
	accounts, err := a.accounts.FindByIDs(ctx, accountIDs)
	if err != nil {
		return nil, fmt.Errorf("loading accounts: %w", err)
	}

	emails := make([]string, 0, len(accounts))
	for _, acc := range accounts {
		emails = append(emails, acc.Email)
	}
	emails = strutil.SortedSet(emails)

	report = &models.AssignReport{}
	if len(emails) == 0 {
		for _, acc := range accounts {
			a.record(ctx, report, models.AssignRow{AccountID: acc.ID, Outcome: models.RowSkipped})
		}
		return report, nil
	}

	resolved, err := a.fetcher.Fetch(ctx, emails)
	if err != nil {
		return nil, err
	}
	var missing []ProviderError
	for _, email := range emails {
		if _, ok := resolved[email]; !ok {
			missing = append(missing, ProviderError{
				Code:    ErrorCodeNoSuchUser,
				Email:   email,
				Message: "no universal id was returned for this email",
			})
		}
	}
	if len(missing) > 0 {
		return nil, NewBatchError(missing)
	}

	for _, acc := range accounts {
		row := models.AssignRow{Email: acc.Email, AccountID: acc.ID}
		if acc.Email == "" {
			row.Outcome = models.RowSkipped
			a.record(ctx, report, row)
			continue
		}
		row.UniversalID = resolved[acc.Email]
		account := acc
		err := a.tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			row.Outcome, err = a.assign(txCtx, account, row.UniversalID)
			return err
		})
		if err != nil {
			return a.fail(ctx, report, row, err)
		}
		a.record(ctx, report, row)
	}
	return report, nil
}

// assign creates or overwrites the link of account under its row lock.
func (a *Assigner) assign(ctx context.Context, account *models.Account, universalID string) (models.RowOutcome, error) {
	current, err := a.links.FindByAccountForUpdate(ctx, account.ID)
	if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
		return "", err
	}
	if current != nil && current.UniversalID == universalID {
		return models.RowUnchanged, nil
	}

	_, created, err := a.links.Upsert(ctx, account.ID, universalID, requestcontext.Now(ctx))
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return "", dErrors.Wrap(err, dErrors.CodeConflict,
				fmt.Sprintf("universal id %s is already linked to another account", universalID))
		}
		return "", err
	}

	action, reason, outcome := audit.EventLinkAssigned, "bulk assignment", models.RowCreated
	if !created {
		previous := ""
		if current != nil {
			previous = current.UniversalID
		}
		action, reason, outcome = audit.EventLinkReassigned, "bulk reassignment from "+previous, models.RowUpdated
	}
	if err := a.emitAudit(ctx, action, account, universalID, reason); err != nil {
		return "", err
	}
	return outcome, nil
}

func (a *Assigner) emitAudit(ctx context.Context, action audit.AuditEvent, account *models.Account, universalID, reason string) error {
	if a.auditor == nil {
		return nil
	}
	event := audit.Event{
		AccountID:   account.ID,
		Subject:     account.Username,
		UniversalID: universalID,
		Action:      string(action),
		Reason:      reason,
	}
	if p, ok := requestcontext.Principal(ctx); ok {
		event.ActorID = p.Subject
	}
	return a.auditor.Emit(ctx, event)
}

func (a *Assigner) record(ctx context.Context, report *models.AssignReport, row models.AssignRow) {
	report.Rows = append(report.Rows, row)
	a.metrics.IncrementBulkRow(string(row.Outcome))
	a.logger.DebugContext(ctx, "bulk row processed",
		"email", logger.MaskEmail(row.Email),
		"outcome", row.Outcome,
	)
}

func (a *Assigner) fail(ctx context.Context, report *models.AssignReport, row models.AssignRow, err error) (*models.AssignReport, error) {
	row.Outcome = models.RowFailed
	report.Rows = append(report.Rows, row)
	a.metrics.IncrementBulkRow(string(models.RowFailed))
	a.logger.ErrorContext(ctx, "bulk assignment stopped",
		"email", logger.MaskEmail(row.Email),
		"applied", len(report.Rows)-1,
		"error", err,
	)
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return report, err
	}
	return report, dErrors.Wrap(err, dErrors.CodeInternal, "bulk assignment failed")
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
