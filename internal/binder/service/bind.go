package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"casbinder/internal/binder/models"
	"casbinder/internal/binder/username"
	id "casbinder/pkg/domain"
	dErrors "casbinder/pkg/domain-errors"
	audit "casbinder/pkg/platform/audit"
	"casbinder/pkg/platform/sentinel"
	"casbinder/pkg/requestcontext"
)

const (
	outcomeLinked           = "linked"
	outcomeCreated          = "created"
	outcomeNoIdentity       = "no_identity"
	outcomeCreationDisabled = "creation_disabled"
	outcomeInactive         = "inactive"
	outcomeError            = "error"
)

// Bind resolves the account linked to req.UniversalID, creating it when the
// policy allows. Lookup, allocation and all writes run in one transaction
// serialised per universal id. The listener is called only after commit.
func (b *Binder) Bind(ctx context.Context, req models.BindRequest) (*models.BindResult, error) {
	ctx, span := b.tracer.Start(ctx, "binder.Bind")
	defer span.End()

	if strings.TrimSpace(req.UniversalID) == "" {
		b.metrics.IncrementBind(outcomeNoIdentity)
		return nil, authenticationFailed(ErrNoIdentity)
	}
	universalID, err := id.ParseUniversalID(req.UniversalID)
	if err != nil {
		b.metrics.IncrementBind(outcomeNoIdentity)
		return nil, authenticationFailed(err)
	}
	span.SetAttributes(attribute.String("binder.universal_id", universalID))

	var result *models.BindResult
	err = b.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := b.links.LockUniversalID(txCtx, universalID); err != nil {
			return err
		}
		link, err := b.links.FindByUniversalID(txCtx, universalID)
		switch {
		case err == nil:
			result, err = b.reconcile(txCtx, link, req.Attributes)
		case errors.Is(err, sentinel.ErrNotFound):
			result, err = b.createLinked(txCtx, universalID, req.Attributes)
		}
		return err
	})
	if err != nil {
		outcome := outcomeError
		if errors.Is(err, ErrAccountCreationDisabled) {
			outcome = outcomeCreationDisabled
		}
		b.metrics.IncrementBind(outcome)
		span.RecordError(err)
		span.SetStatus(codes.Error, "bind failed")
		return nil, translateBindErr(err)
	}

	if !result.Account.CanAuthenticate() {
		b.metrics.IncrementBind(outcomeInactive)
		b.logger.InfoContext(ctx, "inactive account refused",
			"account_id", result.Account.ID,
		)
		return nil, authenticationFailed(ErrAccountInactive)
	}

	result.ProxyGrantingTicketIOU = req.ProxyGrantingTicketIOU
	if result.Created {
		b.metrics.IncrementBind(outcomeCreated)
		b.metrics.IncrementAccountsCreated()
	} else {
		b.metrics.IncrementBind(outcomeLinked)
	}
	span.SetAttributes(attribute.Bool("binder.created", result.Created))
	b.logger.InfoContext(ctx, "identity bound",
		"account_id", result.Account.ID,
		"username", result.Account.Username,
		"created", result.Created,
	)

	b.notify(ctx, models.AuthenticatedEvent{
		Account:     result.Account,
		Created:     result.Created,
		Attributes:  req.Attributes,
		Correlation: req.Correlation,
	})
	return result, nil
}

// reconcile refreshes an already linked account. The username is only
// reallocated when the provider sends a different one. The link and account
// rows stay locked until commit; if the link was re-pointed after it was
// read, the bind fails with ErrLinkMoved.
func (b *Binder) reconcile(ctx context.Context, link *models.Link, attrs map[string]string) (*models.BindResult, error) {
	locked, err := b.links.FindByAccountForUpdate(ctx, link.AccountID)
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, ErrLinkMoved
	case err != nil:
		return nil, err
	case locked.UniversalID != link.UniversalID:
		b.logger.WarnContext(ctx, "identity link re-pointed during bind", "account_id", link.AccountID)
		return nil, ErrLinkMoved
	}
	link = locked

	account, err := b.accounts.FindByIDForUpdate(ctx, link.AccountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "identity link points at a missing account")
		}
		return nil, err
	}

	changed := false
	if desired := attrs[models.AttrUsername]; desired != "" && desired != account.Username {
		name, err := username.Allocate(desired, b.isTaken(ctx), b.cfg.UsernameTriesLimit)
		if err != nil {
			return nil, err
		}
		if name != desired {
			b.metrics.IncrementUsernameConflicts()
		}
		if name != account.Username {
			previous := account.Username
			account.Username = name
			changed = true
			if err := b.emitAudit(ctx, audit.EventAccountRenamed, account, link.UniversalID, "renamed from "+previous); err != nil {
				return nil, err
			}
		}
	}
	if account.ApplyAttributes(attrs, b.cfg.SyncAttributes) {
		changed = true
	}

	if changed {
		touch(account, requestcontext.Now(ctx))
		if err := b.accounts.Update(ctx, account); err != nil {
			return nil, err
		}
	}
	return &models.BindResult{Account: account, Link: link}, nil
}

// createLinked creates the account and its link for a first-time universal id.
func (b *Binder) createLinked(ctx context.Context, universalID string, attrs map[string]string) (*models.BindResult, error) {
	if !b.cfg.CreateAccounts {
		b.logger.InfoContext(ctx, "unknown universal id and account creation disabled")
		return nil, authenticationFailed(ErrAccountCreationDisabled)
	}

	desired := attrs[models.AttrUsername]
	if desired == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "provider did not supply a username")
	}
	name, err := username.Allocate(desired, b.isTaken(ctx), b.cfg.UsernameTriesLimit)
	if err != nil {
		return nil, err
	}
	if name != desired {
		b.metrics.IncrementUsernameConflicts()
	}

	account, link, err := b.insertAccountAndLink(ctx, name, attrs[models.AttrEmail], universalID, attrs)
	if err != nil {
		return nil, err
	}
	return &models.BindResult{Account: account, Link: link, Created: true}, nil
}

func (b *Binder) insertAccountAndLink(ctx context.Context, name, email, universalID string, attrs map[string]string) (*models.Account, *models.Link, error) {
	now := requestcontext.Now(ctx)
	account, err := models.NewAccount(id.NewAccountID(), name, email, now)
	if err != nil {
		return nil, nil, err
	}
	account.ApplyAttributes(attrs, b.cfg.SyncAttributes)

	link, err := models.NewLink(account.ID, universalID, now)
	if err != nil {
		return nil, nil, err
	}
	if err := b.accounts.Create(ctx, account); err != nil {
		return nil, nil, err
	}
	if err := b.links.Create(ctx, link); err != nil {
		return nil, nil, err
	}
	if err := b.emitAudit(ctx, audit.EventAccountCreated, account, universalID, ""); err != nil {
		return nil, nil, err
	}
	if err := b.emitAudit(ctx, audit.EventLinkAssigned, account, universalID, ""); err != nil {
		return nil, nil, err
	}
	return account, link, nil
}
