package service

import (
	"context"
	"errors"
	"strings"

	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	dErrors "casbinder/pkg/domain-errors"
	"casbinder/pkg/platform/sentinel"
)

// GetAccount restores a logged-in account by id.
func (b *Binder) GetAccount(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	if accountID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "account id is required")
	}
	account, err := b.accounts.FindByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "account not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load account")
	}
	return account, nil
}

// ResolveUniversalID maps a token-verified universal id to its existing
// account. It never creates accounts.
func (b *Binder) ResolveUniversalID(ctx context.Context, universalID string, claims map[string]string, corr models.Correlation) (*models.Account, error) {
	link, err := b.links.FindByUniversalID(ctx, universalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, authenticationFailed(ErrNoIdentity)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load identity link")
	}
	account, err := b.GetAccount(ctx, link.AccountID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, authenticationFailed(ErrNoIdentity)
		}
		return nil, err
	}
	if !account.CanAuthenticate() {
		return nil, authenticationFailed(ErrAccountInactive)
	}
	b.notify(ctx, models.AuthenticatedEvent{
		Account:     account,
		Attributes:  claims,
		Correlation: corr,
	})
	return account, nil
}

// CreateAccount creates an account with exactly the given username and links
// it to universalID in one transaction. Used by operators to pre-provision.
func (b *Binder) CreateAccount(ctx context.Context, name, email, universalID string) (*models.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "username is required")
	}
	uid, err := id.ParseUniversalID(universalID)
	if err != nil {
		return nil, err
	}

	var account *models.Account
	err = b.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := b.links.LockUniversalID(txCtx, uid); err != nil {
			return err
		}
		if _, err := b.links.FindByUniversalID(txCtx, uid); err == nil {
			return dErrors.New(dErrors.CodeConflict, "universal id is already linked")
		} else if !errors.Is(err, sentinel.ErrNotFound) {
			return err
		}
		taken, err := b.accounts.UsernameExists(txCtx, name)
		if err != nil {
			return err
		}
		if taken {
			return dErrors.New(dErrors.CodeConflict, "username is already taken")
		}
		account, _, err = b.insertAccountAndLink(txCtx, name, email, uid, nil)
		return err
	})
	if err != nil {
		return nil, translateBindErr(err)
	}
	b.metrics.IncrementAccountsCreated()
	b.logger.InfoContext(ctx, "account provisioned", "account_id", account.ID, "username", account.Username)
	return account, nil
}
