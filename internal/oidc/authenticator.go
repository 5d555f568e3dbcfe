package oidc

import (
	"context"
	"errors"

	"casbinder/internal/binder/models"
	"casbinder/internal/binder/service"
	dErrors "casbinder/pkg/domain-errors"
)

// MessageUserNotFound is shown when a valid token belongs to a universal id
// that has never signed in through the browser.
const MessageUserNotFound = "user not found, login to the site with the browser and try again"

// Introspector turns an access token into userinfo claims.
type Introspector interface {
	Introspect(ctx context.Context, token string) (Claims, error)
}

// AccountResolver maps a universal id to its existing account.
type AccountResolver interface {
	ResolveUniversalID(ctx context.Context, universalID string, claims map[string]string, corr models.Correlation) (*models.Account, error)
}

// Authenticator resolves bearer tokens to local accounts. Unlike ticket
// logins it never creates an account.
type Authenticator struct {
	introspector Introspector
	resolver     AccountResolver
}

func NewAuthenticator(introspector Introspector, resolver AccountResolver) *Authenticator {
	return &Authenticator{introspector: introspector, resolver: resolver}
}

// Authenticate returns the account and claims for token.
func (a *Authenticator) Authenticate(ctx context.Context, token string) (*models.Account, Claims, error) {
	claims, err := a.introspector.Introspect(ctx, token)
	if err != nil {
		return nil, nil, err
	}
	universalID := claims.UniversalID()
	if universalID == "" {
		return nil, nil, dErrors.New(dErrors.CodeUpstream, "cas response contains no universal_id")
	}

	account, err := a.resolver.ResolveUniversalID(ctx, universalID, claims.Strings(), models.Correlation{AccessToken: token})
	switch {
	case err == nil:
		return account, claims, nil
	case errors.Is(err, service.ErrAccountInactive):
		return nil, nil, err
	case errors.Is(err, service.ErrNoIdentity):
		return nil, nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, MessageUserNotFound)
	default:
		return nil, nil, err
	}
}
