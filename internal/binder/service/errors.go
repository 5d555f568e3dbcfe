package service

import (
	"errors"
	"fmt"

	"casbinder/internal/binder/username"
	dErrors "casbinder/pkg/domain-errors"
	"casbinder/pkg/platform/sentinel"
)

// ErrNoIdentity means the login established no local account. Callers show
// "authentication failed" and nothing else.
var ErrNoIdentity = errors.New("no identity")

var (
	// ErrAccountCreationDisabled is returned for an unknown universal id when
	// account creation is switched off. Matches ErrNoIdentity.
	ErrAccountCreationDisabled = fmt.Errorf("account creation disabled: %w", ErrNoIdentity)

	// ErrAccountInactive is returned when the bound account is deactivated.
	// Matches ErrNoIdentity.
	ErrAccountInactive = fmt.Errorf("account inactive: %w", ErrNoIdentity)

	// ErrLinkMoved is returned when the account's link was re-pointed to
	// another universal id while the bind was running.
	ErrLinkMoved = fmt.Errorf("identity link moved: %w", sentinel.ErrConflict)
)

func authenticationFailed(cause error) error {
	return dErrors.Wrap(cause, dErrors.CodeUnauthorized, "authentication failed")
}

// translateBindErr maps store and allocator failures onto domain codes.
// Errors that already carry a code pass through.
func translateBindErr(err error) error {
	var de *dErrors.Error
	switch {
	case errors.As(err, &de):
		return err
	case errors.Is(err, username.ErrExhausted):
		return dErrors.Wrap(err, dErrors.CodeResourceExhausted, err.Error())
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.Wrap(err, dErrors.CodeConflict, "identity changed concurrently, retry")
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to bind identity")
	}
}
