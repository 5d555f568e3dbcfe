package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	id "casbinder/pkg/domain"
	dErrors "casbinder/pkg/domain-errors"
)

// Attribute names the provider may send that map onto account fields.
const (
	AttrUsername  = "username"
	AttrEmail     = "email"
	AttrFirstName = "first_name"
	AttrLastName  = "last_name"
)

// unusablePasswordPrefix marks a hash that no password can match.
const unusablePasswordPrefix = "!"

// MaxUsernameLength mirrors the accounts.username column.
const MaxUsernameLength = 150

// Account is a local directory entry. Provider-created accounts carry an
// unusable password so they can only sign in through the provider.
//
// Invariants:
//   - Username is non-empty and unique across the directory
//   - PasswordHash is either a bcrypt hash or an unusable marker
type Account struct {
	ID           id.AccountID `json:"id"`
	Username     string       `json:"username"`
	Email        string       `json:"email"`
	FirstName    string       `json:"first_name"`
	LastName     string       `json:"last_name"`
	PasswordHash string       `json:"-"`
	IsActive     bool         `json:"is_active"`
	IsSuperuser  bool         `json:"is_superuser"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// NewAccount builds an active account with an unusable password.
func NewAccount(accountID id.AccountID, username, email string, now time.Time) (*Account, error) {
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username cannot be empty")
	}
	if len(username) > MaxUsernameLength {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "username must be 150 characters or less")
	}
	a := &Account{
		ID:        accountID,
		Username:  username,
		Email:     strings.TrimSpace(email),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	a.SetUnusablePassword()
	return a, nil
}

// SetUnusablePassword replaces the hash with a random unusable marker.
func (a *Account) SetUnusablePassword() {
	a.PasswordHash = unusablePasswordPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")
}

// HasUsablePassword reports whether a local password can authenticate.
func (a *Account) HasUsablePassword() bool {
	return a.PasswordHash != "" && !strings.HasPrefix(a.PasswordHash, unusablePasswordPrefix)
}

// SetPassword stores a bcrypt hash of raw.
func (a *Account) SetPassword(raw string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "password cannot be hashed")
	}
	a.PasswordHash = string(hash)
	return nil
}

// ApplyAttributes copies allow-listed, non-empty provider attributes onto the
// account. Only email, first_name and last_name are ever written; the
// username goes through allocation instead. Returns true if anything changed.
func (a *Account) ApplyAttributes(attrs map[string]string, allow []string) bool {
	changed := false
	for _, name := range allow {
		value, ok := attrs[name]
		if !ok || value == "" {
			continue
		}
		var field *string
		switch name {
		case AttrEmail:
			field = &a.Email
		case AttrFirstName:
			field = &a.FirstName
		case AttrLastName:
			field = &a.LastName
		default:
			continue
		}
		if *field != value {
			*field = value
			changed = true
		}
	}
	return changed
}

// CanAuthenticate reports whether the account may complete a login.
func (a *Account) CanAuthenticate() bool {
	return a.IsActive
}
