package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "casbinder/pkg/domain-errors"
)

// AccountID is the local primary key of a directory account.
type AccountID uuid.UUID

// NewAccountID returns a random account id.
func NewAccountID() AccountID {
	return AccountID(uuid.New())
}

// ParseAccountID parses s and rejects empty or nil UUIDs.
func ParseAccountID(s string) (AccountID, error) {
	u, err := parseUUID(s, "account")
	if err != nil {
		return AccountID{}, err
	}
	return AccountID(u), nil
}

func (id AccountID) String() string {
	return uuid.UUID(id).String()
}

func (id AccountID) IsNil() bool {
	return uuid.UUID(id) == uuid.Nil
}

// MarshalText keeps typed ids readable in JSON payloads.
func (id AccountID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *AccountID) UnmarshalText(b []byte) error {
	parsed, err := ParseAccountID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func parseUUID(s, kind string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+kind+" id")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, kind+" id must not be nil")
	}
	return u, nil
}

// MaxUniversalIDLength bounds the provider-issued identifier stored on a link.
const MaxUniversalIDLength = 100

// ParseUniversalID validates a provider-issued universal identifier.
// The value is opaque; only emptiness and length are checked.
func ParseUniversalID(s string) (string, error) {
	if strings.TrimSpace(s) == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "universal id is required")
	}
	if len(s) > MaxUniversalIDLength {
		return "", dErrors.New(dErrors.CodeInvalidInput, "universal id is too long")
	}
	return s, nil
}
