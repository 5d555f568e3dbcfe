package models

import (
	"time"

	id "casbinder/pkg/domain"
)

// Link binds a provider universal id to exactly one account.
//
// Invariants:
//   - AccountID is unique across links (one link per account)
//   - UniversalID is unique across links and at most 100 characters
type Link struct {
	AccountID   id.AccountID `json:"account_id"`
	UniversalID string       `json:"universal_id"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewLink validates universalID and returns a fresh link.
func NewLink(accountID id.AccountID, universalID string, now time.Time) (*Link, error) {
	uid, err := id.ParseUniversalID(universalID)
	if err != nil {
		return nil, err
	}
	return &Link{
		AccountID:   accountID,
		UniversalID: uid,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Reassign points the link at a different universal id.
func (l *Link) Reassign(universalID string, now time.Time) error {
	uid, err := id.ParseUniversalID(universalID)
	if err != nil {
		return err
	}
	l.UniversalID = uid
	l.UpdatedAt = now
	return nil
}
