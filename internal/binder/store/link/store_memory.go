package link

import (
	"context"
	"sync"
	"time"

	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	"casbinder/pkg/platform/sentinel"
)

// InMemory keeps links in two indexes, by account and by universal id.
type InMemory struct {
	mu          sync.RWMutex
	byAccount   map[id.AccountID]*models.Link
	byUniversal map[string]id.AccountID
}

// NewInMemory returns an empty link store.
func NewInMemory() *InMemory {
	return &InMemory{
		byAccount:   make(map[id.AccountID]*models.Link),
		byUniversal: make(map[string]id.AccountID),
	}
}

func clone(l *models.Link) *models.Link {
	c := *l
	return &c
}

func (s *InMemory) FindByUniversalID(_ context.Context, universalID string) (*models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	accountID, ok := s.byUniversal[universalID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(s.byAccount[accountID]), nil
}

func (s *InMemory) FindByAccount(_ context.Context, accountID id.AccountID) (*models.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.byAccount[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(l), nil
}

// FindByAccountForUpdate behaves like FindByAccount under the in-memory transaction.
func (s *InMemory) FindByAccountForUpdate(ctx context.Context, accountID id.AccountID) (*models.Link, error) {
	return s.FindByAccount(ctx, accountID)
}

// LockUniversalID is a no-op; the in-memory transaction is a single lock.
func (s *InMemory) LockUniversalID(context.Context, string) error {
	return nil
}

func (s *InMemory) Create(_ context.Context, l *models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byAccount[l.AccountID]; ok {
		return sentinel.ErrConflict
	}
	if _, ok := s.byUniversal[l.UniversalID]; ok {
		return sentinel.ErrConflict
	}
	s.byAccount[l.AccountID] = clone(l)
	s.byUniversal[l.UniversalID] = l.AccountID
	return nil
}

func (s *InMemory) Update(_ context.Context, l *models.Link) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateLocked(l)
}

// Upsert links accountID to universalID, creating the link when the account
// has none and overwriting its universal id otherwise.
func (s *InMemory) Upsert(_ context.Context, accountID id.AccountID, universalID string, now time.Time) (*models.Link, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byAccount[accountID]; ok {
		updated := clone(existing)
		if err := updated.Reassign(universalID, now); err != nil {
			return nil, false, err
		}
		if err := s.updateLocked(updated); err != nil {
			return nil, false, err
		}
		return clone(updated), false, nil
	}

	l, err := models.NewLink(accountID, universalID, now)
	if err != nil {
		return nil, false, err
	}
	if _, taken := s.byUniversal[l.UniversalID]; taken {
		return nil, false, sentinel.ErrConflict
	}
	s.byAccount[accountID] = clone(l)
	s.byUniversal[l.UniversalID] = accountID
	return l, true, nil
}

// Count returns the number of stored links.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byAccount)
}

// Snapshot captures both indexes and returns a func that restores them.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	byAccount := make(map[id.AccountID]*models.Link, len(s.byAccount))
	for k, v := range s.byAccount {
		byAccount[k] = clone(v)
	}
	byUniversal := make(map[string]id.AccountID, len(s.byUniversal))
	for k, v := range s.byUniversal {
		byUniversal[k] = v
	}
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		s.byAccount = byAccount
		s.byUniversal = byUniversal
		s.mu.Unlock()
	}
}

func (s *InMemory) updateLocked(l *models.Link) error {
	current, ok := s.byAccount[l.AccountID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if owner, taken := s.byUniversal[l.UniversalID]; taken && owner != l.AccountID {
		return sentinel.ErrConflict
	}
	delete(s.byUniversal, current.UniversalID)
	s.byAccount[l.AccountID] = clone(l)
	s.byUniversal[l.UniversalID] = l.AccountID
	return nil
}
