package account

import (
	"context"
	"sort"
	"sync"

	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	"casbinder/pkg/platform/sentinel"
)

// InMemory is the account directory for tests and single-process runs.
// Accounts are copied in and out so callers never alias stored state.
type InMemory struct {
	mu       sync.RWMutex
	accounts map[id.AccountID]*models.Account
}

// NewInMemory returns an empty directory.
func NewInMemory() *InMemory {
	return &InMemory{accounts: make(map[id.AccountID]*models.Account)}
}

func clone(a *models.Account) *models.Account {
	c := *a
	return &c
}

func (s *InMemory) Create(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; ok {
		return sentinel.ErrConflict
	}
	if s.usernameTakenLocked(a.Username, a.ID) {
		return sentinel.ErrConflict
	}
	s.accounts[a.ID] = clone(a)
	return nil
}

func (s *InMemory) Update(_ context.Context, a *models.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.ID]; !ok {
		return sentinel.ErrNotFound
	}
	if s.usernameTakenLocked(a.Username, a.ID) {
		return sentinel.ErrConflict
	}
	s.accounts[a.ID] = clone(a)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, accountID id.AccountID) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.accounts[accountID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(a), nil
}

// FindByIDForUpdate behaves like FindByID; the in-memory transaction already
// serialises writers.
func (s *InMemory) FindByIDForUpdate(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	return s.FindByID(ctx, accountID)
}

// FindByIDs returns the known accounts among ids ordered by username.
func (s *InMemory) FindByIDs(_ context.Context, ids []id.AccountID) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Account, 0, len(ids))
	seen := make(map[id.AccountID]bool, len(ids))
	for _, accountID := range ids {
		if seen[accountID] {
			continue
		}
		seen[accountID] = true
		if a, ok := s.accounts[accountID]; ok {
			out = append(out, clone(a))
		}
	}
	sortByUsername(out)
	return out, nil
}

// FindByEmail returns the oldest account with email.
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var found *models.Account
	for _, a := range s.accounts {
		if a.Email != email {
			continue
		}
		if found == nil || older(a, found) {
			found = a
		}
	}
	if found == nil {
		return nil, sentinel.ErrNotFound
	}
	return clone(found), nil
}

func (s *InMemory) UsernameExists(_ context.Context, username string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.usernameTakenLocked(username, id.AccountID{}), nil
}

// List returns every account ordered by username.
func (s *InMemory) List(_ context.Context) ([]*models.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, clone(a))
	}
	sortByUsername(out)
	return out, nil
}

// Snapshot captures the directory and returns a func that restores it.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	saved := make(map[id.AccountID]*models.Account, len(s.accounts))
	for k, v := range s.accounts {
		saved[k] = clone(v)
	}
	s.mu.RUnlock()

	return func() {
		s.mu.Lock()
		s.accounts = saved
		s.mu.Unlock()
	}
}

func (s *InMemory) usernameTakenLocked(username string, except id.AccountID) bool {
	for accountID, a := range s.accounts {
		if a.Username == username && accountID != except {
			return true
		}
	}
	return false
}

func older(a, b *models.Account) bool {
	if a.CreatedAt.Equal(b.CreatedAt) {
		return a.ID.String() < b.ID.String()
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func sortByUsername(accounts []*models.Account) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Username < accounts[j].Username
	})
}
