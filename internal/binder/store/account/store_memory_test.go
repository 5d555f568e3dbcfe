package account

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	"casbinder/pkg/platform/sentinel"
)

type InMemoryAccountStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *InMemoryAccountStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func TestInMemoryAccountStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryAccountStoreSuite))
}

func (s *InMemoryAccountStoreSuite) newAccount(username, email string, created time.Time) *models.Account {
	a, err := models.NewAccount(id.NewAccountID(), username, email, created)
	s.Require().NoError(err)
	return a
}

func (s *InMemoryAccountStoreSuite) TestLookups() {
	now := time.Now()

	s.Run("finds by id and returns a copy", func() {
		a := s.newAccount("alice", "alice@x.com", now)
		s.Require().NoError(s.store.Create(s.ctx, a))

		found, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(a.Username, found.Username)

		found.Username = "mutated"
		again, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal("alice", again.Username)
	})

	s.Run("returns ErrNotFound for unknown id", func() {
		_, err := s.store.FindByID(s.ctx, id.NewAccountID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("email lookup prefers the oldest account", func() {
		newer := s.newAccount("shared_b", "shared@x.com", now.Add(time.Hour))
		oldest := s.newAccount("shared_a", "shared@x.com", now.Add(-time.Hour))
		s.Require().NoError(s.store.Create(s.ctx, newer))
		s.Require().NoError(s.store.Create(s.ctx, oldest))

		found, err := s.store.FindByEmail(s.ctx, "shared@x.com")
		s.Require().NoError(err)
		s.Equal(oldest.ID, found.ID)
	})

	s.Run("email lookup misses return ErrNotFound", func() {
		_, err := s.store.FindByEmail(s.ctx, "ghost@x.com")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("find by ids skips unknown and duplicate ids", func() {
		a := s.newAccount("zed", "zed@x.com", now)
		s.Require().NoError(s.store.Create(s.ctx, a))

		found, err := s.store.FindByIDs(s.ctx, []id.AccountID{a.ID, a.ID, id.NewAccountID()})
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal(a.ID, found[0].ID)
	})
}

func (s *InMemoryAccountStoreSuite) TestUsernameUniqueness() {
	a := s.newAccount("bob", "bob@x.com", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, a))

	s.Run("reports taken usernames", func() {
		taken, err := s.store.UsernameExists(s.ctx, "bob")
		s.Require().NoError(err)
		s.True(taken)

		taken, err = s.store.UsernameExists(s.ctx, "bob_2")
		s.Require().NoError(err)
		s.False(taken)
	})

	s.Run("rejects a duplicate username on create", func() {
		dup := s.newAccount("bob", "other@x.com", time.Now())
		s.Require().ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)
	})

	s.Run("rejects renaming onto a taken username", func() {
		other := s.newAccount("carol", "carol@x.com", time.Now())
		s.Require().NoError(s.store.Create(s.ctx, other))
		other.Username = "bob"
		s.Require().ErrorIs(s.store.Update(s.ctx, other), sentinel.ErrConflict)
	})

	s.Run("allows saving an account under its own username", func() {
		a.Email = "bob@new.com"
		s.Require().NoError(s.store.Update(s.ctx, a))
	})

	s.Run("update of unknown account returns ErrNotFound", func() {
		ghost := s.newAccount("ghost", "ghost@x.com", time.Now())
		s.Require().ErrorIs(s.store.Update(s.ctx, ghost), sentinel.ErrNotFound)
	})
}

func (s *InMemoryAccountStoreSuite) TestSnapshotRestore() {
	kept := s.newAccount("kept", "kept@x.com", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, kept))

	restore := s.store.Snapshot()

	dropped := s.newAccount("dropped", "dropped@x.com", time.Now())
	s.Require().NoError(s.store.Create(s.ctx, dropped))
	kept.Email = "changed@x.com"
	s.Require().NoError(s.store.Update(s.ctx, kept))

	restore()

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("kept@x.com", all[0].Email)
}
