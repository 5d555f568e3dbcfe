//go:build integration

package account_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"casbinder/internal/binder/models"
	"casbinder/internal/binder/store/account"
	id "casbinder/pkg/domain"
	"casbinder/pkg/platform/sentinel"
	"casbinder/pkg/testutil/containers"
)

type PostgresAccountStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *account.PostgresStore
	ctx      context.Context
}

func TestPostgresAccountStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresAccountStoreSuite))
}

func (s *PostgresAccountStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = account.NewPostgres(s.postgres.DB)
	s.ctx = context.Background()
}

func (s *PostgresAccountStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(s.ctx, "identity_links", "accounts"))
}

func (s *PostgresAccountStoreSuite) create(username, email string, created time.Time) *models.Account {
	a, err := models.NewAccount(id.NewAccountID(), username, email, created.UTC().Truncate(time.Microsecond))
	s.Require().NoError(err)
	s.Require().NoError(s.store.Create(s.ctx, a))
	return a
}

func (s *PostgresAccountStoreSuite) TestCreateAndFind() {
	a := s.create("alice", "alice@x.com", time.Now())

	found, err := s.store.FindByID(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(a.ID, found.ID)
	s.Equal("alice", found.Username)
	s.Equal("alice@x.com", found.Email)
	s.False(found.HasUsablePassword())
	s.True(found.IsActive)
	s.WithinDuration(a.CreatedAt, found.CreatedAt, time.Millisecond)

	_, err = s.store.FindByID(s.ctx, id.NewAccountID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresAccountStoreSuite) TestDuplicateUsernameConflicts() {
	s.create("bob", "", time.Now())

	dup, err := models.NewAccount(id.NewAccountID(), "bob", "", time.Now())
	s.Require().NoError(err)
	s.ErrorIs(s.store.Create(s.ctx, dup), sentinel.ErrConflict)

	taken, err := s.store.UsernameExists(s.ctx, "bob")
	s.Require().NoError(err)
	s.True(taken)

	free, err := s.store.UsernameExists(s.ctx, "bob_2")
	s.Require().NoError(err)
	s.False(free)
}

func (s *PostgresAccountStoreSuite) TestFindByEmailPrefersOldest() {
	now := time.Now()
	s.create("shared_b", "shared@x.com", now)
	oldest := s.create("shared_a", "shared@x.com", now.Add(-time.Hour))

	found, err := s.store.FindByEmail(s.ctx, "shared@x.com")
	s.Require().NoError(err)
	s.Equal(oldest.ID, found.ID)

	_, err = s.store.FindByEmail(s.ctx, "nobody@x.com")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresAccountStoreSuite) TestFindByIDsSkipsUnknown() {
	now := time.Now()
	b := s.create("bravo", "b@x.com", now)
	a := s.create("alpha", "a@x.com", now)

	found, err := s.store.FindByIDs(s.ctx, []id.AccountID{b.ID, id.NewAccountID(), a.ID})
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.Equal("alpha", found[0].Username)
	s.Equal("bravo", found[1].Username)

	all, err := s.store.List(s.ctx)
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *PostgresAccountStoreSuite) TestUpdate() {
	a := s.create("carol", "", time.Now())

	s.Run("renames and applies attributes", func() {
		a.Username = "carol_2"
		a.ApplyAttributes(map[string]string{"first_name": "Carol"}, []string{"first_name"})
		a.UpdatedAt = time.Now().UTC()
		s.Require().NoError(s.store.Update(s.ctx, a))

		found, err := s.store.FindByID(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal("carol_2", found.Username)
		s.Equal("Carol", found.FirstName)
	})

	s.Run("rename onto a taken username conflicts", func() {
		s.create("dave", "", time.Now())
		a.Username = "dave"
		s.ErrorIs(s.store.Update(s.ctx, a), sentinel.ErrConflict)
	})

	s.Run("unknown account is not found", func() {
		ghost, err := models.NewAccount(id.NewAccountID(), "ghost", "", time.Now())
		s.Require().NoError(err)
		s.ErrorIs(s.store.Update(s.ctx, ghost), sentinel.ErrNotFound)
	})
}
