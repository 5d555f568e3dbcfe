package bulk

//go:generate mockgen -source=bulk.go -destination=mocks/mocks.go -package=mocks UniversalIDFetcher,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casbinder/internal/binder/bulk/mocks"
	"casbinder/internal/binder/models"
	"casbinder/internal/binder/service"
	accountstore "casbinder/internal/binder/store/account"
	linkstore "casbinder/internal/binder/store/link"
	"casbinder/internal/platform/metrics"
	id "casbinder/pkg/domain"
	dErrors "casbinder/pkg/domain-errors"
	audit "casbinder/pkg/platform/audit"
	"casbinder/pkg/platform/audit/publishers/compliance"
	auditmemory "casbinder/pkg/platform/audit/store/memory"
)

// =============================================================================
// Bulk Assignment Test Suite
// =============================================================================
// Justification for unit tests: bulk assignment must skip unknown emails,
// overwrite existing links, and never touch the directory when the provider
// lookup fails. The in-memory stores make those properties cheap to check.

type AssignerSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	fetcher  *mocks.MockUniversalIDFetcher
	accounts *accountstore.InMemory
	links    *linkstore.InMemory
	audits   *auditmemory.InMemoryStore
	metrics  *metrics.Metrics
	assigner *Assigner
}

func TestAssignerSuite(t *testing.T) {
	suite.Run(t, new(AssignerSuite))
}

func (s *AssignerSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.fetcher = mocks.NewMockUniversalIDFetcher(s.ctrl)
	s.accounts = accountstore.NewInMemory()
	s.links = linkstore.NewInMemory()
	s.audits = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	s.assigner = s.newAssigner(compliance.New(s.audits))
}

func (s *AssignerSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AssignerSuite) newAssigner(auditor AuditPublisher) *Assigner {
	a, err := New(s.accounts, s.links, service.NewInMemoryTx(s.accounts, s.links, s.audits),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithMetrics(s.metrics),
		WithAuditPublisher(auditor),
		WithFetcher(s.fetcher),
	)
	s.Require().NoError(err)
	return a
}

func (s *AssignerSuite) seedAccount(name, email string) *models.Account {
	a, err := models.NewAccount(id.NewAccountID(), name, email, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.accounts.Create(s.ctx, a))
	return a
}

func (s *AssignerSuite) seedLink(a *models.Account, uid string) {
	l, err := models.NewLink(a.ID, uid, time.Now())
	s.Require().NoError(err)
	s.Require().NoError(s.links.Create(s.ctx, l))
}

func (s *AssignerSuite) linkOf(a *models.Account) string {
	l, err := s.links.FindByAccount(s.ctx, a.ID)
	s.Require().NoError(err)
	return l.UniversalID
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *AssignerSuite) TestNew() {
	tx := service.NewInMemoryTx()
	s.Run("nil account store returns error", func() {
		_, err := New(nil, s.links, tx)
		s.ErrorContains(err, "account store is required")
	})
	s.Run("nil link store returns error", func() {
		_, err := New(s.accounts, nil, tx)
		s.ErrorContains(err, "link store is required")
	})
	s.Run("nil transaction runner returns error", func() {
		_, err := New(s.accounts, s.links, nil)
		s.ErrorContains(err, "transaction runner is required")
	})
}

// =============================================================================
// AssignAll
// =============================================================================

func (s *AssignerSuite) TestAssignAllUnknownEmailIsNoop() {
	report, err := s.assigner.AssignAll(s.ctx, map[string]string{"ghost@x.com": "id1"})
	s.Require().NoError(err)
	s.Equal(0, s.links.Count())
	s.Require().Len(report.Rows, 1)
	s.Equal(models.RowSkipped, report.Rows[0].Outcome)

	events, err := s.audits.ListAll(s.ctx)
	s.Require().NoError(err)
	s.Empty(events)
}

func (s *AssignerSuite) TestAssignAllCreatesAndOverwrites() {
	fresh := s.seedAccount("fresh", "fresh@x.com")
	linked := s.seedAccount("linked", "linked@x.com")
	same := s.seedAccount("same", "same@x.com")
	s.seedLink(linked, "placki")
	s.seedLink(same, "stable")

	report, err := s.assigner.AssignAll(s.ctx, map[string]string{
		"linked@x.com": "marchew",
		"fresh@x.com":  "nowy",
		"same@x.com":   "stable",
		"gone@x.com":   "whatever",
	})
	s.Require().NoError(err)

	s.Equal("nowy", s.linkOf(fresh))
	s.Equal("marchew", s.linkOf(linked))
	s.Equal("stable", s.linkOf(same))

	s.Require().Len(report.Rows, 4)
	s.Equal([]string{"fresh@x.com", "gone@x.com", "linked@x.com", "same@x.com"},
		[]string{report.Rows[0].Email, report.Rows[1].Email, report.Rows[2].Email, report.Rows[3].Email})
	s.Equal(1, report.Count(models.RowCreated))
	s.Equal(1, report.Count(models.RowUpdated))
	s.Equal(1, report.Count(models.RowUnchanged))
	s.Equal(1, report.Count(models.RowSkipped))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.BulkRows.WithLabelValues("created")))

	events, err := s.audits.ListByAccount(s.ctx, linked.ID)
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(string(audit.EventLinkReassigned), events[0].Action)
	s.Equal("bulk reassignment from placki", events[0].Reason)
}

func (s *AssignerSuite) TestAssignAllStopsAtFirstFailure() {
	owner := s.seedAccount("owner", "a@x.com")
	s.seedLink(owner, "U1")
	s.seedAccount("thief", "b@x.com")
	late := s.seedAccount("late", "c@x.com")

	report, err := s.assigner.AssignAll(s.ctx, map[string]string{
		"a@x.com": "U1",
		"b@x.com": "U1",
		"c@x.com": "U3",
	})
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	s.Require().Len(report.Rows, 2)
	s.Equal(models.RowUnchanged, report.Rows[0].Outcome)
	s.Equal(models.RowFailed, report.Rows[1].Outcome)

	_, err = s.links.FindByAccount(s.ctx, late.ID)
	s.Error(err)
}

func (s *AssignerSuite) TestAssignAllRollsBackRowWhenAuditFails() {
	auditor := mocks.NewMockAuditPublisher(s.ctrl)
	auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox unavailable"))
	a := s.seedAccount("alice", "alice@x.com")

	_, err := s.newAssigner(auditor).AssignAll(s.ctx, map[string]string{"alice@x.com": "U1"})
	s.Require().Error(err)
	s.Equal(0, s.links.Count())
	_, err = s.links.FindByAccount(s.ctx, a.ID)
	s.Error(err)
}

func (s *AssignerSuite) TestAssignAllRejectsInvalidUniversalID() {
	s.seedAccount("alice", "alice@x.com")
	_, err := s.assigner.AssignAll(s.ctx, map[string]string{"alice@x.com": ""})
	s.Require().Error(err)
	s.Equal(0, s.links.Count())
}

// =============================================================================
// ResolveThenAssign
// =============================================================================

func (s *AssignerSuite) TestResolveThenAssign() {
	s.Run("one provider call for distinct non-empty emails", func() {
		a := s.seedAccount("blah", "blah@example.com")
		dup := s.seedAccount("blah2", "blah@example.com")
		empty := s.seedAccount("noemail", "")

		s.fetcher.EXPECT().
			Fetch(gomock.Any(), []string{"blah@example.com"}).
			Return(map[string]string{"blah@example.com": "marchew"}, nil).
			Times(1)

		report, err := s.assigner.ResolveThenAssign(s.ctx, []id.AccountID{a.ID, empty.ID})
		s.Require().NoError(err)
		s.Equal("marchew", s.linkOf(a))
		s.Equal(1, report.Count(models.RowCreated))
		s.Equal(1, report.Count(models.RowSkipped))

		_, err = s.links.FindByAccount(s.ctx, dup.ID)
		s.Error(err)
	})

	s.Run("updates an existing link", func() {
		a := s.seedAccount("upd", "upd@example.com")
		s.seedLink(a, "placki")
		s.fetcher.EXPECT().
			Fetch(gomock.Any(), []string{"upd@example.com"}).
			Return(map[string]string{"upd@example.com": "nowe"}, nil)

		_, err := s.assigner.ResolveThenAssign(s.ctx, []id.AccountID{a.ID})
		s.Require().NoError(err)
		s.Equal("nowe", s.linkOf(a))
	})
}

func (s *AssignerSuite) TestResolveThenAssignProviderFailureAssignsNothing() {
	a := s.seedAccount("blah", "blah@example.com")
	b := s.seedAccount("other", "other@example.com")

	batch := NewBatchError([]ProviderError{{
		Code:    ErrorCodeNoSuchUser,
		Message: "User with given email was not found.",
		Email:   "other@example.com",
	}})
	s.fetcher.EXPECT().Fetch(gomock.Any(), []string{"blah@example.com", "other@example.com"}).Return(nil, batch)

	report, err := s.assigner.ResolveThenAssign(s.ctx, []id.AccountID{a.ID, b.ID})
	s.Nil(report)
	var be *BatchError
	s.Require().ErrorAs(err, &be)
	s.Equal([]string{"other@example.com - User with given email was not found."}, be.Messages)
	s.Equal(0, s.links.Count())
}

func (s *AssignerSuite) TestResolveThenAssignMissingEmailAborts() {
	a := s.seedAccount("blah", "blah@example.com")
	b := s.seedAccount("other", "other@example.com")
	s.fetcher.EXPECT().
		Fetch(gomock.Any(), gomock.Any()).
		Return(map[string]string{"blah@example.com": "U1"}, nil)

	_, err := s.assigner.ResolveThenAssign(s.ctx, []id.AccountID{a.ID, b.ID})
	var be *BatchError
	s.Require().ErrorAs(err, &be)
	s.Require().Len(be.Messages, 1)
	s.Contains(be.Messages[0], "other@example.com - ")
	s.Equal(0, s.links.Count())
}

func (s *AssignerSuite) TestResolveThenAssignWithoutEmailsSkipsProvider() {
	a := s.seedAccount("noemail", "")
	report, err := s.assigner.ResolveThenAssign(s.ctx, []id.AccountID{a.ID})
	s.Require().NoError(err)
	s.Equal(1, report.Count(models.RowSkipped))
}

// =============================================================================
// Error summarisation
// =============================================================================

func TestSummarizeErrors(t *testing.T) {
	many := make([]ProviderError, 100)
	for i := range many {
		many[i] = ProviderError{Code: ErrorCodeNoSuchUser, Email: "nonexistent@example.com", Message: "User with given email was not found."}
	}

	t.Run("caps at seven plus a count line", func(t *testing.T) {
		got := SummarizeErrors(many, DisplayCap)
		if len(got) != 8 {
			t.Fatalf("expected 8 messages, got %d", len(got))
		}
		if got[0] != "nonexistent@example.com - User with given email was not found." {
			t.Errorf("unexpected first message %q", got[0])
		}
		if got[7] != "93 other errors occurred" {
			t.Errorf("unexpected summary %q", got[7])
		}
	})

	t.Run("other codes render only the message", func(t *testing.T) {
		got := SummarizeErrors([]ProviderError{{Code: "fake_unknown_error", Message: "Fake unknown error."}}, DisplayCap)
		if len(got) != 1 || got[0] != "Fake unknown error." {
			t.Errorf("unexpected messages %v", got)
		}
	})

	t.Run("exactly the cap has no summary", func(t *testing.T) {
		got := SummarizeErrors(many[:DisplayCap], DisplayCap)
		if len(got) != DisplayCap {
			t.Errorf("expected %d messages, got %d", DisplayCap, len(got))
		}
	})

	t.Run("batch error message lists every line", func(t *testing.T) {
		err := NewBatchError(many[:2])
		want := fmt.Sprintf("universal id lookup failed: %s; %s", many[0].String(), many[1].String())
		if err.Error() != want {
			t.Errorf("got %q", err.Error())
		}
	})
}
