package admin

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks BulkAssigner,AccountCreator,AccountStore,AuditPublisher

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"casbinder/internal/admin/mocks"
	"casbinder/internal/binder/bulk"
	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	dErrors "casbinder/pkg/domain-errors"
	audit "casbinder/pkg/platform/audit"
	"casbinder/pkg/requestcontext"
)

// =============================================================================
// Admin Service Test Suite
// =============================================================================
// Justification for unit tests: the privilege gate must refuse before any
// provider call or write happens. Mocks make "no call happened" explicit.

var (
	superuser = models.Principal{Subject: "admin-1", Username: "root", IsSuperuser: true}
	staff     = models.Principal{Subject: "staff-1", Username: "helpdesk"}
)

type AdminServiceSuite struct {
	suite.Suite
	ctx      context.Context
	ctrl     *gomock.Controller
	assigner *mocks.MockBulkAssigner
	creator  *mocks.MockAccountCreator
	accounts *mocks.MockAccountStore
	auditor  *mocks.MockAuditPublisher
	service  *Service
}

func TestAdminServiceSuite(t *testing.T) {
	suite.Run(t, new(AdminServiceSuite))
}

func (s *AdminServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.assigner = mocks.NewMockBulkAssigner(s.ctrl)
	s.creator = mocks.NewMockAccountCreator(s.ctrl)
	s.accounts = mocks.NewMockAccountStore(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	var err error
	s.service, err = New(s.assigner, s.creator, s.accounts,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.auditor),
	)
	s.Require().NoError(err)
}

func (s *AdminServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *AdminServiceSuite) expectRefusal(action Action) {
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
		s.Equal(string(audit.EventPrivilegeRefused), e.Action)
		s.Equal(string(action), e.Reason)
		s.Equal(staff.Subject, e.ActorID)
		return nil
	})
}

func (s *AdminServiceSuite) assertForbidden(err error) {
	s.Require().Error(err)
	s.ErrorIs(err, ErrPrivilegeViolation)
	s.True(dErrors.HasCode(err, dErrors.CodeForbidden))
}

// =============================================================================
// Constructor Tests
// =============================================================================

func (s *AdminServiceSuite) TestNew() {
	s.Run("nil assigner returns error", func() {
		_, err := New(nil, s.creator, s.accounts)
		s.ErrorContains(err, "bulk assigner is required")
	})
	s.Run("nil creator returns error", func() {
		_, err := New(s.assigner, nil, s.accounts)
		s.ErrorContains(err, "account creator is required")
	})
	s.Run("nil account store returns error", func() {
		_, err := New(s.assigner, s.creator, nil)
		s.ErrorContains(err, "account store is required")
	})
}

// =============================================================================
// Action visibility
// =============================================================================

func (s *AdminServiceSuite) TestAvailableActions() {
	s.Equal([]Action{ActionListAccounts}, s.service.AvailableActions(staff))

	all := s.service.AvailableActions(superuser)
	s.Contains(all, ActionEnableCASLogin)
	s.Contains(all, ActionExportUsers)
}

// =============================================================================
// Privilege gate
// =============================================================================
// Justification: refusal must happen before any provider call or mutation.
// The mocks fail the test if the assigner, creator or store are touched.

func (s *AdminServiceSuite) TestNonSuperuserIsRefused() {
	s.Run("enable cas login", func() {
		s.expectRefusal(ActionEnableCASLogin)
		_, err := s.service.EnableCASLogin(s.ctx, staff, []id.AccountID{id.NewAccountID()})
		s.assertForbidden(err)
		s.Contains(err.Error(), "enable_cas_login attempted by a non-superuser")
	})

	s.Run("export users", func() {
		s.expectRefusal(ActionExportUsers)
		var buf bytes.Buffer
		s.assertForbidden(s.service.ExportUsers(s.ctx, staff, nil, &buf))
		s.Zero(buf.Len())
	})

	s.Run("assign universal ids", func() {
		s.expectRefusal(ActionAssignIDs)
		_, err := s.service.AssignUniversalIDs(s.ctx, staff, map[string]string{"a@x.com": "U1"})
		s.assertForbidden(err)
	})

	s.Run("create account", func() {
		s.expectRefusal(ActionCreateAccount)
		_, err := s.service.CreateAccount(s.ctx, staff, "alice", "alice@x.com", "U1")
		s.assertForbidden(err)
	})
}

// =============================================================================
// EnableCASLogin
// =============================================================================

func (s *AdminServiceSuite) TestEnableCASLogin() {
	ids := []id.AccountID{id.NewAccountID()}

	s.Run("runs as the principal and records the action", func() {
		report := &models.AssignReport{Rows: []models.AssignRow{{Email: "blah@example.com", Outcome: models.RowCreated}}}
		s.assigner.EXPECT().ResolveThenAssign(gomock.Any(), ids).DoAndReturn(
			func(ctx context.Context, _ []id.AccountID) (*models.AssignReport, error) {
				p, ok := requestcontext.Principal(ctx)
				s.True(ok)
				s.Equal(superuser.Subject, p.Subject)
				return report, nil
			})
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, e audit.Event) error {
			s.Equal(string(audit.EventCASLoginEnabled), e.Action)
			s.Equal("1 accounts processed", e.Reason)
			return nil
		})

		got, err := s.service.EnableCASLogin(s.ctx, superuser, ids)
		s.Require().NoError(err)
		s.Same(report, got)
	})

	s.Run("batch errors pass through untouched", func() {
		batch := &bulk.BatchError{Messages: []string{"x@example.com - not found"}}
		s.assigner.EXPECT().ResolveThenAssign(gomock.Any(), ids).Return(nil, batch)

		_, err := s.service.EnableCASLogin(s.ctx, superuser, ids)
		var be *bulk.BatchError
		s.Require().ErrorAs(err, &be)
		s.Equal(batch.Messages, be.Messages)
	})

	s.Run("empty selection is a bad request", func() {
		_, err := s.service.EnableCASLogin(s.ctx, superuser, nil)
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

// =============================================================================
// ExportUsers
// =============================================================================

func (s *AdminServiceSuite) TestExportUsers() {
	a, err := models.NewAccount(id.NewAccountID(), "blah", "blah@example.com", time.Now())
	s.Require().NoError(err)
	s.Require().NoError(a.SetPassword("hunter22"))
	b, err := models.NewAccount(id.NewAccountID(), "comma,name", "c@example.com", time.Now())
	s.Require().NoError(err)

	s.Run("writes one csv row per account", func() {
		s.accounts.EXPECT().List(gomock.Any()).Return([]*models.Account{a, b}, nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		var buf bytes.Buffer
		s.Require().NoError(s.service.ExportUsers(s.ctx, superuser, nil, &buf))

		want := "blah@example.com,blah," + a.PasswordHash + "\n" +
			"c@example.com,\"comma,name\"," + b.PasswordHash + "\n"
		s.Equal(want, buf.String())
	})

	s.Run("exports only the selection", func() {
		s.accounts.EXPECT().FindByIDs(gomock.Any(), []id.AccountID{a.ID}).Return([]*models.Account{a}, nil)
		s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		var buf bytes.Buffer
		s.Require().NoError(s.service.ExportUsers(s.ctx, superuser, []id.AccountID{a.ID}, &buf))
		s.Equal(1, bytes.Count(buf.Bytes(), []byte("\n")))
	})
}

// =============================================================================
// Pass-through actions
// =============================================================================

func (s *AdminServiceSuite) TestAssignAndCreate() {
	mapping := map[string]string{"a@x.com": "U1"}
	s.assigner.EXPECT().AssignAll(gomock.Any(), mapping).Return(&models.AssignReport{}, nil)
	_, err := s.service.AssignUniversalIDs(s.ctx, superuser, mapping)
	s.NoError(err)

	s.creator.EXPECT().CreateAccount(gomock.Any(), "alice", "alice@x.com", "U1").Return(&models.Account{Username: "alice"}, nil)
	acc, err := s.service.CreateAccount(s.ctx, superuser, "alice", "alice@x.com", "U1")
	s.Require().NoError(err)
	s.Equal("alice", acc.Username)
}
