package audit

import (
	"context"
	"time"

	id "casbinder/pkg/domain"
)

// EventCategory classifies audit events by their primary purpose.
type EventCategory string

const (
	// CategoryCompliance covers changes to the identity mapping itself.
	// These are written in the same transaction as the change.
	CategoryCompliance EventCategory = "compliance"

	// CategorySecurity covers refused or suspicious operations.
	CategorySecurity EventCategory = "security"

	// CategoryOperations covers routine activity.
	CategoryOperations EventCategory = "operations"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Category    EventCategory
	Timestamp   time.Time
	AccountID   id.AccountID
	Subject     string // username at the time of the event
	UniversalID string
	Action      string
	Reason      string
	RequestID   string
	// ActorID is set when an administrator acts on someone else's account.
	ActorID string
}

type AuditEvent string

const (
	EventAccountCreated   AuditEvent = "account_created"
	EventAccountRenamed   AuditEvent = "account_renamed"
	EventLinkAssigned     AuditEvent = "link_assigned"
	EventLinkReassigned   AuditEvent = "link_reassigned"
	EventCASLoginEnabled  AuditEvent = "cas_login_enabled"
	EventUsersExported    AuditEvent = "users_exported"
	EventPrivilegeRefused AuditEvent = "privilege_refused"
	EventAccountLoggedIn  AuditEvent = "account_logged_in"
)

var eventCategories = map[AuditEvent]EventCategory{
	EventAccountCreated:  CategoryCompliance,
	EventAccountRenamed:  CategoryCompliance,
	EventLinkAssigned:    CategoryCompliance,
	EventLinkReassigned:  CategoryCompliance,
	EventCASLoginEnabled: CategoryCompliance,
	EventUsersExported:   CategoryCompliance,

	EventPrivilegeRefused: CategorySecurity,

	EventAccountLoggedIn: CategoryOperations,
}

// Category returns the EventCategory for this audit event.
// Unknown events default to CategoryOperations.
func (e AuditEvent) Category() EventCategory {
	if cat, ok := eventCategories[e]; ok {
		return cat
	}
	return CategoryOperations
}

// Store persists audit events. Implementations join the transaction carried
// by ctx when there is one.
type Store interface {
	Append(ctx context.Context, event Event) error
}
