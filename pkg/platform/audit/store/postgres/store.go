package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	audit "casbinder/pkg/platform/audit"
	txcontext "casbinder/pkg/platform/tx"
)

// Store implements audit.Store using the transactional outbox pattern.
// Rows land in audit_outbox inside the caller's transaction.
type Store struct {
	db *sql.DB
}

// New creates a PostgreSQL audit store that writes to the outbox.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type outboxPayload struct {
	ID          string `json:"id"`
	Category    string `json:"category"`
	Timestamp   string `json:"timestamp"`
	AccountID   string `json:"account_id,omitempty"`
	Subject     string `json:"subject,omitempty"`
	UniversalID string `json:"universal_id,omitempty"`
	Action      string `json:"action"`
	Reason      string `json:"reason,omitempty"`
	RequestID   string `json:"request_id,omitempty"`
	ActorID     string `json:"actor_id,omitempty"`
}

// Append writes an audit event to the outbox table.
func (s *Store) Append(ctx context.Context, event audit.Event) error {
	eventID := uuid.New()
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	payload := outboxPayload{
		ID:          eventID.String(),
		Category:    string(audit.AuditEvent(event.Action).Category()),
		Timestamp:   event.Timestamp.Format(time.RFC3339Nano),
		Subject:     event.Subject,
		UniversalID: event.UniversalID,
		Action:      event.Action,
		Reason:      event.Reason,
		RequestID:   event.RequestID,
		ActorID:     event.ActorID,
	}
	var accountID any
	if !event.AccountID.IsNil() {
		payload.AccountID = event.AccountID.String()
		accountID = payload.AccountID
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	query := `
		INSERT INTO audit_outbox (id, action, account_id, subject, universal_id, reason, request_id, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = txcontext.Active(ctx, s.db).ExecContext(ctx, query,
		eventID.String(),
		event.Action,
		accountID,
		event.Subject,
		event.UniversalID,
		event.Reason,
		event.RequestID,
		string(payloadBytes),
		event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert outbox entry: %w", err)
	}
	return nil
}
