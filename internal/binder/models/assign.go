package models

import id "casbinder/pkg/domain"

// RowOutcome classifies one bulk assignment row.
type RowOutcome string

const (
	RowCreated   RowOutcome = "created"
	RowUpdated   RowOutcome = "updated"
	RowUnchanged RowOutcome = "unchanged"
	RowSkipped   RowOutcome = "skipped"
	RowFailed    RowOutcome = "failed"
)

// AssignRow reports what happened to one email in a bulk assignment.
type AssignRow struct {
	Email       string       `json:"email"`
	UniversalID string       `json:"universal_id"`
	AccountID   id.AccountID `json:"account_id,omitempty"`
	Outcome     RowOutcome   `json:"outcome"`
}

// AssignReport lists processed rows in processing order.
type AssignReport struct {
	Rows []AssignRow `json:"rows"`
}

// Count returns how many rows ended with outcome.
func (r *AssignReport) Count(outcome RowOutcome) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, row := range r.Rows {
		if row.Outcome == outcome {
			n++
		}
	}
	return n
}
