package link

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	"casbinder/pkg/platform/sentinel"
	txcontext "casbinder/pkg/platform/tx"
)

const uniqueViolation = "23505"

// PostgresStore persists identity links in PostgreSQL. The schema enforces
// one link per account (primary key) and one account per universal id (unique).
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed link store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) FindByUniversalID(ctx context.Context, universalID string) (*models.Link, error) {
	query := `
		SELECT account_id, universal_id, created_at, updated_at
		FROM identity_links
		WHERE universal_id = $1
	`
	return s.findOne(ctx, "find link by universal id", query, universalID)
}

func (s *PostgresStore) FindByAccount(ctx context.Context, accountID id.AccountID) (*models.Link, error) {
	query := `
		SELECT account_id, universal_id, created_at, updated_at
		FROM identity_links
		WHERE account_id = $1
	`
	return s.findOne(ctx, "find link by account", query, accountID.String())
}

// FindByAccountForUpdate locks the link row until the surrounding transaction ends.
func (s *PostgresStore) FindByAccountForUpdate(ctx context.Context, accountID id.AccountID) (*models.Link, error) {
	query := `
		SELECT account_id, universal_id, created_at, updated_at
		FROM identity_links
		WHERE account_id = $1
		FOR UPDATE
	`
	return s.findOne(ctx, "find link for update", query, accountID.String())
}

// LockUniversalID takes a transaction-scoped advisory lock keyed by the
// universal id, so concurrent binds for one identity run one after another
// even before any row exists. Must be called inside a transaction.
func (s *PostgresStore) LockUniversalID(ctx context.Context, universalID string) error {
	if !txcontext.InTx(ctx) {
		return errors.New("lock universal id: no transaction in context")
	}
	_, err := txcontext.Active(ctx, s.db).ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext($1))`, universalID)
	if err != nil {
		return fmt.Errorf("lock universal id: %w", err)
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, l *models.Link) error {
	query := `
		INSERT INTO identity_links (account_id, universal_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := txcontext.Active(ctx, s.db).ExecContext(ctx, query,
		l.AccountID.String(), l.UniversalID, l.CreatedAt, l.UpdatedAt)
	if err != nil {
		return mapWriteError("create link", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, l *models.Link) error {
	query := `
		UPDATE identity_links
		SET universal_id = $2, updated_at = $3
		WHERE account_id = $1
	`
	res, err := txcontext.Active(ctx, s.db).ExecContext(ctx, query,
		l.AccountID.String(), l.UniversalID, l.UpdatedAt)
	if err != nil {
		return mapWriteError("update link", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update link rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// Upsert links accountID to universalID in one statement. The bool result
// reports whether a new row was inserted.
func (s *PostgresStore) Upsert(ctx context.Context, accountID id.AccountID, universalID string, now time.Time) (*models.Link, bool, error) {
	if _, err := id.ParseUniversalID(universalID); err != nil {
		return nil, false, err
	}
	query := `
		INSERT INTO identity_links (account_id, universal_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (account_id) DO UPDATE SET
			universal_id = EXCLUDED.universal_id,
			updated_at = EXCLUDED.updated_at
		RETURNING account_id, universal_id, created_at, updated_at, (xmax = 0) AS inserted
	`
	var (
		l        models.Link
		raw      string
		inserted bool
	)
	err := txcontext.Active(ctx, s.db).QueryRowContext(ctx, query, accountID.String(), universalID, now).
		Scan(&raw, &l.UniversalID, &l.CreatedAt, &l.UpdatedAt, &inserted)
	if err != nil {
		return nil, false, mapWriteError("upsert link", err)
	}
	l.AccountID, err = id.ParseAccountID(raw)
	if err != nil {
		return nil, false, err
	}
	return &l, inserted, nil
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, args ...any) (*models.Link, error) {
	var (
		l   models.Link
		raw string
	)
	err := txcontext.Active(ctx, s.db).QueryRowContext(ctx, query, args...).
		Scan(&raw, &l.UniversalID, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	l.AccountID, err = id.ParseAccountID(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &l, nil
}

func mapWriteError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
	}
	return fmt.Errorf("%s: %w", op, err)
}
