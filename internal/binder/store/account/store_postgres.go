package account

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"casbinder/internal/binder/models"
	id "casbinder/pkg/domain"
	"casbinder/pkg/platform/sentinel"
	txcontext "casbinder/pkg/platform/tx"
)

const uniqueViolation = "23505"

const accountColumns = `id, username, email, first_name, last_name, password_hash, is_active, is_superuser, created_at, updated_at`

// PostgresStore persists accounts in PostgreSQL.
// Calls join the transaction carried by ctx when there is one.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed account directory.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, a *models.Account) error {
	query := `
		INSERT INTO accounts (` + accountColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := txcontext.Active(ctx, s.db).ExecContext(ctx, query,
		a.ID.String(), a.Username, a.Email, a.FirstName, a.LastName,
		a.PasswordHash, a.IsActive, a.IsSuperuser, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create account: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, a *models.Account) error {
	query := `
		UPDATE accounts
		SET username = $2, email = $3, first_name = $4, last_name = $5,
			password_hash = $6, is_active = $7, is_superuser = $8, updated_at = $9
		WHERE id = $1
	`
	res, err := txcontext.Active(ctx, s.db).ExecContext(ctx, query,
		a.ID.String(), a.Username, a.Email, a.FirstName, a.LastName,
		a.PasswordHash, a.IsActive, a.IsSuperuser, a.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("update account: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update account: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update account rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	return s.findOne(ctx, "find account by id", query, accountID.String())
}

// FindByIDForUpdate locks the account row until the surrounding transaction ends.
func (s *PostgresStore) FindByIDForUpdate(ctx context.Context, accountID id.AccountID) (*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	return s.findOne(ctx, "find account for update", query, accountID.String())
}

// FindByEmail returns the oldest account with email.
func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE email = $1
		ORDER BY created_at, id
		LIMIT 1
	`
	return s.findOne(ctx, "find account by email", query, email)
}

func (s *PostgresStore) FindByIDs(ctx context.Context, ids []id.AccountID) ([]*models.Account, error) {
	raw := make([]string, len(ids))
	for i, accountID := range ids {
		raw[i] = accountID.String()
	}
	query := `
		SELECT ` + accountColumns + `
		FROM accounts
		WHERE id = ANY($1::uuid[])
		ORDER BY username
	`
	return s.findMany(ctx, "find accounts by ids", query, pq.Array(raw))
}

func (s *PostgresStore) List(ctx context.Context) ([]*models.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts ORDER BY username`
	return s.findMany(ctx, "list accounts", query)
}

func (s *PostgresStore) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := txcontext.Active(ctx, s.db).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check username: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) findOne(ctx context.Context, op, query string, args ...any) (*models.Account, error) {
	a, err := scanAccount(txcontext.Active(ctx, s.db).QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return a, nil
}

func (s *PostgresStore) findMany(ctx context.Context, op, query string, args ...any) ([]*models.Account, error) {
	rows, err := txcontext.Active(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []*models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var (
		a   models.Account
		raw string
	)
	if err := row.Scan(&raw, &a.Username, &a.Email, &a.FirstName, &a.LastName,
		&a.PasswordHash, &a.IsActive, &a.IsSuperuser, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(raw)
	if err != nil {
		return nil, err
	}
	a.ID = accountID
	return &a, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
