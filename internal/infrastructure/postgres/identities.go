package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/flightdesk-api/internal/domain"
	"github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS identities (
	user_id         TEXT PRIMARY KEY,
	email           TEXT NOT NULL UNIQUE,
	role            TEXT NOT NULL,
	permissions     TEXT[] NOT NULL DEFAULT '{}',
	first_name      TEXT NOT NULL DEFAULT '',
	last_name       TEXT NOT NULL DEFAULT '',
	verified        BOOLEAN NOT NULL DEFAULT FALSE,
	email_confirmed BOOLEAN NOT NULL DEFAULT FALSE,
	enable          BOOLEAN NOT NULL DEFAULT TRUE,
	flight_hours    DOUBLE PRECISION NOT NULL DEFAULT 0,
	credited_hours  DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at      TIMESTAMPTZ NOT NULL,
	updated_at      TIMESTAMPTZ NOT NULL
)`

const identityColumns = `user_id, email, role, permissions, first_name, last_name, verified,
	email_confirmed, enable, flight_hours, credited_hours, created_at, updated_at`

// Open connects to PostgreSQL and checks the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// IdentityRepo stores identities in a relational table. The UNIQUE email
// constraint makes create-if-absent a single statement.
type IdentityRepo struct {
	db *sql.DB
}

func NewIdentityRepo(db *sql.DB) *IdentityRepo {
	return &IdentityRepo{db: db}
}

// EnsureSchema creates the identities table when missing.
func (r *IdentityRepo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("create identities table: %w", err)
	}
	return nil
}

func (r *IdentityRepo) GetByEmail(ctx context.Context, email string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE email = $1`, email)
	return scanIdentity(row, email)
}

func (r *IdentityRepo) Get(ctx context.Context, userID string) (*domain.Identity, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+identityColumns+` FROM identities WHERE user_id = $1`, userID)
	return scanIdentity(row, userID)
}

func (r *IdentityRepo) Create(ctx context.Context, ident *domain.Identity) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO identities (`+identityColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (email) DO NOTHING`,
		ident.UserID, ident.Email, string(ident.Role), pq.Array(ident.Permissions),
		ident.FirstName, ident.LastName, ident.Verified, ident.EmailConfirmed, ident.Enable,
		ident.FlightHours, ident.CreditedHours, ident.CreatedAt, ident.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert identity: %v: %w", err, domain.ErrUnavailable)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert identity: %v: %w", err, domain.ErrUnavailable)
	}
	if n == 0 {
		return fmt.Errorf("identity %s exists: %w", ident.Email, domain.ErrConflict)
	}
	return nil
}

func (r *IdentityRepo) Update(ctx context.Context, ident *domain.Identity) error {
	perms := ident.Permissions
	if perms == nil {
		perms = []string{}
	}
	res, err := r.db.ExecContext(ctx, `UPDATE identities
		SET role = $2, permissions = $3, enable = $4, first_name = $5, last_name = $6, updated_at = $7
		WHERE user_id = $1`,
		ident.UserID, string(ident.Role), pq.Array(perms), ident.Enable,
		ident.FirstName, ident.LastName, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("update identity: %v: %w", err, domain.ErrUnavailable)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("identity %s: %w", ident.UserID, domain.ErrNotFound)
	}
	return nil
}

// List returns up to limit identities ordered by ID. The cursor is the offset
// of the next page, empty when there is none.
func (r *IdentityRepo) List(ctx context.Context, limit int32, cursor string) ([]domain.Identity, string, error) {
	offset := 0
	if cursor != "" {
		n, err := strconv.Atoi(cursor)
		if err != nil || n < 0 {
			return nil, "", fmt.Errorf("invalid cursor: %w", domain.ErrBadRequest)
		}
		offset = n
	}
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+identityColumns+` FROM identities ORDER BY user_id LIMIT $1 OFFSET $2`,
		limit+1, offset)
	if err != nil {
		return nil, "", fmt.Errorf("list identities: %v: %w", err, domain.ErrUnavailable)
	}
	defer rows.Close()

	var out []domain.Identity
	for rows.Next() {
		ident, err := scanIdentity(rows, "")
		if err != nil {
			return nil, "", err
		}
		out = append(out, *ident)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("list identities: %v: %w", err, domain.ErrUnavailable)
	}
	next := ""
	if int32(len(out)) > limit {
		out = out[:limit]
		next = strconv.Itoa(offset + int(limit))
	}
	return out, next, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanIdentity(row rowScanner, key string) (*domain.Identity, error) {
	var (
		ident domain.Identity
		role  string
	)
	err := row.Scan(&ident.UserID, &ident.Email, &role, pq.Array(&ident.Permissions),
		&ident.FirstName, &ident.LastName, &ident.Verified, &ident.EmailConfirmed, &ident.Enable,
		&ident.FlightHours, &ident.CreditedHours, &ident.CreatedAt, &ident.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("identity %s: %w", key, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan identity: %v: %w", err, domain.ErrUnavailable)
	}
	ident.Role = domain.Role(role)
	return &ident, nil
}
