package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flightdesk-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var cols = []string{"user_id", "email", "role", "permissions", "first_name", "last_name", "verified",
	"email_confirmed", "enable", "flight_hours", "credited_hours", "created_at", "updated_at"}

func newRepo(t *testing.T) (*IdentityRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewIdentityRepo(db), mock
}

func TestGetByEmail_Found(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`SELECT .* FROM identities WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			"01A", "a@b.com", "admin", "{users:write,files:write}", "Ana", "Souza",
			true, true, true, 12.5, 3.0, now, now))

	got, err := repo.GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, got.Role)
	assert.Equal(t, []string{"users:write", "files:write"}, got.Permissions)
	assert.Equal(t, 12.5, got.FlightHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByEmail_Missing(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`FROM identities WHERE email`).
		WithArgs("x@b.com").
		WillReturnRows(sqlmock.NewRows(cols))

	_, err := repo.GetByEmail(context.Background(), "x@b.com")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestCreate_ConflictWhenEmailTaken(t *testing.T) {
	repo, mock := newRepo(t)
	ident := &domain.Identity{UserID: "01A", Email: "a@b.com", Role: domain.RoleUser, Enable: true}

	mock.ExpectExec(`INSERT INTO identities .* ON CONFLICT \(email\) DO NOTHING`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO identities`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.Create(context.Background(), ident))
	err := repo.Create(context.Background(), ident)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreate_BackendError(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO identities`).WillReturnError(errors.New("connection reset"))

	err := repo.Create(context.Background(), &domain.Identity{UserID: "01A", Email: "a@b.com"})
	assert.True(t, errors.Is(err, domain.ErrUnavailable))
}

func TestUpdate_NotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`UPDATE identities`).
		WithArgs("01Z", "admin", sqlmock.AnyArg(), true, "", "", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), &domain.Identity{UserID: "01Z", Role: domain.RoleAdmin, Enable: true})
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestList_Paginates(t *testing.T) {
	repo, mock := newRepo(t)
	now := time.Now()
	mock.ExpectQuery(`ORDER BY user_id LIMIT \$1 OFFSET \$2`).
		WithArgs(3, 0).
		WillReturnRows(sqlmock.NewRows(cols).
			AddRow("01A", "a@b.com", "user", "{}", "", "", false, false, true, 0.0, 0.0, now, now).
			AddRow("01B", "b@b.com", "user", "{}", "", "", false, false, true, 0.0, 0.0, now, now).
			AddRow("01C", "c@b.com", "user", "{}", "", "", false, false, true, 0.0, 0.0, now, now))

	page, next, err := repo.List(context.Background(), 2, "")
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.Equal(t, "2", next)

	_, _, err = repo.List(context.Background(), 2, "abc")
	assert.True(t, errors.Is(err, domain.ErrBadRequest))
}

func TestEnsureSchema(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS identities`).WillReturnResult(sqlmock.NewResult(0, 0))
	require.NoError(t, repo.EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
