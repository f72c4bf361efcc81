package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewflow-hq/crewflow-api/internal/models"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	return sqlxdb, mock, func() {
		db.Close()
	}
}

var userRows = []string{"id", "company_id", "email", "password_hash", "name", "phone", "role", "status", "last_login_at", "created_at", "updated_at", "deleted_at"}

func TestFindByEmail(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(userRows).
		AddRow("u1", "c1", "maria@demo.com", "hash", "Maria Lopez", nil, string(models.RoleForeman), string(models.UserStatusActive), now, now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE LOWER(email) = LOWER($1) AND deleted_at IS NULL LIMIT 1")).
		WithArgs("maria@demo.com").
		WillReturnRows(rows)

	user, err := repo.FindByEmail(context.Background(), "maria@demo.com")
	require.NoError(t, err)
	assert.Equal(t, "maria@demo.com", user.Email)
	assert.Equal(t, "c1", user.CompanyID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmailMissingReturnsNoRows(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users WHERE").WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByEmail(context.Background(), "nobody@demo.com")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUserFillsIdentifiers(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec("INSERT INTO users").WillReturnResult(sqlmock.NewResult(1, 1))

	user := &models.User{
		CompanyID: "c1",
		Email:     "new@demo.com",
		Name:      "New Worker",
		Role:      models.RoleFieldWorker,
		Status:    models.UserStatusInvited,
	}
	err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.False(t, user.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListUsersScopedToCompany(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	listRows := sqlmock.NewRows(userRows).
		AddRow("u1", "c1", "a@demo.com", "hash", "A", nil, string(models.RoleAdmin), string(models.UserStatusActive), now, now, now, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM users WHERE company_id = $1 AND deleted_at IS NULL ORDER BY created_at DESC LIMIT 20 OFFSET 0")).
		WithArgs("c1").
		WillReturnRows(listRows)

	countRows := sqlmock.NewRows([]string{"count"}).AddRow(1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM users WHERE company_id = $1 AND deleted_at IS NULL")).
		WithArgs("c1").
		WillReturnRows(countRows)

	users, total, err := repo.List(context.Background(), "c1", models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSoftDeleteKeepsRow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET deleted_at = $3, updated_at = $3 WHERE id = $1 AND company_id = $2 AND deleted_at IS NULL")).
		WithArgs("u1", "c1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.SoftDelete(context.Background(), "c1", "u1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
