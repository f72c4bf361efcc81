package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewflow-hq/crewflow-api/internal/models"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
)

type mockUserCRUDRepo struct {
	users       map[string]*models.User
	emailExists bool
	created     *models.User
	deleted     []string
}

func (m *mockUserCRUDRepo) FindInCompany(ctx context.Context, companyID, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok && u.CompanyID == companyID {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserCRUDRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return m.emailExists, nil
}

func (m *mockUserCRUDRepo) List(ctx context.Context, companyID string, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		if u.CompanyID == companyID {
			out = append(out, *u)
		}
	}
	return out, len(out), nil
}

func (m *mockUserCRUDRepo) Create(ctx context.Context, user *models.User) error {
	user.ID = "generated"
	m.created = user
	return nil
}

func (m *mockUserCRUDRepo) Update(ctx context.Context, user *models.User) error { return nil }

func (m *mockUserCRUDRepo) SoftDelete(ctx context.Context, companyID, id string) error {
	m.deleted = append(m.deleted, id)
	return nil
}

type stubHasher struct{}

func (stubHasher) Hash(plaintext string) (string, error) { return "hashed:" + plaintext, nil }

func TestCreateUserHashesPassword(t *testing.T) {
	repo := &mockUserCRUDRepo{users: map[string]*models.User{}}
	svc := NewUserService(repo, stubHasher{}, nil, nil)

	user, err := svc.Create(context.Background(), "c1", CreateUserRequest{
		Email:    "new@demo.com",
		Password: "longenough",
		Name:     "New Worker",
		Role:     models.RoleFieldWorker,
	})
	require.NoError(t, err)
	assert.Equal(t, "hashed:longenough", user.PasswordHash)
	assert.Equal(t, "c1", user.CompanyID)
	assert.Equal(t, models.UserStatusActive, user.Status)
	require.NotNil(t, repo.created)
}

func TestCreateUserRejectsDuplicateEmail(t *testing.T) {
	repo := &mockUserCRUDRepo{users: map[string]*models.User{}, emailExists: true}
	svc := NewUserService(repo, stubHasher{}, nil, nil)

	_, err := svc.Create(context.Background(), "c1", CreateUserRequest{
		Email:    "taken@demo.com",
		Password: "longenough",
		Name:     "Dup",
		Role:     models.RoleAdmin,
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrConflict))
}

func TestCreateUserRejectsUnknownRole(t *testing.T) {
	repo := &mockUserCRUDRepo{users: map[string]*models.User{}}
	svc := NewUserService(repo, stubHasher{}, nil, nil)

	_, err := svc.Create(context.Background(), "c1", CreateUserRequest{
		Email:    "x@demo.com",
		Password: "longenough",
		Name:     "X",
		Role:     models.UserRole("SUPERVISOR"),
	})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
}

func TestGetUserOutsideCompanyIsNotFound(t *testing.T) {
	repo := &mockUserCRUDRepo{users: map[string]*models.User{
		"u1": {ID: "u1", CompanyID: "other-company"},
	}}
	svc := NewUserService(repo, stubHasher{}, nil, nil)

	_, err := svc.Get(context.Background(), "c1", "u1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrNotFound))
}

func TestDeleteUserRefusesSelf(t *testing.T) {
	repo := &mockUserCRUDRepo{users: map[string]*models.User{
		"u1": {ID: "u1", CompanyID: "c1"},
	}}
	svc := NewUserService(repo, stubHasher{}, nil, nil)

	err := svc.Delete(context.Background(), "c1", "u1", "u1")
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrValidation))
	assert.Empty(t, repo.deleted)
}
