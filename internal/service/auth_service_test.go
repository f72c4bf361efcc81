package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/crewflow-hq/crewflow-api/internal/models"
	"github.com/crewflow-hq/crewflow-api/internal/repository"
	"github.com/crewflow-hq/crewflow-api/internal/token"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
	"github.com/crewflow-hq/crewflow-api/pkg/password"
)

type mockUserRepo struct {
	byEmail          map[string]*models.User
	byID             map[string]*models.User
	lastLoginUpdated bool
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := m.byEmail[email]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.byID[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	m.lastLoginUpdated = true
	return nil
}

// mockSessionStore mimics the Redis repository, including the atomic
// compare-and-swap semantics of Rotate.
type mockSessionStore struct {
	mu      sync.Mutex
	records map[string]string
	err     error
}

func newMockSessionStore() *mockSessionStore {
	return &mockSessionStore{records: make(map[string]string)}
}

func (m *mockSessionStore) Put(ctx context.Context, sessionID, refreshToken string, ttl time.Duration) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[sessionID] = refreshToken
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, sessionID string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.records[sessionID]
	if !ok {
		return "", repository.ErrSessionNotFound
	}
	return value, nil
}

func (m *mockSessionStore) Delete(ctx context.Context, sessionID string) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, sessionID)
	return nil
}

func (m *mockSessionStore) Rotate(ctx context.Context, oldSessionID, presentedToken, newSessionID, newToken string, ttl time.Duration) (bool, error) {
	if m.err != nil {
		return false, m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[oldSessionID] != presentedToken {
		return false, nil
	}
	delete(m.records, oldSessionID)
	m.records[newSessionID] = newToken
	return true, nil
}

type mockAudit struct {
	entries []*models.AuditLog
}

func (m *mockAudit) Record(ctx context.Context, entry *models.AuditLog) error {
	m.entries = append(m.entries, entry)
	return nil
}

func newTestCodec() *token.Codec {
	return token.NewCodec(token.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Minute,
		RefreshTTL:    time.Hour,
		Issuer:        "crewflow-test",
	})
}

func newAuthFixture(t *testing.T) (*AuthService, *mockUserRepo, *mockSessionStore, *token.Codec) {
	t.Helper()
	hasher := password.NewHasher(bcrypt.MinCost)
	hash, err := hasher.Hash("correct horse")
	require.NoError(t, err)

	user := &models.User{
		ID:           "u1",
		CompanyID:    "c1",
		Email:        "maria@demo.com",
		PasswordHash: hash,
		Name:         "Maria Lopez",
		Role:         models.RoleForeman,
		Status:       models.UserStatusActive,
	}
	users := &mockUserRepo{
		byEmail: map[string]*models.User{user.Email: user},
		byID:    map[string]*models.User{user.ID: user},
	}
	sessions := newMockSessionStore()
	codec := newTestCodec()
	svc := NewAuthService(users, sessions, codec, hasher, &mockAudit{}, validator.New(), zap.NewNop())
	return svc, users, sessions, codec
}

func TestLoginIssuesMatchingClaimsAndLiveSession(t *testing.T) {
	svc, users, sessions, codec := newAuthFixture(t)

	res, err := svc.Login(context.Background(), models.LoginRequest{Email: "maria@demo.com", Password: "correct horse"})
	require.NoError(t, err)

	accessClaims, err := codec.ParseAccess(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", accessClaims.UserID)
	assert.Equal(t, "c1", accessClaims.CompanyID)
	assert.Equal(t, models.RoleForeman, accessClaims.Role)

	refreshClaims, err := codec.ParseRefresh(res.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, accessClaims.SessionID, refreshClaims.SessionID)

	stored, err := sessions.Get(context.Background(), refreshClaims.SessionID)
	require.NoError(t, err)
	assert.Equal(t, res.RefreshToken, stored)
	assert.True(t, users.lastLoginUpdated)
}

func TestLoginFailuresAreUninformative(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	_, unknownErr := svc.Login(context.Background(), models.LoginRequest{Email: "nobody@demo.com", Password: "whatever"})
	_, wrongErr := svc.Login(context.Background(), models.LoginRequest{Email: "maria@demo.com", Password: "wrong"})

	require.Error(t, unknownErr)
	require.Error(t, wrongErr)
	assert.Equal(t, appErrors.FromError(unknownErr).Code, appErrors.FromError(wrongErr).Code)
	assert.Equal(t, appErrors.FromError(unknownErr).Message, appErrors.FromError(wrongErr).Message)
	assert.True(t, appErrors.IsCode(unknownErr, appErrors.ErrInvalidCredentials))
}

func TestLoginRejectsInactiveAccount(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)
	users.byEmail["maria@demo.com"].Status = models.UserStatusSuspended

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "maria@demo.com", Password: "correct horse"})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInactiveAccount))
}

func TestLoginStoreOutageIsNotAnAuthDecision(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t)
	sessions.err = errors.New("connection refused")

	_, err := svc.Login(context.Background(), models.LoginRequest{Email: "maria@demo.com", Password: "correct horse"})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrStoreUnavailable))
}

func TestRefreshRotatesAndRejectsReplay(t *testing.T) {
	svc, _, _, codec := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "maria@demo.com", Password: "correct horse"})
	require.NoError(t, err)
	tokenA := login.RefreshToken

	first, err := svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: tokenA})
	require.NoError(t, err)
	tokenB := first.RefreshToken
	assert.NotEqual(t, tokenA, tokenB)

	// rotation never reuses a session id
	claimsA, err := codec.ParseRefresh(tokenA)
	require.NoError(t, err)
	claimsB, err := codec.ParseRefresh(tokenB)
	require.NoError(t, err)
	assert.NotEqual(t, claimsA.SessionID, claimsB.SessionID)

	// replaying the rotated-away token fails even though its signature is valid
	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: tokenA})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidToken))

	// the winning chain stays valid
	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: tokenB})
	require.NoError(t, err)
}

func TestLogoutInvalidatesRefresh(t *testing.T) {
	svc, _, _, codec := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "maria@demo.com", Password: "correct horse"})
	require.NoError(t, err)

	claims, err := codec.ParseRefresh(login.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), claims, "", ""))

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidToken))

	// logout is idempotent
	require.NoError(t, svc.Logout(context.Background(), claims, "", ""))
}

func TestRefreshRejectsTamperedToken(t *testing.T) {
	svc, _, _, _ := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "maria@demo.com", Password: "correct horse"})
	require.NoError(t, err)

	tok := login.RefreshToken
	last := tok[len(tok)-1]
	flipped := byte('A')
	if last == 'A' {
		flipped = 'B'
	}
	tampered := tok[:len(tok)-1] + string(flipped)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: tampered})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidToken))
}

func TestRefreshStoreOutageSurfacesAsRetryable(t *testing.T) {
	svc, _, sessions, _ := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "maria@demo.com", Password: "correct horse"})
	require.NoError(t, err)

	sessions.err = errors.New("i/o timeout")
	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrStoreUnavailable))
	assert.False(t, appErrors.IsCode(err, appErrors.ErrInvalidToken))
}

func TestRefreshRejectsInactiveAccount(t *testing.T) {
	svc, users, _, _ := newAuthFixture(t)

	login, err := svc.Login(context.Background(), models.LoginRequest{Email: "maria@demo.com", Password: "correct horse"})
	require.NoError(t, err)

	users.byID["u1"].Status = models.UserStatusSuspended
	_, err = svc.Refresh(context.Background(), models.RefreshRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInactiveAccount))
}

func TestValidateAccessTokenRejectsExpired(t *testing.T) {
	hasher := password.NewHasher(bcrypt.MinCost)
	codec := token.NewCodec(token.Config{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessTTL:     time.Millisecond,
		RefreshTTL:    time.Hour,
	})
	svc := NewAuthService(&mockUserRepo{}, newMockSessionStore(), codec, hasher, nil, validator.New(), zap.NewNop())

	user := &models.User{ID: "u1", CompanyID: "c1", Role: models.RoleOwner}
	tok, _, err := codec.IssueAccess(user, "s1")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)

	_, err = svc.ValidateAccessToken(tok)
	require.Error(t, err)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInvalidToken))
}
