package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/crewflow-hq/crewflow-api/internal/models"
	"github.com/crewflow-hq/crewflow-api/internal/repository"
	"github.com/crewflow-hq/crewflow-api/internal/token"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
)

type authUserRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string, ts time.Time) error
}

// sessionStore is the session-liveness contract. Implemented by the Redis
// session repository; mocked in tests.
type sessionStore interface {
	Put(ctx context.Context, sessionID, refreshToken string, ttl time.Duration) error
	Get(ctx context.Context, sessionID string) (string, error)
	Delete(ctx context.Context, sessionID string) error
	Rotate(ctx context.Context, oldSessionID, presentedToken, newSessionID, newToken string, ttl time.Duration) (bool, error)
}

type credentialVerifier interface {
	Verify(plaintext, storedHash string) bool
}

type auditRecorder interface {
	Record(ctx context.Context, entry *models.AuditLog) error
}

// AuthService orchestrates login, refresh rotation and logout. All session
// liveness decisions go through the shared store; nothing is cached locally.
type AuthService struct {
	users     authUserRepository
	sessions  sessionStore
	codec     *token.Codec
	hasher    credentialVerifier
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(users authUserRepository, sessions sessionStore, codec *token.Codec, hasher credentialVerifier, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:     users,
		sessions:  sessions,
		codec:     codec,
		hasher:    hasher,
		audit:     audit,
		validator: validate,
		logger:    logger,
	}
}

// Login authenticates a user and opens a new session. Unknown accounts and
// wrong passwords return the same error so callers cannot enumerate emails.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if user.PasswordHash == "" || !s.hasher.Verify(req.Password, user.PasswordHash) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	if user.Status != models.UserStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}

	sessionID := uuid.NewString()

	accessToken, _, err := s.codec.IssueAccess(user, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue access token")
	}
	refreshToken, _, err := s.codec.IssueRefresh(user, sessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue refresh token")
	}

	// The session record's TTL matches the refresh token's, so the store entry
	// and the token expire together.
	if err := s.sessions.Put(ctx, sessionID, refreshToken, s.codec.RefreshTTL()); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to persist session")
	}

	if err := s.users.UpdateLastLogin(ctx, user.ID, time.Now().UTC()); err != nil {
		s.logger.Warn("failed to update last login", zap.Error(err))
	}

	s.recordAudit(ctx, user, models.AuditActionLogin, req.IP, req.UserAgent)

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
		IssuedAt:     time.Now().UTC(),
		User: models.UserInfo{
			ID:        user.ID,
			CompanyID: user.CompanyID,
			Email:     user.Email,
			Name:      user.Name,
			Role:      user.Role,
		},
	}, nil
}

// Refresh exchanges a refresh token for a new pair, rotating the session. The
// presented token is permanently unusable afterwards: when two callers race
// with the same old token, exactly one atomic swap wins and the loser fails.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshRequest) (*models.RefreshResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	claims, err := s.codec.ParseRefresh(req.RefreshToken)
	if err != nil {
		// Malformed and cryptographically-invalid tokens collapse here.
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.Status != models.UserStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveAccount, "")
	}

	newSessionID := uuid.NewString()

	accessToken, _, err := s.codec.IssueAccess(user, newSessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue access token")
	}
	refreshToken, _, err := s.codec.IssueRefresh(user, newSessionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to issue refresh token")
	}

	// Single atomic swap: the old record is deleted and the new one created
	// only if the stored value still equals the presented token. This is what
	// rejects replayed or already-rotated tokens.
	rotated, err := s.sessions.Rotate(ctx, claims.SessionID, req.RefreshToken, newSessionID, refreshToken, s.codec.RefreshTTL())
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to rotate session")
	}
	if !rotated {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "")
	}

	s.recordAudit(ctx, user, models.AuditActionRefresh, req.IP, req.UserAgent)

	return &models.RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.codec.AccessTTL().Seconds()),
		IssuedAt:     time.Now().UTC(),
	}, nil
}

// Logout revokes the session unconditionally. Deleting an already-gone
// session is not an error.
func (s *AuthService) Logout(ctx context.Context, claims *models.Claims, ip, userAgent string) error {
	if err := s.sessions.Delete(ctx, claims.SessionID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to revoke session")
	}

	s.recordAudit(ctx, &models.User{ID: claims.UserID, CompanyID: claims.CompanyID}, models.AuditActionLogout, ip, userAgent)
	return nil
}

// ValidateAccessToken parses and verifies an access token, returning its
// claims. Access tokens are validated by signature and expiry alone; only
// refresh operations consult the session store.
func (s *AuthService) ValidateAccessToken(tokenString string) (*models.Claims, error) {
	return s.codec.ParseAccess(tokenString)
}

// SessionAlive reports whether a session currently has a live store record.
// A store failure surfaces as an error, never as "absent".
func (s *AuthService) SessionAlive(ctx context.Context, sessionID string) (bool, error) {
	if _, err := s.sessions.Get(ctx, sessionID); err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return false, nil
		}
		return false, appErrors.Wrap(err, appErrors.ErrStoreUnavailable.Code, appErrors.ErrStoreUnavailable.Status, "failed to check session")
	}
	return true, nil
}

func (s *AuthService) recordAudit(ctx context.Context, user *models.User, action, ip, userAgent string) {
	if s.audit == nil {
		return
	}
	entry := &models.AuditLog{
		CompanyID:  &user.CompanyID,
		UserID:     &user.ID,
		Action:     action,
		Resource:   "auth",
		ResourceID: &user.ID,
		IPAddress:  ip,
		UserAgent:  userAgent,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}
