package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/crewflow-hq/crewflow-api/internal/models"
	appErrors "github.com/crewflow-hq/crewflow-api/pkg/errors"
)

// Config carries the signing material for both token kinds. The two secrets
// are independent: leaking the access secret must not allow minting
// long-lived refresh tokens.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Issuer        string
}

// Codec signs and verifies the bearer tokens used by the session layer.
// Tokens are HS256 JWTs; the signature is always verified before any claim
// is inspected.
type Codec struct {
	cfg Config
}

// NewCodec constructs a Codec.
func NewCodec(cfg Config) *Codec {
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Codec{cfg: cfg}
}

// AccessTTL exposes the configured access token lifetime.
func (c *Codec) AccessTTL() time.Duration { return c.cfg.AccessTTL }

// RefreshTTL exposes the configured refresh token lifetime. The session store
// uses the same value so record expiry stays in lockstep with the token.
func (c *Codec) RefreshTTL() time.Duration { return c.cfg.RefreshTTL }

// IssueAccess signs a short-lived access token for the user and session.
func (c *Codec) IssueAccess(user *models.User, sessionID string) (string, time.Time, error) {
	return c.issue(user, sessionID, c.cfg.AccessSecret, c.cfg.AccessTTL)
}

// IssueRefresh signs a long-lived refresh token for the user and session.
func (c *Codec) IssueRefresh(user *models.User, sessionID string) (string, time.Time, error) {
	return c.issue(user, sessionID, c.cfg.RefreshSecret, c.cfg.RefreshTTL)
}

// ParseAccess verifies an access token and returns its claims.
func (c *Codec) ParseAccess(tokenString string) (*models.Claims, error) {
	return c.parse(tokenString, c.cfg.AccessSecret)
}

// ParseRefresh verifies a refresh token and returns its claims. A valid
// signature alone does not make a refresh token usable; the session manager
// still cross-checks the session store.
func (c *Codec) ParseRefresh(tokenString string) (*models.Claims, error) {
	return c.parse(tokenString, c.cfg.RefreshSecret)
}

func (c *Codec) issue(user *models.User, sessionID string, secret string, ttl time.Duration) (string, time.Time, error) {
	issuedAt := time.Now().UTC()
	expiresAt := issuedAt.Add(ttl)

	claims := &models.Claims{
		UserID:    user.ID,
		CompanyID: user.CompanyID,
		Role:      user.Role,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    c.cfg.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (c *Codec) parse(tokenString, secret string) (*models.Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &models.Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, appErrors.Wrap(err, appErrors.ErrMalformedToken.Code, appErrors.ErrMalformedToken.Status, "malformed token")
		}
		// Signature mismatch, expiry and not-before all collapse here; callers
		// never learn which check failed.
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidToken.Code, appErrors.ErrInvalidToken.Status, "invalid or expired token")
	}

	claims, ok := parsed.Claims.(*models.Claims)
	if !ok || !parsed.Valid {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "invalid token claims")
	}

	return claims, nil
}
