package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound reports that no live record exists for a session ID. It
// is distinct from infrastructure failures: a Redis timeout or outage never
// maps to it.
var ErrSessionNotFound = errors.New("session not found")

const sessionKeyPrefix = "session:"

// rotateScript atomically swaps an old session record for a new one, but only
// while the stored value still equals the presented refresh token. Running as
// a single Lua script means two concurrent refreshes with the same old token
// cannot both win.
var rotateScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	redis.call("DEL", KEYS[1])
	redis.call("SET", KEYS[2], ARGV[2], "PX", ARGV[3])
	return 1
end
return 0
`)

// SessionRepository is the single source of truth for which refresh sessions
// are alive. Records self-expire with the refresh token TTL, so revocation
// being skipped never leaves an immortal session. No in-process caching:
// every check is a store round-trip so revocation stays immediate across
// server instances.
type SessionRepository struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewSessionRepository constructs a session repository. opTimeout bounds each
// store operation.
func NewSessionRepository(client *redis.Client, opTimeout time.Duration) *SessionRepository {
	if opTimeout <= 0 {
		opTimeout = 2 * time.Second
	}
	return &SessionRepository{client: client, opTimeout: opTimeout}
}

// Put creates or overwrites the record for sessionID with the refresh token
// value, expiring after ttl.
func (r *SessionRepository) Put(ctx context.Context, sessionID, refreshToken string, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Set(ctx, sessionKeyPrefix+sessionID, refreshToken, ttl).Err(); err != nil {
		return fmt.Errorf("session put %s: %w", sessionID, err)
	}
	return nil
}

// Get returns the stored refresh token value for sessionID, or
// ErrSessionNotFound when no live record exists.
func (r *SessionRepository) Get(ctx context.Context, sessionID string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	value, err := r.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("session get %s: %w", sessionID, err)
	}
	return value, nil
}

// Delete removes the record for sessionID. Deleting an absent key is not an
// error.
func (r *SessionRepository) Delete(ctx context.Context, sessionID string) error {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	if err := r.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("session delete %s: %w", sessionID, err)
	}
	return nil
}

// Rotate swaps oldSessionID's record for a fresh one in a single atomic store
// operation. It succeeds only if the stored value for oldSessionID still
// equals presentedToken; the return value reports whether this caller won.
func (r *SessionRepository) Rotate(ctx context.Context, oldSessionID, presentedToken, newSessionID, newToken string, ttl time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opTimeout)
	defer cancel()

	keys := []string{sessionKeyPrefix + oldSessionID, sessionKeyPrefix + newSessionID}
	res, err := rotateScript.Run(ctx, r.client, keys, presentedToken, newToken, ttl.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("session rotate %s: %w", oldSessionID, err)
	}
	return res == 1, nil
}
