package password

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is deliberately above the bcrypt library default so offline
// brute force of a leaked hash stays expensive.
const DefaultCost = 12

// Hasher hashes and verifies user secrets. It never retains, logs or returns
// the plaintext it is given.
type Hasher struct {
	cost int
}

// NewHasher builds a Hasher with the provided cost, clamped to the bcrypt
// supported range.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash produces a salted one-way hash of the plaintext.
func (h *Hasher) Hash(plaintext string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether plaintext matches the stored hash. bcrypt performs
// the final digest comparison in constant time, so a mismatch and a match
// take indistinguishable time.
func (h *Hasher) Verify(plaintext, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(plaintext)) == nil
}
