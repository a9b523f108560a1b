// Package password produces and checks bcrypt password digests.
package password

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Cost is the bcrypt work factor used for new digests.
const Cost = 12

// ErrMismatch is returned by Verify when the password does not match.
var ErrMismatch = errors.New("password mismatch")

// Hash returns the bcrypt digest of plain.
func Hash(plain string) (string, error) {
	return HashWithCost(plain, Cost)
}

// HashWithCost is Hash with an explicit cost. Tests use bcrypt.MinCost.
func HashWithCost(plain string, cost int) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(digest), nil
}

// Verify compares plain against digest.
func Verify(digest, plain string) error {
	if digest == "" {
		return ErrMismatch
	}
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plain))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrMismatch
	}
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	return nil
}

// Matches reports whether plain matches digest.
func Matches(digest, plain string) bool {
	return Verify(digest, plain) == nil
}

// Hasher hashes and verifies passwords with a fixed cost.
type Hasher struct {
	cost int
}

// NewHasher returns a Hasher. A cost outside bcrypt's range falls back to Cost.
func NewHasher(cost int) Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = Cost
	}
	return Hasher{cost: cost}
}

// Hash returns the digest of plain.
func (h Hasher) Hash(plain string) (string, error) {
	return HashWithCost(plain, h.cost)
}

// Verify compares plain against digest.
func (h Hasher) Verify(digest, plain string) error {
	return Verify(digest, plain)
}
