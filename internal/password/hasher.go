// Package password hashes account passwords and holds the length policy
// shared by registration, password change and the seed tool.
package password

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinLength is the shortest password accepted.
const MinLength = 6

// ErrTooShort is returned for passwords under the minimum length.
var ErrTooShort = fmt.Errorf("password must be at least %d characters", MinLength)

var errEmptyHash = errors.New("empty password hash")

// Hasher turns plaintext passwords into bcrypt hashes after checking the policy.
type Hasher struct {
	cost      int
	minLength int
}

func NewHasher() *Hasher {
	return &Hasher{cost: bcrypt.DefaultCost, minLength: MinLength}
}

// Default is the hasher used by the HTTP handlers and the seed tool.
var Default = NewHasher()

// Validate checks plain against the length policy, counted in characters.
func (h *Hasher) Validate(plain string) error {
	if utf8.RuneCountInString(plain) < h.minLength {
		return ErrTooShort
	}
	return nil
}

// Hash validates plain and returns its bcrypt hash.
func (h *Hasher) Hash(plain string) (string, error) {
	if err := h.Validate(plain); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Matches reports whether plain is the password stored as hash.
func (h *Hasher) Matches(plain, hash string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// Rehash returns a new hash of plain when hash was made with another cost,
// so accounts follow cost changes on their next login. ok is false when
// hash is already current.
func (h *Hasher) Rehash(plain, hash string) (string, bool, error) {
	if hash == "" {
		return "", false, errEmptyHash
	}
	cost, err := bcrypt.Cost([]byte(hash))
	if err != nil {
		return "", false, err
	}
	if cost == h.cost {
		return "", false, nil
	}
	fresh, err := h.Hash(plain)
	return fresh, err == nil, err
}

// SetCost changes the bcrypt work factor; tests lower it to bcrypt.MinCost.
func (h *Hasher) SetCost(cost int) {
	h.cost = cost
}
