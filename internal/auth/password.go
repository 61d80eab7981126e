package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher is a one-way salted hash. Verify never errors: a mismatch
// or a malformed digest is simply false.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

type BcryptHasher struct {
	cost int
}

// NewBcryptHasher falls back to bcrypt.DefaultCost for an out-of-range cost.
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext))
	return err == nil
}

// Cost reports the work factor embedded in digest.
func Cost(digest string) (int, error) {
	cost, err := bcrypt.Cost([]byte(digest))
	if err != nil {
		return 0, errors.New("not a bcrypt digest")
	}
	return cost, nil
}
