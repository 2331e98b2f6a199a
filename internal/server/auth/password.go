package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// PasswordHasher produces salted bcrypt digests at a fixed cost.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher requires 0 < cost <= bcrypt.MaxCost. Costs below
// bcrypt.MinCost are raised to it by the bcrypt package.
func NewPasswordHasher(cost int) (*PasswordHasher, error) {
	if cost <= 0 || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("bcrypt cost must be in (0, %d], got %d", bcrypt.MaxCost, cost)
	}
	return &PasswordHasher{cost: cost}, nil
}

func (h *PasswordHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare reports whether plaintext matches digest. The comparison is
// constant-time inside bcrypt.
func (h *PasswordHasher) Compare(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
