// Package password hashes and verifies user passwords.
package password

import (
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is used when a Bcrypt hasher is built with Cost 0.
const DefaultCost = 12

// Hasher defines the minimal hashing interface used by the user store and authentication.
type Hasher interface {
	Hash(plain string) (string, error)
	Compare(plain, stored string) bool
}

// Bcrypt implementation.
type Bcrypt struct{ Cost int }

func NewBcrypt(cost int) Bcrypt {
	return Bcrypt{Cost: cost}
}

func (b Bcrypt) Hash(plain string) (string, error) {
	cost := b.Cost
	if cost == 0 {
		cost = DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// Compare reports whether plain matches the stored hash. Malformed hashes never match.
func (b Bcrypt) Compare(plain, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(plain)) == nil
}
