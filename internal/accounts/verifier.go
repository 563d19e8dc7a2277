package accounts

import (
	"crypto/subtle"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// CredentialVerifier decides whether a supplied password matches the stored one.
type CredentialVerifier interface {
	Verify(stored, supplied string) bool
}

// PasswordScheme verifies passwords and encodes new ones for storage.
type PasswordScheme interface {
	CredentialVerifier
	Encode(plain string) (string, error)
}

// PlaintextScheme stores passwords as given and compares by exact equality.
// It exists for compatibility with account collections that were populated by hand.
type PlaintextScheme struct{}

// Verify compares in constant time.
func (PlaintextScheme) Verify(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// Encode returns plain unchanged.
func (PlaintextScheme) Encode(plain string) (string, error) {
	return plain, nil
}

// BcryptScheme stores bcrypt hashes.
type BcryptScheme struct {
	Cost int // 0 = bcrypt.DefaultCost
}

// Verify reports whether supplied hashes to stored.
func (BcryptScheme) Verify(stored, supplied string) bool {
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}

// Encode hashes plain.
func (s BcryptScheme) Encode(plain string) (string, error) {
	cost := s.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(h), nil
}

// NewScheme returns the scheme registered under name: "plaintext" or "bcrypt".
func NewScheme(name string) (PasswordScheme, error) {
	switch name {
	case "", "plaintext":
		return PlaintextScheme{}, nil
	case "bcrypt":
		return BcryptScheme{}, nil
	default:
		return nil, fmt.Errorf("unknown password scheme %q", name)
	}
}
