// Package auth - password.go handles password hashing and verification with bcrypt.
package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// bcryptCost is deliberately above the library default (10). Login is rare
// enough that the extra ~300ms per hash is acceptable.
const bcryptCost = 12

// minPasswordLength is the minimum accepted password length at registration.
const minPasswordLength = 8

// HashPassword hashes a plaintext password with bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", errors.New("password must be at least 8 characters")
	}
	// bcrypt silently truncates beyond 72 bytes; reject instead
	if len(password) > 72 {
		return "", errors.New("password must be at most 72 bytes")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a bcrypt hash.
// Returns true on match.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
