package auth

import (
	"strings"
	"testing"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if hash == "" {
		t.Fatal("HashPassword() returned empty hash")
	}
	if !strings.HasPrefix(hash, "$2a$") && !strings.HasPrefix(hash, "$2b$") {
		t.Errorf("hash does not look like bcrypt: %q", hash[:4])
	}

	if !CheckPassword("correct horse battery staple", hash) {
		t.Error("CheckPassword() = false for correct password")
	}
	if CheckPassword("wrong password!", hash) {
		t.Error("CheckPassword() = true for wrong password")
	}
}

func TestHashPassword_TooShort(t *testing.T) {
	if _, err := HashPassword("short"); err == nil {
		t.Error("expected error for password below minimum length")
	}
}

func TestHashPassword_TooLong(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("a", 73)); err == nil {
		t.Error("expected error for password above 72 bytes")
	}
}

func TestCheckPassword_InvalidHash(t *testing.T) {
	if CheckPassword("anything", "not-a-bcrypt-hash") {
		t.Error("CheckPassword() = true for garbage hash")
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	h1, err := HashPassword("same password here")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	h2, err := HashPassword("same password here")
	if err != nil {
		t.Fatalf("HashPassword() error: %v", err)
	}
	if h1 == h2 {
		t.Error("expected different hashes for same password (random salt)")
	}
}
