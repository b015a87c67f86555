package passwd

import (
	"errors"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestHashPassword(t *testing.T) {
	// Test case 1: Valid password
	password := "mysecretpassword"
	hashedPassword, err := HashPassword(password)
	if err != nil {
		t.Fatalf("HashPassword returned an error for valid password: %v", err)
	}
	if hashedPassword == "" {
		t.Error("HashPassword returned an empty string for valid password")
	}

	// Verify the hash (we can't decrypt, but we can check if it's a valid bcrypt hash)
	err = bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password))
	if err != nil {
		t.Errorf("Hashed password does not match original password: %v", err)
	}

	// Test case 2: Password exceeding MaxPasswordLen
	longPassword := strings.Repeat("a", MaxPasswordLen+1) // 73 characters
	_, err = HashPassword(longPassword)
	if err == nil {
		t.Error("HashPassword did not return an error for overly long password")
	}
	expectedErr := errors.New("password exceeds 72 bytes and will be truncated by bcrypt")
	if err.Error() != expectedErr.Error() {
		t.Errorf("Expected error '%v', got '%v' for overly long password", expectedErr, err)
	}
}

func TestCheckPasswordHash(t *testing.T) {
	password := "testpassword123"
	// Generate a valid hash for testing
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to generate bcrypt hash for testing: %v", err)
	}

	// Test case 1: Correct password and hash
	if !CheckPasswordHash(password, string(hashedPassword)) {
		t.Error("CheckPasswordHash returned false for correct password and hash")
	}

	// Test case 2: Incorrect password
	incorrectPassword := "wrongpassword"
	if CheckPasswordHash(incorrectPassword, string(hashedPassword)) {
		t.Error("CheckPasswordHash returned true for incorrect password")
	}

	// Test case 3: Invalid hash format (should fail)
	invalidHash := "thisisnotavalidhash"
	if CheckPasswordHash(password, invalidHash) {
		t.Error("CheckPasswordHash returned true for invalid hash format")
	}
}

func TestAuthenticate(t *testing.T) {
	password := "securestring"
	// Generate a valid hash for testing
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("Failed to generate bcrypt hash for testing: %v", err)
	}

	// Test case 1: Correct password and hash
	if !Authenticate(password, string(hashedPassword)) {
		t.Error("Authenticate returned false for correct input and stored hash")
	}

	// Test case 2: Incorrect password
	incorrectPassword := "incorrect"
	if Authenticate(incorrectPassword, string(hashedPassword)) {
		t.Error("Authenticate returned true for incorrect input password")
	}

	// Test case 3: Empty input password with non-empty stored hash (should fail)
	if Authenticate("", string(hashedPassword)) {
		t.Error("Authenticate returned true for empty input password and non-empty stored hash")
	}
}

func TestCompareDummy(t *testing.T) {
	// CompareDummy must not panic and must be callable repeatedly.
	CompareDummy("anything")
	CompareDummy("")
	CompareDummy(strings.Repeat("x", MaxPasswordLen))
}
