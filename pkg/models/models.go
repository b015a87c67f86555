package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the portable, backend-agnostic account record.
// PasswordHash is a bcrypt digest and must never be logged.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// CreateUserParams carries the input for creating a new user.
// Password is plaintext here and is hashed by the credential store.
type CreateUserParams struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
