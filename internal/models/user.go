package models

import "time"

// User is a registered account owner.
// PasswordHash holds a bcrypt hash and is never serialized; user records are
// immutable after registration.
type User struct {
	ID           string    `json:"user_id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}
