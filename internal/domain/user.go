package domain

import "time"

// User represents an authenticated user of the system. PasswordHash always
// holds a bcrypt digest, never the plaintext password.
type User struct {
	ID           int64
	Name         string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
