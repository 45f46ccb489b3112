package domain

import "time"

// User is the domain model for an account. Accounts are created inactive by
// the registration flow and become active exactly once, when the emailed
// registration token is verified. Active users are never reverted to inactive.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
