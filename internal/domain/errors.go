package domain

import "errors"

// Expected business outcomes. Services return these directly; the HTTP layer
// maps them to status codes.
var (
	ErrTokenExpired         = errors.New("token expired")
	ErrTokenInvalid         = errors.New("token invalid")
	ErrTokenSubjectMismatch = errors.New("token subject mismatch")
	ErrUsernameTaken        = errors.New("username already taken")
	ErrEmailTaken           = errors.New("email already registered")
	ErrEmailNonexistent     = errors.New("email address does not exist")
	ErrAlreadyActive        = errors.New("user already active")
	ErrInvalidCredentials   = errors.New("invalid username or password")
	ErrUserNotFound         = errors.New("user not found")
	ErrScheduling           = errors.New("cleanup scheduling failed")
)

// ErrStoreWriteViolation reports a mutation attempted inside a read-only
// store session. This is a programming error, never a user-facing condition.
var ErrStoreWriteViolation = errors.New("write attempted in read-only session")
