package identity

import "time"

// LoginInput contains the input for a dashboard login
type LoginInput struct {
	Password string
	IP       string
}

// LoginResult contains the issued session
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// SessionInfo describes the caller's current session
type SessionInfo struct {
	Authenticated bool
	Subject       string
	ExpiresAt     time.Time
}

// ChangePasswordInput contains the input for a password change
type ChangePasswordInput struct {
	CurrentPassword string
	NewPassword     string
}

// ChangePasswordResult carries the replacement session. Every session issued
// before the change, including the caller's, is revoked.
type ChangePasswordResult struct {
	ChangedAt time.Time
	Token     string
	ExpiresAt time.Time
}
