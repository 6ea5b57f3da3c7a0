// Package auth provides identity for ideiad: JWT access tokens, email/password
// credentials and the Google OAuth code exchange.
package auth

import (
	"context"
	"errors"
)

// Sentinel errors for authentication operations.
var (
	// ErrInvalidToken indicates a missing, malformed or expired token.
	ErrInvalidToken = errors.New("invalid or expired token")

	// ErrInvalidCredentials covers unknown email and wrong password alike, so
	// a caller cannot probe which emails are registered.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrEmailTaken indicates a registration against an existing email.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInactiveUser indicates a deactivated account.
	ErrInactiveUser = errors.New("user is inactive")

	// ErrGoogleNotConfigured indicates the Google OAuth client is not set up.
	ErrGoogleNotConfigured = errors.New("google oauth not configured")

	// ErrUserNotFound indicates the user row is gone.
	ErrUserNotFound = errors.New("user not found")
)

// Identity is the verified caller identity attached to every request.
type Identity struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// User is an account row.
type User struct {
	ID           int64   `json:"id"`
	Email        string  `json:"email"`
	Name         *string `json:"nome"`
	PhotoURL     *string `json:"foto_url"`
	AuthMethod   string  `json:"metodo_auth"`
	Role         string  `json:"role"`
	Active       bool    `json:"-"`
	PasswordHash *string `json:"-"`
}

// GoogleProfile is what the Google userinfo endpoint yields after a code
// exchange.
type GoogleProfile struct {
	GoogleID string
	Email    string
	Name     *string
	PhotoURL *string
}

// UserStore is the record-store surface auth needs. Implemented by
// internal/store.
type UserStore interface {
	// FindUserByEmail returns ErrUserNotFound for unknown emails.
	FindUserByEmail(ctx context.Context, email string) (*User, error)

	// FindUserByID returns ErrUserNotFound for unknown ids.
	FindUserByID(ctx context.Context, id int64) (*User, error)

	// CreateUser inserts an email/password user together with its free-plan
	// subscription, in one transaction.
	CreateUser(ctx context.Context, email, passwordHash string, name *string) (*User, error)

	// UpsertGoogleUser creates or refreshes a Google-backed user (matched by
	// google id or email) and ensures it has an active subscription.
	UpsertGoogleUser(ctx context.Context, profile GoogleProfile) (*User, error)
}
