package sessauth

import (
	"context"
	"time"
)

// UserRecord is a persisted credential record.
type UserRecord struct {
	UserID       string
	Email        string
	Username     string
	PasswordHash string
	FullName     string
	Birthdate    time.Time
	CreatedAt    time.Time
}

// CreateUserInput carries a fully prepared record to the store. The password
// has already been hashed and the id generated.
type CreateUserInput struct {
	UserID       string
	Email        string
	Username     string
	PasswordHash string
	FullName     string
	Birthdate    time.Time
	CreatedAt    time.Time
}

// UserStore persists credential records.
//
// CreateUser must be atomic and return an error wrapping [ErrDuplicateUser]
// when the email is taken, leaving no partial record. GetUserByEmail returns
// an error wrapping [ErrUserNotFound] when no record matches.
type UserStore interface {
	CreateUser(ctx context.Context, in CreateUserInput) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
}

// Identity is the minimal projection of a user carried in session tokens and
// attached to authenticated requests.
type Identity struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
}

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username  string `json:"username"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Birthdate string `json:"birthdate"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by successful registration and login.
type LoginResult struct {
	Identity  Identity
	Token     string
	ExpiresAt time.Time
}

// DenyReason says why a request was not authenticated. It is never sent to
// clients.
type DenyReason uint8

const (
	DenyNone DenyReason = iota
	DenyNoToken
	DenyMalformed
	DenyTampered
	DenyExpired
)

func (r DenyReason) String() string {
	switch r {
	case DenyNone:
		return "none"
	case DenyNoToken:
		return "no_token"
	case DenyMalformed:
		return "malformed"
	case DenyTampered:
		return "tampered"
	case DenyExpired:
		return "expired"
	default:
		return "unknown"
	}
}

// Decision is the outcome of authenticating a request: either an identity
// (Reason == DenyNone) or a deny reason.
type Decision struct {
	Identity Identity
	Reason   DenyReason
}

// Allowed reports whether the request is authenticated.
func (d Decision) Allowed() bool {
	return d.Reason == DenyNone
}

// Err returns nil when allowed and ErrUnauthenticated otherwise.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return ErrUnauthenticated
}
