package sessauth

import "errors"

var (
	// ErrUnauthenticated is returned when a request carries no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned when the password does not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserNotFound is returned when no user has the given email.
	ErrUserNotFound = errors.New("user not found")
	// ErrCreationFailed is returned when registration could not persist the user.
	ErrCreationFailed = errors.New("user creation failed")
	// ErrInvalidRequest is returned when input fails validation. The concrete
	// error is a *ValidationError.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrDuplicateUser is returned by stores when the email is already taken.
	// The engine reports it to callers as ErrCreationFailed.
	ErrDuplicateUser = errors.New("user already exists")
	// ErrEngineNotReady is returned by a nil or closed engine.
	ErrEngineNotReady = errors.New("engine not ready")
)
