package flows

import (
	"errors"

	"github.com/MrEthical07/sessauth/jwt"
)

// AuthFailureKind classifies why a token was rejected.
type AuthFailureKind int

const (
	AuthFailureNone AuthFailureKind = iota
	AuthFailureNoToken
	AuthFailureMalformed
	AuthFailureTampered
	AuthFailureExpired
)

// AuthenticateResult is either a subject or a classified failure.
type AuthenticateResult struct {
	Failure AuthFailureKind
	Err     error
	Subject Subject
}

// AuthenticateDeps captures token verification.
type AuthenticateDeps struct {
	Verify func(token string) (*jwt.SessionClaims, error)
}

// RunAuthenticate verifies token and projects its claims. An empty token is
// rejected without calling Verify.
func RunAuthenticate(token string, deps AuthenticateDeps) AuthenticateResult {
	if token == "" {
		return AuthenticateResult{Failure: AuthFailureNoToken}
	}
	if deps.Verify == nil {
		return AuthenticateResult{Failure: AuthFailureMalformed, Err: errors.New("token verifier not configured")}
	}

	claims, err := deps.Verify(token)
	if err != nil {
		kind := AuthFailureMalformed
		switch {
		case errors.Is(err, jwt.ErrTokenTampered):
			kind = AuthFailureTampered
		case errors.Is(err, jwt.ErrTokenExpired):
			kind = AuthFailureExpired
		}
		return AuthenticateResult{Failure: kind, Err: err}
	}

	return AuthenticateResult{Subject: Subject{
		UserID:   claims.UserID,
		Email:    claims.Email,
		FullName: claims.FullName,
	}}
}
