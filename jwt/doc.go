// Package jwt issues and verifies HS256-signed session tokens.
//
// A session token is a compact JWS carrying [SessionClaims]: the minimal
// identity projection {id, email, fullName} plus iat, exp, jti and an
// optional issuer. The signature is always checked before any claim is
// trusted, so a token that is both tampered and expired reports
// [ErrTokenTampered].
//
// Verification needs no store lookup; there is no server-side revocation.
package jwt
