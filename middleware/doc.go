// Package middleware exposes HTTP adapters around sessauth.Engine.
//
// # Guards
//
//   - [Guard] reads the session cookie, asks the engine to authenticate it
//     and attaches the resulting [sessauth.Identity] to the request context.
//   - [RequestMetadata] records the client IP and User-Agent so audit events
//     can carry them.
//
// Every deny collapses to one 401 response. The reason (no token, malformed,
// tampered, expired) stays inside the engine's logs and metrics.
//
// This package does not parse tokens or touch the credential store. All
// decisions are delegated to Engine.Authenticate.
package middleware
