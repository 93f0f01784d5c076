// Package internal contains helpers private to sessauth, chiefly secure
// random token generation.
//
// # Sub-packages
//
//   - flows: orchestration for every Engine operation
//   - logging: slog setup and oops-aware error logging
//   - observability: metrics and health HTTP server
package internal
