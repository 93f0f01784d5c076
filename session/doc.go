// Package session carries a session token between server and browser as an
// HTTP cookie.
//
// The cookie is only a transport wrapper. It does not track validity on its
// own; the token inside it does. Clearing the cookie on logout tells the
// client to forget the token but does not invalidate copies of it.
//
// # What this package must NOT do
//
//   - Import sessauth or jwt; the value is an opaque string here.
//   - Decide whether a request is authenticated.
package session
