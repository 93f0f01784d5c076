// Package sessauth authenticates end users of a web application and
// establishes a stateless, cookie-carried session for subsequent requests.
//
// An [Engine] registers users (hash + persist + issue), logs them in (lookup +
// verify + issue) and authenticates requests by verifying the signed session
// token. It is built once through [Builder] and is safe for concurrent use.
//
// # Architecture boundaries
//
// sessauth is the public surface. It exposes [Engine], [Builder], [Config],
// the [UserStore] contract and value types ([Identity], [Decision],
// [MetricsSnapshot]). Flow orchestration and helpers live under internal/.
// Concrete stores live under store/ and depend on this package, never the
// other way round.
//
// # What this package must NOT do
//
//   - Keep any per-session server state; logout only clears the cookie.
//   - Expose token verification detail to clients. [Decision.Reason] is for
//     logs and metrics.
//   - Log plaintext passwords, password hashes or tokens.
package sessauth
