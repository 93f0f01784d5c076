// Package store holds sessauth.UserStore implementations.
//
//   - memory: process-local, for tests and single-node development.
//   - postgres: pgx/v5 pool with embedded golang-migrate migrations.
//   - redisstore: Redis hashes with an email index.
//
// Every implementation creates users atomically and reports a taken email
// as sessauth.ErrDuplicateUser and a missing one as sessauth.ErrUserNotFound.
package store
