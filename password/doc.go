// Package password implements one-way password hashing and constant-time
// verification with bcrypt (default) and Argon2id.
//
// # Output formats
//
// bcrypt hashes use the modular crypt format ($2a$<cost>$...). Argon2id hashes
// are encoded as PHC strings:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// [New] returns an [Adaptive] hasher: it hashes with the configured algorithm
// and verifies hashes of either algorithm, so [Hasher.NeedsUpgrade] lets the
// caller re-hash on the next successful login after a work-factor or
// algorithm change.
//
// # Concurrency
//
// Hashing is deliberately slow. [Pool] bounds how many hash/verify calls run
// at once so bursts of logins cannot starve unrelated requests of CPU.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other sessauth package.
//   - Log plaintext passwords or hashes.
package password
