// Package flows contains the orchestration behind every Engine operation.
//
// Each flow function (RunRegister, RunLogin, RunAuthenticate) takes a typed
// dependency struct of plain functions and returns a result. The Engine
// builds the dependencies once; tests substitute fakes.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import sessauth (import cycle); host sentinels arrive through deps.
//   - Perform I/O directly; the store and hasher are reached through deps.
package flows
