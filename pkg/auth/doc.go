// Package auth verifies API tokens and authorizes operations.
//
// A token is a signed JWT whose "kid" header names a verification key
// published by the external identity service; keys are resolved through
// pkg/keys. Verification produces a Profile (tenant plus claims) scoped to a
// single request. Authorization is a fixed role/operation table evaluated
// synchronously with no I/O.
package auth
