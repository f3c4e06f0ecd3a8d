// Package service implements the authenticated operation pipeline. Every
// operation runs the same four stages in order: validate the request shape,
// verify the token into a Profile, authorize the profile's role against the
// operation's type, then execute against the configuration repository. A
// failure at any stage short-circuits; the repository is never touched by a
// request that failed validation or auth.
//
// Operations are declared as Kind values pairing a validation function, an
// operation type, and an execute function. The pipeline itself is the single
// generic Run function.
package service
