// Package keys resolves token-signing key identifiers to verification key
// material.
//
// The non-cached Provider delegates to the external identity service that
// issues API tokens. CachedProvider wraps any Provider with a bounded
// write-expiry cache plus asynchronous write-refresh: entries are served for
// up to the expiry TTL, but a background reload is kicked off once an entry
// is older than the refresh interval, so a key revoked upstream stops
// validating within the refresh window in the common case and within the
// expiry TTL as a hard ceiling. Concurrent lookups and refreshes of the same
// key collapse into a single upstream call.
package keys
