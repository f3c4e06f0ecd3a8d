// Package rediscache decorates a store.ConfigurationRepository with a Redis
// read-through cache. Versioned reads are immutable and cached with a long
// TTL; latest reads use a short TTL and are invalidated on save and delete.
// Redis being unreachable never fails a request: every cache error degrades
// to the underlying repository.
package rediscache
