// Package postgres implements the configuration repository against
// PostgreSQL using a bucket-per-tenant layout.
//
// Every repository maps to its own schema (the "bucket"), named
// deterministically from (namespace, name) and validated before any I/O.
// Creating a repository provisions three things: the schema with its entries
// table (carrying the configured quota/replica settings in the control
// registry), the primary index listing queries depend on, and a login role
// scoped to that schema whose password is derived by hashing the bucket name.
// Tenant isolation is physical: each tenant's data lives in a separately
// credentialed schema, not behind a row filter. Provisioning is not
// transactional across those steps; a failure after the schema exists rolls
// the schema and role back and surfaces the original error.
//
// Driver errors never escape: translate.go maps pq error codes onto the
// typed taxonomy in the parent store package.
package postgres
