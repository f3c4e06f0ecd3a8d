package store

import "context"

// ConfigurationRepository is the storage abstraction for tenant-scoped
// versioned configuration entries. All methods honor context cancellation
// and deadlines; no method blocks past its context.
type ConfigurationRepository interface {
	// CreateRepository provisions a new repository. Fails with
	// *RepositoryAlreadyExistsError if a repository with the same
	// (namespace, name) exists, or *InvalidRepositoryNameError if the
	// identity fails bucket-name validation.
	CreateRepository(ctx context.Context, repo Repository) error

	// Read returns the document for key. Version LatestVersion (0) reads
	// the newest version. A missing key fails with *KeyNotFoundError; an
	// explicit version beyond the key's history fails with
	// *KeyVersionNotFoundError; a missing repository fails with
	// *RepositoryNotFoundError.
	Read(ctx context.Context, tenant, repository, key string, version int64) (*Document, error)

	// ReadAll returns the latest version of every key in the repository.
	// An existing repository with no entries yields an empty slice; a
	// missing repository fails with *RepositoryNotFoundError.
	ReadAll(ctx context.Context, tenant, repository string) ([]Document, error)

	// ReadHistory returns every version of key ordered by version
	// ascending. A missing key fails with *KeyNotFoundError.
	ReadHistory(ctx context.Context, tenant, repository, key string) ([]Document, error)

	// Save creates version 1 of a new key or appends version N+1 to an
	// existing one, and returns the stored document with its assigned
	// version. Saving an identical value still appends a new version.
	Save(ctx context.Context, tenant, repository string, doc Document) (*Document, error)

	// Delete removes the key and its entire version history. Fails with
	// *KeyNotFoundError if the key does not exist.
	Delete(ctx context.Context, tenant, repository, key string) error
}
