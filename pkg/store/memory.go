package store

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository is the in-memory reference implementation of
// ConfigurationRepository. It is safe for concurrent use and implements the
// full contract, including the error taxonomy, so it can stand in for the
// postgres adapter in tests.
type MemoryRepository struct {
	mu sync.RWMutex
	// repos maps a repository identity to its entries; each key holds its
	// versions in ascending order.
	repos map[Repository]map[string][]Document
}

// NewMemoryRepository creates an empty in-memory repository store
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		repos: make(map[Repository]map[string][]Document),
	}
}

// CreateRepository provisions a new in-memory repository
func (m *MemoryRepository) CreateRepository(ctx context.Context, repo Repository) error {
	if err := ctx.Err(); err != nil {
		return &OperationCancelledError{Op: "create repository", Err: err}
	}
	if _, err := BucketName(repo); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.repos[repo]; ok {
		return &RepositoryAlreadyExistsError{Repository: repo}
	}
	m.repos[repo] = make(map[string][]Document)
	return nil
}

// Read returns the document for key at the requested version
func (m *MemoryRepository) Read(ctx context.Context, tenant, repository, key string, version int64) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &OperationCancelledError{Op: "read", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	repo := Repository{Namespace: tenant, Name: repository}
	entries, ok := m.repos[repo]
	if !ok {
		return nil, &RepositoryNotFoundError{Repository: repo}
	}

	versions, ok := entries[key]
	if !ok || len(versions) == 0 {
		return nil, &KeyNotFoundError{Repository: repo, Key: key}
	}

	if version == LatestVersion {
		doc := copyDocument(versions[len(versions)-1])
		return &doc, nil
	}
	if version < 1 || version > int64(len(versions)) {
		return nil, &KeyVersionNotFoundError{Repository: repo, Key: key, Version: version}
	}
	doc := copyDocument(versions[version-1])
	return &doc, nil
}

// ReadAll returns the latest version of every key, ordered by key
func (m *MemoryRepository) ReadAll(ctx context.Context, tenant, repository string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &OperationCancelledError{Op: "read all", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	repo := Repository{Namespace: tenant, Name: repository}
	entries, ok := m.repos[repo]
	if !ok {
		return nil, &RepositoryNotFoundError{Repository: repo}
	}

	docs := make([]Document, 0, len(entries))
	for _, versions := range entries {
		if len(versions) == 0 {
			continue
		}
		docs = append(docs, copyDocument(versions[len(versions)-1]))
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Key < docs[j].Key })
	return docs, nil
}

// ReadHistory returns every version of key in ascending order
func (m *MemoryRepository) ReadHistory(ctx context.Context, tenant, repository, key string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &OperationCancelledError{Op: "read history", Err: err}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	repo := Repository{Namespace: tenant, Name: repository}
	entries, ok := m.repos[repo]
	if !ok {
		return nil, &RepositoryNotFoundError{Repository: repo}
	}

	versions, ok := entries[key]
	if !ok || len(versions) == 0 {
		return nil, &KeyNotFoundError{Repository: repo, Key: key}
	}

	history := make([]Document, len(versions))
	for i, doc := range versions {
		history[i] = copyDocument(doc)
	}
	return history, nil
}

// Save appends a new version of the document and returns it
func (m *MemoryRepository) Save(ctx context.Context, tenant, repository string, doc Document) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, &OperationCancelledError{Op: "save", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	repo := Repository{Namespace: tenant, Name: repository}
	entries, ok := m.repos[repo]
	if !ok {
		return nil, &RepositoryNotFoundError{Repository: repo}
	}

	stored := copyDocument(doc)
	stored.Version = int64(len(entries[doc.Key])) + 1
	entries[doc.Key] = append(entries[doc.Key], stored)

	result := copyDocument(stored)
	return &result, nil
}

// Delete removes the key and its entire version history
func (m *MemoryRepository) Delete(ctx context.Context, tenant, repository, key string) error {
	if err := ctx.Err(); err != nil {
		return &OperationCancelledError{Op: "delete", Err: err}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	repo := Repository{Namespace: tenant, Name: repository}
	entries, ok := m.repos[repo]
	if !ok {
		return &RepositoryNotFoundError{Repository: repo}
	}

	if _, ok := entries[key]; !ok {
		return &KeyNotFoundError{Repository: repo, Key: key}
	}
	delete(entries, key)
	return nil
}

// copyDocument deep-copies a document so callers cannot mutate stored state
func copyDocument(doc Document) Document {
	out := doc
	if doc.Value != nil {
		out.Value = make([]byte, len(doc.Value))
		copy(out.Value, doc.Value)
	}
	return out
}
