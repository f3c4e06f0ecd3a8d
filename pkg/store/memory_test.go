package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, namespace, name string) (*MemoryRepository, Repository) {
	t.Helper()
	m := NewMemoryRepository()
	repo := Repository{Namespace: namespace, Name: name}
	require.NoError(t, m.CreateRepository(context.Background(), repo))
	return m, repo
}

func TestCreateRepositoryDuplicate(t *testing.T) {
	m, repo := newTestRepo(t, "acme", "settings")

	err := m.CreateRepository(context.Background(), repo)
	var dup *RepositoryAlreadyExistsError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, repo, dup.Repository)
}

func TestCreateRepositoryInvalidName(t *testing.T) {
	m := NewMemoryRepository()

	err := m.CreateRepository(context.Background(), Repository{Namespace: "acme", Name: "bad name!"})
	var invalid *InvalidRepositoryNameError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "bad name!", invalid.Name)
}

func TestSaveAndReadLatest(t *testing.T) {
	m, _ := newTestRepo(t, "acme", "settings")
	ctx := context.Background()

	saved, err := m.Save(ctx, "acme", "settings", Document{Key: "K1", Value: json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.Version)

	doc, err := m.Read(ctx, "acme", "settings", "K1", LatestVersion)
	require.NoError(t, err)
	assert.Equal(t, int64(1), doc.Version)
	assert.JSONEq(t, `{"a":1}`, string(doc.Value))
}

func TestVersioningMonotonicity(t *testing.T) {
	m, _ := newTestRepo(t, "acme", "settings")
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		// identical values still append a new version
		saved, err := m.Save(ctx, "acme", "settings", Document{Key: "K1", Value: json.RawMessage(`{"a":1}`)})
		require.NoError(t, err)
		assert.Equal(t, int64(i), saved.Version)
	}

	history, err := m.ReadHistory(ctx, "acme", "settings", "K1")
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i, doc := range history {
		assert.Equal(t, int64(i+1), doc.Version)
	}
}

func TestReadSpecificAndOutOfRangeVersion(t *testing.T) {
	m, _ := newTestRepo(t, "acme", "settings")
	ctx := context.Background()

	_, err := m.Save(ctx, "acme", "settings", Document{Key: "K1", Value: json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)
	_, err = m.Save(ctx, "acme", "settings", Document{Key: "K1", Value: json.RawMessage(`{"a":2}`)})
	require.NoError(t, err)

	doc, err := m.Read(ctx, "acme", "settings", "K1", 1)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(doc.Value))

	_, err = m.Read(ctx, "acme", "settings", "K1", 99)
	var notFound *KeyVersionNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, int64(99), notFound.Version)
}

func TestDeleteRemovesAllVersions(t *testing.T) {
	m, _ := newTestRepo(t, "acme", "settings")
	ctx := context.Background()

	_, err := m.Save(ctx, "acme", "settings", Document{Key: "K1", Value: json.RawMessage(`1`)})
	require.NoError(t, err)
	_, err = m.Save(ctx, "acme", "settings", Document{Key: "K1", Value: json.RawMessage(`2`)})
	require.NoError(t, err)

	require.NoError(t, m.Delete(ctx, "acme", "settings", "K1"))

	_, err = m.Read(ctx, "acme", "settings", "K1", LatestVersion)
	var keyErr *KeyNotFoundError
	require.ErrorAs(t, err, &keyErr)

	err = m.Delete(ctx, "acme", "settings", "K1")
	require.ErrorAs(t, err, &keyErr)
}

func TestReadAllLatestOnly(t *testing.T) {
	m, _ := newTestRepo(t, "acme", "settings")
	ctx := context.Background()

	docs, err := m.ReadAll(ctx, "acme", "settings")
	require.NoError(t, err)
	assert.Empty(t, docs)

	for _, kv := range []struct{ k, v string }{
		{"b", `"old"`}, {"b", `"new"`}, {"a", `1`},
	} {
		_, err := m.Save(ctx, "acme", "settings", Document{Key: kv.k, Value: json.RawMessage(kv.v)})
		require.NoError(t, err)
	}

	docs, err = m.ReadAll(ctx, "acme", "settings")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, "a", docs[0].Key)
	assert.Equal(t, "b", docs[1].Key)
	assert.Equal(t, int64(2), docs[1].Version)
	assert.JSONEq(t, `"new"`, string(docs[1].Value))
}

func TestTenantIsolation(t *testing.T) {
	m := NewMemoryRepository()
	ctx := context.Background()

	// two tenants, identical repository name
	require.NoError(t, m.CreateRepository(ctx, Repository{Namespace: "tenant-a", Name: "settings"}))
	require.NoError(t, m.CreateRepository(ctx, Repository{Namespace: "tenant-b", Name: "settings"}))

	_, err := m.Save(ctx, "tenant-a", "settings", Document{Key: "K1", Value: json.RawMessage(`"a"`)})
	require.NoError(t, err)

	_, err = m.Read(ctx, "tenant-b", "settings", "K1", LatestVersion)
	var keyErr *KeyNotFoundError
	require.ErrorAs(t, err, &keyErr)

	docs, err := m.ReadAll(ctx, "tenant-b", "settings")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMissingRepository(t *testing.T) {
	m := NewMemoryRepository()
	ctx := context.Background()

	var notFound *RepositoryNotFoundError

	_, err := m.Read(ctx, "acme", "nope", "K1", LatestVersion)
	require.ErrorAs(t, err, &notFound)

	_, err = m.ReadAll(ctx, "acme", "nope")
	require.ErrorAs(t, err, &notFound)

	_, err = m.Save(ctx, "acme", "nope", Document{Key: "K1", Value: json.RawMessage(`1`)})
	require.ErrorAs(t, err, &notFound)

	err = m.Delete(ctx, "acme", "nope", "K1")
	require.ErrorAs(t, err, &notFound)
}

func TestCancelledContext(t *testing.T) {
	m, _ := newTestRepo(t, "acme", "settings")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Read(ctx, "acme", "settings", "K1", LatestVersion)
	var cancelled *OperationCancelledError
	require.ErrorAs(t, err, &cancelled)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestStoredValueIsIsolatedFromCaller(t *testing.T) {
	m, _ := newTestRepo(t, "acme", "settings")
	ctx := context.Background()

	value := []byte(`{"a":1}`)
	_, err := m.Save(ctx, "acme", "settings", Document{Key: "K1", Value: value})
	require.NoError(t, err)

	value[2] = 'X'

	doc, err := m.Read(ctx, "acme", "settings", "K1", LatestVersion)
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":1}`, string(doc.Value))
}

func TestConcurrentSavesProduceContiguousVersions(t *testing.T) {
	m, _ := newTestRepo(t, "acme", "settings")
	ctx := context.Background()

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := m.Save(ctx, "acme", "settings", Document{
				Key:   "K1",
				Value: json.RawMessage(fmt.Sprintf(`{"writer":%d}`, i)),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	history, err := m.ReadHistory(ctx, "acme", "settings", "K1")
	require.NoError(t, err)
	require.Len(t, history, writers)
	for i, doc := range history {
		assert.Equal(t, int64(i+1), doc.Version)
	}
}
