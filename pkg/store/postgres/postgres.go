package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/platinummonkey/confstore/pkg/observability"
	"github.com/platinummonkey/confstore/pkg/store"
)

const backendName = "postgres"

// saveRetries bounds the retry loop when concurrent appends to the same key
// collide on the (key, version) primary index. The database stays the sole
// arbiter of version order.
const saveRetries = 3

// Store implements store.ConfigurationRepository against PostgreSQL
type Store struct {
	db      *sql.DB
	config  Config
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewStore creates the adapter and ensures the control registry exists.
// metrics may be nil.
func NewStore(db *sql.DB, config Config, logger *observability.Logger, metrics *observability.Metrics) (*Store, error) {
	s := &Store{
		db:      db,
		config:  config,
		logger:  logger,
		metrics: metrics,
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.Timeout)
	defer cancel()
	if err := s.ensureRegistry(ctx); err != nil {
		return nil, fmt.Errorf("failed to initialize repository registry: %w", err)
	}
	return s, nil
}

// ensureRegistry creates the control-plane table tracking provisioned buckets
func (s *Store) ensureRegistry(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS repositories (
			namespace  TEXT NOT NULL,
			name       TEXT NOT NULL,
			bucket     TEXT NOT NULL UNIQUE,
			quota_mb   INTEGER NOT NULL,
			replicas   INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (namespace, name)
		)
	`
	_, err := s.db.ExecContext(ctx, query)
	return err
}

// resolveBucket maps (tenant, repository) to its bucket, failing with
// *RepositoryNotFoundError when the repository was never provisioned for
// this tenant.
func (s *Store) resolveBucket(ctx context.Context, repo store.Repository) (string, error) {
	if _, err := store.BucketName(repo); err != nil {
		return "", err
	}

	var found string
	err := s.db.QueryRowContext(ctx,
		`SELECT bucket FROM repositories WHERE namespace = $1 AND name = $2`,
		repo.Namespace, repo.Name,
	).Scan(&found)
	if err == sql.ErrNoRows {
		return "", &store.RepositoryNotFoundError{Repository: repo}
	}
	if err != nil {
		return "", s.fail("resolve repository", repo, err)
	}
	return found, nil
}

// entriesTable returns the quoted, schema-qualified entries table reference
func entriesTable(bucket string) string {
	return pq.QuoteIdentifier(bucket) + ".entries"
}

// observe records store metrics for a completed call
func (s *Store) observe(op string, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveStoreOperation(op, backendName, time.Since(start))
	}
}

// fail translates a driver failure and counts it by translated kind
func (s *Store) fail(op string, repo store.Repository, err error) error {
	terr := translate(op, repo, err)
	if s.metrics != nil {
		s.metrics.StoreErrorsTotal.WithLabelValues(op, errorKind(terr)).Inc()
	}
	return terr
}

// Read returns the document for key at the requested version
func (s *Store) Read(ctx context.Context, tenant, repository, key string, version int64) (*store.Document, error) {
	defer s.observe("read", time.Now())

	repo := store.Repository{Namespace: tenant, Name: repository}
	bucket, err := s.resolveBucket(ctx, repo)
	if err != nil {
		return nil, err
	}

	var doc store.Document
	if version == store.LatestVersion {
		query := fmt.Sprintf(
			`SELECT key, version, value FROM %s WHERE key = $1 ORDER BY version DESC LIMIT 1`,
			entriesTable(bucket),
		)
		err = s.db.QueryRowContext(ctx, query, key).Scan(&doc.Key, &doc.Version, &doc.Value)
		if err == sql.ErrNoRows {
			return nil, &store.KeyNotFoundError{Repository: repo, Key: key}
		}
	} else {
		query := fmt.Sprintf(
			`SELECT key, version, value FROM %s WHERE key = $1 AND version = $2`,
			entriesTable(bucket),
		)
		err = s.db.QueryRowContext(ctx, query, key, version).Scan(&doc.Key, &doc.Version, &doc.Value)
		if err == sql.ErrNoRows {
			return nil, s.missingVersionError(ctx, bucket, repo, key, version)
		}
	}
	if err != nil {
		return nil, s.fail("read", repo, err)
	}
	return &doc, nil
}

// missingVersionError distinguishes a key that never existed from a version
// beyond the key's history.
func (s *Store) missingVersionError(ctx context.Context, bucket string, repo store.Repository, key string, version int64) error {
	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE key = $1)`, entriesTable(bucket))
	if err := s.db.QueryRowContext(ctx, query, key).Scan(&exists); err != nil {
		return s.fail("read", repo, err)
	}
	if exists {
		return &store.KeyVersionNotFoundError{Repository: repo, Key: key, Version: version}
	}
	return &store.KeyNotFoundError{Repository: repo, Key: key}
}

// ReadAll runs the select-everything listing query, returning the latest
// version of every key.
func (s *Store) ReadAll(ctx context.Context, tenant, repository string) ([]store.Document, error) {
	defer s.observe("read_all", time.Now())

	repo := store.Repository{Namespace: tenant, Name: repository}
	bucket, err := s.resolveBucket(ctx, repo)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT DISTINCT ON (key) key, version, value FROM %s ORDER BY key, version DESC`,
		entriesTable(bucket),
	)
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, s.fail("read all", repo, err)
	}
	defer rows.Close()

	docs := make([]store.Document, 0)
	for rows.Next() {
		var doc store.Document
		if err := rows.Scan(&doc.Key, &doc.Version, &doc.Value); err != nil {
			return nil, s.fail("read all", repo, err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("read all", repo, err)
	}
	return docs, nil
}

// ReadHistory returns every version of key ordered by version ascending
func (s *Store) ReadHistory(ctx context.Context, tenant, repository, key string) ([]store.Document, error) {
	defer s.observe("read_history", time.Now())

	repo := store.Repository{Namespace: tenant, Name: repository}
	bucket, err := s.resolveBucket(ctx, repo)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(
		`SELECT key, version, value FROM %s WHERE key = $1 ORDER BY version ASC`,
		entriesTable(bucket),
	)
	rows, err := s.db.QueryContext(ctx, query, key)
	if err != nil {
		return nil, s.fail("read history", repo, err)
	}
	defer rows.Close()

	var history []store.Document
	for rows.Next() {
		var doc store.Document
		if err := rows.Scan(&doc.Key, &doc.Version, &doc.Value); err != nil {
			return nil, s.fail("read history", repo, err)
		}
		history = append(history, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail("read history", repo, err)
	}
	if len(history) == 0 {
		return nil, &store.KeyNotFoundError{Repository: repo, Key: key}
	}
	return history, nil
}

// Save appends the next version for the key and returns the stored document
func (s *Store) Save(ctx context.Context, tenant, repository string, doc store.Document) (*store.Document, error) {
	defer s.observe("save", time.Now())

	repo := store.Repository{Namespace: tenant, Name: repository}
	bucket, err := s.resolveBucket(ctx, repo)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (key, version, value)
		SELECT $1, COALESCE(MAX(version), 0) + 1, $2::jsonb FROM %s WHERE key = $1
		RETURNING version`,
		entriesTable(bucket), entriesTable(bucket),
	)

	var lastErr error
	for attempt := 0; attempt < saveRetries; attempt++ {
		stored := store.Document{Key: doc.Key, Value: doc.Value}
		err := s.db.QueryRowContext(ctx, query, doc.Key, []byte(doc.Value)).Scan(&stored.Version)
		if err == nil {
			return &stored, nil
		}
		if !isUniqueViolation(err) {
			return nil, s.fail("save", repo, err)
		}
		// lost the race for version N+1; recompute and try again
		lastErr = err
	}
	return nil, &store.TransientResourceError{Op: "save", Err: lastErr}
}

// Delete removes the key and its entire version history
func (s *Store) Delete(ctx context.Context, tenant, repository, key string) error {
	defer s.observe("delete", time.Now())

	repo := store.Repository{Namespace: tenant, Name: repository}
	bucket, err := s.resolveBucket(ctx, repo)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE key = $1`, entriesTable(bucket))
	result, err := s.db.ExecContext(ctx, query, key)
	if err != nil {
		return s.fail("delete", repo, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return s.fail("delete", repo, err)
	}
	if affected == 0 {
		return &store.KeyNotFoundError{Repository: repo, Key: key}
	}
	return nil
}

// compile-time interface check
var _ store.ConfigurationRepository = (*Store)(nil)

// HealthCheck pings the database
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres unhealthy: %w", err)
	}
	return nil
}

// PublishPoolMetrics copies connection pool gauges into prometheus
func (s *Store) PublishPoolMetrics() {
	if s.metrics == nil {
		return
	}
	stats := s.db.Stats()
	s.metrics.DBConnectionsActive.Set(float64(stats.InUse))
	s.metrics.DBConnectionsIdle.Set(float64(stats.Idle))
}
