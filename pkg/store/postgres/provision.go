package postgres

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/platinummonkey/confstore/pkg/store"
)

// CreateRepository provisions the repository's bucket: the registry row and
// schema with its entries table, the primary index, and a login role scoped
// to the schema. The steps are not transactional; any failure after the
// container exists triggers a compensating rollback so partial provisioning
// is never left live.
func (s *Store) CreateRepository(ctx context.Context, repo store.Repository) error {
	defer s.observe("create_repository", time.Now())

	bucket, err := store.BucketName(repo)
	if err != nil {
		return err
	}

	// step 1: the container. The registry insert doubles as the duplicate
	// check; quota/replica settings are recorded with the bucket.
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO repositories (namespace, name, bucket, quota_mb, replicas) VALUES ($1, $2, $3, $4, $5)`,
		repo.Namespace, repo.Name, bucket, s.config.BucketQuotaMB, s.config.BucketReplicas,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &store.RepositoryAlreadyExistsError{Repository: repo}
		}
		return s.fail("create repository", repo, err)
	}

	if err := s.provisionBucket(ctx, bucket); err != nil {
		s.rollbackBucket(repo, bucket)
		return s.fail("create repository", repo, err)
	}

	s.logger.WithField("repository", repo.String()).WithField("bucket", bucket).Info("Repository provisioned")
	return nil
}

// provisionBucket creates the schema, entries table, primary index, and the
// bucket-scoped credential.
func (s *Store) provisionBucket(ctx context.Context, bucket string) error {
	schema := pq.QuoteIdentifier(bucket)

	if _, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE SCHEMA %s`, schema)); err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}

	createTable := fmt.Sprintf(`
		CREATE TABLE %s.entries (
			key        TEXT NOT NULL,
			version    BIGINT NOT NULL,
			value      JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, schema)
	if _, err := s.db.ExecContext(ctx, createTable); err != nil {
		return fmt.Errorf("creating entries table: %w", err)
	}

	// the primary index: listing and versioned reads depend on it, and its
	// uniqueness arbitrates concurrent version appends
	createIndex := fmt.Sprintf(
		`CREATE UNIQUE INDEX entries_key_version_idx ON %s.entries (key, version)`, schema)
	if _, err := s.db.ExecContext(ctx, createIndex); err != nil {
		return fmt.Errorf("creating primary index: %w", err)
	}

	// the bucket-scoped credential: a deterministic password derived from
	// the bucket name, granted access to this schema only
	role := pq.QuoteIdentifier(bucket)
	password := BucketCredential(bucket)
	grants := []string{
		fmt.Sprintf(`CREATE ROLE %s LOGIN PASSWORD %s`, role, pq.QuoteLiteral(password)),
		fmt.Sprintf(`GRANT USAGE ON SCHEMA %s TO %s`, schema, role),
		fmt.Sprintf(`GRANT SELECT, INSERT, DELETE ON ALL TABLES IN SCHEMA %s TO %s`, schema, role),
	}
	for _, stmt := range grants {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("creating bucket credential: %w", err)
		}
	}

	return nil
}

// rollbackBucket undoes a partial provisioning attempt. It runs on a fresh
// context so a cancelled request still cleans up, and failures are logged
// rather than returned: the caller surfaces the original provisioning error.
func (s *Store) rollbackBucket(repo store.Repository, bucket string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Timeout)
	defer cancel()

	schema := pq.QuoteIdentifier(bucket)
	statements := []string{
		fmt.Sprintf(`DROP SCHEMA IF EXISTS %s CASCADE`, schema),
		fmt.Sprintf(`DROP ROLE IF EXISTS %s`, pq.QuoteIdentifier(bucket)),
	}
	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			s.logger.WithError(err).WithField("bucket", bucket).Error("Provisioning rollback statement failed")
		}
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM repositories WHERE namespace = $1 AND name = $2`,
		repo.Namespace, repo.Name,
	); err != nil {
		s.logger.WithError(err).WithField("bucket", bucket).Error("Provisioning rollback registry cleanup failed")
	}
}

// BucketCredential derives the deterministic password for a bucket's role
func BucketCredential(bucket string) string {
	sum := sha256.Sum256([]byte(bucket))
	return hex.EncodeToString(sum[:])
}
