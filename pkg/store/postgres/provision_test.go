package postgres

import (
	"context"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/confstore/pkg/store"
)

func TestCreateRepositoryProvisionsBucket(t *testing.T) {
	s, mock := newMockStore(t)
	repo := store.Repository{Namespace: "acme", Name: "settings"}

	mock.ExpectExec(`INSERT INTO repositories`).
		WithArgs("acme", "settings", "acme%settings", s.config.BucketQuotaMB, s.config.BucketReplicas).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`CREATE SCHEMA "acme%settings"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE "acme%settings"\.entries`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE UNIQUE INDEX entries_key_version_idx`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE ROLE "acme%settings" LOGIN PASSWORD`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`GRANT USAGE ON SCHEMA`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`GRANT SELECT, INSERT, DELETE ON ALL TABLES IN SCHEMA`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.CreateRepository(context.Background(), repo))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRepositoryDuplicate(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO repositories`).
		WillReturnError(&pq.Error{Code: "23505"})

	err := s.CreateRepository(context.Background(), store.Repository{Namespace: "acme", Name: "settings"})
	var dup *store.RepositoryAlreadyExistsError
	require.ErrorAs(t, err, &dup)
}

func TestCreateRepositoryInvalidNameBeforeIO(t *testing.T) {
	s, mock := newMockStore(t)

	err := s.CreateRepository(context.Background(), store.Repository{Namespace: "acme", Name: "no spaces"})
	var invalid *store.InvalidRepositoryNameError
	require.ErrorAs(t, err, &invalid)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRepositoryRollsBackPartialProvisioning(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO repositories`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`CREATE SCHEMA`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	// index creation fails after the container exists
	mock.ExpectExec(`CREATE UNIQUE INDEX`).
		WillReturnError(fmt.Errorf("index build failed"))

	// compensating rollback
	mock.ExpectExec(`DROP SCHEMA IF EXISTS "acme%settings" CASCADE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DROP ROLE IF EXISTS "acme%settings"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM repositories`).
		WithArgs("acme", "settings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CreateRepository(context.Background(), store.Repository{Namespace: "acme", Name: "settings"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index build failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRepositoryRollbackOnCredentialFailure(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO repositories`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`CREATE SCHEMA`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE TABLE`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE UNIQUE INDEX`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`CREATE ROLE`).
		WillReturnError(fmt.Errorf("role exists elsewhere"))

	mock.ExpectExec(`DROP SCHEMA IF EXISTS`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DROP ROLE IF EXISTS`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM repositories`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := s.CreateRepository(context.Background(), store.Repository{Namespace: "acme", Name: "settings"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "role exists elsewhere")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBucketCredentialDeterministic(t *testing.T) {
	a := BucketCredential("acme%settings")
	b := BucketCredential("acme%settings")
	c := BucketCredential("acme%other")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Len(t, a, 64) // hex-encoded sha256
}
