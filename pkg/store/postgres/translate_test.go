package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/confstore/pkg/store"
)

func TestTranslateTable(t *testing.T) {
	repo := store.Repository{Namespace: "acme", Name: "settings"}

	cases := []struct {
		name string
		code pq.ErrorCode
		want interface{}
	}{
		{"duplicate schema", "42P06", &store.RepositoryAlreadyExistsError{}},
		{"duplicate table", "42P07", &store.RepositoryAlreadyExistsError{}},
		{"invalid schema name", "3F000", &store.RepositoryNotFoundError{}},
		{"undefined table", "42P01", &store.RepositoryNotFoundError{}},
		{"query canceled", "57014", &store.QueryTimeoutError{}},
		{"lock not available", "55P03", &store.TransientResourceError{}},
		{"serialization failure", "40001", &store.TransientResourceError{}},
		{"deadlock detected", "40P01", &store.TransientResourceError{}},
		{"disk full", "53100", &store.TransientResourceError{}},
		{"out of memory", "53200", &store.TransientResourceError{}},
		{"too many connections", "53300", &store.TransientResourceError{}},
		{"invalid password", "28P01", &store.ResourceFailureError{}},
		{"connection failure", "08006", &store.ResourceFailureError{}},
		{"unmapped code", "22012", &store.ResourceFailureError{}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := translate("test", repo, &pq.Error{Code: tc.code})
			require.Error(t, err)

			switch tc.want.(type) {
			case *store.RepositoryAlreadyExistsError:
				var target *store.RepositoryAlreadyExistsError
				assert.ErrorAs(t, err, &target)
			case *store.RepositoryNotFoundError:
				var target *store.RepositoryNotFoundError
				assert.ErrorAs(t, err, &target)
			case *store.QueryTimeoutError:
				var target *store.QueryTimeoutError
				assert.ErrorAs(t, err, &target)
			case *store.TransientResourceError:
				var target *store.TransientResourceError
				assert.ErrorAs(t, err, &target)
			case *store.ResourceFailureError:
				var target *store.ResourceFailureError
				assert.ErrorAs(t, err, &target)
			default:
				t.Fatalf("unhandled expectation %T", tc.want)
			}
		})
	}
}

func TestTranslateContextErrors(t *testing.T) {
	repo := store.Repository{Namespace: "acme", Name: "settings"}

	err := translate("read", repo, fmt.Errorf("query: %w", context.DeadlineExceeded))
	var timeout *store.QueryTimeoutError
	require.ErrorAs(t, err, &timeout)

	err = translate("read", repo, fmt.Errorf("query: %w", context.Canceled))
	var cancelled *store.OperationCancelledError
	require.ErrorAs(t, err, &cancelled)
}

func TestTranslateNil(t *testing.T) {
	assert.NoError(t, translate("read", store.Repository{}, nil))
}

func TestTranslateUnknownDriverError(t *testing.T) {
	err := translate("read", store.Repository{}, errors.New("socket closed"))
	var failure *store.ResourceFailureError
	require.ErrorAs(t, err, &failure)
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: "23505"}))
	assert.True(t, isUniqueViolation(fmt.Errorf("wrapped: %w", &pq.Error{Code: "23505"})))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "42P01"}))
	assert.False(t, isUniqueViolation(errors.New("nope")))
}
