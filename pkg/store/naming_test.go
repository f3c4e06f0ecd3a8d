package store

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBucketName(t *testing.T) {
	name, err := BucketName(Repository{Namespace: "acme", Name: "settings"})
	require.NoError(t, err)
	assert.Equal(t, "acme%settings", name)

	name, err = BucketName(Repository{Namespace: "org-1.prod", Name: "feature_flags"})
	require.NoError(t, err)
	assert.Equal(t, "org-1.prod%feature_flags", name)
}

func TestBucketNameRejectsDisallowedCharacters(t *testing.T) {
	cases := []Repository{
		{Namespace: "acme", Name: "bad name"},
		{Namespace: "acme", Name: "semi;colon"},
		{Namespace: "acme", Name: `quote"d`},
		{Namespace: "bad tenant", Name: "settings"},
		{Namespace: "acme", Name: ""},
		// '%' is the component separator; allowing it inside a component
		// would make two distinct repositories collide on one bucket
		{Namespace: "acme", Name: "a%b"},
	}

	for _, repo := range cases {
		_, err := BucketName(repo)
		var invalid *InvalidRepositoryNameError
		assert.ErrorAs(t, err, &invalid, "repository %v", repo)
	}
}

func TestBucketNameRejectsOverlongNames(t *testing.T) {
	// 31 + 1 + 31 = 63 bytes, the longest bucket postgres stores untruncated
	component := strings.Repeat("a", 31)
	name, err := BucketName(Repository{Namespace: component, Name: component})
	require.NoError(t, err)
	assert.Len(t, name, 63)

	// one byte longer would be truncated server-side and could collide with
	// another repository's schema
	_, err = BucketName(Repository{Namespace: component, Name: component + "a"})
	var invalid *InvalidRepositoryNameError
	require.ErrorAs(t, err, &invalid)
}

func TestBucketNameInjective(t *testing.T) {
	a, err := BucketName(Repository{Namespace: "a.b", Name: "c"})
	require.NoError(t, err)
	b, err := BucketName(Repository{Namespace: "a", Name: "b.c"})
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRepositoryValidate(t *testing.T) {
	assert.Error(t, Repository{Name: "settings"}.Validate())
	assert.Error(t, Repository{Namespace: "acme"}.Validate())
	assert.NoError(t, Repository{Namespace: "acme", Name: "settings"}.Validate())
}
