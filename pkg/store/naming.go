package store

import "regexp"

// bucketComponentPattern restricts each identity component to characters that
// are safe in a physical container name. The full bucket charset additionally
// allows '%', which is reserved as the separator between components so the
// (namespace, name) -> bucket mapping stays injective.
var bucketComponentPattern = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// maxBucketLength is the PostgreSQL identifier limit. The server silently
// truncates longer identifiers, which would let two distinct repositories
// collide on one physical container.
const maxBucketLength = 63

// BucketName derives the deterministic physical container name for a
// repository. It fails with *InvalidRepositoryNameError before any I/O when
// either component contains a disallowed character or the combined name
// exceeds the container name limit.
func BucketName(repo Repository) (string, error) {
	if !bucketComponentPattern.MatchString(repo.Namespace) {
		return "", &InvalidRepositoryNameError{Name: repo.Namespace}
	}
	if !bucketComponentPattern.MatchString(repo.Name) {
		return "", &InvalidRepositoryNameError{Name: repo.Name}
	}
	bucket := repo.Namespace + "%" + repo.Name
	if len(bucket) > maxBucketLength {
		return "", &InvalidRepositoryNameError{Name: bucket}
	}
	return bucket, nil
}
