package store

import (
	"encoding/json"
	"fmt"
)

// LatestVersion selects the newest version of a key when passed to Read.
const LatestVersion int64 = 0

// Repository identifies a tenant-scoped container of versioned entries.
// Namespace is the owning tenant's organization ID; Name is the
// client-supplied repository name. Two repositories are equal iff both
// fields match.
type Repository struct {
	Namespace string `json:"namespace"`
	Name      string `json:"name"`
}

// String returns a display form of the repository identity
func (r Repository) String() string {
	return r.Namespace + "/" + r.Name
}

// Validate checks the repository identity is structurally complete
func (r Repository) Validate() error {
	if r.Namespace == "" {
		return fmt.Errorf("repository namespace is required")
	}
	if r.Name == "" {
		return fmt.Errorf("repository name is required")
	}
	return nil
}

// EntryKey identifies a single entry within a repository
type EntryKey struct {
	Repository Repository `json:"repository"`
	Key        string     `json:"key"`
}

// String returns a display form of the entry key
func (k EntryKey) String() string {
	return k.Repository.String() + "/" + k.Key
}

// Document is a key's value at a specific version. Value is opaque JSON;
// Version is positive and contiguous per key starting at 1.
type Document struct {
	Key     string          `json:"key"`
	Value   json.RawMessage `json:"value"`
	Version int64           `json:"version"`
}
