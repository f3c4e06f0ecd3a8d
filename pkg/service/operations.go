package service

import (
	"context"
	"encoding/json"

	"github.com/platinummonkey/confstore/pkg/auth"
	"github.com/platinummonkey/confstore/pkg/store"
)

// CreateRepositoryRequest provisions a new repository under the caller's
// tenant.
type CreateRepositoryRequest struct {
	Token      string
	Repository string
}

func (r CreateRepositoryRequest) AuthToken() string { return r.Token }

// FetchEntryRequest reads one entry. Version 0 means latest.
type FetchEntryRequest struct {
	Token      string
	Repository string
	Key        string
	Version    int64
}

func (r FetchEntryRequest) AuthToken() string { return r.Token }

// FetchEntriesRequest lists the latest version of every entry
type FetchEntriesRequest struct {
	Token      string
	Repository string
}

func (r FetchEntriesRequest) AuthToken() string { return r.Token }

// SaveEntryRequest creates version 1 of a new key or appends the next
// version of an existing one.
type SaveEntryRequest struct {
	Token      string
	Repository string
	Key        string
	Value      json.RawMessage
}

func (r SaveEntryRequest) AuthToken() string { return r.Token }

// DeleteEntryRequest removes a key and its entire version history
type DeleteEntryRequest struct {
	Token      string
	Repository string
	Key        string
}

func (r DeleteEntryRequest) AuthToken() string { return r.Token }

// FetchEntryHistoryRequest reads every version of a key, oldest first
type FetchEntryHistoryRequest struct {
	Token      string
	Repository string
	Key        string
}

func (r FetchEntryHistoryRequest) AuthToken() string { return r.Token }

func validateRepository(name string) error {
	if name == "" {
		return badRequest("Repository name is a required argument")
	}
	return nil
}

func validateKey(key string) error {
	if key == "" {
		return badRequest("Key is a required argument")
	}
	return nil
}

var createRepositoryKind = Kind[CreateRepositoryRequest, store.Repository]{
	Name:      "create_repository",
	Operation: auth.OperationCreateRepository,
	Validate: func(req CreateRepositoryRequest) error {
		return validateRepository(req.Repository)
	},
	Execute: func(ctx context.Context, s *Service, profile *auth.Profile, req CreateRepositoryRequest) (store.Repository, error) {
		repo := store.Repository{Namespace: profile.Tenant, Name: req.Repository}
		if err := s.repository.CreateRepository(ctx, repo); err != nil {
			return store.Repository{}, err
		}
		return repo, nil
	},
}

var fetchEntryKind = Kind[FetchEntryRequest, *store.Document]{
	Name:      "fetch_entry",
	Operation: auth.OperationRead,
	Validate: func(req FetchEntryRequest) error {
		if err := validateRepository(req.Repository); err != nil {
			return err
		}
		if err := validateKey(req.Key); err != nil {
			return err
		}
		if req.Version < 0 {
			return badRequest("Version must be a positive integer")
		}
		return nil
	},
	Execute: func(ctx context.Context, s *Service, profile *auth.Profile, req FetchEntryRequest) (*store.Document, error) {
		return s.repository.Read(ctx, profile.Tenant, req.Repository, req.Key, req.Version)
	},
}

var fetchEntriesKind = Kind[FetchEntriesRequest, []store.Document]{
	Name:      "fetch_entries",
	Operation: auth.OperationList,
	Validate: func(req FetchEntriesRequest) error {
		return validateRepository(req.Repository)
	},
	Execute: func(ctx context.Context, s *Service, profile *auth.Profile, req FetchEntriesRequest) ([]store.Document, error) {
		return s.repository.ReadAll(ctx, profile.Tenant, req.Repository)
	},
}

var saveEntryKind = Kind[SaveEntryRequest, *store.Document]{
	Name:      "save_entry",
	Operation: auth.OperationWrite,
	Validate: func(req SaveEntryRequest) error {
		if err := validateRepository(req.Repository); err != nil {
			return err
		}
		if err := validateKey(req.Key); err != nil {
			return err
		}
		if len(req.Value) == 0 {
			return badRequest("Value is a required argument")
		}
		if !json.Valid(req.Value) {
			return badRequest("Value must be valid JSON")
		}
		return nil
	},
	Execute: func(ctx context.Context, s *Service, profile *auth.Profile, req SaveEntryRequest) (*store.Document, error) {
		return s.repository.Save(ctx, profile.Tenant, req.Repository, store.Document{
			Key:   req.Key,
			Value: req.Value,
		})
	},
}

var deleteEntryKind = Kind[DeleteEntryRequest, struct{}]{
	Name:      "delete_entry",
	Operation: auth.OperationDelete,
	Validate: func(req DeleteEntryRequest) error {
		if err := validateRepository(req.Repository); err != nil {
			return err
		}
		return validateKey(req.Key)
	},
	Execute: func(ctx context.Context, s *Service, profile *auth.Profile, req DeleteEntryRequest) (struct{}, error) {
		return struct{}{}, s.repository.Delete(ctx, profile.Tenant, req.Repository, req.Key)
	},
}

var fetchEntryHistoryKind = Kind[FetchEntryHistoryRequest, []store.Document]{
	Name:      "fetch_entry_history",
	Operation: auth.OperationRead,
	Validate: func(req FetchEntryHistoryRequest) error {
		if err := validateRepository(req.Repository); err != nil {
			return err
		}
		return validateKey(req.Key)
	},
	Execute: func(ctx context.Context, s *Service, profile *auth.Profile, req FetchEntryHistoryRequest) ([]store.Document, error) {
		return s.repository.ReadHistory(ctx, profile.Tenant, req.Repository, req.Key)
	},
}

// CreateRepository provisions a repository named by the request under the
// caller's tenant namespace.
func (s *Service) CreateRepository(ctx context.Context, req CreateRepositoryRequest) (store.Repository, error) {
	return Run(ctx, s, createRepositoryKind, req)
}

// FetchEntry returns one entry at the requested version, or the latest
func (s *Service) FetchEntry(ctx context.Context, req FetchEntryRequest) (*store.Document, error) {
	return Run(ctx, s, fetchEntryKind, req)
}

// FetchEntries lists the latest version of every entry in the repository
func (s *Service) FetchEntries(ctx context.Context, req FetchEntriesRequest) ([]store.Document, error) {
	return Run(ctx, s, fetchEntriesKind, req)
}

// SaveEntry appends a new version for the key
func (s *Service) SaveEntry(ctx context.Context, req SaveEntryRequest) (*store.Document, error) {
	return Run(ctx, s, saveEntryKind, req)
}

// DeleteEntry removes the key and all of its versions
func (s *Service) DeleteEntry(ctx context.Context, req DeleteEntryRequest) error {
	_, err := Run(ctx, s, deleteEntryKind, req)
	return err
}

// FetchEntryHistory returns every version of the key, oldest first
func (s *Service) FetchEntryHistory(ctx context.Context, req FetchEntryHistoryRequest) ([]store.Document, error) {
	return Run(ctx, s, fetchEntryHistoryKind, req)
}
