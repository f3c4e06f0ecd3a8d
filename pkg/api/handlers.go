package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/platinummonkey/confstore/pkg/httputil"
	"github.com/platinummonkey/confstore/pkg/service"
	"github.com/platinummonkey/confstore/pkg/store"
)

// createRepositoryBody is the request body for POST /v1/repositories
type createRepositoryBody struct {
	Repository string `json:"repository"`
}

// createRepository handles POST /v1/repositories
func (s *Server) createRepository(w http.ResponseWriter, r *http.Request) {
	var body createRepositoryBody
	if err := httputil.ParseJSON(r, &body); err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	repo, err := s.service.CreateRepository(r.Context(), service.CreateRepositoryRequest{
		Token:      httputil.BearerToken(r),
		Repository: body.Repository,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteCreated(w, repo)
}

// listEntries handles GET /v1/repositories/{repository}/entries
func (s *Server) listEntries(w http.ResponseWriter, r *http.Request) {
	docs, err := s.service.FetchEntries(r.Context(), service.FetchEntriesRequest{
		Token:      httputil.BearerToken(r),
		Repository: httputil.PathString(r, "repository"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, docs)
}

// getEntry handles GET /v1/repositories/{repository}/entries/{key}. The
// optional version query parameter selects a historical version; absent
// means latest.
func (s *Server) getEntry(w http.ResponseWriter, r *http.Request) {
	version, err := httputil.QueryInt64(r, "version", store.LatestVersion)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	doc, err := s.service.FetchEntry(r.Context(), service.FetchEntryRequest{
		Token:      httputil.BearerToken(r),
		Repository: httputil.PathString(r, "repository"),
		Key:        httputil.PathString(r, "key"),
		Version:    version,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, doc)
}

// saveEntry handles PUT /v1/repositories/{repository}/entries/{key}. The
// body is the raw JSON value; the new version is allocated by the store.
func (s *Server) saveEntry(w http.ResponseWriter, r *http.Request) {
	value, err := io.ReadAll(r.Body)
	if err != nil {
		httputil.WriteBadRequest(w, "failed to read request body")
		return
	}

	doc, err := s.service.SaveEntry(r.Context(), service.SaveEntryRequest{
		Token:      httputil.BearerToken(r),
		Repository: httputil.PathString(r, "repository"),
		Key:        httputil.PathString(r, "key"),
		Value:      json.RawMessage(value),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, doc)
}

// deleteEntry handles DELETE /v1/repositories/{repository}/entries/{key}
func (s *Server) deleteEntry(w http.ResponseWriter, r *http.Request) {
	err := s.service.DeleteEntry(r.Context(), service.DeleteEntryRequest{
		Token:      httputil.BearerToken(r),
		Repository: httputil.PathString(r, "repository"),
		Key:        httputil.PathString(r, "key"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteNoContent(w)
}

// getEntryHistory handles GET /v1/repositories/{repository}/entries/{key}/history
func (s *Server) getEntryHistory(w http.ResponseWriter, r *http.Request) {
	history, err := s.service.FetchEntryHistory(r.Context(), service.FetchEntryHistoryRequest{
		Token:      httputil.BearerToken(r),
		Repository: httputil.PathString(r, "repository"),
		Key:        httputil.PathString(r, "key"),
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	httputil.WriteSuccess(w, history)
}
