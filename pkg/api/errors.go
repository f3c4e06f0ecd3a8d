package api

import (
	"errors"
	"net/http"

	"github.com/platinummonkey/confstore/pkg/auth"
	"github.com/platinummonkey/confstore/pkg/httputil"
	"github.com/platinummonkey/confstore/pkg/observability"
	"github.com/platinummonkey/confstore/pkg/service"
	"github.com/platinummonkey/confstore/pkg/store"
)

// writeError maps the service's typed errors to HTTP status codes. Anything
// unrecognized is a 500 with the detail kept out of the response.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var badReq *service.BadRequestError
	var invalidName *store.InvalidRepositoryNameError
	var invalidToken *auth.InvalidTokenError
	var denied *auth.InvalidPermissionsError
	var repoExists *store.RepositoryAlreadyExistsError
	var repoMissing *store.RepositoryNotFoundError
	var keyMissing *store.KeyNotFoundError
	var versionMissing *store.KeyVersionNotFoundError
	var timeout *store.QueryTimeoutError
	var cancelled *store.OperationCancelledError
	var transient *store.TransientResourceError

	switch {
	case errors.As(err, &badReq):
		httputil.WriteBadRequest(w, badReq.Message)
	case errors.As(err, &invalidName):
		httputil.WriteBadRequest(w, err.Error())
	case errors.As(err, &invalidToken):
		httputil.WriteUnauthorized(w, invalidToken.Reason)
	case errors.As(err, &denied):
		httputil.WriteForbidden(w, denied.Error())
	case errors.As(err, &repoExists):
		httputil.WriteConflict(w, err.Error())
	case errors.As(err, &repoMissing), errors.As(err, &keyMissing), errors.As(err, &versionMissing):
		httputil.WriteNotFound(w, err.Error())
	case errors.As(err, &timeout):
		httputil.WriteGatewayTimeout(w, "backing store timed out")
	case errors.As(err, &cancelled), errors.As(err, &transient):
		httputil.WriteServiceUnavailable(w, "temporarily unavailable, retry the request")
	default:
		s.logger.WithError(err).
			WithField("request_id", observability.GetRequestID(r.Context())).
			Error("Unhandled operation error")
		httputil.WriteInternalError(w)
	}
}
