package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/platinummonkey/confstore/pkg/auth"
	"github.com/platinummonkey/confstore/pkg/observability"
	"github.com/platinummonkey/confstore/pkg/store"
)

// Request is implemented by every operation request; the pipeline needs the
// bearer token and nothing else from the request itself.
type Request interface {
	AuthToken() string
}

// Kind describes one operation: its name, the operation type it is
// authorized against, its structural validation, and its execute step. The
// pipeline is shared; only these three values differ between operations.
type Kind[Req Request, Res any] struct {
	Name      string
	Operation auth.OperationType
	Validate  func(Req) error
	Execute   func(ctx context.Context, s *Service, profile *auth.Profile, req Req) (Res, error)
}

// Service holds the collaborators every operation executes against
type Service struct {
	verifier   auth.TokenVerifier
	authorizer auth.Authorizer
	repository store.ConfigurationRepository
	logger     *observability.Logger
	metrics    *observability.Metrics
}

// New creates a Service. metrics may be nil.
func New(verifier auth.TokenVerifier, authorizer auth.Authorizer, repository store.ConfigurationRepository, logger *observability.Logger, metrics *observability.Metrics) *Service {
	return &Service{
		verifier:   verifier,
		authorizer: authorizer,
		repository: repository,
		logger:     logger,
		metrics:    metrics,
	}
}

// Run executes the four-stage pipeline for one request. Stages run strictly
// in order and a failure at any stage returns without invoking later stages.
func Run[Req Request, Res any](ctx context.Context, s *Service, kind Kind[Req, Res], req Req) (Res, error) {
	var zero Res
	start := time.Now()

	// stage 1: structural validation, no I/O. A whitespace-only token is
	// still a missing token; the verifier never sees it.
	if strings.TrimSpace(req.AuthToken()) == "" {
		return zero, s.finish(kind.Name, start, badRequest("Token is a required argument"))
	}
	if kind.Validate != nil {
		if err := kind.Validate(req); err != nil {
			return zero, s.finish(kind.Name, start, err)
		}
	}

	// stage 2: authenticate
	profile, err := s.verifier.Verify(ctx, req.AuthToken())
	if err != nil {
		s.countAuthFailure("authenticate")
		return zero, s.finish(kind.Name, start, err)
	}
	if profile == nil {
		s.countAuthFailure("authenticate")
		return zero, s.finish(kind.Name, start, &auth.InvalidTokenError{Reason: "profile is null"})
	}

	// stage 3: authorize. A malformed role claim fails as authentication,
	// not authorization.
	role, err := profile.Role()
	if err != nil {
		s.countAuthFailure("authenticate")
		return zero, s.finish(kind.Name, start, err)
	}
	if err := s.authorizer.Authorize(role, kind.Operation); err != nil {
		s.countAuthFailure("authorize")
		s.logger.WithFields(map[string]interface{}{
			"operation": kind.Name,
			"tenant":    profile.Tenant,
			"role":      string(role),
		}).Warn("Operation denied")
		return zero, s.finish(kind.Name, start, err)
	}

	// stage 4: execute against the repository
	res, err := kind.Execute(observability.WithTenant(ctx, profile.Tenant), s, profile, req)
	return res, s.finish(kind.Name, start, err)
}

// finish records the operation outcome and passes the error through
func (s *Service) finish(operation string, start time.Time, err error) error {
	if s.metrics != nil {
		s.metrics.ObserveOperation(operation, outcome(err), time.Since(start))
	}
	return err
}

func (s *Service) countAuthFailure(stage string) {
	if s.metrics != nil {
		s.metrics.AuthFailuresTotal.WithLabelValues(stage).Inc()
	}
}

// outcome classifies an error for the operations metric
func outcome(err error) string {
	if err == nil {
		return "success"
	}

	var badReq *BadRequestError
	var invalidToken *auth.InvalidTokenError
	var denied *auth.InvalidPermissionsError
	switch {
	case errors.As(err, &badReq):
		return "bad_request"
	case errors.As(err, &invalidToken):
		return "unauthenticated"
	case errors.As(err, &denied):
		return "permission_denied"
	default:
		return "error"
	}
}
