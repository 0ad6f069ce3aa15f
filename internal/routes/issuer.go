// Package routes allocates unique single-use route codes.
package routes

import (
	"context"
	"errors"

	"rsvp-workers/internal/codegen"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/metrics"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
)

// MaxAttempts bounds the generate-and-insert loop.
const MaxAttempts = 10000

type Issuer struct {
	store       store.Store
	generate    codegen.Generator
	logger      logger.Logger
	maxAttempts int
}

type Option func(*Issuer)

// WithGenerator swaps the code source.
func WithGenerator(g codegen.Generator) Option {
	return func(i *Issuer) { i.generate = g }
}

// WithMaxAttempts overrides MaxAttempts.
func WithMaxAttempts(n int) Option {
	return func(i *Issuer) {
		if n > 0 {
			i.maxAttempts = n
		}
	}
}

func NewIssuer(s store.Store, log logger.Logger, opts ...Option) *Issuer {
	i := &Issuer{
		store:       s,
		generate:    codegen.Generate,
		logger:      log.WithFields(map[string]interface{}{"component": "route-issuer"}),
		maxAttempts: MaxAttempts,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Issue persists a fresh unused route, optionally bound to participantID.
// Uniqueness is enforced by the store: both a pre-check hit and a
// unique-violation on insert count as a collision and trigger a retry.
func (i *Issuer) Issue(ctx context.Context, participantID *int64) (*models.Route, error) {
	for attempt := 1; attempt <= i.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, apperrors.NewStorageError("issue route", err)
		}

		code, err := i.generate()
		if err != nil {
			return nil, apperrors.NewInternalError(err)
		}

		exists, err := i.store.RouteExists(ctx, code)
		if err != nil {
			return nil, apperrors.NewStorageError("check route", err)
		}
		if exists {
			metrics.RouteCollisions.Inc()
			continue
		}

		route := &models.Route{Code: code, ParticipantID: participantID}
		if err := i.store.CreateRoute(ctx, route); err != nil {
			if errors.Is(err, store.ErrDuplicateCode) {
				metrics.RouteCollisions.Inc()
				continue
			}
			return nil, apperrors.NewStorageError("create route", err)
		}

		metrics.RoutesIssued.Inc()
		if attempt > 1 {
			i.logger.Debug("route issued after collisions", map[string]interface{}{
				"attempts": attempt,
			})
		}
		return route, nil
	}

	i.logger.Error("route code space exhausted", map[string]interface{}{
		"attempts": i.maxAttempts,
	})
	return nil, apperrors.NewCodeSpaceExhaustedError(i.maxAttempts)
}

// IssueMissing backfills a route for every participant that has none.
// It stops at the first failure and returns how many routes were issued.
func (i *Issuer) IssueMissing(ctx context.Context) (int, error) {
	pending, err := i.store.ParticipantsWithoutRoute(ctx)
	if err != nil {
		return 0, apperrors.NewStorageError("list participants without route", err)
	}

	issued := 0
	for _, p := range pending {
		id := p.ID
		if _, err := i.Issue(ctx, &id); err != nil {
			return issued, err
		}
		issued++
	}

	if issued > 0 {
		i.logger.Info("routes backfilled", map[string]interface{}{"issued": issued})
	}
	return issued, nil
}
