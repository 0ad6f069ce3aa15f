// Package admin groups the operator actions over the workflow data.
package admin

import (
	"context"
	"fmt"

	"rsvp-workers/internal/codegen"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/routes"
	"rsvp-workers/internal/store"
)

// MaxSeed caps a single SeedTestData call.
const MaxSeed = 500

type SeedResult struct {
	Participants int      `json:"participants"`
	Codes        []string `json:"codes"`
}

type Service struct {
	store      store.Store
	issuer     *routes.Issuer
	testIssuer *routes.Issuer
	logger     logger.Logger
}

func NewService(s store.Store, issuer *routes.Issuer, log logger.Logger) *Service {
	log = log.WithFields(map[string]interface{}{"component": "admin"})
	return &Service{
		store:      s,
		issuer:     issuer,
		testIssuer: routes.NewIssuer(s, log, routes.WithGenerator(testCodes(codegen.Generate))),
		logger:     log,
	}
}

func testCodes(g codegen.Generator) codegen.Generator {
	return func() (string, error) {
		code, err := g()
		if err != nil {
			return "", err
		}
		return models.TestCodePrefix + code, nil
	}
}

func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	st, err := s.store.Stats(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("stats", err)
	}
	return st, nil
}

// Pending lists participants whose route has not been used yet.
func (s *Service) Pending(ctx context.Context) ([]models.ParticipantRoute, error) {
	rows, err := s.store.PendingParticipants(ctx)
	if err != nil {
		return nil, apperrors.NewStorageError("pending participants", err)
	}
	return rows, nil
}

// IssueMissing backfills routes for participants that have none.
func (s *Service) IssueMissing(ctx context.Context) (int, error) {
	return s.issuer.IssueMissing(ctx)
}

// SeedTestData creates n fake participants, each with a route carrying the
// test prefix so PurgeTestData can find them again.
func (s *Service) SeedTestData(ctx context.Context, n int) (*SeedResult, error) {
	if n <= 0 || n > MaxSeed {
		return nil, apperrors.NewValidationError("count", fmt.Sprintf("count must be between 1 and %d", MaxSeed))
	}

	res := &SeedResult{Codes: make([]string, 0, n)}
	for i := 1; i <= n; i++ {
		p := &models.Participant{
			Name:  fmt.Sprintf("Test Participant %d", i),
			Phone: fmt.Sprintf("550000%07d", i),
			City:  "Test",
		}
		if err := s.store.CreateParticipant(ctx, p); err != nil {
			return res, apperrors.NewStorageError("create test participant", err)
		}
		res.Participants++

		route, err := s.testIssuer.Issue(ctx, &p.ID)
		if err != nil {
			return res, err
		}
		res.Codes = append(res.Codes, route.Code)
	}

	s.logger.Info("test data seeded", map[string]interface{}{"participants": res.Participants})
	return res, nil
}

// PurgeTestData removes everything created by SeedTestData.
func (s *Service) PurgeTestData(ctx context.Context) (int64, error) {
	removed, err := s.store.PurgeTestData(ctx)
	if err != nil {
		return 0, apperrors.NewStorageError("purge test data", err)
	}
	s.logger.Info("test data purged", map[string]interface{}{"routes": removed})
	return removed, nil
}

// Reset wipes routes, participants and confirmations. Templates stay.
func (s *Service) Reset(ctx context.Context) error {
	if err := s.store.ResetWorkflow(ctx); err != nil {
		return apperrors.NewStorageError("reset workflow", err)
	}
	s.logger.Warn("workflow data reset", nil)
	return nil
}
