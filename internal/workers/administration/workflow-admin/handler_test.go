// internal/workers/administration/workflow-admin/handler_test.go
package workflowadmin

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"rsvp-workers/internal/admin"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/routes"
	"rsvp-workers/internal/store/memstore"
)

// ==========================
// Test Helper Functions
// ==========================

type MockOperations struct {
	mock.Mock
}

func (m *MockOperations) Stats(ctx context.Context) (*models.Stats, error) {
	args := m.Called(ctx)
	st, _ := args.Get(0).(*models.Stats)
	return st, args.Error(1)
}

func (m *MockOperations) Pending(ctx context.Context) ([]models.ParticipantRoute, error) {
	args := m.Called(ctx)
	rows, _ := args.Get(0).([]models.ParticipantRoute)
	return rows, args.Error(1)
}

func (m *MockOperations) IssueMissing(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockOperations) SeedTestData(ctx context.Context, n int) (*admin.SeedResult, error) {
	args := m.Called(ctx, n)
	res, _ := args.Get(0).(*admin.SeedResult)
	return res, args.Error(1)
}

func (m *MockOperations) PurgeTestData(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOperations) Reset(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func newServiceHandler(t *testing.T, cfg *Config) *Handler {
	t.Helper()
	s := memstore.New()
	log := logger.NewTestLogger(t)
	return NewHandler(cfg, admin.NewService(s, routes.NewIssuer(s, log), log), nil, log)
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_SeedStatsPurge(t *testing.T) {
	h := newServiceHandler(t, LoadConfig())
	ctx := context.Background()

	out, err := h.Execute(ctx, &Input{Action: ActionSeedTest, Count: 3})
	require.NoError(t, err)
	require.NotNil(t, out.Seeded)
	assert.Len(t, out.Seeded.Codes, 3)

	out, err = h.Execute(ctx, &Input{Action: ActionPending})
	require.NoError(t, err)
	assert.Len(t, out.Pending, 3)

	out, err = h.Execute(ctx, &Input{Action: ActionStats})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Stats.Routes)

	out, err = h.Execute(ctx, &Input{Action: ActionPurgeTest})
	require.NoError(t, err)
	assert.Equal(t, int64(3), out.Purged)

	out, err = h.Execute(ctx, &Input{Action: ActionIssueMissing})
	require.NoError(t, err)
	assert.Zero(t, out.Issued)
}

func TestHandler_Execute_SeedDefaultCount(t *testing.T) {
	ops := new(MockOperations)
	ops.On("SeedTestData", mock.Anything, 10).Return(&admin.SeedResult{Participants: 10}, nil)

	h := NewHandler(LoadConfig(), ops, nil, logger.NewNoOpLogger())
	out, err := h.Execute(context.Background(), &Input{Action: ActionSeedTest})
	require.NoError(t, err)
	assert.Equal(t, 10, out.Seeded.Participants)
	ops.AssertExpectations(t)
}

func TestHandler_Execute_ResetGuards(t *testing.T) {
	ops := new(MockOperations)
	ops.On("Reset", mock.Anything).Return(nil)

	locked := NewHandler(LoadConfig(), ops, nil, logger.NewNoOpLogger())
	_, err := locked.Execute(context.Background(), &Input{Action: ActionReset, Confirm: true})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))

	open := NewHandler(&Config{AllowReset: true}, ops, nil, logger.NewNoOpLogger())
	_, err = open.Execute(context.Background(), &Input{Action: ActionReset})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
	ops.AssertNotCalled(t, "Reset", mock.Anything)

	out, err := open.Execute(context.Background(), &Input{Action: ActionReset, Confirm: true})
	require.NoError(t, err)
	assert.True(t, out.Reset)
	ops.AssertNumberOfCalls(t, "Reset", 1)
}

func TestHandler_Execute_Errors(t *testing.T) {
	ops := new(MockOperations)
	ops.On("Stats", mock.Anything).Return(nil, apperrors.NewStorageError("stats", errors.New("down")))
	h := NewHandler(LoadConfig(), ops, nil, logger.NewNoOpLogger())

	_, err := h.Execute(context.Background(), &Input{Action: ActionStats})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageFailure))

	_, err = h.Execute(context.Background(), &Input{Action: "drop-tables"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}
