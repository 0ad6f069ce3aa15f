// internal/workers/confirmation/submit-response/handler_test.go
package submitresponse

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/confirmation"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store/memstore"
)

// ==========================
// Test Helper Functions
// ==========================

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) SubmitResponse(ctx context.Context, sub confirmation.Submission) (*confirmation.Result, error) {
	args := m.Called(ctx, sub)
	res, _ := args.Get(0).(*confirmation.Result)
	return res, args.Error(1)
}

func createTestInput() *Input {
	return &Input{Code: "AB12", Name: "Ana", Phone: "5511900000001", Decision: "confirm"}
}

func newMemstoreHandler(t *testing.T) (*Handler, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	require.NoError(t, s.CreateRoute(context.Background(), &models.Route{Code: "AB12"}))
	log := logger.NewTestLogger(t)
	wf := confirmation.NewWorkflow(s, nil, 0, log)
	return NewHandler(LoadConfig(), wf, nil, log), s
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Confirm(t *testing.T) {
	h, s := newMemstoreHandler(t)

	out, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	assert.Equal(t, "AB12", out.Code)
	assert.Equal(t, "confirm", out.Decision)
	assert.NotZero(t, out.ConfirmationID)
	assert.False(t, out.Notified)

	route, err := s.GetRoute(context.Background(), "AB12")
	require.NoError(t, err)
	assert.True(t, route.Used)
}

func TestHandler_Execute_SecondSubmissionRejected(t *testing.T) {
	h, _ := newMemstoreHandler(t)

	_, err := h.Execute(context.Background(), createTestInput())
	require.NoError(t, err)

	decline := createTestInput()
	decline.Decision = "decline"
	_, err = h.Execute(context.Background(), decline)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeAlreadyUsed))
}

func TestHandler_Execute_Decline(t *testing.T) {
	h, s := newMemstoreHandler(t)
	in := createTestInput()
	in.Decision = "DECLINE"

	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "decline", out.Decision)
	assert.Zero(t, out.ConfirmationID)
	assert.Empty(t, s.Confirmations())
}

func TestHandler_Execute_PassesFieldsThrough(t *testing.T) {
	rec := new(MockRecorder)
	rec.On("SubmitResponse", mock.Anything, confirmation.Submission{
		Code: "AB12", Name: "Ana", Phone: "5511900000001", Email: "ana@example.com", Decision: models.DecisionConfirm,
	}).Return(&confirmation.Result{
		Code:              "AB12",
		Decision:          models.DecisionConfirm,
		Confirmation:      &models.Confirmation{ID: 9},
		NotificationError: "relay down",
		Message:           "confirmed",
	}, nil)

	h := NewHandler(LoadConfig(), rec, nil, logger.NewNoOpLogger())
	in := createTestInput()
	in.Email = "ana@example.com"

	out, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, int64(9), out.ConfirmationID)
	assert.Equal(t, "relay down", out.NotificationError)
	assert.False(t, out.Notified)
	rec.AssertExpectations(t)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input *Input
		code  apperrors.ErrorCode
	}{
		{"unknown code", &Input{Code: "ZZZZ", Name: "Ana", Phone: "1", Decision: "confirm"}, apperrors.ErrCodeNotFound},
		{"missing name", &Input{Code: "AB12", Phone: "1", Decision: "confirm"}, apperrors.ErrCodeValidationFailed},
		{"bad decision", &Input{Code: "AB12", Name: "Ana", Phone: "1", Decision: "maybe"}, apperrors.ErrCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, _ := newMemstoreHandler(t)
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.code, apperrors.CodeOf(err))
		})
	}
}
