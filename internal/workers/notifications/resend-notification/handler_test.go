// internal/workers/notifications/resend-notification/handler_test.go
package resendnotification

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/notification"
	"rsvp-workers/internal/store/memstore"
	"rsvp-workers/internal/templates"
)

// ==========================
// Test Helper Functions
// ==========================

type switchRelay struct {
	err   error
	count int
}

func (r *switchRelay) Deliver(context.Context, notification.Message) error {
	r.count++
	return r.err
}

func setup(t *testing.T) (*Handler, *memstore.Store, *switchRelay, int64) {
	t.Helper()
	ctx := context.Background()
	s := memstore.New()
	log := logger.NewTestLogger(t)

	catalog := templates.NewCatalog(s, nil, 0, log)
	_, err := catalog.SeedDefaults(ctx)
	require.NoError(t, err)

	require.NoError(t, s.CreateRoute(ctx, &models.Route{Code: "AB12"}))
	c := &models.Confirmation{Name: "Ana", Phone: "5511900000001"}
	require.NoError(t, s.ConfirmRoute(ctx, "AB12", c))

	relay := &switchRelay{}
	d := notification.NewDispatcher(notification.Config{Timeout: time.Second}, catalog, s, relay, nil, log)
	return NewHandler(LoadConfig(), d, nil, log), s, relay, c.ID
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ResendFlagsConfirmation(t *testing.T) {
	h, s, relay, id := setup(t)

	out, err := h.Execute(context.Background(), &Input{ConfirmationID: id})
	require.NoError(t, err)
	assert.Equal(t, models.DeliveryStatusSent, out.Status)
	assert.True(t, out.WebhookSent)
	assert.Equal(t, 1, relay.count)

	c, err := s.GetConfirmation(context.Background(), id)
	require.NoError(t, err)
	assert.True(t, c.WebhookSent)

	route, err := s.GetRoute(context.Background(), "AB12")
	require.NoError(t, err)
	assert.True(t, route.Used)
}

func TestHandler_Execute_RelayDown(t *testing.T) {
	h, s, relay, id := setup(t)
	relay.err = errors.New("connection refused")

	_, err := h.Execute(context.Background(), &Input{ConfirmationID: id})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRelayDeliveryFailed))

	c, err := s.GetConfirmation(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, c.WebhookSent)
}

func TestHandler_Execute_Errors(t *testing.T) {
	h, _, _, _ := setup(t)

	_, err := h.Execute(context.Background(), &Input{ConfirmationID: 999})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))

	_, err = h.Execute(context.Background(), &Input{})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}
