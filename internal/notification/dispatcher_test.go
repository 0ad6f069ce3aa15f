package notification

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store/memstore"
	"rsvp-workers/internal/templates"
)

// ==========================
// Test Doubles
// ==========================

type recordingRelay struct {
	mu   sync.Mutex
	msgs []Message
	err  error
}

func (r *recordingRelay) Deliver(_ context.Context, msg Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
	return r.err
}

func (r *recordingRelay) Sent() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.msgs...)
}

type memoryDeliveryLog struct {
	mu      sync.Mutex
	records []models.Delivery
	err     error
}

func (l *memoryDeliveryLog) Record(_ context.Context, d models.Delivery) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, d)
	return l.err
}

type fixture struct {
	store      *memstore.Store
	relay      *recordingRelay
	deliveries *memoryDeliveryLog
	dispatcher *Dispatcher
}

func newFixture(t *testing.T, seed bool) *fixture {
	t.Helper()
	s := memstore.New()
	log := logger.NewTestLogger(t)
	catalog := templates.NewCatalog(s, nil, 0, log)
	if seed {
		_, err := catalog.SeedDefaults(context.Background())
		require.NoError(t, err)
	}
	f := &fixture{
		store:      s,
		relay:      &recordingRelay{},
		deliveries: &memoryDeliveryLog{},
	}
	f.dispatcher = NewDispatcher(Config{Timeout: time.Second, BaseURL: "https://rsvp.example.org/r"},
		catalog, s, f.relay, f.deliveries, log)
	return f
}

// confirmed stores a route, participant and confirmation and returns the confirmation.
func (f *fixture) confirmed(t *testing.T) *models.Confirmation {
	t.Helper()
	ctx := context.Background()
	p := &models.Participant{Name: "Ana", Phone: "5599999999"}
	require.NoError(t, f.store.CreateParticipant(ctx, p))
	require.NoError(t, f.store.CreateRoute(ctx, &models.Route{Code: "AB12", ParticipantID: &p.ID}))
	c := &models.Confirmation{Name: "Ana", Phone: "5599999999"}
	require.NoError(t, f.store.ConfirmRoute(ctx, "AB12", c))
	return c
}

// ==========================
// Send
// ==========================

func TestDispatcher_Send_Invite(t *testing.T) {
	f := newFixture(t, true)

	out, err := f.dispatcher.Send(context.Background(), Request{
		TemplateType: models.TemplateInvite,
		Variables:    map[string]string{"name": "Ana", "code": "AB12"},
		Phone:        "5599999999",
		Correlation:  map[string]string{"participantId": "1"},
	})
	require.NoError(t, err)

	assert.Equal(t, models.DeliveryStatusSent, out.Status)
	assert.NotEmpty(t, out.DeliveryID)
	assert.Contains(t, out.Body, "Hello, *Ana*!")
	assert.Contains(t, out.Body, "https://rsvp.example.org/r/AB12")
	assert.Contains(t, out.Body, templates.DefaultEventInfo.EventName)

	sent := f.relay.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, out.Body, sent[0].Body)
	assert.Equal(t, out.DeliveryID, sent[0].Correlation["deliveryId"])
	assert.Equal(t, "1", sent[0].Correlation["participantId"])

	require.Len(t, f.deliveries.records, 1)
	assert.Equal(t, models.DeliveryStatusSent, f.deliveries.records[0].Status)
}

func TestDispatcher_Send_RequestVariablesWin(t *testing.T) {
	f := newFixture(t, true)

	out, err := f.dispatcher.Send(context.Background(), Request{
		TemplateType: models.TemplateDeclineAck,
		Variables:    map[string]string{"name": "Ana", "eventName": "Override"},
		Phone:        "1",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Body, "the Override this time")
}

func TestDispatcher_Send_TemplateMissing(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.dispatcher.Send(context.Background(), Request{
		TemplateType: models.TemplateConfirmAck,
		Phone:        "1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeTemplateMissing))
	assert.Empty(t, f.relay.Sent())
}

func TestDispatcher_Send_Fallback(t *testing.T) {
	f := newFixture(t, false)

	out, err := f.dispatcher.Send(context.Background(), Request{
		TemplateType: models.TemplateConfirmAck,
		Variables:    map[string]string{"name": "Ana"},
		Phone:        "1",
		FallbackBody: "Thanks {name}, see {unknown}",
	})
	require.NoError(t, err)
	assert.Equal(t, "Thanks Ana, see {unknown}", out.Body)
}

func TestDispatcher_Send_NoDestination(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.dispatcher.Send(context.Background(), Request{TemplateType: models.TemplateInvite})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))
}

func TestDispatcher_Send_RelayFailure(t *testing.T) {
	f := newFixture(t, true)
	f.relay.err = errors.New("relay unavailable")

	out, err := f.dispatcher.Send(context.Background(), Request{
		TemplateType: models.TemplateInvite,
		Variables:    map[string]string{"name": "Ana", "code": "AB12"},
		Phone:        "1",
	})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRelayDeliveryFailed))
	require.NotNil(t, out)
	assert.Equal(t, models.DeliveryStatusFailed, out.Status)

	require.Len(t, f.deliveries.records, 1)
	assert.Equal(t, models.DeliveryStatusFailed, f.deliveries.records[0].Status)
	assert.Contains(t, f.deliveries.records[0].Error, "relay unavailable")
}

func TestDispatcher_Send_DeliveryLogFailureIgnored(t *testing.T) {
	f := newFixture(t, true)
	f.deliveries.err = errors.New("cluster red")

	_, err := f.dispatcher.Send(context.Background(), Request{TemplateType: models.TemplateInvite, Phone: "1"})
	assert.NoError(t, err)
}

func TestDispatcher_Send_Timeout(t *testing.T) {
	f := newFixture(t, true)
	slow := relayFunc(func(ctx context.Context, _ Message) error {
		<-ctx.Done()
		return ctx.Err()
	})
	d := NewDispatcher(Config{Timeout: 20 * time.Millisecond},
		templates.NewCatalog(f.store, nil, 0, logger.NewTestLogger(t)), f.store, slow, nil, logger.NewTestLogger(t))

	start := time.Now()
	_, err := d.Send(context.Background(), Request{TemplateType: models.TemplateInvite, Phone: "1"})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRelayDeliveryFailed))
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

// ==========================
// Resend
// ==========================

func TestDispatcher_Resend(t *testing.T) {
	f := newFixture(t, true)
	c := f.confirmed(t)

	for i := 0; i < 2; i++ {
		out, err := f.dispatcher.Resend(context.Background(), c.ID)
		require.NoError(t, err)
		assert.Contains(t, out.Body, "Hello, Ana!")
		assert.Contains(t, out.Body, templates.DefaultEventInfo.Location)
	}

	sent := f.relay.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, models.TemplateConfirmAck, sent[0].Type)
	assert.Equal(t, "AB12", sent[0].Code)
	assert.Equal(t, int64(1), sent[0].ParticipantID)

	stored, err := f.store.GetConfirmation(context.Background(), c.ID)
	require.NoError(t, err)
	assert.True(t, stored.WebhookSent)

	route, err := f.store.GetRoute(context.Background(), "AB12")
	require.NoError(t, err)
	assert.True(t, route.Used)
}

func TestDispatcher_Resend_FailureLeavesFlag(t *testing.T) {
	f := newFixture(t, true)
	c := f.confirmed(t)
	f.relay.err = errors.New("down")

	_, err := f.dispatcher.Resend(context.Background(), c.ID)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeRelayDeliveryFailed))

	stored, err := f.store.GetConfirmation(context.Background(), c.ID)
	require.NoError(t, err)
	assert.False(t, stored.WebhookSent)
}

func TestDispatcher_Resend_NotFound(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.dispatcher.Resend(context.Background(), 404)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeNotFound))
}
