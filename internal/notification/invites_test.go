package notification

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/models"
)

type failingParticipants struct{}

func (failingParticipants) ParticipantRoutes(context.Context, []int64) ([]models.ParticipantRoute, error) {
	return nil, errors.New("db down")
}

// addParticipant stores a participant and, when code is set, a route bound to it.
func (f *fixture) addParticipant(t *testing.T, name, phone, code string, used bool) int64 {
	t.Helper()
	ctx := context.Background()
	p := &models.Participant{Name: name, Phone: phone}
	require.NoError(t, f.store.CreateParticipant(ctx, p))
	if code != "" {
		require.NoError(t, f.store.CreateRoute(ctx, &models.Route{Code: code, ParticipantID: &p.ID}))
		if used {
			require.NoError(t, f.store.ClaimRoute(ctx, code))
		}
	}
	return p.ID
}

func TestSendInvites_MixedOutcomes(t *testing.T) {
	f := newFixture(t, true)
	ana := f.addParticipant(t, "Ana", "5511900000001", "AAAA", false)
	bia := f.addParticipant(t, "Bia", "5511900000002", "", false)
	caio := f.addParticipant(t, "Caio", "5511900000003", "CCCC", true)

	sum, err := f.dispatcher.SendInvites(context.Background(), f.store, []int64{ana, bia, caio, 99})
	require.NoError(t, err)

	assert.Equal(t, 4, sum.Requested)
	assert.Equal(t, 1, sum.Sent)
	assert.Equal(t, 3, sum.Skipped)
	require.Len(t, sum.Results, 4)
	assert.Equal(t, models.DeliveryStatusSent, sum.Results[0].Status)
	assert.Equal(t, InviteSkippedNoRoute, sum.Results[1].Status)
	assert.Equal(t, InviteSkippedUsed, sum.Results[2].Status)
	assert.Equal(t, InviteUnknown, sum.Results[3].Status)

	sent := f.relay.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "5511900000001", sent[0].Phone)
	assert.Contains(t, sent[0].Body, "https://rsvp.example.org/r/AAAA")
	assert.Equal(t, "AAAA", sent[0].Correlation["routeCode"])
}

func TestSendInvites_RelayFailureIsPerParticipant(t *testing.T) {
	f := newFixture(t, true)
	f.relay.err = errors.New("relay returned 502")
	ana := f.addParticipant(t, "Ana", "5511900000001", "AAAA", false)
	bia := f.addParticipant(t, "Bia", "5511900000002", "BBBB", false)

	sum, err := f.dispatcher.SendInvites(context.Background(), f.store, []int64{ana, bia})
	require.NoError(t, err)

	assert.Equal(t, 2, sum.Failed)
	assert.Len(t, f.relay.Sent(), 2)
	for _, r := range sum.Results {
		assert.Equal(t, models.DeliveryStatusFailed, r.Status)
		assert.NotEmpty(t, r.DeliveryID)
		assert.Contains(t, r.Error, "502")
	}

	route, err := f.store.GetRoute(context.Background(), "AAAA")
	require.NoError(t, err)
	assert.False(t, route.Used)
}

func TestSendInvites_Errors(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.dispatcher.SendInvites(context.Background(), f.store, nil)
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeValidationFailed))

	_, err = f.dispatcher.SendInvites(context.Background(), failingParticipants{}, []int64{1})
	assert.True(t, apperrors.HasCode(err, apperrors.ErrCodeStorageFailure))
}
