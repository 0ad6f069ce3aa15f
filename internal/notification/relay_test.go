package notification

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	apphttp "rsvp-workers/internal/common/http"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/models"
)

// ==========================
// Mock Implementations
// ==========================

type MockSESService struct {
	SendEmailFunc func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

func (m *MockSESService) SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	return m.SendEmailFunc(ctx, params, optFns...)
}

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	return m.PublishFunc(ctx, params, optFns...)
}

type relayFunc func(ctx context.Context, msg Message) error

func (f relayFunc) Deliver(ctx context.Context, msg Message) error { return f(ctx, msg) }

func testMessage() Message {
	return Message{
		Type:          models.TemplateConfirmAck,
		Phone:         "5599999999",
		Email:         "ana@example.org",
		Body:          "Hi Ana",
		ParticipantID: 12,
		Code:          "AB12",
		Correlation:   map[string]string{"deliveryId": "d-1"},
	}
}

// ==========================
// Webhook relay
// ==========================

func TestWebhookRelay_Deliver(t *testing.T) {
	var (
		got  map[string]interface{}
		auth string
		corr string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		auth = r.Header.Get("Authorization")
		corr = r.Header.Get("X-Correlation-ID")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	relay := NewWebhookRelay(srv.URL, apphttp.NewClient(5*time.Second), StaticToken("secret"))
	require.NoError(t, relay.Deliver(context.Background(), testMessage()))

	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "d-1", corr)
	assert.Equal(t, "5599999999", got["phone"])
	assert.Equal(t, "Hi Ana", got["message"])
	assert.Equal(t, float64(12), got["participantId"])
	assert.Equal(t, "AB12", got["code"])
	assert.Equal(t, "confirmAck", got["type"])
}

func TestWebhookRelay_NonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "relay down", http.StatusBadGateway)
	}))
	defer srv.Close()

	relay := NewWebhookRelay(srv.URL, apphttp.NewClient(5*time.Second), nil)
	err := relay.Deliver(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
	assert.Contains(t, err.Error(), "relay down")
}

func TestWebhookRelay_UnauthorizedDropsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "Bearer stale" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tokens := []string{"stale", "fresh"}
	cache := NewTokenCache(func(context.Context) (*oauth2.Token, error) {
		tok := tokens[0]
		tokens = tokens[1:]
		return &oauth2.Token{AccessToken: tok, Expiry: time.Now().Add(time.Hour)}, nil
	})
	relay := NewWebhookRelay(srv.URL, apphttp.NewClient(5*time.Second), cache)

	require.Error(t, relay.Deliver(context.Background(), testMessage()))
	assert.NoError(t, relay.Deliver(context.Background(), testMessage()))
}

func TestWebhookRelay_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	relay := NewWebhookRelay(srv.URL, apphttp.NewClient(5*time.Second), nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := relay.Deliver(ctx, testMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

// ==========================
// AWS relays
// ==========================

func TestSMSRelay_Deliver(t *testing.T) {
	var input *sns.PublishInput
	relay := NewSMSRelay(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			input = params
			return &sns.PublishOutput{}, nil
		},
	}, "RSVP")

	require.NoError(t, relay.Deliver(context.Background(), testMessage()))
	require.NotNil(t, input)
	assert.Equal(t, "+5599999999", *input.PhoneNumber)
	assert.Equal(t, "Hi Ana", *input.Message)
	assert.Equal(t, "RSVP", *input.MessageAttributes["AWS.SNS.SMS.SenderID"].StringValue)
}

func TestSMSRelay_Errors(t *testing.T) {
	relay := NewSMSRelay(&MockSNSService{
		PublishFunc: func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, errors.New("throttled")
		},
	}, "")

	assert.ErrorContains(t, relay.Deliver(context.Background(), testMessage()), "throttled")
	assert.ErrorContains(t, relay.Deliver(context.Background(), Message{Body: "x"}), "no phone")
}

func TestEmailRelay_Deliver(t *testing.T) {
	calls := 0
	var input *ses.SendEmailInput
	relay := NewEmailRelay(&MockSESService{
		SendEmailFunc: func(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
			calls++
			input = params
			return &ses.SendEmailOutput{}, nil
		},
	}, "noreply@rsvp.example.org")

	msg := testMessage()
	msg.Subject = "Attendance confirmed"
	require.NoError(t, relay.Deliver(context.Background(), msg))
	assert.Equal(t, []string{"ana@example.org"}, input.Destination.ToAddresses)
	assert.Equal(t, "Attendance confirmed", *input.Message.Subject.Data)
	assert.Equal(t, "noreply@rsvp.example.org", *input.Source)

	msg.Email = ""
	require.NoError(t, relay.Deliver(context.Background(), msg))
	assert.Equal(t, 1, calls)
}

// ==========================
// Fan-out
// ==========================

func TestMultiRelay(t *testing.T) {
	var order []string
	ok := func(name string) Relay {
		return relayFunc(func(context.Context, Message) error { order = append(order, name); return nil })
	}
	failing := func(name string) Relay {
		return relayFunc(func(context.Context, Message) error { order = append(order, name); return errors.New(name + " down") })
	}

	t.Run("secondary failure is swallowed", func(t *testing.T) {
		order = nil
		m := NewMultiRelay(logger.NewTestLogger(t), ok("webhook"), failing("sms"), ok("email"))
		assert.NoError(t, m.Deliver(context.Background(), testMessage()))
		assert.Equal(t, []string{"webhook", "sms", "email"}, order)
	})

	t.Run("primary failure stops fan-out", func(t *testing.T) {
		order = nil
		m := NewMultiRelay(logger.NewTestLogger(t), failing("webhook"), ok("sms"))
		assert.ErrorContains(t, m.Deliver(context.Background(), testMessage()), "webhook down")
		assert.Equal(t, []string{"webhook"}, order)
	})
}
