package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	snstypes "github.com/aws/aws-sdk-go-v2/service/sns/types"

	apphttp "rsvp-workers/internal/common/http"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/models"
)

// Message is a rendered notification ready for a relay.
type Message struct {
	Type          models.TemplateType
	Phone         string
	Email         string
	Subject       string
	Body          string
	ParticipantID int64
	Code          string
	Correlation   map[string]string
}

// Relay delivers a message to an external channel. A nil error means the
// channel accepted it.
type Relay interface {
	Deliver(ctx context.Context, msg Message) error
}

// ==========================
// Webhook relay
// ==========================

type webhookPayload struct {
	Phone         string            `json:"phone"`
	Message       string            `json:"message"`
	ParticipantID int64             `json:"participantId,omitempty"`
	Code          string            `json:"code,omitempty"`
	Type          string            `json:"type"`
	Correlation   map[string]string `json:"correlation,omitempty"`
}

// WebhookRelay posts messages as JSON to a relay endpoint.
type WebhookRelay struct {
	url    string
	client *apphttp.Client
	tokens TokenProvider
}

// NewWebhookRelay builds a relay. tokens may be nil for unauthenticated endpoints.
func NewWebhookRelay(url string, client *apphttp.Client, tokens TokenProvider) *WebhookRelay {
	return &WebhookRelay{url: url, client: client, tokens: tokens}
}

func (r *WebhookRelay) Deliver(ctx context.Context, msg Message) error {
	data, err := json.Marshal(webhookPayload{
		Phone:         msg.Phone,
		Message:       msg.Body,
		ParticipantID: msg.ParticipantID,
		Code:          msg.Code,
		Type:          string(msg.Type),
		Correlation:   msg.Correlation,
	})
	if err != nil {
		return fmt.Errorf("encode webhook payload: %w", err)
	}

	req, err := http.NewRequest(http.MethodPost, r.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if id := msg.Correlation["deliveryId"]; id != "" {
		req.Header.Set("X-Correlation-ID", id)
	}

	if r.tokens != nil {
		token, err := r.tokens.Token(ctx)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := r.client.DoWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		if resp.StatusCode == http.StatusUnauthorized {
			if c, ok := r.tokens.(*TokenCache); ok {
				c.Invalidate()
			}
		}
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	return nil
}

// ==========================
// AWS relays
// ==========================

type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SESService interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SMSRelay sends the message body as an SMS through SNS.
type SMSRelay struct {
	client   SNSService
	senderID string
}

func NewSMSRelay(client SNSService, senderID string) *SMSRelay {
	return &SMSRelay{client: client, senderID: senderID}
}

func (r *SMSRelay) Deliver(ctx context.Context, msg Message) error {
	if msg.Phone == "" {
		return fmt.Errorf("sms relay: no phone number")
	}
	phone := msg.Phone
	if !strings.HasPrefix(phone, "+") {
		phone = "+" + phone
	}

	input := &sns.PublishInput{
		PhoneNumber: aws.String(phone),
		Message:     aws.String(msg.Body),
	}
	if r.senderID != "" {
		input.MessageAttributes = map[string]snstypes.MessageAttributeValue{
			"AWS.SNS.SMS.SenderID": {DataType: aws.String("String"), StringValue: aws.String(r.senderID)},
		}
	}
	if _, err := r.client.Publish(ctx, input); err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// EmailRelay sends a copy by email through SES. Messages without an email
// address are skipped.
type EmailRelay struct {
	client SESService
	from   string
}

func NewEmailRelay(client SESService, from string) *EmailRelay {
	return &EmailRelay{client: client, from: from}
}

func (r *EmailRelay) Deliver(ctx context.Context, msg Message) error {
	if msg.Email == "" {
		return nil
	}
	subject := msg.Subject
	if subject == "" {
		subject = string(msg.Type)
	}

	_, err := r.client.SendEmail(ctx, &ses.SendEmailInput{
		Destination: &types.Destination{
			ToAddresses: []string{msg.Email},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Text: &types.Content{Data: aws.String(msg.Body)},
			},
		},
		Source: aws.String(r.from),
	})
	if err != nil {
		return fmt.Errorf("ses send email: %w", err)
	}
	return nil
}

// ==========================
// Fan-out
// ==========================

// MultiRelay delivers through a primary relay and then best-effort through
// secondaries. Only the primary's result is reported.
type MultiRelay struct {
	primary     Relay
	secondaries []Relay
	logger      logger.Logger
}

func NewMultiRelay(log logger.Logger, primary Relay, secondaries ...Relay) *MultiRelay {
	return &MultiRelay{
		primary:     primary,
		secondaries: secondaries,
		logger:      log.WithFields(map[string]interface{}{"component": "multi-relay"}),
	}
}

func (m *MultiRelay) Deliver(ctx context.Context, msg Message) error {
	if err := m.primary.Deliver(ctx, msg); err != nil {
		return err
	}
	for _, r := range m.secondaries {
		if err := r.Deliver(ctx, msg); err != nil {
			m.logger.Warn("secondary relay failed", map[string]interface{}{
				"relay": fmt.Sprintf("%T", r),
				"type":  string(msg.Type),
				"error": err.Error(),
			})
		}
	}
	return nil
}
