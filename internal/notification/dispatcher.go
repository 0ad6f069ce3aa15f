// Package notification renders message templates and pushes them to the
// relay, recording every attempt.
package notification

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/metrics"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
)

// DefaultTimeout bounds a single relay call.
const DefaultTimeout = 15 * time.Second

// TemplateSource resolves active templates. Implemented by templates.Catalog.
type TemplateSource interface {
	Active(ctx context.Context, t models.TemplateType) (*models.MessageTemplate, error)
	EventInfo(ctx context.Context) (models.EventInfo, bool)
}

// ConfirmationSource is the slice of the record store that Resend needs.
type ConfirmationSource interface {
	GetConfirmation(ctx context.Context, id int64) (*models.Confirmation, error)
	GetRoute(ctx context.Context, code string) (*models.Route, error)
	MarkWebhookSent(ctx context.Context, id int64) error
}

type Config struct {
	Timeout time.Duration
	// BaseURL is exposed to templates as {baseUrl}.
	BaseURL string
}

type Request struct {
	TemplateType  models.TemplateType
	Variables     map[string]string
	Phone         string
	Email         string
	ParticipantID int64
	Code          string
	Correlation   map[string]string
	// FallbackBody is rendered when no active template exists.
	FallbackBody string
}

type Outcome struct {
	DeliveryID string    `json:"deliveryId"`
	Status     string    `json:"status"`
	TemplateID int64     `json:"templateId,omitempty"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sentAt"`
}

type Dispatcher struct {
	templates  TemplateSource
	records    ConfirmationSource
	relay      Relay
	deliveries DeliveryLog
	config     Config
	logger     logger.Logger
	now        func() time.Time
}

func NewDispatcher(cfg Config, templates TemplateSource, records ConfirmationSource, relay Relay, deliveries DeliveryLog, log logger.Logger) *Dispatcher {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	if deliveries == nil {
		deliveries = NopDeliveryLog{}
	}
	return &Dispatcher{
		templates:  templates,
		records:    records,
		relay:      relay,
		deliveries: deliveries,
		config:     cfg,
		logger:     log.WithFields(map[string]interface{}{"component": "dispatcher"}),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Send renders the active template of req.TemplateType and delivers it. A
// relay failure yields a failed Outcome together with a RelayDeliveryError.
func (d *Dispatcher) Send(ctx context.Context, req Request) (*Outcome, error) {
	if req.Phone == "" && req.Email == "" {
		return nil, apperrors.NewValidationError("phone", "a destination phone or email is required")
	}

	subject, body, templateID, err := d.resolve(ctx, req)
	if err != nil {
		return nil, err
	}
	rendered := Render(body, d.variables(ctx, req))

	deliveryID := uuid.New().String()
	correlation := make(map[string]string, len(req.Correlation)+1)
	for k, v := range req.Correlation {
		correlation[k] = v
	}
	correlation["deliveryId"] = deliveryID

	msg := Message{
		Type:          req.TemplateType,
		Phone:         req.Phone,
		Email:         req.Email,
		Subject:       subject,
		Body:          rendered,
		ParticipantID: req.ParticipantID,
		Code:          req.Code,
		Correlation:   correlation,
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	relayErr := d.relay.Deliver(sendCtx, msg)
	cancel()

	outcome := &Outcome{
		DeliveryID: deliveryID,
		Status:     models.DeliveryStatusSent,
		TemplateID: templateID,
		Body:       rendered,
		SentAt:     d.now(),
	}
	delivery := models.Delivery{
		ID:           deliveryID,
		TemplateType: req.TemplateType,
		Phone:        req.Phone,
		Email:        req.Email,
		Body:         rendered,
		Status:       models.DeliveryStatusSent,
		Correlation:  correlation,
		AttemptedAt:  outcome.SentAt,
	}
	if relayErr != nil {
		outcome.Status = models.DeliveryStatusFailed
		delivery.Status = models.DeliveryStatusFailed
		delivery.Error = relayErr.Error()
	}

	if err := d.deliveries.Record(ctx, delivery); err != nil {
		d.logger.Warn("delivery log write failed", map[string]interface{}{
			"deliveryId": deliveryID,
			"error":      err.Error(),
		})
	}
	metrics.Notifications.WithLabelValues(string(req.TemplateType), outcome.Status).Inc()

	if relayErr != nil {
		d.logger.Error("notification delivery failed", map[string]interface{}{
			"deliveryId": deliveryID,
			"type":       string(req.TemplateType),
			"error":      relayErr.Error(),
		})
		return outcome, apperrors.NewRelayDeliveryError("webhook", relayErr).
			WithMetadata("deliveryId", deliveryID)
	}

	d.logger.Info("notification delivered", map[string]interface{}{
		"deliveryId": deliveryID,
		"type":       string(req.TemplateType),
	})
	return outcome, nil
}

// Resend replays the confirmAck message of a stored confirmation and flags
// it as sent. It never touches the route state.
func (d *Dispatcher) Resend(ctx context.Context, confirmationID int64) (*Outcome, error) {
	c, err := d.records.GetConfirmation(ctx, confirmationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NewNotFoundError("confirmation", strconv.FormatInt(confirmationID, 10))
		}
		return nil, apperrors.NewStorageError("get confirmation", err)
	}

	outcome, err := d.Send(ctx, d.ConfirmAckRequest(ctx, c))
	if err != nil {
		return outcome, err
	}

	if err := d.records.MarkWebhookSent(ctx, c.ID); err != nil {
		d.logger.Warn("could not flag confirmation as sent", map[string]interface{}{
			"confirmationId": c.ID,
			"error":          err.Error(),
		})
	}
	return outcome, nil
}

// ConfirmAckRequest builds the acknowledgement sent after a confirmation.
func (d *Dispatcher) ConfirmAckRequest(ctx context.Context, c *models.Confirmation) Request {
	req := Request{
		TemplateType: models.TemplateConfirmAck,
		Variables: map[string]string{
			"name": c.Name,
			"code": c.RouteCode,
		},
		Phone: c.Phone,
		Email: c.Email,
		Code:  c.RouteCode,
		Correlation: map[string]string{
			"confirmationId": strconv.FormatInt(c.ID, 10),
			"routeCode":      c.RouteCode,
		},
	}
	if route, err := d.records.GetRoute(ctx, c.RouteCode); err == nil && route.ParticipantID != nil {
		req.ParticipantID = *route.ParticipantID
	}
	return req
}

func (d *Dispatcher) resolve(ctx context.Context, req Request) (subject, body string, templateID int64, err error) {
	tpl, err := d.templates.Active(ctx, req.TemplateType)
	if err == nil {
		return tpl.Title, tpl.Body, tpl.ID, nil
	}
	if req.FallbackBody == "" {
		return "", "", 0, err
	}
	d.logger.Warn("using fallback body", map[string]interface{}{
		"type":  string(req.TemplateType),
		"error": err.Error(),
	})
	return "", req.FallbackBody, 0, nil
}

// variables layers event info, then the configured base URL, then the
// request's own variables.
func (d *Dispatcher) variables(ctx context.Context, req Request) map[string]string {
	vars := map[string]string{}
	if req.TemplateType != models.TemplateEventInfo {
		if info, ok := d.templates.EventInfo(ctx); ok {
			for k, v := range info.Variables() {
				vars[k] = v
			}
		}
	}
	if d.config.BaseURL != "" {
		vars["baseUrl"] = d.config.BaseURL
	}
	for k, v := range req.Variables {
		vars[k] = v
	}
	return vars
}
