// Package confirmation runs the route state machine: a route goes from unused
// to used exactly once, through either a confirmation or a decline.
package confirmation

import (
	"context"
	"errors"
	"strings"
	"time"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/metrics"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/notification"
	"rsvp-workers/internal/store"
	"rsvp-workers/internal/templates"
)

// DefaultDispatchTimeout bounds the acknowledgement sent after a response.
const DefaultDispatchTimeout = 15 * time.Second

// Notifier is the part of the dispatcher the workflow uses.
type Notifier interface {
	Send(ctx context.Context, req notification.Request) (*notification.Outcome, error)
	ConfirmAckRequest(ctx context.Context, c *models.Confirmation) notification.Request
}

type Submission struct {
	Code     string
	Name     string
	Phone    string
	Email    string
	Decision models.Decision
}

type Result struct {
	Code              string               `json:"code"`
	Decision          models.Decision      `json:"decision"`
	Confirmation      *models.Confirmation `json:"confirmation,omitempty"`
	Notified          bool                 `json:"notified"`
	DeliveryID        string               `json:"deliveryId,omitempty"`
	NotificationError string               `json:"notificationError,omitempty"`
	Message           string               `json:"message"`
}

type Workflow struct {
	store           store.Store
	notifier        Notifier
	dispatchTimeout time.Duration
	logger          logger.Logger
}

// NewWorkflow builds the workflow. notifier may be nil, in which case no
// acknowledgement is sent.
func NewWorkflow(s store.Store, notifier Notifier, dispatchTimeout time.Duration, log logger.Logger) *Workflow {
	if dispatchTimeout <= 0 {
		dispatchTimeout = DefaultDispatchTimeout
	}
	return &Workflow{
		store:           s,
		notifier:        notifier,
		dispatchTimeout: dispatchTimeout,
		logger:          log.WithFields(map[string]interface{}{"component": "confirmation"}),
	}
}

// SubmitResponse records a confirm or decline against a route code, then
// sends the matching acknowledgement. The state change is committed before
// dispatch; a dispatch failure is reported in the result, never returned.
func (w *Workflow) SubmitResponse(ctx context.Context, sub Submission) (*Result, error) {
	sub = normalize(sub)
	if err := validate(sub); err != nil {
		metrics.Responses.WithLabelValues(string(sub.Decision), "invalid").Inc()
		return nil, err
	}

	route, err := w.store.GetRoute(ctx, sub.Code)
	if err != nil {
		return nil, w.reject(sub, mapStoreError(err, sub.Code, "get route"))
	}
	if route.Used {
		return nil, w.reject(sub, apperrors.NewAlreadyUsedError(sub.Code))
	}

	result := &Result{Code: sub.Code, Decision: sub.Decision}
	switch sub.Decision {
	case models.DecisionConfirm:
		c := &models.Confirmation{Name: sub.Name, Phone: sub.Phone, Email: sub.Email}
		if err := w.store.ConfirmRoute(ctx, sub.Code, c); err != nil {
			return nil, w.reject(sub, mapStoreError(err, sub.Code, "confirm route"))
		}
		result.Confirmation = c
		result.Message = "Attendance confirmed"
	case models.DecisionDecline:
		if err := w.store.ClaimRoute(ctx, sub.Code); err != nil {
			return nil, w.reject(sub, mapStoreError(err, sub.Code, "decline route"))
		}
		result.Message = "Response recorded"
	}

	metrics.Responses.WithLabelValues(string(sub.Decision), "accepted").Inc()
	w.logger.Info("response recorded", map[string]interface{}{
		"code":     sub.Code,
		"decision": string(sub.Decision),
	})

	w.acknowledge(ctx, sub, route, result)
	return result, nil
}

func (w *Workflow) acknowledge(ctx context.Context, sub Submission, route *models.Route, result *Result) {
	if w.notifier == nil {
		return
	}

	dctx, cancel := context.WithTimeout(ctx, w.dispatchTimeout)
	defer cancel()

	var req notification.Request
	if result.Confirmation != nil {
		req = w.notifier.ConfirmAckRequest(dctx, result.Confirmation)
	} else {
		req = notification.Request{
			TemplateType: models.TemplateDeclineAck,
			Variables:    map[string]string{"name": sub.Name, "code": sub.Code},
			Phone:        sub.Phone,
			Email:        sub.Email,
			Code:         sub.Code,
			Correlation:  map[string]string{"routeCode": sub.Code, "decision": string(sub.Decision)},
		}
		if route.ParticipantID != nil {
			req.ParticipantID = *route.ParticipantID
		}
	}
	req.FallbackBody = templates.DefaultBody(req.TemplateType)

	outcome, err := w.notifier.Send(dctx, req)
	if outcome != nil {
		result.DeliveryID = outcome.DeliveryID
	}
	if err != nil {
		result.NotificationError = err.Error()
		w.logger.Warn("acknowledgement not delivered", map[string]interface{}{
			"code":  sub.Code,
			"error": err.Error(),
		})
		return
	}
	result.Notified = true

	if result.Confirmation == nil {
		return
	}
	if err := w.store.MarkWebhookSent(ctx, result.Confirmation.ID); err != nil {
		w.logger.Warn("could not flag confirmation as sent", map[string]interface{}{
			"confirmationId": result.Confirmation.ID,
			"error":          err.Error(),
		})
		return
	}
	result.Confirmation.WebhookSent = true
}

func (w *Workflow) reject(sub Submission, err *apperrors.StandardError) error {
	metrics.Responses.WithLabelValues(string(sub.Decision), strings.ToLower(string(err.Code))).Inc()
	w.logger.Info("response rejected", map[string]interface{}{
		"code":      sub.Code,
		"decision":  string(sub.Decision),
		"errorCode": string(err.Code),
	})
	return err
}

func normalize(sub Submission) Submission {
	sub.Code = strings.TrimSpace(sub.Code)
	sub.Name = strings.TrimSpace(sub.Name)
	sub.Phone = strings.TrimSpace(sub.Phone)
	sub.Email = strings.TrimSpace(sub.Email)
	sub.Decision = models.Decision(strings.ToLower(strings.TrimSpace(string(sub.Decision))))
	return sub
}

func validate(sub Submission) error {
	switch {
	case sub.Code == "":
		return apperrors.NewValidationError("code", "code is required")
	case sub.Name == "":
		return apperrors.NewValidationError("name", "name is required")
	case sub.Phone == "":
		return apperrors.NewValidationError("phone", "phone is required")
	case !sub.Decision.Valid():
		return apperrors.NewValidationError("decision", "decision must be confirm or decline")
	}
	return nil
}

func mapStoreError(err error, code, op string) *apperrors.StandardError {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return apperrors.NewNotFoundError("route", code)
	case errors.Is(err, store.ErrAlreadyUsed):
		return apperrors.NewAlreadyUsedError(code)
	default:
		return apperrors.NewStorageError(op, err)
	}
}
