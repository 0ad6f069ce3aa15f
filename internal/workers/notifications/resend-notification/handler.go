// internal/workers/notifications/resend-notification/handler.go
package resendnotification

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rsvp-workers/internal/common/camunda"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/validation"
	"rsvp-workers/internal/notification"
)

const TaskType = "resend-notification"

// Resender is implemented by notification.Dispatcher.
type Resender interface {
	Resend(ctx context.Context, confirmationID int64) (*notification.Outcome, error)
}

type Handler struct {
	config       *Config
	resender     Resender
	validator    *validation.JobValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, resender Resender, validator *validation.JobValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		resender:     resender,
		validator:    validator,
		errorHandler: apperrors.NewErrorHandler(log),
		logger:       log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := camunda.DecodeVariables(job, h.validator, &input); err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	output, err := h.Execute(ctx, &input)
	if err != nil {
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if input.ConfirmationID <= 0 {
		return nil, apperrors.NewValidationError("confirmationId", "confirmationId must be positive")
	}

	out, err := h.resender.Resend(ctx, input.ConfirmationID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("acknowledgement resent", map[string]interface{}{
		"confirmationId": input.ConfirmationID,
		"deliveryId":     out.DeliveryID,
	})
	return &Output{
		ConfirmationID: input.ConfirmationID,
		DeliveryID:     out.DeliveryID,
		Status:         out.Status,
		WebhookSent:    true,
		SentAt:         out.SentAt.UTC().Format(time.RFC3339),
	}, nil
}
