// internal/workers/notifications/send-notification/handler.go
package sendnotification

import (
	"context"
	"strconv"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rsvp-workers/internal/common/camunda"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/validation"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/notification"
)

const TaskType = "send-notification"

// Sender is implemented by notification.Dispatcher.
type Sender interface {
	Send(ctx context.Context, req notification.Request) (*notification.Outcome, error)
}

type Handler struct {
	config       *Config
	sender       Sender
	validator    *validation.JobValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, sender Sender, validator *validation.JobValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		sender:       sender,
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

	output, err := h.execute(ctx, &input, strconv.FormatInt(job.ProcessInstanceKey, 10))
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

// Execute renders and sends one notification. A relay failure is returned
// as RELAY_DELIVERY_FAILED so the job is retried.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input, "")
}

func (h *Handler) execute(ctx context.Context, input *Input, processInstance string) (*Output, error) {
	t := models.TemplateType(input.TemplateType)
	if !t.Valid() {
		return nil, apperrors.NewValidationError("templateType", "unknown template type: "+input.TemplateType)
	}

	correlation := map[string]string{}
	if processInstance != "" {
		correlation["processInstanceKey"] = processInstance
	}
	if input.ParticipantID > 0 {
		correlation["participantId"] = strconv.FormatInt(input.ParticipantID, 10)
	}

	out, err := h.sender.Send(ctx, notification.Request{
		TemplateType:  t,
		Variables:     input.Variables,
		Phone:         input.Phone,
		Email:         input.Email,
		ParticipantID: input.ParticipantID,
		Code:          input.Code,
		Correlation:   correlation,
	})
	if err != nil {
		return nil, err
	}

	return &Output{
		DeliveryID: out.DeliveryID,
		Status:     out.Status,
		TemplateID: out.TemplateID,
		SentAt:     out.SentAt.UTC().Format(time.RFC3339),
	}, nil
}
