// internal/workers/confirmation/submit-response/handler.go
package submitresponse

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rsvp-workers/internal/common/camunda"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/validation"
	"rsvp-workers/internal/confirmation"
	"rsvp-workers/internal/models"
)

const TaskType = "submit-response"

// ResponseRecorder is implemented by confirmation.Workflow.
type ResponseRecorder interface {
	SubmitResponse(ctx context.Context, sub confirmation.Submission) (*confirmation.Result, error)
}

type Handler struct {
	config       *Config
	workflow     ResponseRecorder
	validator    *validation.JobValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, workflow ResponseRecorder, validator *validation.JobValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		workflow:     workflow,
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

// Execute records the decision. ALREADY_USED and NOT_FOUND surface as BPMN
// errors through the error handler; a failed acknowledgement does not.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	res, err := h.workflow.SubmitResponse(ctx, confirmation.Submission{
		Code:     input.Code,
		Name:     input.Name,
		Phone:    input.Phone,
		Email:    input.Email,
		Decision: models.Decision(input.Decision),
	})
	if err != nil {
		return nil, err
	}

	out := &Output{
		Code:              res.Code,
		Decision:          string(res.Decision),
		Notified:          res.Notified,
		DeliveryID:        res.DeliveryID,
		NotificationError: res.NotificationError,
		Message:           res.Message,
	}
	if res.Confirmation != nil {
		out.ConfirmationID = res.Confirmation.ID
	}
	return out, nil
}
