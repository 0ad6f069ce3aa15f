// internal/workers/routes/issue-route/handler.go
package issueroute

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rsvp-workers/internal/common/camunda"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/validation"
	"rsvp-workers/internal/models"
)

const TaskType = "issue-route"

// RouteIssuer is implemented by routes.Issuer.
type RouteIssuer interface {
	Issue(ctx context.Context, participantID *int64) (*models.Route, error)
}

type Handler struct {
	config       *Config
	issuer       RouteIssuer
	validator    *validation.JobValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, issuer RouteIssuer, validator *validation.JobValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		issuer:       issuer,
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

// Execute issues one route.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	route, err := h.issuer.Issue(ctx, input.ParticipantID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("route issued", map[string]interface{}{
		"code":          route.Code,
		"participantId": route.ParticipantID,
	})

	return &Output{
		Code:          route.Code,
		ParticipantID: route.ParticipantID,
		CreatedAt:     route.CreatedAt.UTC().Format(time.RFC3339),
	}, nil
}
