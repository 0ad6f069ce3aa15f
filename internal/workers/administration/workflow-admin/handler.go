// internal/workers/administration/workflow-admin/handler.go
package workflowadmin

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rsvp-workers/internal/admin"
	"rsvp-workers/internal/common/camunda"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/validation"
	"rsvp-workers/internal/models"
)

const TaskType = "workflow-admin"

// Operations is implemented by admin.Service.
type Operations interface {
	Stats(ctx context.Context) (*models.Stats, error)
	Pending(ctx context.Context) ([]models.ParticipantRoute, error)
	IssueMissing(ctx context.Context) (int, error)
	SeedTestData(ctx context.Context, n int) (*admin.SeedResult, error)
	PurgeTestData(ctx context.Context) (int64, error)
	Reset(ctx context.Context) error
}

type Handler struct {
	config       *Config
	ops          Operations
	validator    *validation.JobValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, ops Operations, validator *validation.JobValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		ops:          ops,
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
	out := &Output{Action: input.Action}
	var err error

	switch input.Action {
	case ActionStats:
		out.Stats, err = h.ops.Stats(ctx)
	case ActionPending:
		out.Pending, err = h.ops.Pending(ctx)
	case ActionIssueMissing:
		out.Issued, err = h.ops.IssueMissing(ctx)
	case ActionPurgeTest:
		out.Purged, err = h.ops.PurgeTestData(ctx)
	case ActionSeedTest:
		n := input.Count
		if n == 0 {
			n = 10
		}
		out.Seeded, err = h.ops.SeedTestData(ctx, n)
	case ActionReset:
		if !h.config.AllowReset {
			return nil, apperrors.NewValidationError("action", "reset is disabled for this worker")
		}
		if !input.Confirm {
			return nil, apperrors.NewValidationError("confirm", "reset requires confirm=true")
		}
		if err = h.ops.Reset(ctx); err == nil {
			out.Reset = true
		}
	default:
		return nil, apperrors.NewValidationError("action", "unknown action: "+input.Action)
	}

	if err != nil {
		return nil, err
	}
	h.logger.Info("admin action done", map[string]interface{}{"action": input.Action})
	return out, nil
}
