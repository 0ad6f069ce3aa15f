// internal/workers/notifications/manage-templates/handler.go
package managetemplates

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rsvp-workers/internal/common/camunda"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/validation"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
)

const TaskType = "manage-templates"

// TemplateCatalog is implemented by templates.Catalog.
type TemplateCatalog interface {
	List(ctx context.Context) ([]models.MessageTemplate, error)
	Get(ctx context.Context, id int64) (*models.MessageTemplate, error)
	Update(ctx context.Context, id int64, update store.TemplateUpdate) (*models.MessageTemplate, error)
	SetActive(ctx context.Context, id int64, active bool) (*models.MessageTemplate, error)
	History(ctx context.Context, id int64) ([]models.TemplateRevision, error)
	SeedDefaults(ctx context.Context) (int, error)
}

type Handler struct {
	config       *Config
	catalog      TemplateCatalog
	validator    *validation.JobValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, catalog TemplateCatalog, validator *validation.JobValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		catalog:      catalog,
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
	case ActionList:
		out.Templates, err = h.catalog.List(ctx)

	case ActionSeed:
		out.Seeded, err = h.catalog.SeedDefaults(ctx)

	case ActionGet, ActionUpdate, ActionSetActive, ActionHistory:
		if input.TemplateID <= 0 {
			return nil, apperrors.NewValidationError("templateId", "templateId is required for "+input.Action)
		}
		err = h.byID(ctx, input, out)

	default:
		return nil, apperrors.NewValidationError("action", "unknown action: "+input.Action)
	}

	if err != nil {
		return nil, err
	}
	return out, nil
}

func (h *Handler) byID(ctx context.Context, input *Input, out *Output) error {
	var err error
	switch input.Action {
	case ActionGet:
		out.Template, err = h.catalog.Get(ctx, input.TemplateID)
	case ActionUpdate:
		out.Template, err = h.catalog.Update(ctx, input.TemplateID, store.TemplateUpdate{
			Title:     input.Title,
			Body:      input.Body,
			Variables: input.Variables,
			Editor:    input.Editor,
			Reason:    input.Reason,
		})
	case ActionSetActive:
		if input.Active == nil {
			return apperrors.NewValidationError("active", "active is required for set-active")
		}
		out.Template, err = h.catalog.SetActive(ctx, input.TemplateID, *input.Active)
	case ActionHistory:
		out.Revisions, err = h.catalog.History(ctx, input.TemplateID)
	}
	return err
}
