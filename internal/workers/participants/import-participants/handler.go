// internal/workers/participants/import-participants/handler.go
package importparticipants

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rsvp-workers/internal/common/camunda"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/validation"
	"rsvp-workers/internal/participants"
)

const TaskType = "import-participants"

// BatchImporter is implemented by participants.Importer.
type BatchImporter interface {
	ImportBatch(ctx context.Context, rows []map[string]string) *participants.Summary
}

// RowSource is implemented by sheets.Client.
type RowSource interface {
	Rows(ctx context.Context, sheetRange string) ([]map[string]string, error)
}

type Handler struct {
	config       *Config
	importer     BatchImporter
	sheet        RowSource
	validator    *validation.JobValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

// NewHandler builds the handler. sheet may be nil when no spreadsheet is configured.
func NewHandler(config *Config, importer BatchImporter, sheet RowSource, validator *validation.JobValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		importer:     importer,
		sheet:        sheet,
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

// Execute imports rows given inline, or read from the sheet when the source
// is "sheet" or no rows were passed. Per-row problems end up in the output;
// only a failure to obtain the rows fails the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	source := input.Source
	if source == "" {
		source = SourceInline
		if len(input.Rows) == 0 && h.sheet != nil {
			source = SourceSheet
		}
	}

	rows := input.Rows
	switch source {
	case SourceInline:
		if len(rows) == 0 {
			return nil, apperrors.NewValidationError("rows", "no rows to import")
		}
	case SourceSheet:
		if h.sheet == nil {
			return nil, apperrors.NewValidationError("source", "no spreadsheet configured")
		}
		sheetRange := input.SheetRange
		if sheetRange == "" {
			sheetRange = h.config.SheetRange
		}
		var err error
		rows, err = h.sheet.Rows(ctx, sheetRange)
		if err != nil {
			return nil, apperrors.NewStorageError("read sheet", err)
		}
	default:
		return nil, apperrors.NewValidationError("source", "source must be inline or sheet")
	}

	sum := h.importer.ImportBatch(ctx, rows)
	return &Output{
		Source:     source,
		Processed:  sum.Processed,
		Imported:   sum.Imported,
		Duplicates: sum.Duplicates,
		Errors:     sum.Errors,
		Failures:   sum.Failures,
		Duplicated: sum.Duplicated,
		Issued:     sum.Issued,
	}, nil
}
