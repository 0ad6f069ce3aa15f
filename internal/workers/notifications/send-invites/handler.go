// internal/workers/notifications/send-invites/handler.go
package sendinvites

import (
	"context"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rsvp-workers/internal/common/camunda"
	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/validation"
	"rsvp-workers/internal/notification"
)

const TaskType = "send-invites"

// Inviter is implemented by notification.Dispatcher.
type Inviter interface {
	SendInvites(ctx context.Context, participants notification.ParticipantSource, ids []int64) (*notification.InviteSummary, error)
}

type Handler struct {
	config       *Config
	inviter      Inviter
	participants notification.ParticipantSource
	validator    *validation.JobValidator
	errorHandler *apperrors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, inviter Inviter, participants notification.ParticipantSource, validator *validation.JobValidator, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		inviter:      inviter,
		participants: participants,
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

// Execute invites the selected participants. Duplicate ids are sent once.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ids := dedupe(input.ParticipantIDs)
	sum, err := h.inviter.SendInvites(ctx, h.participants, ids)
	if err != nil {
		return nil, err
	}
	return &Output{
		Requested: sum.Requested,
		Sent:      sum.Sent,
		Failed:    sum.Failed,
		Skipped:   sum.Skipped,
		Results:   sum.Results,
	}, nil
}

func dedupe(ids []int64) []int64 {
	seen := make(map[int64]bool, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}
