package notification

import (
	"context"
	"strconv"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/models"
)

// ParticipantSource looks up participants together with their latest route.
type ParticipantSource interface {
	ParticipantRoutes(ctx context.Context, ids []int64) ([]models.ParticipantRoute, error)
}

type InviteResult struct {
	ParticipantID int64  `json:"participantId"`
	Name          string `json:"name,omitempty"`
	Code          string `json:"code,omitempty"`
	Status        string `json:"status"`
	DeliveryID    string `json:"deliveryId,omitempty"`
	Error         string `json:"error,omitempty"`
}

// Invite statuses besides models.DeliveryStatusSent and models.DeliveryStatusFailed.
const (
	InviteSkippedNoRoute = "skipped_no_route"
	InviteSkippedUsed    = "skipped_used"
	InviteUnknown        = "unknown_participant"
)

type InviteSummary struct {
	Requested int            `json:"requested"`
	Sent      int            `json:"sent"`
	Failed    int            `json:"failed"`
	Skipped   int            `json:"skipped"`
	Results   []InviteResult `json:"results"`
}

// SendInvites renders the invite template for each selected participant and
// sends it. One participant failing does not stop the others. Participants
// without a route, or whose route is already used, are skipped.
func (d *Dispatcher) SendInvites(ctx context.Context, participants ParticipantSource, ids []int64) (*InviteSummary, error) {
	if len(ids) == 0 {
		return nil, apperrors.NewValidationError("participantIds", "at least one participant id is required")
	}

	rows, err := participants.ParticipantRoutes(ctx, ids)
	if err != nil {
		return nil, apperrors.NewStorageError("participant routes", err)
	}
	byID := make(map[int64]models.ParticipantRoute, len(rows))
	for _, r := range rows {
		byID[r.Participant.ID] = r
	}

	sum := &InviteSummary{Requested: len(ids), Results: make([]InviteResult, 0, len(ids))}
	for _, id := range ids {
		res := InviteResult{ParticipantID: id}
		pr, ok := byID[id]
		switch {
		case !ok:
			res.Status = InviteUnknown
		case pr.Route == nil:
			res.Name = pr.Participant.Name
			res.Status = InviteSkippedNoRoute
		case pr.Route.Used:
			res.Name = pr.Participant.Name
			res.Code = pr.Route.Code
			res.Status = InviteSkippedUsed
		}
		if res.Status != "" {
			sum.Skipped++
			sum.Results = append(sum.Results, res)
			continue
		}

		res.Name = pr.Participant.Name
		res.Code = pr.Route.Code
		out, err := d.Send(ctx, inviteRequest(pr))
		if out != nil {
			res.DeliveryID = out.DeliveryID
		}
		if err != nil {
			res.Status = models.DeliveryStatusFailed
			res.Error = err.Error()
			sum.Failed++
		} else {
			res.Status = models.DeliveryStatusSent
			sum.Sent++
		}
		sum.Results = append(sum.Results, res)
	}

	d.logger.Info("invites dispatched", map[string]interface{}{
		"requested": sum.Requested,
		"sent":      sum.Sent,
		"failed":    sum.Failed,
		"skipped":   sum.Skipped,
	})
	return sum, nil
}

func inviteRequest(pr models.ParticipantRoute) Request {
	id := strconv.FormatInt(pr.Participant.ID, 10)
	return Request{
		TemplateType: models.TemplateInvite,
		Variables: map[string]string{
			"name": pr.Participant.Name,
			"code": pr.Route.Code,
		},
		Phone:         pr.Participant.Phone,
		Email:         pr.Participant.Email,
		ParticipantID: pr.Participant.ID,
		Code:          pr.Route.Code,
		Correlation: map[string]string{
			"participantId": id,
			"routeCode":     pr.Route.Code,
		},
	}
}
