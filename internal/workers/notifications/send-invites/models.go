// internal/workers/notifications/send-invites/models.go
package sendinvites

import "rsvp-workers/internal/notification"

type Input struct {
	ParticipantIDs []int64 `json:"participantIds"`
}

type Output struct {
	Requested int                         `json:"requested"`
	Sent      int                         `json:"sent"`
	Failed    int                         `json:"failed"`
	Skipped   int                         `json:"skipped"`
	Results   []notification.InviteResult `json:"results"`
}
