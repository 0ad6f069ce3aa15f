// internal/workers/routes/issue-route/models.go
package issueroute

type Input struct {
	ParticipantID *int64 `json:"participantId,omitempty"`
}

type Output struct {
	Code          string `json:"code"`
	ParticipantID *int64 `json:"participantId,omitempty"`
	CreatedAt     string `json:"createdAt"` // ISO 8601
}
