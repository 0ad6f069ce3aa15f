// internal/workers/notifications/send-notification/models.go
package sendnotification

type Input struct {
	TemplateType  string            `json:"templateType"`
	Phone         string            `json:"phone"`
	Email         string            `json:"email"`
	ParticipantID int64             `json:"participantId"`
	Code          string            `json:"code"`
	Variables     map[string]string `json:"variables"`
}

type Output struct {
	DeliveryID string `json:"deliveryId"`
	Status     string `json:"status"`
	TemplateID int64  `json:"templateId,omitempty"`
	SentAt     string `json:"sentAt"` // ISO 8601
}
