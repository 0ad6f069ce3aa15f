// internal/workers/notifications/resend-notification/models.go
package resendnotification

type Input struct {
	ConfirmationID int64 `json:"confirmationId"`
}

type Output struct {
	ConfirmationID int64  `json:"confirmationId"`
	DeliveryID     string `json:"deliveryId"`
	Status         string `json:"status"`
	WebhookSent    bool   `json:"webhookSent"`
	SentAt         string `json:"sentAt"` // ISO 8601
}
