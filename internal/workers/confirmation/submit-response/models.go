// internal/workers/confirmation/submit-response/models.go
package submitresponse

type Input struct {
	Code     string `json:"code"`
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Decision string `json:"decision"`
}

type Output struct {
	Code              string `json:"code"`
	Decision          string `json:"decision"`
	ConfirmationID    int64  `json:"confirmationId,omitempty"`
	Notified          bool   `json:"notified"`
	DeliveryID        string `json:"deliveryId,omitempty"`
	NotificationError string `json:"notificationError,omitempty"`
	Message           string `json:"message"`
}
