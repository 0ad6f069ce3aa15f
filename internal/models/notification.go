// internal/models/notification.go
package models

import "time"

const (
	DeliveryStatusSent   = "sent"
	DeliveryStatusFailed = "failed"
)

// Delivery is one relay attempt, as recorded in the delivery log.
type Delivery struct {
	ID           string            `json:"id"`
	TemplateType TemplateType      `json:"templateType"`
	Phone        string            `json:"phone"`
	Email        string            `json:"email,omitempty"`
	Body         string            `json:"body"`
	Status       string            `json:"status"`
	Error        string            `json:"error,omitempty"`
	Correlation  map[string]string `json:"correlation,omitempty"`
	AttemptedAt  time.Time         `json:"attemptedAt"`
}
