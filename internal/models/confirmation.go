// internal/models/confirmation.go
package models

import "time"

// Confirmation records an affirmative response through a route code.
type Confirmation struct {
	ID          int64     `json:"id"`
	RouteCode   string    `json:"routeCode"`
	Name        string    `json:"name"`
	Phone       string    `json:"phone"`
	Email       string    `json:"email,omitempty"`
	ConfirmedAt time.Time `json:"confirmedAt"`
	WebhookSent bool      `json:"webhookSent"`
}

// Stats is the workflow dashboard summary.
type Stats struct {
	Routes        int `json:"routes"`
	UsedRoutes    int `json:"usedRoutes"`
	Confirmations int `json:"confirmations"`
	WebhooksSent  int `json:"webhooksSent"`
	Participants  int `json:"participants"`
}
