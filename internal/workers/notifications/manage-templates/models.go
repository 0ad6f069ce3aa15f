// internal/workers/notifications/manage-templates/models.go
package managetemplates

import "rsvp-workers/internal/models"

const (
	ActionList      = "list"
	ActionGet       = "get"
	ActionUpdate    = "update"
	ActionSetActive = "set-active"
	ActionHistory   = "history"
	ActionSeed      = "seed"
)

type Input struct {
	Action     string   `json:"action"`
	TemplateID int64    `json:"templateId"`
	Title      string   `json:"title"`
	Body       string   `json:"body"`
	Variables  []string `json:"variables"`
	Editor     string   `json:"editor"`
	Reason     string   `json:"reason"`
	Active     *bool    `json:"active"`
}

type Output struct {
	Action    string                    `json:"action"`
	Template  *models.MessageTemplate   `json:"template,omitempty"`
	Templates []models.MessageTemplate  `json:"templates,omitempty"`
	Revisions []models.TemplateRevision `json:"revisions,omitempty"`
	Seeded    int                       `json:"seeded,omitempty"`
}
