// internal/models/template.go
package models

import "time"

type TemplateType string

const (
	TemplateInvite     TemplateType = "invite"
	TemplateConfirmAck TemplateType = "confirmAck"
	TemplateDeclineAck TemplateType = "declineAck"
	TemplateEventInfo  TemplateType = "eventInfo"
)

var TemplateTypes = []TemplateType{
	TemplateInvite,
	TemplateConfirmAck,
	TemplateDeclineAck,
	TemplateEventInfo,
}

// Valid reports whether t is a known template type.
func (t TemplateType) Valid() bool {
	for _, known := range TemplateTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MessageTemplate is a message body with {placeholder} markers.
type MessageTemplate struct {
	ID        int64        `json:"id"`
	Type      TemplateType `json:"type"`
	Title     string       `json:"title"`
	Body      string       `json:"body"`
	Variables []string     `json:"variables"`
	Active    bool         `json:"active"`
	CreatedAt time.Time    `json:"createdAt"`
	UpdatedAt time.Time    `json:"updatedAt"`
}

// TemplateRevision is an append-only record of a template body change.
type TemplateRevision struct {
	ID           int64     `json:"id"`
	TemplateID   int64     `json:"templateId"`
	PreviousBody string    `json:"previousBody"`
	NewBody      string    `json:"newBody"`
	Editor       string    `json:"editor"`
	Reason       string    `json:"reason,omitempty"`
	ChangedAt    time.Time `json:"changedAt"`
}

// EventInfo is the JSON payload stored in the eventInfo template body.
type EventInfo struct {
	EventName      string `json:"event_name"`
	Location       string `json:"location"`
	Address        string `json:"address"`
	Days           string `json:"days"`
	Schedule       string `json:"schedule"`
	ClosingMessage string `json:"closing_message"`
}

// Variables exposes the event info as template variables.
func (e EventInfo) Variables() map[string]string {
	return map[string]string{
		"eventName":      e.EventName,
		"location":       e.Location,
		"address":        e.Address,
		"days":           e.Days,
		"schedule":       e.Schedule,
		"closingMessage": e.ClosingMessage,
	}
}
