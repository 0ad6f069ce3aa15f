package templates

import (
	"encoding/json"

	"rsvp-workers/internal/models"
)

// DefaultEventInfo is the event description seeded into the eventInfo template.
var DefaultEventInfo = models.EventInfo{
	EventName:      "Digital Autonomy Workshop",
	Location:       "Digital Citizenship Hall",
	Address:        "729 Main Street, Downtown",
	Days:           "October 14 and 16 (Tuesday and Thursday)",
	Schedule:       "8am to 12pm",
	ClosingMessage: "We look forward to seeing you!",
}

// Defaults returns the templates seeded into an empty catalog.
func Defaults() []models.MessageTemplate {
	info, _ := json.Marshal(DefaultEventInfo)

	return []models.MessageTemplate{
		{
			Type:  models.TemplateInvite,
			Title: "Workshop invitation",
			Body: `Hello, *{name}*! 😄

You are invited to the {eventName}.

📅 {days}
🕗 {schedule}
📍 {location}

To confirm your attendance, open the link below 👇
🔗 {baseUrl}/{code}`,
			Variables: []string{"name", "code", "baseUrl", "eventName", "days", "schedule", "location"},
			Active:    true,
		},
		{
			Type:  models.TemplateConfirmAck,
			Title: "Attendance confirmed",
			Body: `Hello, {name}! 🎉

Your place at the {eventName} is confirmed.

📍 Location: {location}
📅 Days: {days}
🕗 Time: {schedule}

{closingMessage}`,
			Variables: []string{"name", "eventName", "location", "days", "schedule", "closingMessage"},
			Active:    true,
		},
		{
			Type:  models.TemplateDeclineAck,
			Title: "Attendance declined",
			Body: `Hello, {name}! 😊

Thank you for letting us know. We understand you cannot join the {eventName} this time.

📢 Keep an eye out for our next sessions, you are always welcome.`,
			Variables: []string{"name", "eventName"},
			Active:    true,
		},
		{
			Type:      models.TemplateEventInfo,
			Title:     "Event information",
			Body:      string(info),
			Variables: []string{"event_name", "location", "address", "days", "schedule", "closing_message"},
			Active:    true,
		},
	}
}

// DefaultBody returns the seeded body for t, or "" for an unknown type.
func DefaultBody(t models.TemplateType) string {
	for _, tpl := range Defaults() {
		if tpl.Type == t {
			return tpl.Body
		}
	}
	return ""
}
