// internal/models/participant.go
package models

import "time"

// Participant is an imported questionnaire respondent. Phone and NationalID hold
// digits only.
type Participant struct {
	ID               int64      `json:"id"`
	SubmittedAt      *time.Time `json:"submittedAt,omitempty"`
	Name             string     `json:"name"`
	Gender           string     `json:"gender,omitempty"`
	Age              *int       `json:"age,omitempty"`
	NationalID       string     `json:"nationalId,omitempty"`
	City             string     `json:"city,omitempty"`
	District         string     `json:"district,omitempty"`
	Retired          string     `json:"retired,omitempty"`
	Phone            string     `json:"phone"`
	Email            string     `json:"email,omitempty"`
	ExtensionProject string     `json:"extensionProject,omitempty"`
	OtherProject     string     `json:"otherProject,omitempty"`
	DataConsent      string     `json:"dataConsent,omitempty"`
	Difficulties     string     `json:"difficulties,omitempty"`
	ImportedAt       time.Time  `json:"importedAt"`
}

// ParticipantRoute pairs a participant with its route, if any.
type ParticipantRoute struct {
	Participant Participant `json:"participant"`
	Route       *Route      `json:"route,omitempty"`
}
