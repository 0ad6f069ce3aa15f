// internal/models/route.go
package models

import "time"

// Route is a single-use access code, optionally bound to a participant.
type Route struct {
	Code          string    `json:"code"`
	ParticipantID *int64    `json:"participantId,omitempty"`
	Used          bool      `json:"used"`
	CreatedAt     time.Time `json:"createdAt"`
}

type Decision string

const (
	DecisionConfirm Decision = "confirm"
	DecisionDecline Decision = "decline"
)

// Valid reports whether d is one of the known decisions.
func (d Decision) Valid() bool {
	return d == DecisionConfirm || d == DecisionDecline
}

// TestCodePrefix marks routes created by the test-data seeder.
const TestCodePrefix = "TEST_"
