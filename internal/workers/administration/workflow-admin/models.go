// internal/workers/administration/workflow-admin/models.go
package workflowadmin

import (
	"rsvp-workers/internal/admin"
	"rsvp-workers/internal/models"
)

const (
	ActionStats        = "stats"
	ActionPending      = "pending"
	ActionIssueMissing = "issue-missing"
	ActionPurgeTest    = "purge-test"
	ActionSeedTest     = "seed-test"
	ActionReset        = "reset"
)

type Input struct {
	Action  string `json:"action"`
	Count   int    `json:"count"`
	Confirm bool   `json:"confirm"`
}

type Output struct {
	Action  string                    `json:"action"`
	Stats   *models.Stats             `json:"stats,omitempty"`
	Pending []models.ParticipantRoute `json:"pending,omitempty"`
	Issued  int                       `json:"issued,omitempty"`
	Purged  int64                     `json:"purged,omitempty"`
	Seeded  *admin.SeedResult         `json:"seeded,omitempty"`
	Reset   bool                      `json:"reset,omitempty"`
}
