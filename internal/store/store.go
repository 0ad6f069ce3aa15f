// Package store defines the record store contracts used by the workflow services.
package store

import (
	"context"
	"errors"

	"rsvp-workers/internal/models"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrDuplicateCode = errors.New("route code already exists")
	ErrAlreadyUsed   = errors.New("route already used")
)

// Duplicate match fields.
const (
	MatchNationalID = "nationalId"
	MatchPhone      = "phone"
)

// DuplicateMatch identifies the existing participant an incoming record collides with.
type DuplicateMatch struct {
	ParticipantID int64
	Field         string
}

type RouteStore interface {
	RouteExists(ctx context.Context, code string) (bool, error)
	// CreateRoute inserts an unused route. ErrDuplicateCode when the code is taken.
	CreateRoute(ctx context.Context, route *models.Route) error
	GetRoute(ctx context.Context, code string) (*models.Route, error)
	// ClaimRoute flips used from false to true atomically. ErrAlreadyUsed when
	// the route was not unused at the time of the update.
	ClaimRoute(ctx context.Context, code string) error
	// ConfirmRoute claims the route and inserts the confirmation in one unit.
	// On success c.ID and c.ConfirmedAt are filled in.
	ConfirmRoute(ctx context.Context, code string, c *models.Confirmation) error
}

type ConfirmationStore interface {
	GetConfirmation(ctx context.Context, id int64) (*models.Confirmation, error)
	MarkWebhookSent(ctx context.Context, id int64) error
}

type ParticipantStore interface {
	// FindDuplicateParticipant matches on national id OR phone. An empty national
	// id never matches. Returns nil when there is no match.
	FindDuplicateParticipant(ctx context.Context, nationalID, phone string) (*DuplicateMatch, error)
	CreateParticipant(ctx context.Context, p *models.Participant) error
	ParticipantRoutes(ctx context.Context, ids []int64) ([]models.ParticipantRoute, error)
	ParticipantsWithoutRoute(ctx context.Context) ([]models.Participant, error)
}

type TemplateStore interface {
	ActiveTemplate(ctx context.Context, t models.TemplateType) (*models.MessageTemplate, error)
	GetTemplate(ctx context.Context, id int64) (*models.MessageTemplate, error)
	ListTemplates(ctx context.Context) ([]models.MessageTemplate, error)
	CountTemplates(ctx context.Context) (int, error)
	CreateTemplate(ctx context.Context, t *models.MessageTemplate) error
	// UpdateTemplate rewrites title, body and variables and appends a revision.
	UpdateTemplate(ctx context.Context, id int64, update TemplateUpdate) (*models.MessageTemplate, error)
	SetTemplateActive(ctx context.Context, id int64, active bool) (*models.MessageTemplate, error)
	TemplateRevisions(ctx context.Context, id int64) ([]models.TemplateRevision, error)
}

type TemplateUpdate struct {
	Title     string
	Body      string
	Variables []string
	Editor    string
	Reason    string
}

type AdminStore interface {
	Stats(ctx context.Context) (*models.Stats, error)
	// PendingParticipants lists participants whose route is still unused.
	PendingParticipants(ctx context.Context) ([]models.ParticipantRoute, error)
	// PurgeTestData removes routes with the test prefix plus their confirmations
	// and participants. Returns the number of routes removed.
	PurgeTestData(ctx context.Context) (int64, error)
	// ResetWorkflow removes all confirmations, routes and participants. Templates stay.
	ResetWorkflow(ctx context.Context) error
}

// Store is the full record store.
type Store interface {
	RouteStore
	ConfirmationStore
	ParticipantStore
	TemplateStore
	AdminStore
}
