// Package memstore is an in-memory store.Store used by tests and local runs.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
)

var _ store.Store = (*Store)(nil)

type Store struct {
	mu sync.Mutex

	now func() time.Time

	routes        map[string]models.Route
	participants  map[int64]models.Participant
	confirmations map[int64]models.Confirmation
	templates     map[int64]models.MessageTemplate
	revisions     []models.TemplateRevision

	nextParticipantID  int64
	nextConfirmationID int64
	nextTemplateID     int64
	nextRevisionID     int64
}

func New() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		routes:        map[string]models.Route{},
		participants:  map[int64]models.Participant{},
		confirmations: map[int64]models.Confirmation{},
		templates:     map[int64]models.MessageTemplate{},
	}
}

// WithClock replaces the timestamp source.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

// ==========================
// Routes
// ==========================

func (s *Store) RouteExists(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.routes[code]
	return ok, nil
}

func (s *Store) CreateRoute(_ context.Context, route *models.Route) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.routes[route.Code]; ok {
		return store.ErrDuplicateCode
	}
	route.Used = false
	route.CreatedAt = s.now()
	s.routes[route.Code] = copyRoute(*route)
	return nil
}

func (s *Store) GetRoute(_ context.Context, code string) (*models.Route, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.routes[code]
	if !ok {
		return nil, store.ErrNotFound
	}
	out := copyRoute(r)
	return &out, nil
}

func (s *Store) ClaimRoute(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.claimLocked(code)
}

func (s *Store) claimLocked(code string) error {
	r, ok := s.routes[code]
	if !ok {
		return store.ErrNotFound
	}
	if r.Used {
		return store.ErrAlreadyUsed
	}
	r.Used = true
	s.routes[code] = r
	return nil
}

func (s *Store) ConfirmRoute(_ context.Context, code string, c *models.Confirmation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.claimLocked(code); err != nil {
		return err
	}
	s.nextConfirmationID++
	c.ID = s.nextConfirmationID
	c.RouteCode = code
	c.ConfirmedAt = s.now()
	c.WebhookSent = false
	s.confirmations[c.ID] = *c
	return nil
}

// ==========================
// Confirmations
// ==========================

func (s *Store) GetConfirmation(_ context.Context, id int64) (*models.Confirmation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.confirmations[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *Store) MarkWebhookSent(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.confirmations[id]
	if !ok {
		return store.ErrNotFound
	}
	c.WebhookSent = true
	s.confirmations[id] = c
	return nil
}

// Confirmations returns every confirmation ordered by id.
func (s *Store) Confirmations() []models.Confirmation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Confirmation, 0, len(s.confirmations))
	for _, c := range s.confirmations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ==========================
// Participants
// ==========================

func (s *Store) FindDuplicateParticipant(_ context.Context, nationalID, phone string) (*store.DuplicateMatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.sortedParticipantIDs() {
		p := s.participants[id]
		if nationalID != "" && p.NationalID == nationalID {
			return &store.DuplicateMatch{ParticipantID: id, Field: store.MatchNationalID}, nil
		}
		if phone != "" && p.Phone == phone {
			return &store.DuplicateMatch{ParticipantID: id, Field: store.MatchPhone}, nil
		}
	}
	return nil, nil
}

func (s *Store) CreateParticipant(_ context.Context, p *models.Participant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextParticipantID++
	p.ID = s.nextParticipantID
	p.ImportedAt = s.now()
	s.participants[p.ID] = *p
	return nil
}

// Participant returns a stored participant by id.
func (s *Store) Participant(id int64) (models.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[id]
	return p, ok
}

func (s *Store) ParticipantRoutes(_ context.Context, ids []int64) ([]models.ParticipantRoute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ParticipantRoute
	for _, id := range ids {
		p, ok := s.participants[id]
		if !ok {
			continue
		}
		out = append(out, models.ParticipantRoute{Participant: p, Route: s.routeForLocked(id)})
	}
	return out, nil
}

func (s *Store) ParticipantsWithoutRoute(_ context.Context) ([]models.Participant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Participant
	for _, id := range s.sortedParticipantIDs() {
		if s.routeForLocked(id) == nil {
			out = append(out, s.participants[id])
		}
	}
	return out, nil
}

func (s *Store) routeForLocked(participantID int64) *models.Route {
	var found *models.Route
	for _, r := range s.routes {
		if r.ParticipantID != nil && *r.ParticipantID == participantID {
			if found == nil || r.CreatedAt.After(found.CreatedAt) {
				rc := copyRoute(r)
				found = &rc
			}
		}
	}
	return found
}

func (s *Store) sortedParticipantIDs() []int64 {
	ids := make([]int64, 0, len(s.participants))
	for id := range s.participants {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ==========================
// Templates
// ==========================

func (s *Store) ActiveTemplate(_ context.Context, t models.TemplateType) (*models.MessageTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *models.MessageTemplate
	for _, tpl := range s.templates {
		if tpl.Type != t || !tpl.Active {
			continue
		}
		if best == nil || tpl.UpdatedAt.After(best.UpdatedAt) ||
			(tpl.UpdatedAt.Equal(best.UpdatedAt) && tpl.ID > best.ID) {
			c := copyTemplate(tpl)
			best = &c
		}
	}
	if best == nil {
		return nil, store.ErrNotFound
	}
	return best, nil
}

func (s *Store) GetTemplate(_ context.Context, id int64) (*models.MessageTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.templates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c := copyTemplate(tpl)
	return &c, nil
}

func (s *Store) ListTemplates(_ context.Context) ([]models.MessageTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.MessageTemplate, 0, len(s.templates))
	for _, tpl := range s.templates {
		out = append(out, copyTemplate(tpl))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Type != out[j].Type {
			return out[i].Type < out[j].Type
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

func (s *Store) CountTemplates(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.templates), nil
}

func (s *Store) CreateTemplate(_ context.Context, t *models.MessageTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextTemplateID++
	now := s.now()
	t.ID = s.nextTemplateID
	t.CreatedAt = now
	t.UpdatedAt = now
	s.templates[t.ID] = copyTemplate(*t)
	return nil
}

func (s *Store) UpdateTemplate(_ context.Context, id int64, update store.TemplateUpdate) (*models.MessageTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.templates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	now := s.now()
	s.nextRevisionID++
	s.revisions = append(s.revisions, models.TemplateRevision{
		ID:           s.nextRevisionID,
		TemplateID:   id,
		PreviousBody: tpl.Body,
		NewBody:      update.Body,
		Editor:       update.Editor,
		Reason:       update.Reason,
		ChangedAt:    now,
	})
	tpl.Title = update.Title
	tpl.Body = update.Body
	tpl.Variables = append([]string(nil), update.Variables...)
	tpl.UpdatedAt = now
	s.templates[id] = tpl
	c := copyTemplate(tpl)
	return &c, nil
}

func (s *Store) SetTemplateActive(_ context.Context, id int64, active bool) (*models.MessageTemplate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tpl, ok := s.templates[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	tpl.Active = active
	tpl.UpdatedAt = s.now()
	s.templates[id] = tpl
	c := copyTemplate(tpl)
	return &c, nil
}

func (s *Store) TemplateRevisions(_ context.Context, id int64) ([]models.TemplateRevision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.TemplateRevision
	for i := len(s.revisions) - 1; i >= 0; i-- {
		if s.revisions[i].TemplateID == id {
			out = append(out, s.revisions[i])
		}
	}
	return out, nil
}

// ==========================
// Administration
// ==========================

func (s *Store) Stats(_ context.Context) (*models.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &models.Stats{
		Routes:        len(s.routes),
		Confirmations: len(s.confirmations),
		Participants:  len(s.participants),
	}
	for _, r := range s.routes {
		if r.Used {
			st.UsedRoutes++
		}
	}
	for _, c := range s.confirmations {
		if c.WebhookSent {
			st.WebhooksSent++
		}
	}
	return st, nil
}

func (s *Store) PendingParticipants(_ context.Context) ([]models.ParticipantRoute, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ParticipantRoute
	for _, id := range s.sortedParticipantIDs() {
		r := s.routeForLocked(id)
		if r != nil && !r.Used {
			out = append(out, models.ParticipantRoute{Participant: s.participants[id], Route: r})
		}
	}
	return out, nil
}

func (s *Store) PurgeTestData(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for code, r := range s.routes {
		if !strings.HasPrefix(code, models.TestCodePrefix) {
			continue
		}
		for id, c := range s.confirmations {
			if c.RouteCode == code {
				delete(s.confirmations, id)
			}
		}
		if r.ParticipantID != nil {
			delete(s.participants, *r.ParticipantID)
		}
		delete(s.routes, code)
		removed++
	}
	return removed, nil
}

func (s *Store) ResetWorkflow(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = map[string]models.Route{}
	s.participants = map[int64]models.Participant{}
	s.confirmations = map[int64]models.Confirmation{}
	return nil
}

func copyRoute(r models.Route) models.Route {
	if r.ParticipantID != nil {
		id := *r.ParticipantID
		r.ParticipantID = &id
	}
	return r
}

func copyTemplate(t models.MessageTemplate) models.MessageTemplate {
	t.Variables = append([]string(nil), t.Variables...)
	return t
}
