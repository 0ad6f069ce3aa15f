// internal/store/postgres/store.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
)

const uniqueViolation = "23505"

var _ store.Store = (*Store)(nil)

// Store implements store.Store on PostgreSQL through database/sql and lib/pq.
type Store struct {
	db     *sql.DB
	logger logger.Logger
}

func New(db *sql.DB, log logger.Logger) *Store {
	return &Store{
		db:     db,
		logger: log.WithFields(map[string]interface{}{"component": "postgres-store"}),
	}
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// ==========================
// Routes
// ==========================

func (s *Store) RouteExists(ctx context.Context, code string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM routes WHERE code = $1)`, code).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check route: %w", err)
	}
	return exists, nil
}

func (s *Store) CreateRoute(ctx context.Context, route *models.Route) error {
	var participantID sql.NullInt64
	if route.ParticipantID != nil {
		participantID = sql.NullInt64{Int64: *route.ParticipantID, Valid: true}
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO routes (code, participant_id, used) VALUES ($1, $2, FALSE) RETURNING created_at`,
		route.Code, participantID,
	).Scan(&route.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateCode
		}
		return fmt.Errorf("insert route: %w", err)
	}
	route.Used = false
	return nil
}

func (s *Store) GetRoute(ctx context.Context, code string) (*models.Route, error) {
	var (
		r             models.Route
		participantID sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT code, participant_id, used, created_at FROM routes WHERE code = $1`, code,
	).Scan(&r.Code, &participantID, &r.Used, &r.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get route: %w", err)
	}
	if participantID.Valid {
		r.ParticipantID = &participantID.Int64
	}
	return &r, nil
}

const claimRouteSQL = `UPDATE routes SET used = TRUE WHERE code = $1 AND used = FALSE`

func (s *Store) ClaimRoute(ctx context.Context, code string) error {
	res, err := s.db.ExecContext(ctx, claimRouteSQL, code)
	if err != nil {
		return fmt.Errorf("claim route: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("claim route: %w", err)
	} else if n == 0 {
		return s.unclaimable(ctx, code)
	}
	return nil
}

func (s *Store) ConfirmRoute(ctx context.Context, code string, c *models.Confirmation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin confirm: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	res, err := tx.ExecContext(ctx, claimRouteSQL, code)
	if err != nil {
		return fmt.Errorf("claim route: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("claim route: %w", err)
	}
	if n == 0 {
		_ = tx.Rollback()
		return s.unclaimable(ctx, code)
	}

	err = tx.QueryRowContext(ctx,
		`INSERT INTO confirmations (route_code, name, phone, email)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, confirmed_at`,
		code, c.Name, c.Phone, c.Email,
	).Scan(&c.ID, &c.ConfirmedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrAlreadyUsed
		}
		return fmt.Errorf("insert confirmation: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit confirm: %w", err)
	}
	c.RouteCode = code
	c.WebhookSent = false
	return nil
}

// unclaimable explains why the compare-and-set touched no row.
func (s *Store) unclaimable(ctx context.Context, code string) error {
	exists, err := s.RouteExists(ctx, code)
	if err != nil {
		return err
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrAlreadyUsed
}

// ==========================
// Confirmations
// ==========================

func (s *Store) GetConfirmation(ctx context.Context, id int64) (*models.Confirmation, error) {
	var c models.Confirmation
	err := s.db.QueryRowContext(ctx,
		`SELECT id, route_code, name, phone, email, confirmed_at, webhook_sent
		 FROM confirmations WHERE id = $1`, id,
	).Scan(&c.ID, &c.RouteCode, &c.Name, &c.Phone, &c.Email, &c.ConfirmedAt, &c.WebhookSent)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get confirmation: %w", err)
	}
	return &c, nil
}

func (s *Store) MarkWebhookSent(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `UPDATE confirmations SET webhook_sent = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark webhook sent: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return store.ErrNotFound
	}
	return nil
}
