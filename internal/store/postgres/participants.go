// internal/store/postgres/participants.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
)

const participantColumns = `p.id, p.submitted_at, p.name, p.gender, p.age, p.national_id, p.city,
	p.district, p.retired, p.phone, p.email, p.extension_project, p.other_project,
	p.data_consent, p.difficulties, p.imported_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanParticipant(row rowScanner, extra ...interface{}) (models.Participant, error) {
	var (
		p           models.Participant
		submittedAt sql.NullTime
		age         sql.NullInt64
	)
	dest := []interface{}{
		&p.ID, &submittedAt, &p.Name, &p.Gender, &age, &p.NationalID, &p.City,
		&p.District, &p.Retired, &p.Phone, &p.Email, &p.ExtensionProject, &p.OtherProject,
		&p.DataConsent, &p.Difficulties, &p.ImportedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return p, err
	}
	if submittedAt.Valid {
		t := submittedAt.Time
		p.SubmittedAt = &t
	}
	if age.Valid {
		a := int(age.Int64)
		p.Age = &a
	}
	return p, nil
}

func (s *Store) FindDuplicateParticipant(ctx context.Context, nationalID, phone string) (*store.DuplicateMatch, error) {
	var (
		m       store.DuplicateMatch
		idMatch bool
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, ($1 <> '' AND national_id = $1) AS id_match
		 FROM participants
		 WHERE ($1 <> '' AND national_id = $1) OR ($2 <> '' AND phone = $2)
		 ORDER BY id
		 LIMIT 1`,
		nationalID, phone,
	).Scan(&m.ParticipantID, &idMatch)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find duplicate participant: %w", err)
	}
	m.Field = store.MatchPhone
	if idMatch {
		m.Field = store.MatchNationalID
	}
	return &m, nil
}

func (s *Store) CreateParticipant(ctx context.Context, p *models.Participant) error {
	var age sql.NullInt64
	if p.Age != nil {
		age = sql.NullInt64{Int64: int64(*p.Age), Valid: true}
	}
	var submittedAt sql.NullTime
	if p.SubmittedAt != nil {
		submittedAt = sql.NullTime{Time: *p.SubmittedAt, Valid: true}
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO participants
		 (submitted_at, name, gender, age, national_id, city, district, retired, phone, email,
		  extension_project, other_project, data_consent, difficulties)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, imported_at`,
		submittedAt, p.Name, p.Gender, age, p.NationalID, p.City, p.District, p.Retired,
		p.Phone, p.Email, p.ExtensionProject, p.OtherProject, p.DataConsent, p.Difficulties,
	).Scan(&p.ID, &p.ImportedAt)
	if err != nil {
		return fmt.Errorf("insert participant: %w", err)
	}
	return nil
}

// latestRouteJoin attaches each participant's most recent route.
const latestRouteJoin = `LEFT JOIN LATERAL (
		SELECT code, used, created_at FROM routes
		WHERE participant_id = p.id
		ORDER BY created_at DESC
		LIMIT 1
	) r ON TRUE`

func (s *Store) ParticipantRoutes(ctx context.Context, ids []int64) ([]models.ParticipantRoute, error) {
	return s.queryParticipantRoutes(ctx,
		`SELECT `+participantColumns+`, r.code, r.used, r.created_at
		 FROM participants p `+latestRouteJoin+`
		 WHERE p.id = ANY($1)
		 ORDER BY p.id`,
		pq.Array(ids),
	)
}

func (s *Store) ParticipantsWithoutRoute(ctx context.Context) ([]models.Participant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+participantColumns+`
		 FROM participants p
		 WHERE NOT EXISTS (SELECT 1 FROM routes WHERE participant_id = p.id)
		 ORDER BY p.id`)
	if err != nil {
		return nil, fmt.Errorf("participants without route: %w", err)
	}
	defer rows.Close()

	var out []models.Participant
	for rows.Next() {
		p, err := scanParticipant(rows)
		if err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *Store) queryParticipantRoutes(ctx context.Context, query string, args ...interface{}) ([]models.ParticipantRoute, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("participant routes: %w", err)
	}
	defer rows.Close()

	var out []models.ParticipantRoute
	for rows.Next() {
		var (
			code      sql.NullString
			used      sql.NullBool
			createdAt sql.NullTime
		)
		p, err := scanParticipant(rows, &code, &used, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan participant route: %w", err)
		}
		pr := models.ParticipantRoute{Participant: p}
		if code.Valid {
			id := p.ID
			pr.Route = &models.Route{Code: code.String, ParticipantID: &id, Used: used.Bool, CreatedAt: createdAt.Time}
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}
