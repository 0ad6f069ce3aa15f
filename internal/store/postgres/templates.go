// internal/store/postgres/templates.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
)

const templateColumns = `id, type, title, body, variables, active, created_at, updated_at`

func scanTemplate(row rowScanner) (*models.MessageTemplate, error) {
	var (
		t    models.MessageTemplate
		vars []byte
	)
	if err := row.Scan(&t.ID, &t.Type, &t.Title, &t.Body, &vars, &t.Active, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	if len(vars) > 0 {
		if err := json.Unmarshal(vars, &t.Variables); err != nil {
			return nil, fmt.Errorf("decode template variables: %w", err)
		}
	}
	return &t, nil
}

func encodeVariables(vars []string) ([]byte, error) {
	if vars == nil {
		vars = []string{}
	}
	return json.Marshal(vars)
}

func (s *Store) ActiveTemplate(ctx context.Context, t models.TemplateType) (*models.MessageTemplate, error) {
	tpl, err := scanTemplate(s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM message_templates
		 WHERE type = $1 AND active = TRUE
		 ORDER BY updated_at DESC, id DESC
		 LIMIT 1`, string(t)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("active template: %w", err)
	}
	return tpl, nil
}

func (s *Store) GetTemplate(ctx context.Context, id int64) (*models.MessageTemplate, error) {
	tpl, err := scanTemplate(s.db.QueryRowContext(ctx,
		`SELECT `+templateColumns+` FROM message_templates WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("get template: %w", err)
	}
	return tpl, nil
}

func (s *Store) ListTemplates(ctx context.Context) ([]models.MessageTemplate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+templateColumns+` FROM message_templates ORDER BY type, updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []models.MessageTemplate
	for rows.Next() {
		tpl, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan template: %w", err)
		}
		out = append(out, *tpl)
	}
	return out, rows.Err()
}

func (s *Store) CountTemplates(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM message_templates`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count templates: %w", err)
	}
	return n, nil
}

func (s *Store) CreateTemplate(ctx context.Context, t *models.MessageTemplate) error {
	vars, err := encodeVariables(t.Variables)
	if err != nil {
		return err
	}
	err = s.db.QueryRowContext(ctx,
		`INSERT INTO message_templates (type, title, body, variables, active)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		string(t.Type), t.Title, t.Body, vars, t.Active,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert template: %w", err)
	}
	return nil
}

func (s *Store) UpdateTemplate(ctx context.Context, id int64, update store.TemplateUpdate) (*models.MessageTemplate, error) {
	vars, err := encodeVariables(update.Variables)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin template update: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	var previous string
	err = tx.QueryRowContext(ctx, `SELECT body FROM message_templates WHERE id = $1 FOR UPDATE`, id).Scan(&previous)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("lock template: %w", err)
	}

	tpl, err := scanTemplate(tx.QueryRowContext(ctx,
		`UPDATE message_templates
		 SET title = $1, body = $2, variables = $3, updated_at = NOW()
		 WHERE id = $4
		 RETURNING `+templateColumns,
		update.Title, update.Body, vars, id))
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO template_revisions (template_id, previous_body, new_body, editor, reason)
		 VALUES ($1, $2, $3, $4, $5)`,
		id, previous, update.Body, update.Editor, update.Reason,
	); err != nil {
		return nil, fmt.Errorf("insert template revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit template update: %w", err)
	}
	return tpl, nil
}

func (s *Store) SetTemplateActive(ctx context.Context, id int64, active bool) (*models.MessageTemplate, error) {
	tpl, err := scanTemplate(s.db.QueryRowContext(ctx,
		`UPDATE message_templates SET active = $1, updated_at = NOW()
		 WHERE id = $2
		 RETURNING `+templateColumns,
		active, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("set template active: %w", err)
	}
	return tpl, nil
}

func (s *Store) TemplateRevisions(ctx context.Context, id int64) ([]models.TemplateRevision, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, template_id, previous_body, new_body, editor, reason, changed_at
		 FROM template_revisions
		 WHERE template_id = $1
		 ORDER BY changed_at DESC, id DESC`, id)
	if err != nil {
		return nil, fmt.Errorf("template revisions: %w", err)
	}
	defer rows.Close()

	var out []models.TemplateRevision
	for rows.Next() {
		var r models.TemplateRevision
		if err := rows.Scan(&r.ID, &r.TemplateID, &r.PreviousBody, &r.NewBody, &r.Editor, &r.Reason, &r.ChangedAt); err != nil {
			return nil, fmt.Errorf("scan template revision: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
