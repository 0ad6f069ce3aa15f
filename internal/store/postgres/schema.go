// internal/store/postgres/schema.go
package postgres

import (
	"context"
	"fmt"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS participants (
		id                BIGSERIAL PRIMARY KEY,
		submitted_at      TIMESTAMPTZ,
		name              TEXT NOT NULL,
		gender            TEXT NOT NULL DEFAULT '',
		age               INTEGER,
		national_id       TEXT NOT NULL DEFAULT '',
		city              TEXT NOT NULL DEFAULT '',
		district          TEXT NOT NULL DEFAULT '',
		retired           TEXT NOT NULL DEFAULT '',
		phone             TEXT NOT NULL,
		email             TEXT NOT NULL DEFAULT '',
		extension_project TEXT NOT NULL DEFAULT '',
		other_project     TEXT NOT NULL DEFAULT '',
		data_consent      TEXT NOT NULL DEFAULT '',
		difficulties      TEXT NOT NULL DEFAULT '',
		imported_at       TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_national_id ON participants (national_id) WHERE national_id <> ''`,
	`CREATE INDEX IF NOT EXISTS idx_participants_phone ON participants (phone)`,
	`CREATE TABLE IF NOT EXISTS routes (
		code           TEXT PRIMARY KEY,
		participant_id BIGINT REFERENCES participants (id) ON DELETE SET NULL,
		used           BOOLEAN NOT NULL DEFAULT FALSE,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_routes_participant ON routes (participant_id)`,
	`CREATE TABLE IF NOT EXISTS confirmations (
		id           BIGSERIAL PRIMARY KEY,
		route_code   TEXT NOT NULL UNIQUE REFERENCES routes (code) ON DELETE CASCADE,
		name         TEXT NOT NULL,
		phone        TEXT NOT NULL,
		email        TEXT NOT NULL DEFAULT '',
		confirmed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		webhook_sent BOOLEAN NOT NULL DEFAULT FALSE
	)`,
	`CREATE TABLE IF NOT EXISTS message_templates (
		id         BIGSERIAL PRIMARY KEY,
		type       TEXT NOT NULL,
		title      TEXT NOT NULL,
		body       TEXT NOT NULL,
		variables  JSONB NOT NULL DEFAULT '[]',
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_message_templates_type ON message_templates (type, active, updated_at DESC)`,
	`CREATE TABLE IF NOT EXISTS template_revisions (
		id            BIGSERIAL PRIMARY KEY,
		template_id   BIGINT NOT NULL REFERENCES message_templates (id) ON DELETE CASCADE,
		previous_body TEXT NOT NULL,
		new_body      TEXT NOT NULL,
		editor        TEXT NOT NULL DEFAULT 'admin',
		reason        TEXT NOT NULL DEFAULT '',
		changed_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// Migrate creates the tables and indexes if they do not exist yet.
func (s *Store) Migrate(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i, err)
		}
	}
	s.logger.Info("schema ready", map[string]interface{}{"statements": len(schemaStatements)})
	return nil
}
