// internal/store/postgres/admin.go
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"rsvp-workers/internal/models"
)

func (s *Store) Stats(ctx context.Context) (*models.Stats, error) {
	var st models.Stats
	err := s.db.QueryRowContext(ctx,
		`SELECT
			(SELECT COUNT(*) FROM routes),
			(SELECT COUNT(*) FROM routes WHERE used),
			(SELECT COUNT(*) FROM confirmations),
			(SELECT COUNT(*) FROM confirmations WHERE webhook_sent),
			(SELECT COUNT(*) FROM participants)`,
	).Scan(&st.Routes, &st.UsedRoutes, &st.Confirmations, &st.WebhooksSent, &st.Participants)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &st, nil
}

func (s *Store) PendingParticipants(ctx context.Context) ([]models.ParticipantRoute, error) {
	return s.queryParticipantRoutes(ctx,
		`SELECT `+participantColumns+`, r.code, r.used, r.created_at
		 FROM participants p `+latestRouteJoin+`
		 WHERE r.code IS NOT NULL AND r.used = FALSE
		 ORDER BY p.id`)
}

// testCodePattern is the LIKE pattern for seeded routes; "_" is escaped.
func testCodePattern() string {
	return strings.ReplaceAll(models.TestCodePrefix, "_", `\_`) + "%"
}

func (s *Store) PurgeTestData(ctx context.Context) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin purge: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	pattern := testCodePattern()
	if _, err := tx.ExecContext(ctx, `DELETE FROM confirmations WHERE route_code LIKE $1`, pattern); err != nil {
		return 0, fmt.Errorf("purge confirmations: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `DELETE FROM routes WHERE code LIKE $1 RETURNING participant_id`, pattern)
	if err != nil {
		return 0, fmt.Errorf("purge routes: %w", err)
	}
	var (
		removed        int64
		participantIDs []int64
	)
	for rows.Next() {
		var id sql.NullInt64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan purged route: %w", err)
		}
		removed++
		if id.Valid {
			participantIDs = append(participantIDs, id.Int64)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("purge routes: %w", err)
	}

	if len(participantIDs) > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM participants WHERE id = ANY($1)`, pq.Array(participantIDs)); err != nil {
			return 0, fmt.Errorf("purge participants: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit purge: %w", err)
	}
	s.logger.Info("test data purged", map[string]interface{}{
		"routes":       removed,
		"participants": len(participantIDs),
	})
	return removed, nil
}

func (s *Store) ResetWorkflow(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx,
		`TRUNCATE confirmations, routes, participants RESTART IDENTITY`); err != nil {
		return fmt.Errorf("reset workflow: %w", err)
	}
	s.logger.Warn("workflow state reset", nil)
	return nil
}
