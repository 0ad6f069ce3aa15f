package participants

import (
	"context"
	"fmt"

	apperrors "rsvp-workers/internal/common/errors"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/metrics"
	"rsvp-workers/internal/models"
	"rsvp-workers/internal/store"
)

// MaxReported caps the per-row detail lists in a Summary.
const MaxReported = 50

// RouteIssuer binds a fresh route to a participant. Implemented by routes.Issuer.
type RouteIssuer interface {
	Issue(ctx context.Context, participantID *int64) (*models.Route, error)
}

type Failure struct {
	Row    int                 `json:"row"`
	Name   string              `json:"name,omitempty"`
	Code   apperrors.ErrorCode `json:"code"`
	Reason string              `json:"reason"`
}

type DuplicateEntry struct {
	Row          int    `json:"row"`
	Name         string `json:"name"`
	NationalID   string `json:"nationalId,omitempty"`
	Phone        string `json:"phone"`
	MatchedField string `json:"matchedField"`
	ExistingID   int64  `json:"existingId"`
	// SharedPhone marks a phone-only match for a row that carries its own
	// national id, which may be a household phone rather than a real duplicate.
	SharedPhone bool `json:"sharedPhone,omitempty"`
}

type IssuedRoute struct {
	ParticipantID int64  `json:"participantId"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Code          string `json:"code"`
}

type Summary struct {
	Processed  int              `json:"processed"`
	Imported   int              `json:"imported"`
	Duplicates int              `json:"duplicates"`
	Errors     int              `json:"errors"`
	Failures   []Failure        `json:"failures,omitempty"`
	Duplicated []DuplicateEntry `json:"duplicated,omitempty"`
	Issued     []IssuedRoute    `json:"issued,omitempty"`
}

type Importer struct {
	store  store.ParticipantStore
	issuer RouteIssuer
	logger logger.Logger
}

func NewImporter(s store.ParticipantStore, issuer RouteIssuer, log logger.Logger) *Importer {
	return &Importer{
		store:  s,
		issuer: issuer,
		logger: log.WithFields(map[string]interface{}{"component": "importer"}),
	}
}

// ImportBatch processes rows in order, one at a time, so a row always sees
// the rows committed before it. A failing row is recorded and the batch
// carries on.
func (im *Importer) ImportBatch(ctx context.Context, rows []map[string]string) *Summary {
	sum := &Summary{}
	for i, raw := range rows {
		sum.Processed++
		rowNum := i + 1

		if err := ctx.Err(); err != nil {
			sum.fail(Failure{Row: rowNum, Code: apperrors.ErrCodeInternalError, Reason: err.Error()})
			continue
		}

		p := Normalize(raw)
		if p.Name == "" {
			sum.fail(Failure{Row: rowNum, Code: apperrors.ErrCodeValidationFailed, Reason: "name is required"})
			continue
		}
		if p.Phone == "" {
			sum.fail(Failure{Row: rowNum, Name: p.Name, Code: apperrors.ErrCodeValidationFailed, Reason: "phone is required"})
			continue
		}

		match, err := im.store.FindDuplicateParticipant(ctx, p.NationalID, p.Phone)
		if err != nil {
			sum.fail(storageFailure(rowNum, p.Name, "find duplicate", err))
			continue
		}
		if match != nil {
			sum.duplicate(DuplicateEntry{
				Row:          rowNum,
				Name:         p.Name,
				NationalID:   p.NationalID,
				Phone:        p.Phone,
				MatchedField: match.Field,
				ExistingID:   match.ParticipantID,
				SharedPhone:  match.Field == store.MatchPhone && p.NationalID != "",
			})
			continue
		}

		if err := im.store.CreateParticipant(ctx, &p); err != nil {
			sum.fail(storageFailure(rowNum, p.Name, "create participant", err))
			continue
		}
		sum.Imported++
		metrics.ParticipantsImported.WithLabelValues("imported").Inc()

		id := p.ID
		route, err := im.issuer.Issue(ctx, &id)
		if err != nil {
			std := apperrors.AsStandard(err)
			sum.fail(Failure{
				Row:    rowNum,
				Name:   p.Name,
				Code:   std.Code,
				Reason: fmt.Sprintf("participant %d imported without route: %s", id, std.Details),
			})
			continue
		}
		if len(sum.Issued) < MaxReported {
			sum.Issued = append(sum.Issued, IssuedRoute{ParticipantID: id, Name: p.Name, Phone: p.Phone, Code: route.Code})
		}
	}

	im.logger.Info("import finished", map[string]interface{}{
		"processed":  sum.Processed,
		"imported":   sum.Imported,
		"duplicates": sum.Duplicates,
		"errors":     sum.Errors,
	})
	return sum
}

func (s *Summary) fail(f Failure) {
	s.Errors++
	metrics.ParticipantsImported.WithLabelValues("error").Inc()
	if len(s.Failures) < MaxReported {
		s.Failures = append(s.Failures, f)
	}
}

func (s *Summary) duplicate(d DuplicateEntry) {
	s.Duplicates++
	metrics.ParticipantsImported.WithLabelValues("duplicate").Inc()
	if len(s.Duplicated) < MaxReported {
		s.Duplicated = append(s.Duplicated, d)
	}
}

func storageFailure(row int, name, op string, err error) Failure {
	std := apperrors.NewStorageError(op, err)
	return Failure{Row: row, Name: name, Code: std.Code, Reason: std.Details}
}
