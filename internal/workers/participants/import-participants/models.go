// internal/workers/participants/import-participants/models.go
package importparticipants

import "rsvp-workers/internal/participants"

const (
	SourceInline = "inline"
	SourceSheet  = "sheet"
)

type Input struct {
	Source     string              `json:"source"`
	Rows       []map[string]string `json:"rows"`
	SheetRange string              `json:"sheetRange"`
}

type Output struct {
	Source     string                        `json:"source"`
	Processed  int                           `json:"processed"`
	Imported   int                           `json:"imported"`
	Duplicates int                           `json:"duplicates"`
	Errors     int                           `json:"errors"`
	Failures   []participants.Failure        `json:"failures,omitempty"`
	Duplicated []participants.DuplicateEntry `json:"duplicated,omitempty"`
	Issued     []participants.IssuedRoute    `json:"issued,omitempty"`
}
