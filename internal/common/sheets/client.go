// Package sheets reads questionnaire responses from a Google Sheet.
package sheets

import (
	"context"
	"fmt"
	"os"
	"strings"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

type Client struct {
	srv           *sheetsv4.Service
	spreadsheetID string
}

// New authenticates with a service account file. Extra options are appended
// after the credentials, so tests can point the client at a fake endpoint.
func New(ctx context.Context, serviceAccountJSONPath, spreadsheetID string, opts ...option.ClientOption) (*Client, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is empty")
	}

	clientOpts := make([]option.ClientOption, 0, len(opts)+2)
	if serviceAccountJSONPath != "" {
		if _, err := os.Stat(serviceAccountJSONPath); err != nil {
			return nil, fmt.Errorf("service account json: %w", err)
		}
		clientOpts = append(clientOpts,
			option.WithCredentialsFile(serviceAccountJSONPath),
			option.WithScopes(sheetsv4.SpreadsheetsReadonlyScope),
		)
	}
	clientOpts = append(clientOpts, opts...)

	srv, err := sheetsv4.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{srv: srv, spreadsheetID: spreadsheetID}, nil
}

func (c *Client) SpreadsheetID() string { return c.spreadsheetID }

// Rows reads sheetRange and keys every data row by the header row.
func (c *Client) Rows(ctx context.Context, sheetRange string) ([]map[string]string, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(c.spreadsheetID, sheetRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", sheetRange, err)
	}
	return RowsFromValues(resp.Values), nil
}

// RowsFromValues converts a values grid with the header at index 0. Short
// rows leave the trailing columns out; fully blank rows are dropped.
func RowsFromValues(values [][]interface{}) []map[string]string {
	if len(values) < 2 {
		return nil
	}

	header := make([]string, len(values[0]))
	for i, h := range values[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(h))
	}

	out := make([]map[string]string, 0, len(values)-1)
	for _, row := range values[1:] {
		rec := make(map[string]string, len(header))
		blank := true
		for i, name := range header {
			if name == "" {
				continue
			}
			v := get(row, i)
			if v != "" {
				blank = false
			}
			rec[name] = v
		}
		if !blank {
			out = append(out, rec)
		}
	}
	return out
}

func get(row []interface{}, idx int) string {
	if idx >= len(row) || row[idx] == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprint(row[idx]))
}
