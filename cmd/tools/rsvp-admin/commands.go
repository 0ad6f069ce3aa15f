// cmd/tools/rsvp-admin/commands.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"rsvp-workers/internal/admin"
	"rsvp-workers/internal/participants"
	"rsvp-workers/pkg/registry"
)

type app struct {
	admin    *admin.Service
	importer *participants.Importer
	out      io.Writer
}

// registryCommand writes the built-in registry to path, or validates the file
// already there when validateOnly is set.
func registryCommand(path string, validateOnly bool, out io.Writer) error {
	if validateOnly {
		reg, err := registry.LoadRegistry(path)
		if err != nil {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		if err := reg.Validate(); err != nil {
			return err
		}
		fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
		return nil
	}

	reg := registry.Default()
	reg.Touch()
	if err := registry.SaveRegistry(reg, path); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %d activities to %s\n", len(reg.Activities), path)
	return nil
}

func readRowsFile(path string) ([]map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var rows []map[string]string
	if err := json.Unmarshal(data, &rows); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return rows, nil
}

func (a *app) importRows(ctx context.Context, rows []map[string]string) error {
	sum := a.importer.ImportBatch(ctx, rows)
	fmt.Fprintf(a.out, "processed=%d imported=%d duplicates=%d errors=%d\n",
		sum.Processed, sum.Imported, sum.Duplicates, sum.Errors)
	for _, f := range sum.Failures {
		fmt.Fprintf(a.out, "  row %d (%s): %s\n", f.Row, f.Name, f.Reason)
	}
	for _, d := range sum.Duplicated {
		fmt.Fprintf(a.out, "  row %d (%s): duplicate %s of participant %d\n", d.Row, d.Name, d.MatchedField, d.ExistingID)
	}
	return nil
}

func (a *app) stats(ctx context.Context) error {
	st, err := a.admin.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "routes=%d used=%d confirmations=%d webhooksSent=%d participants=%d\n",
		st.Routes, st.UsedRoutes, st.Confirmations, st.WebhooksSent, st.Participants)
	return nil
}

func (a *app) backfill(ctx context.Context) error {
	n, err := a.admin.IssueMissing(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "issued %d routes\n", n)
	return nil
}

func (a *app) purge(ctx context.Context) error {
	n, err := a.admin.PurgeTestData(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "purged %d test routes\n", n)
	return nil
}

func (a *app) seed(ctx context.Context, n int) error {
	res, err := a.admin.SeedTestData(ctx, n)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "seeded %d participants\n", res.Participants)
	for _, c := range res.Codes {
		fmt.Fprintln(a.out, "  "+c)
	}
	return nil
}
