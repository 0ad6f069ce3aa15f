package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rsvp-workers/internal/admin"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/participants"
	"rsvp-workers/internal/routes"
	"rsvp-workers/internal/store/memstore"
)

func newApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	s := memstore.New()
	log := logger.NewTestLogger(t)
	issuer := routes.NewIssuer(s, log)
	out := &bytes.Buffer{}
	return &app{
		admin:    admin.NewService(s, issuer, log),
		importer: participants.NewImporter(s, issuer, log),
		out:      out,
	}, out
}

func TestRegistryCommand_ExportThenValidate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configs", "activity-registry.json")
	var out bytes.Buffer

	require.NoError(t, registryCommand(path, false, &out))
	assert.Contains(t, out.String(), "Wrote 8 activities")

	out.Reset()
	require.NoError(t, registryCommand(path, true, &out))
	assert.Contains(t, out.String(), "validation passed")
}

func TestRegistryCommand_ValidateMissingFile(t *testing.T) {
	err := registryCommand(filepath.Join(t.TempDir(), "none.json"), true, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestReadRowsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rows.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"Ana","phone":"11999990000"}]`), 0o600))

	rows, err := readRowsFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Ana", rows[0]["name"])

	require.NoError(t, os.WriteFile(path, []byte(`{"name":"x"}`), 0o600))
	_, err = readRowsFile(path)
	assert.Error(t, err)
}

func TestApp_ImportStatsSeedPurge(t *testing.T) {
	a, out := newApp(t)
	ctx := context.Background()

	require.NoError(t, a.importRows(ctx, []map[string]string{
		{"name": "Ana", "phone": "11999990000"},
		{"name": "Ana again", "phone": "11999990000"},
		{"name": "", "phone": "11999990001"},
	}))
	assert.Contains(t, out.String(), "processed=3 imported=1 duplicates=1 errors=1")

	out.Reset()
	require.NoError(t, a.seed(ctx, 2))
	assert.Contains(t, out.String(), "seeded 2 participants")

	out.Reset()
	require.NoError(t, a.stats(ctx))
	assert.Contains(t, out.String(), "routes=3 used=0")

	out.Reset()
	require.NoError(t, a.purge(ctx))
	assert.Contains(t, out.String(), "purged 2 test routes")

	out.Reset()
	require.NoError(t, a.backfill(ctx))
	assert.Contains(t, out.String(), "issued 0 routes")
}

func TestApp_SeedOutOfRange(t *testing.T) {
	a, _ := newApp(t)
	assert.Error(t, a.seed(context.Background(), 0))
}
