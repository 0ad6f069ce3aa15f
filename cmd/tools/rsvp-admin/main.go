// cmd/tools/rsvp-admin/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"rsvp-workers/internal/admin"
	"rsvp-workers/internal/common/config"
	"rsvp-workers/internal/common/database"
	"rsvp-workers/internal/common/logger"
	"rsvp-workers/internal/common/sheets"
	"rsvp-workers/internal/participants"
	"rsvp-workers/internal/routes"
	"rsvp-workers/internal/store/postgres"
)

func main() {
	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	registryCmd := flag.NewFlagSet("registry", flag.ExitOnError)
	registryPath := registryCmd.String("path", "configs/activity-registry.json", "Path to registry file")
	validateOnly := registryCmd.Bool("validate", false, "Validate the file instead of exporting")

	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	importFile := importCmd.String("file", "", "JSON file with an array of row objects (default: configured spreadsheet)")
	importRange := importCmd.String("range", "", "Spreadsheet range (default: import.range)")

	seedCmd := flag.NewFlagSet("seed-test-data", flag.ExitOnError)
	seedCount := seedCmd.Int("n", 10, "Number of test participants")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	cmd := os.Args[1]
	if cmd == "registry" {
		registryCmd.Parse(os.Args[2:])
		if err := registryCommand(*registryPath, *validateOnly, os.Stdout); err != nil {
			fmt.Printf("registry: %v\n", err)
			os.Exit(1)
		}
		return
	}
	if cmd == "help" || !isKnown(cmd) {
		help()
		return
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewStructured(cfg.Logging.Level, "console")

	pg, err := database.NewPostgres(cfg.Database.Postgres)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	s := postgres.New(pg.DB, log)
	issuer := routes.NewIssuer(s, log)
	a := &app{
		admin:    admin.NewService(s, issuer, log),
		importer: participants.NewImporter(s, issuer, log),
		out:      os.Stdout,
	}

	switch cmd {
	case "import":
		importCmd.Parse(os.Args[2:])
		var rows []map[string]string
		if *importFile != "" {
			rows, err = readRowsFile(*importFile)
		} else {
			rows, err = readSheet(ctx, cfg, *importRange)
		}
		if err == nil {
			err = a.importRows(ctx, rows)
		}
	case "stats":
		err = a.stats(ctx)
	case "backfill":
		err = a.backfill(ctx)
	case "purge-test-data":
		err = a.purge(ctx)
	case "seed-test-data":
		seedCmd.Parse(os.Args[2:])
		err = a.seed(ctx, *seedCount)
	}
	if err != nil {
		fmt.Printf("%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func isKnown(cmd string) bool {
	switch cmd {
	case "import", "stats", "backfill", "purge-test-data", "seed-test-data":
		return true
	}
	return false
}

func readSheet(ctx context.Context, cfg *config.Config, sheetRange string) ([]map[string]string, error) {
	if cfg.Import.SpreadsheetID == "" {
		return nil, fmt.Errorf("import.spreadsheet_id is not configured; pass -file")
	}
	client, err := sheets.New(ctx, cfg.Import.CredentialsFile, cfg.Import.SpreadsheetID)
	if err != nil {
		return nil, err
	}
	if sheetRange == "" {
		sheetRange = cfg.Import.Range
	}
	return client.Rows(ctx, sheetRange)
}

func help() {
	fmt.Print(`
Usage: rsvp-admin <command> [flags]

Commands:
  registry         Export the built-in activity registry, or validate a registry file
  import           Import participants from the spreadsheet or a JSON file
  stats            Print route, confirmation and participant counts
  backfill         Issue routes for participants without one
  purge-test-data  Delete TEST_ routes and test participants
  seed-test-data   Create test participants with TEST_ routes
  help             Show this help message

Examples:
  rsvp-admin registry -path configs/activity-registry.json
  rsvp-admin registry -path configs/activity-registry.json -validate
  rsvp-admin import -file participants.json
  rsvp-admin seed-test-data -n 25

Use 'rsvp-admin <command> -h' for more information about a command.
` + "\n")
}
