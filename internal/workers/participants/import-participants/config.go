// internal/workers/participants/import-participants/config.go
package importparticipants

import "time"

type Config struct {
	Timeout time.Duration
	// SheetRange is read when a job asks for the sheet source without a range.
	SheetRange string
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    5 * time.Minute,
		SheetRange: "A:Z",
	}
}
