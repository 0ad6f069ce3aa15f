// internal/workers/administration/workflow-admin/config.go
package workflowadmin

import "time"

type Config struct {
	Timeout time.Duration
	// AllowReset gates the reset action; it is off unless configured.
	AllowReset bool
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Minute,
	}
}
