// internal/workers/notifications/send-invites/config.go
package sendinvites

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 5 * time.Minute,
	}
}
