// internal/common/camunda/client.go
package camunda

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"

	"rsvp-workers/internal/common/logger"
)

// Client wraps the Zeebe gRPC client.
type Client struct {
	client zbc.Client
	config *ClientConfig
}

type ClientConfig struct {
	GatewayAddress         string
	UsePlaintextConnection bool
	ConnectionTimeout      time.Duration
	RetryConfig            *RetryConfig
}

// RetryConfig controls how often the initial connection is attempted.
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

var DefaultRetryConfig = &RetryConfig{
	MaxRetries: 10,
	BaseDelay:  2 * time.Second,
	MaxDelay:   30 * time.Second,
}

// NewClient connects to a plaintext gateway with default settings.
func NewClient(ctx context.Context, address string, log logger.Logger) (*Client, error) {
	return NewClientWithConfig(ctx, &ClientConfig{
		GatewayAddress:         address,
		UsePlaintextConnection: true,
		ConnectionTimeout:      10 * time.Second,
	}, log)
}

// NewClientWithConfig creates the client and waits until the broker answers a
// topology request, backing off between transient failures.
func NewClientWithConfig(ctx context.Context, config *ClientConfig, log logger.Logger) (*Client, error) {
	if config.RetryConfig == nil {
		config.RetryConfig = DefaultRetryConfig
	}
	if config.ConnectionTimeout <= 0 {
		config.ConnectionTimeout = 10 * time.Second
	}

	zeebeClient, err := zbc.NewClient(&zbc.ClientConfig{
		GatewayAddress:         config.GatewayAddress,
		UsePlaintextConnection: config.UsePlaintextConnection,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Zeebe client: %w", err)
	}
	c := &Client{client: zeebeClient, config: config}

	for attempt := 0; ; attempt++ {
		err = c.HealthCheck(ctx)
		if err == nil {
			return c, nil
		}
		if !isRetryableZeebeError(err) || attempt >= config.RetryConfig.MaxRetries {
			break
		}

		delay := backoff(config.RetryConfig, attempt)
		log.Warn("zeebe gateway not ready, retrying", map[string]interface{}{
			"attempt":     attempt + 1,
			"nextRetryIn": delay.String(),
			"error":       err.Error(),
		})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			zeebeClient.Close()
			return nil, fmt.Errorf("zeebe connection cancelled: %w", ctx.Err())
		}
	}

	zeebeClient.Close()
	return nil, fmt.Errorf("failed to connect to Zeebe broker at %s: %w", config.GatewayAddress, err)
}

// GetClient returns the raw Zeebe client for job worker registration.
func (c *Client) GetClient() zbc.Client {
	return c.client
}

func (c *Client) Close() error {
	return c.client.Close()
}

// HealthCheck sends a topology request to the gateway.
func (c *Client) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.config.ConnectionTimeout)
	defer cancel()

	if _, err := c.client.NewTopologyCommand().Send(ctx); err != nil {
		return fmt.Errorf("zeebe health check failed: %w", err)
	}
	return nil
}

func backoff(cfg *RetryConfig, attempt int) time.Duration {
	if attempt > 30 {
		return cfg.MaxDelay
	}
	delay := cfg.BaseDelay * time.Duration(1<<attempt)
	if delay > cfg.MaxDelay || delay <= 0 {
		delay = cfg.MaxDelay
	}
	return delay
}

func isRetryableZeebeError(err error) bool {
	msg := strings.ToLower(err.Error())
	retryablePhrases := []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadline exceeded",
		"unavailable",
		"unreachable",
		"broken pipe",
	}
	for _, phrase := range retryablePhrases {
		if strings.Contains(msg, phrase) {
			return true
		}
	}
	return false
}
