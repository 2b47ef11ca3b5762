// control/config.go
// Author: momentics <momentics@gmail.com>
//
// Runtime configuration of the event loop with defaults and functional options.

package control

import (
	"fmt"
	"time"

	"github.com/containerd/errdefs"
)

// Config tunes a reactor loop.
type Config struct {
	MaxEvents      int           // epoll_wait batch capacity
	BatchSize      int           // events dispatched per drain of the staging queue
	WaitTimeout    time.Duration // selector wait; negative blocks until an event arrives
	ReadBufferSize int           // datagram buffer handed to read handlers
}

// DefaultConfig returns the configuration used when no option is given.
func DefaultConfig() Config {
	return Config{
		MaxEvents:      128,
		BatchSize:      16,
		WaitTimeout:    100 * time.Millisecond,
		ReadBufferSize: 64 * 1024,
	}
}

// Option customizes a Config.
type Option func(*Config)

// WithMaxEvents overrides the selector batch capacity.
func WithMaxEvents(n int) Option {
	return func(c *Config) { c.MaxEvents = n }
}

// WithBatchSize overrides the dispatch batch size.
func WithBatchSize(n int) Option {
	return func(c *Config) { c.BatchSize = n }
}

// WithWaitTimeout overrides the selector wait timeout.
func WithWaitTimeout(d time.Duration) Option {
	return func(c *Config) { c.WaitTimeout = d }
}

// WithReadBufferSize overrides the datagram buffer size.
func WithReadBufferSize(n int) Option {
	return func(c *Config) { c.ReadBufferSize = n }
}

// NewConfig applies opts on top of DefaultConfig and validates the result.
func NewConfig(opts ...Option) (Config, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg, cfg.Validate()
}

// Validate rejects non-positive sizes.
func (c Config) Validate() error {
	switch {
	case c.MaxEvents <= 0:
		return fmt.Errorf("max events %d: %w", c.MaxEvents, errdefs.ErrInvalidArgument)
	case c.BatchSize <= 0:
		return fmt.Errorf("batch size %d: %w", c.BatchSize, errdefs.ErrInvalidArgument)
	case c.ReadBufferSize <= 0:
		return fmt.Errorf("read buffer size %d: %w", c.ReadBufferSize, errdefs.ErrInvalidArgument)
	}
	return nil
}
