package session

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meshprov/meshprov-go/pkg/log"
)

// Default discovery policy.
const (
	DefaultMaxDiscoveryAttempts = 5
	DefaultDiscoveryTimeout     = 10 * time.Second
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid session config")

// Config configures a Manager.
type Config struct {
	// MaxDiscoveryAttempts bounds discovery attempts per session.
	// Default: 5.
	MaxDiscoveryAttempts int

	// DiscoveryTimeout is how long each attempt may take, and the delay
	// before a deferred write is retried. Default: 10s.
	DiscoveryTimeout time.Duration

	// Logger for operational logging. If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives frames, discovery steps and state changes.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		MaxDiscoveryAttempts: DefaultMaxDiscoveryAttempts,
		DiscoveryTimeout:     DefaultDiscoveryTimeout,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.MaxDiscoveryAttempts < 0 {
		return fmt.Errorf("%w: max discovery attempts %d", ErrInvalidConfig, c.MaxDiscoveryAttempts)
	}
	if c.DiscoveryTimeout < 0 {
		return fmt.Errorf("%w: discovery timeout %s", ErrInvalidConfig, c.DiscoveryTimeout)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.MaxDiscoveryAttempts == 0 {
		c.MaxDiscoveryAttempts = DefaultMaxDiscoveryAttempts
	}
	if c.DiscoveryTimeout == 0 {
		c.DiscoveryTimeout = DefaultDiscoveryTimeout
	}
	return c
}
