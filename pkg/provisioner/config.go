package provisioner

import (
	"log/slog"

	"github.com/meshprov/meshprov-go/pkg/log"
	"github.com/meshprov/meshprov-go/pkg/provisioning"
	"github.com/meshprov/meshprov-go/pkg/session"
)

// Config configures a Provisioner.
type Config struct {
	// Session configures discovery retries.
	Session session.Config

	// Machine configures the provisioning state machine.
	Machine provisioning.Config

	// Filter selects which advertisements are reported while scanning.
	Filter ScanFilter

	// Logger for operational logging. If nil, logging is disabled. It is
	// passed on to the session manager and state machine unless they set
	// their own.
	Logger *slog.Logger

	// ProtocolLogger receives protocol capture events from every layer.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Session: session.DefaultConfig(),
		Machine: provisioning.DefaultConfig(),
	}
}

// Validate checks the nested configurations.
func (c Config) Validate() error {
	if err := c.Session.Validate(); err != nil {
		return err
	}
	return c.Machine.Validate()
}

func (c Config) withLoggers() Config {
	if c.Session.Logger == nil {
		c.Session.Logger = c.Logger
	}
	if c.Session.ProtocolLogger == nil {
		c.Session.ProtocolLogger = c.ProtocolLogger
	}
	if c.Machine.Logger == nil {
		c.Machine.Logger = c.Logger
	}
	if c.Machine.ProtocolLogger == nil {
		c.Machine.ProtocolLogger = c.ProtocolLogger
	}
	return c
}
