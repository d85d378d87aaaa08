package provisioning

import (
	"fmt"
	"log/slog"

	"github.com/meshprov/meshprov-go/pkg/log"
	"github.com/meshprov/meshprov-go/pkg/pdu"
)

// Config configures a Machine.
type Config struct {
	// ExpectedDataSize is the exact length SendData accepts.
	// Default: pdu.DefaultDataSize.
	ExpectedDataSize int

	// OptimisticStart makes SendStart move the state to
	// PUBLIC_KEY_EXCHANGE immediately instead of recording it as the
	// expected next state. Some device firmware never sends its public key
	// before receiving ours and needs this.
	OptimisticStart bool

	// Start holds the parameters sent in the Start PDU.
	// The zero value selects FIPS P-256 with no OOB authentication.
	Start pdu.Start

	// Logger for operational logging. If nil, logging is disabled.
	Logger *slog.Logger

	// ProtocolLogger receives decoded PDUs and state changes.
	ProtocolLogger log.Logger
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		ExpectedDataSize: pdu.DefaultDataSize,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.ExpectedDataSize < 0 {
		return fmt.Errorf("%w: expected data size %d", ErrInvalidParameter, c.ExpectedDataSize)
	}
	return nil
}

func (c Config) withDefaults() Config {
	if c.ExpectedDataSize == 0 {
		c.ExpectedDataSize = pdu.DefaultDataSize
	}
	return c
}
