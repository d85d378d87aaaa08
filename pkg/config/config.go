// Package config loads the provisioner's YAML configuration file.
//
// A file only needs the keys it changes; everything else keeps the value
// from Default:
//
//	discovery:
//	  max_attempts: 5
//	  timeout: 10s
//	provisioning:
//	  expected_data_size: 32
//	  optimistic_start: false
//	  start:
//	    algorithm: 0
//	    auth_method: 0
//	scan:
//	  min_rssi: -90
//	  mesh_only: true
//	log:
//	  level: info
//	  protocol_log: session.plog
//	state:
//	  file: nodes.json
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/meshprov/meshprov-go/pkg/pdu"
	"github.com/meshprov/meshprov-go/pkg/provisioning"
	"github.com/meshprov/meshprov-go/pkg/session"
)

// Config is the parsed configuration file.
type Config struct {
	Discovery    Discovery    `yaml:"discovery"`
	Provisioning Provisioning `yaml:"provisioning"`
	Scan         Scan         `yaml:"scan"`
	Log          Log          `yaml:"log"`
	State        State        `yaml:"state"`
}

// Discovery configures service discovery retries.
type Discovery struct {
	MaxAttempts int      `yaml:"max_attempts"`
	Timeout     Duration `yaml:"timeout"`
}

// Provisioning configures the provisioning state machine.
type Provisioning struct {
	ExpectedDataSize int   `yaml:"expected_data_size"`
	OptimisticStart  bool  `yaml:"optimistic_start"`
	Start            Start `yaml:"start"`
}

// Start holds the Start PDU parameters.
type Start struct {
	Algorithm     uint8 `yaml:"algorithm"`
	PublicKeyType uint8 `yaml:"public_key_type"`
	AuthMethod    uint8 `yaml:"auth_method"`
	AuthAction    uint8 `yaml:"auth_action"`
	AuthSize      uint8 `yaml:"auth_size"`
}

// Scan configures which advertisements are reported.
type Scan struct {
	// MinRSSI drops weaker advertisements. 0 disables the check.
	MinRSSI  int  `yaml:"min_rssi"`
	MeshOnly bool `yaml:"mesh_only"`
}

// State configures the record of provisioned nodes.
type State struct {
	// File is the JSON state file. Empty disables the record.
	File string `yaml:"file"`
}

// Log configures logging.
type Log struct {
	Level       string `yaml:"level"`
	ProtocolLog string `yaml:"protocol_log"`
}

// Duration is a time.Duration written as a string such as "10s" or "1m30s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	v, err := time.ParseDuration(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*d = Duration(v)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Discovery: Discovery{
			MaxAttempts: session.DefaultMaxDiscoveryAttempts,
			Timeout:     Duration(session.DefaultDiscoveryTimeout),
		},
		Provisioning: Provisioning{
			ExpectedDataSize: pdu.DefaultDataSize,
		},
		Log: Log{
			Level: "info",
		},
	}
}

// LoadError describes a configuration file that could not be loaded.
type LoadError struct {
	// File is the path of the file, empty when parsing bytes.
	File string

	// Message describes the error.
	Message string

	// Cause is the underlying error, if any.
	Cause error
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	if e.File == "" {
		return msg
	}
	return e.File + ": " + msg
}

func (e *LoadError) Unwrap() error {
	return e.Cause
}

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Parse parses YAML over Default and validates the result. Unknown keys
// are rejected.
func Parse(data []byte) (Config, error) {
	cfg := Default()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, &LoadError{Message: "failed to parse YAML", Cause: err}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, &LoadError{Message: "invalid configuration", Cause: err}
	}
	return cfg, nil
}

// Load reads and parses the file at path.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, &LoadError{File: path, Message: "failed to read file", Cause: err}
	}

	cfg, err := Parse(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) {
			le.File = path
		}
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.Discovery.MaxAttempts < 1 {
		return fmt.Errorf("%w: discovery.max_attempts must be at least 1, got %d", ErrInvalid, c.Discovery.MaxAttempts)
	}
	if c.Discovery.Timeout <= 0 {
		return fmt.Errorf("%w: discovery.timeout must be positive, got %s", ErrInvalid, time.Duration(c.Discovery.Timeout))
	}
	if c.Provisioning.ExpectedDataSize < 1 {
		return fmt.Errorf("%w: provisioning.expected_data_size must be at least 1, got %d", ErrInvalid, c.Provisioning.ExpectedDataSize)
	}
	if c.Scan.MinRSSI > 0 || c.Scan.MinRSSI < -127 {
		return fmt.Errorf("%w: scan.min_rssi must be in [-127, 0], got %d", ErrInvalid, c.Scan.MinRSSI)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("%w: log.level: %w", ErrInvalid, err)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level %q", s)
	}
}

// Session returns the session manager configuration. Loggers are left
// for the caller to fill in.
func (c Config) Session() session.Config {
	return session.Config{
		MaxDiscoveryAttempts: c.Discovery.MaxAttempts,
		DiscoveryTimeout:     time.Duration(c.Discovery.Timeout),
	}
}

// Machine returns the provisioning state machine configuration.
func (c Config) Machine() provisioning.Config {
	s := c.Provisioning.Start
	return provisioning.Config{
		ExpectedDataSize: c.Provisioning.ExpectedDataSize,
		OptimisticStart:  c.Provisioning.OptimisticStart,
		Start: pdu.Start{
			Algorithm:     s.Algorithm,
			PublicKeyType: s.PublicKeyType,
			AuthMethod:    s.AuthMethod,
			AuthAction:    s.AuthAction,
			AuthSize:      s.AuthSize,
		},
	}
}
