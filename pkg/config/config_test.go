package config

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	s := cfg.Session()
	assert.Equal(t, 5, s.MaxDiscoveryAttempts)
	assert.Equal(t, 10*time.Second, s.DiscoveryTimeout)

	m := cfg.Machine()
	assert.Equal(t, 32, m.ExpectedDataSize)
	assert.False(t, m.OptimisticStart)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
discovery:
  max_attempts: 3
  timeout: 2500ms
provisioning:
  expected_data_size: 25
  optimistic_start: true
  start:
    auth_method: 2
    auth_action: 1
    auth_size: 4
scan:
  min_rssi: -80
  mesh_only: true
log:
  level: debug
  protocol_log: /tmp/run.plog
state:
  file: /var/lib/meshprov/nodes.json
`))
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Session().MaxDiscoveryAttempts)
	assert.Equal(t, 2500*time.Millisecond, cfg.Session().DiscoveryTimeout)

	m := cfg.Machine()
	assert.Equal(t, 25, m.ExpectedDataSize)
	assert.True(t, m.OptimisticStart)
	assert.Equal(t, uint8(2), m.Start.AuthMethod)
	assert.Equal(t, uint8(1), m.Start.AuthAction)
	assert.Equal(t, uint8(4), m.Start.AuthSize)
	assert.Equal(t, uint8(0), m.Start.Algorithm)

	assert.Equal(t, -80, cfg.Scan.MinRSSI)
	assert.True(t, cfg.Scan.MeshOnly)
	assert.Equal(t, "/tmp/run.plog", cfg.Log.ProtocolLog)
	assert.Equal(t, "/var/lib/meshprov/nodes.json", cfg.State.File)
}

func TestParsePartialKeepsDefaults(t *testing.T) {
	cfg, err := Parse([]byte("discovery:\n  timeout: 30s\n"))
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.Discovery.MaxAttempts)
	assert.Equal(t, Duration(30*time.Second), cfg.Discovery.Timeout)
	assert.Equal(t, 32, cfg.Provisioning.ExpectedDataSize)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		invalid bool
	}{
		{"bad yaml", "discovery: [", false},
		{"unknown key", "discovery:\n  retries: 3\n", false},
		{"bad duration", "discovery:\n  timeout: soon\n", false},
		{"zero attempts", "discovery:\n  max_attempts: 0\n", true},
		{"negative timeout", "discovery:\n  timeout: -1s\n", true},
		{"zero data size", "provisioning:\n  expected_data_size: 0\n", true},
		{"positive rssi", "scan:\n  min_rssi: 10\n", true},
		{"bad level", "log:\n  level: loud\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)

			var le *LoadError
			require.True(t, errors.As(err, &le))
			assert.Empty(t, le.File)
			assert.Equal(t, tt.invalid, errors.Is(err, ErrInvalid))
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "meshprov.yaml")
	require.NoError(t, os.WriteFile(path, []byte("scan:\n  mesh_only: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.True(t, cfg.Scan.MeshOnly)

	_, err = Load(filepath.Join(dir, "missing.yaml"))
	var le *LoadError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "failed to read file", le.Message)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log:\n  level: loud\n"), 0o644))
	_, err = Load(bad)
	require.True(t, errors.As(err, &le))
	assert.Equal(t, bad, le.File)
	assert.Contains(t, err.Error(), bad+": invalid configuration")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestDurationMarshal(t *testing.T) {
	out, err := yaml.Marshal(Default())
	require.NoError(t, err)
	assert.Contains(t, string(out), "timeout: 10s")

	cfg, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}
