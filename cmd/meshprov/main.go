// Command meshprov provisions Bluetooth Mesh devices over the GATT
// Provisioning service.
//
// Usage:
//
//	meshprov [flags]
//
// Flags:
//
//	-config string             YAML configuration file
//	-log-level string          Log level: debug, info, warn, error (default "info")
//	-protocol-log string       File path for protocol capture (CBOR format)
//	-simulate                  Use simulated devices instead of the host adapter
//	-data-size int             Expected provisioning data size in bytes
//	-discovery-timeout duration
//	                           Timeout for each service discovery attempt
//	-discovery-attempts int    Maximum service discovery attempts
//	-state string              JSON file recording provisioned nodes
//
// The interactive shell supports these commands:
//
//	scan, stop, connect, disconnect, provision, invite, start, pubkey,
//	confirm, random, advance, data, status, history, nodes, forget,
//	help, quit
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meshprov/meshprov-go/cmd/meshprov/interactive"
	"github.com/meshprov/meshprov-go/pkg/config"
	"github.com/meshprov/meshprov-go/pkg/gatt"
	"github.com/meshprov/meshprov-go/pkg/gatt/blue"
	"github.com/meshprov/meshprov-go/pkg/gatt/sim"
	"github.com/meshprov/meshprov-go/pkg/log"
	"github.com/meshprov/meshprov-go/pkg/pdu"
	"github.com/meshprov/meshprov-go/pkg/persistence"
	"github.com/meshprov/meshprov-go/pkg/provisioner"
)

// historySize is the number of protocol events kept for the history command.
const historySize = 1000

// Command-line flags
var (
	configFile        string
	logLevel          string
	protocolLogFile   string
	simulate          bool
	dataSize          int
	discoveryTimeout  time.Duration
	discoveryAttempts int
	stateFile         string
)

func init() {
	flag.StringVar(&configFile, "config", "", "YAML configuration file")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flag.StringVar(&protocolLogFile, "protocol-log", "", "File path for protocol capture (CBOR format)")
	flag.BoolVar(&simulate, "simulate", false, "Use simulated devices instead of the host adapter")
	flag.IntVar(&dataSize, "data-size", 0, "Expected provisioning data size in bytes")
	flag.DurationVar(&discoveryTimeout, "discovery-timeout", 0, "Timeout for each service discovery attempt")
	flag.IntVar(&discoveryAttempts, "discovery-attempts", 0, "Maximum service discovery attempts")
	flag.StringVar(&stateFile, "state", "", "JSON file recording provisioned nodes")
}

func main() {
	flag.Parse()

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "meshprov: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}

	var nodes *persistence.StateStore
	if cfg.State.File != "" {
		nodes = persistence.NewStateStore(cfg.State.File)
	}

	history := log.NewRecorder(historySize)
	shell, err := interactive.New(history, nodes)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(shell.Stdout(), &slog.HandlerOptions{Level: level}))

	protocolLoggers := []log.Logger{history}
	if cfg.Log.ProtocolLog != "" {
		fileLogger, err := log.NewFileLogger(cfg.Log.ProtocolLog)
		if err != nil {
			return fmt.Errorf("failed to create protocol logger: %w", err)
		}
		defer func() {
			if n := fileLogger.Dropped(); n > 0 {
				logger.Warn("protocol capture incomplete", "dropped", n, "error", fileLogger.Err())
			}
			fileLogger.Close()
		}()
		protocolLoggers = append(protocolLoggers, fileLogger)
		logger.Info("protocol logging enabled", "path", cfg.Log.ProtocolLog)
	}
	if level <= slog.LevelDebug {
		protocolLoggers = append(protocolLoggers, log.NewSlogAdapter(logger))
	}
	protocolLogger := log.NewMultiLogger(protocolLoggers...)

	transport, err := newTransport(logger)
	if err != nil {
		return err
	}

	pcfg := provisioner.DefaultConfig()
	pcfg.Session = cfg.Session()
	pcfg.Machine = cfg.Machine()
	pcfg.Filter = provisioner.ScanFilter{MinRSSI: cfg.Scan.MinRSSI, MeshOnly: cfg.Scan.MeshOnly}
	pcfg.Logger = logger
	pcfg.ProtocolLogger = protocolLogger

	p, err := provisioner.New(pcfg, transport)
	if err != nil {
		return err
	}
	defer p.Close()
	shell.Attach(p)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
	}()

	logger.Info("meshprov started",
		"simulate", simulate,
		"discoveryAttempts", pcfg.Session.MaxDiscoveryAttempts,
		"discoveryTimeout", pcfg.Session.DiscoveryTimeout,
		"dataSize", pcfg.Machine.ExpectedDataSize)

	shell.Run(ctx, cancel)
	return nil
}

// loadConfig reads the configuration file, if any, and applies the flags
// the user set on top of it.
func loadConfig() (config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return cfg, err
		}
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.Log.Level = logLevel
		case "protocol-log":
			cfg.Log.ProtocolLog = protocolLogFile
		case "data-size":
			cfg.Provisioning.ExpectedDataSize = dataSize
		case "discovery-timeout":
			cfg.Discovery.Timeout = config.Duration(discoveryTimeout)
		case "discovery-attempts":
			cfg.Discovery.MaxAttempts = discoveryAttempts
		case "state":
			cfg.State.File = stateFile
		}
	})

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid flags: %w", err)
	}
	return cfg, nil
}

func newTransport(logger *slog.Logger) (gatt.Transport, error) {
	if !simulate {
		adapter, err := blue.New(blue.Config{Logger: logger})
		if err != nil {
			return nil, err
		}
		return adapter, nil
	}

	logger.Info("using simulated devices")
	return sim.NewTransport(sim.Config{Latency: 20 * time.Millisecond, Logger: logger},
		&sim.Device{
			Name:    "Mesh Light",
			Address: "C0:FF:EE:00:00:01",
			RSSI:    -48,
			Capabilities: pdu.DeviceCapabilities{
				NumElements: 1,
				Algorithms:  pdu.AlgorithmP256CMACAES128,
			},
		},
		&sim.Device{
			Name:       "Mesh Sensor",
			Address:    "C0:FF:EE:00:00:02",
			RSSI:       -71,
			FailOn:     pdu.OpData,
			FailReason: pdu.ReasonDecryptionFailed,
			Capabilities: pdu.DeviceCapabilities{
				NumElements: 2,
				Algorithms:  pdu.AlgorithmP256CMACAES128 | pdu.AlgorithmP256HMACSHA256,
			},
		},
	), nil
}
