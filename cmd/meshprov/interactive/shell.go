// Package interactive provides the interactive command-line interface
// for meshprov.
package interactive

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"

	"github.com/meshprov/meshprov-go/pkg/gatt"
	"github.com/meshprov/meshprov-go/pkg/log"
	"github.com/meshprov/meshprov-go/pkg/pdu"
	"github.com/meshprov/meshprov-go/pkg/persistence"
	"github.com/meshprov/meshprov-go/pkg/provisioner"
)

// commandTimeout bounds each command's wait for the dispatch loop.
const commandTimeout = 5 * time.Second

// Shell handles interactive mode.
type Shell struct {
	p       *provisioner.Provisioner
	history *log.Recorder
	nodes   *persistence.StateStore
	rl      *readline.Instance
	out     io.Writer

	// Seen names and capabilities, keyed by address, for node records.
	mu    sync.Mutex
	names map[gatt.Address]string
	caps  map[gatt.Address]pdu.DeviceCapabilities
}

// New creates a shell. history, if non-nil, backs the history command and
// nodes, if non-nil, records every device that completes provisioning.
// Attach a provisioner before calling Run.
func New(history *log.Recorder, nodes *persistence.StateStore) (*Shell, error) {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "meshprov> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create readline: %w", err)
	}

	s := newShell(history, nodes, rl.Stdout())
	s.rl = rl
	return s, nil
}

func newShell(history *log.Recorder, nodes *persistence.StateStore, out io.Writer) *Shell {
	return &Shell{
		history: history,
		nodes:   nodes,
		out:     out,
		names:   make(map[gatt.Address]string),
		caps:    make(map[gatt.Address]pdu.DeviceCapabilities),
	}
}

// Attach sets the provisioner driven by the shell and prints its events.
func (s *Shell) Attach(p *provisioner.Provisioner) {
	s.p = p
	p.OnEvent(s.printEvent)
}

// Stdout returns a writer that properly coordinates with the readline input.
// Use this for log output to avoid interfering with the command prompt.
func (s *Shell) Stdout() io.Writer {
	return s.out
}

// Run starts the interactive command loop.
func (s *Shell) Run(ctx context.Context, cancel context.CancelFunc) {
	defer s.rl.Close()

	s.printHelp()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := s.rl.Readline()
		if err != nil {
			// EOF or interrupt
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			fmt.Fprintln(s.out, "Exiting...")
			cancel()
			return
		}

		if s.Exec(ctx, line) {
			cancel()
			return
		}
	}
}

// Exec runs one command line. It reports whether the shell should exit.
func (s *Shell) Exec(ctx context.Context, line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	cctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	switch cmd {
	case "help", "?":
		s.printHelp()

	case "scan":
		s.report("scan", s.p.StartScan(cctx))

	case "stop":
		s.report("stop", s.p.StopScan())

	case "connect":
		if addr, ok := s.address(args); ok {
			s.report("connect", s.p.Connect(cctx, addr))
		}

	case "disconnect":
		s.report("disconnect", s.p.Disconnect(cctx))

	case "provision", "prov":
		if addr, ok := s.address(args); ok {
			s.warnProvisioned(addr)
			s.report("provision", s.p.StartProvisioning(cctx, addr))
		}

	case "invite":
		seconds := 5
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				fmt.Fprintf(s.out, "Invalid attention duration: %s\n", args[0])
				return false
			}
			seconds = n
		}
		s.report("invite", s.p.SendInvite(cctx, seconds))

	case "start":
		s.report("start", s.p.SendStart(cctx))

	case "pubkey", "key":
		if b, ok := s.bytesArg("pubkey", args); ok {
			s.report("pubkey", s.p.SendPublicKey(cctx, b))
		}

	case "confirm", "confirmation":
		if b, ok := s.bytesArg("confirm", args); ok {
			s.report("confirm", s.p.SendConfirmation(cctx, b))
		}

	case "random":
		if b, ok := s.bytesArg("random", args); ok {
			s.report("random", s.p.SendRandom(cctx, b))
		}

	case "advance":
		s.report("advance", s.p.AdvanceToData(cctx))

	case "data":
		if b, ok := s.bytesArg("data", args); ok {
			s.report("data", s.p.SendData(cctx, b))
		}

	case "status":
		s.cmdStatus(cctx)

	case "history", "h":
		s.cmdHistory(args)

	case "nodes":
		s.cmdNodes()

	case "forget":
		if addr, ok := s.address(args); ok {
			s.cmdForget(addr)
		}

	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true

	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
meshprov Commands:
  Discovery & Connection:
    scan                 - Scan for unprovisioned devices
    stop                 - Stop scanning
    connect <addr>       - Connect to a device
    disconnect           - Disconnect the current device

  Provisioning:
    provision <addr>     - Connect (if needed) and begin provisioning
    invite [seconds]     - Send Invite with attention duration (default 5)
    start                - Send Start
    pubkey <hex>         - Send the 64-byte public key
    confirm <hex>        - Send the 16-byte confirmation
    random <hex>         - Send the 16-byte random
    advance              - Move to the data phase after verifying the device
    data <hex>           - Send the encrypted provisioning data

  General:
    status               - Show session and provisioning state
    history [n]          - Show the last n protocol events (default 20)
    nodes                - List provisioned nodes
    forget <addr>        - Remove a node from the provisioned list
    help                 - Show this help
    quit                 - Exit`)
}

func (s *Shell) report(cmd string, err error) {
	if err != nil {
		fmt.Fprintf(s.out, "%s failed: %v\n", cmd, err)
		return
	}
	fmt.Fprintf(s.out, "%s: ok\n", cmd)
}

func (s *Shell) address(args []string) (gatt.Address, bool) {
	if len(args) == 0 {
		fmt.Fprintln(s.out, "Usage: <command> <address>")
		return "", false
	}
	return gatt.Address(strings.ToUpper(args[0])), true
}

func (s *Shell) bytesArg(cmd string, args []string) ([]byte, bool) {
	if len(args) == 0 {
		fmt.Fprintf(s.out, "Usage: %s <hex>\n", cmd)
		return nil, false
	}
	b, err := ParseHex(strings.Join(args, ""))
	if err != nil {
		fmt.Fprintf(s.out, "Invalid hex: %v\n", err)
		return nil, false
	}
	return b, true
}

// ParseHex decodes hex with an optional 0x prefix. Colons and spaces are
// ignored.
func ParseHex(s string) ([]byte, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	s = strings.NewReplacer(":", "", " ", "", "-", "").Replace(s)
	if s == "" {
		return nil, errors.New("empty value")
	}
	return hex.DecodeString(s)
}

func (s *Shell) cmdStatus(ctx context.Context) {
	st, err := s.p.Status(ctx)
	if err != nil {
		fmt.Fprintf(s.out, "status failed: %v\n", err)
		return
	}

	fmt.Fprintln(s.out, "\nProvisioner Status:")
	fmt.Fprintln(s.out, "-------------------------------------------")
	fmt.Fprintf(s.out, "  State:      %s\n", st.State)
	fmt.Fprintf(s.out, "  Scanning:   %v\n", st.Scanning)
	if st.Address == "" {
		fmt.Fprintln(s.out, "  Session:    none")
		return
	}
	fmt.Fprintf(s.out, "  Device:     %s\n", st.Address)
	fmt.Fprintf(s.out, "  Session:    %s\n", st.SessionID)
	fmt.Fprintf(s.out, "  Link:       %s\n", st.LinkState)
	fmt.Fprintf(s.out, "  Discovery:  complete=%v attempts=%d\n", st.DiscoveryComplete, st.DiscoveryAttempts)
	if st.PendingWrites > 0 {
		fmt.Fprintf(s.out, "  Pending:    %d write(s)\n", st.PendingWrites)
	}
}

func (s *Shell) cmdHistory(args []string) {
	if s.history == nil {
		fmt.Fprintln(s.out, "Protocol history is not recorded")
		return
	}
	n := 20
	if len(args) > 0 {
		if v, err := strconv.Atoi(args[0]); err == nil && v > 0 {
			n = v
		}
	}

	events := s.history.Events(log.Filter{})
	if len(events) > n {
		events = events[len(events)-n:]
	}
	for _, e := range events {
		fmt.Fprintln(s.out, FormatEvent(e))
	}
}

func (s *Shell) cmdNodes() {
	if s.nodes == nil {
		fmt.Fprintln(s.out, "Node records are disabled (no state file)")
		return
	}
	state, err := s.nodes.Load()
	if err != nil {
		fmt.Fprintf(s.out, "nodes failed: %v\n", err)
		return
	}
	if state == nil || len(state.Nodes) == 0 {
		fmt.Fprintln(s.out, "No provisioned nodes")
		return
	}

	fmt.Fprintln(s.out, "\nProvisioned Nodes:")
	fmt.Fprintln(s.out, "-------------------------------------------")
	for _, n := range state.Nodes {
		name := n.Name
		if name == "" {
			name = "Unknown"
		}
		fmt.Fprintf(s.out, "  %s  %-16s elements=%d  %s\n", n.Address, name, n.Elements, n.ProvisionedAt.Format(time.RFC3339))
	}
}

func (s *Shell) cmdForget(addr gatt.Address) {
	if s.nodes == nil {
		fmt.Fprintln(s.out, "Node records are disabled (no state file)")
		return
	}
	ok, err := s.nodes.Forget(string(addr))
	switch {
	case err != nil:
		fmt.Fprintf(s.out, "forget failed: %v\n", err)
	case !ok:
		fmt.Fprintf(s.out, "%s is not a provisioned node\n", addr)
	default:
		fmt.Fprintf(s.out, "Forgot %s\n", addr)
	}
}

func (s *Shell) warnProvisioned(addr gatt.Address) {
	if s.nodes == nil {
		return
	}
	state, err := s.nodes.Load()
	if err != nil || state == nil {
		return
	}
	if n, ok := state.Node(string(addr)); ok {
		fmt.Fprintf(s.out, "Note: %s was provisioned at %s\n", addr, n.ProvisionedAt.Format(time.RFC3339))
	}
}

// recordNode stores a node record for a device that completed provisioning.
func (s *Shell) recordNode(addr gatt.Address) {
	if s.nodes == nil || addr == "" {
		return
	}

	s.mu.Lock()
	rec := persistence.NodeRecord{
		Address:       string(addr),
		Name:          s.names[addr],
		ProvisionedAt: time.Now(),
	}
	if c, ok := s.caps[addr]; ok {
		rec.Elements = c.NumElements
		rec.Algorithms = c.Algorithms
	}
	s.mu.Unlock()

	if err := s.nodes.Record(rec); err != nil {
		fmt.Fprintf(s.out, "[ERROR] failed to record node: %v\n", err)
		return
	}
	fmt.Fprintf(s.out, "Recorded %s in %s\n", addr, s.nodes.Path())
}

func (s *Shell) remember(ev provisioner.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case ev.Type == provisioner.EventDeviceFound && ev.Device != nil && ev.Device.Name != "Unknown":
		s.names[ev.Device.Address] = ev.Device.Name
	case ev.Type == provisioner.EventCapabilities && ev.Capabilities != nil:
		s.caps[ev.Address] = *ev.Capabilities
	}
}

func (s *Shell) printEvent(ev provisioner.Event) {
	s.remember(ev)

	switch ev.Type {
	case provisioner.EventDeviceFound:
		d := ev.Device
		mesh := ""
		if d.IsMesh {
			mesh = " [mesh]"
		}
		fmt.Fprintf(s.out, "[EVENT] Device found: %s %s rssi=%d service=%s%s\n", d.Address, d.Name, d.RSSI, d.ServiceUUID, mesh)
	case provisioner.EventConnectionStateChange:
		fmt.Fprintf(s.out, "[EVENT] %s %s\n", ev.Address, ev.ConnectionState)
	case provisioner.EventProvisioningServiceFound:
		fmt.Fprintf(s.out, "[EVENT] Provisioning service found on %s\n", ev.Address)
	case provisioner.EventCapabilities:
		fmt.Fprintf(s.out, "[EVENT] Capabilities: %x\n", ev.Payload)
		if c := ev.Capabilities; c != nil {
			fmt.Fprintf(s.out, "     elements=%d algorithms=%#04x public-key-oob=%v static-oob=%#02x output-oob=%d/%#04x input-oob=%d/%#04x\n",
				c.NumElements, c.Algorithms, c.PublicKeyOOB(), c.StaticOOBType, c.OutputOOBSize, c.OutputOOBAction, c.InputOOBSize, c.InputOOBAction)
		}
	case provisioner.EventPublicKey:
		fmt.Fprintf(s.out, "[EVENT] Device public key: %x\n", ev.Payload)
	case provisioner.EventConfirmation:
		fmt.Fprintf(s.out, "[EVENT] Device confirmation: %x\n", ev.Payload)
	case provisioner.EventRandom:
		fmt.Fprintf(s.out, "[EVENT] Device random: %x\n", ev.Payload)
	case provisioner.EventComplete:
		fmt.Fprintln(s.out, "[EVENT] Provisioning complete")
		s.recordNode(ev.Address)
	case provisioner.EventFailed:
		fmt.Fprintf(s.out, "[EVENT] Provisioning failed: %s (0x%02x)\n", ev.Code, uint8(ev.Code))
	case provisioner.EventCharacteristicWrite:
		if !ev.Success {
			fmt.Fprintf(s.out, "[EVENT] Write failed: %v\n", ev.Err)
		}
	case provisioner.EventCharacteristicRead:
		fmt.Fprintf(s.out, "[EVENT] Read: %x\n", ev.Payload)
	case provisioner.EventError:
		fmt.Fprintf(s.out, "[ERROR] %s: %v\n", ev.Message, ev.Err)
	}
}

// FormatEvent renders a protocol capture event on one line.
func FormatEvent(e log.Event) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-7s %-3s", e.Timestamp.Format("15:04:05.000"), e.Layer, e.Direction)
	switch {
	case e.Frame != nil:
		fmt.Fprintf(&b, " frame %x", e.Frame.Data)
		if e.Frame.Truncated {
			b.WriteString("...")
		}
	case e.PDU != nil:
		fmt.Fprintf(&b, " %s %x", e.PDU.Name, e.PDU.Payload)
	case e.StateChange != nil:
		fmt.Fprintf(&b, " %s %s -> %s", e.StateChange.Entity, e.StateChange.OldState, e.StateChange.NewState)
		if e.StateChange.Reason != "" {
			fmt.Fprintf(&b, " (%s)", e.StateChange.Reason)
		}
	case e.Discovery != nil:
		fmt.Fprintf(&b, " discovery %s %d/%d", e.Discovery.Outcome, e.Discovery.Attempt, e.Discovery.MaxAttempts)
	case e.Error != nil:
		fmt.Fprintf(&b, " error %s: %s", e.Error.Context, e.Error.Message)
	}
	return b.String()
}
