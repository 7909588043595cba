// Package ctlsocket implements the Unix domain control socket (§6): a
// tiny fixed-framing text protocol the ncd CLI's trace/rebalance/
// verbose toggles and status queries speak to the running daemon.
package ctlsocket

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/netcontrold/ncd/internal/exec"
	"github.com/netcontrold/ncd/internal/loop"
	"github.com/netcontrold/ncd/internal/logging"
	"github.com/netcontrold/ncd/internal/version"
)

// cmdLen is the fixed size of a command token: callers pad with
// trailing NUL or space bytes, the server trims on read.
const cmdLen = 24

// ackHeaderLen is len("CTLD_DATA_ACK XXXXXX"): the data-ack header is
// always exactly this many bytes, a plain literal "CTLD_ACK" is 8.
const ackHeaderLen = len("CTLD_DATA_ACK XXXXXX")

const (
	cmdTraceOn        = "CTLD_TRACE_ON"
	cmdTraceOff       = "CTLD_TRACE_OFF"
	cmdRebalOn        = "CTLD_REBAL_ON"
	cmdRebalOff       = "CTLD_REBAL_OFF"
	cmdRebalQuickOn   = "CTLD_REBAL_QUICK_ON"
	cmdRebalQuickOff  = "CTLD_REBAL_QUICK_OFF"
	cmdVerboseOn      = "CTLD_VERBOSE_ON"
	cmdVerboseOff     = "CTLD_VERBOSE_OFF"
	cmdRebalCnt       = "CTLD_REBAL_CNT"
	cmdConfig         = "CTLD_CONFIG"
	cmdStatus         = "CTLD_STATUS"
	cmdVersion        = "CTLD_VERSION"

	ack = "CTLD_ACK"
)

// Server answers control-socket connections, mutating the shared
// Flags the decision loop reads every tick and reading its EventLog
// for CTLD_STATUS/CTLD_REBAL_CNT.
type Server struct {
	Path   string
	Flags  *loop.Flags
	Events *loop.EventLog
	Exec   exec.Executor
	Vsctl  string

	ln net.Listener
	wg sync.WaitGroup
}

// NewServer binds the listening socket at path, removing any stale
// socket file left behind by a prior, uncleanly-terminated run.
func NewServer(path string, flags *loop.Flags, events *loop.EventLog, ex exec.Executor, vsctl string) (*Server, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ctlsocket: create socket dir: %w", err)
	}
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("ctlsocket: remove stale socket: %w", err)
		}
	}

	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("ctlsocket: listen on %s: %w", path, err)
	}

	return &Server{Path: path, Flags: flags, Events: events, Exec: ex, Vsctl: vsctl, ln: ln}, nil
}

// Serve accepts connections until ctx is cancelled or the listener is
// closed. Each connection is handled to completion before the next
// Accept, matching the original single-threaded control loop: control
// commands are rare and cheap, so there is no benefit to concurrency
// here and it would only complicate Flags/Events access patterns.
func (s *Server) Serve(ctx context.Context) error {
	logging.Logger.Infow("starting control socket", "path", s.Path)

	go func() {
		<-ctx.Done()
		s.ln.Close()
	}()

	for {
		conn, err := s.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return fmt.Errorf("ctlsocket: accept: %w", err)
			}
		}
		s.handle(conn)
	}
}

// Close releases the listening socket and the socket file.
func (s *Server) Close() error {
	err := s.ln.Close()
	os.Remove(s.Path)
	return err
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()

	buf := make([]byte, cmdLen)
	n, err := conn.Read(buf)
	if err != nil && err != io.EOF {
		logging.Logger.Warnw("control socket read failed", "error", err)
		return
	}
	cmd := strings.TrimRight(string(buf[:n]), "\x00 \r\n")

	switch cmd {
	case cmdTraceOn:
		if !s.Flags.Trace() {
			logging.Logger.Info("turning on trace mode")
			s.Flags.SetTrace(true)
		}
		writeAck(conn)
	case cmdTraceOff:
		if s.Flags.Trace() {
			logging.Logger.Info("turning off trace mode")
			s.Flags.SetTrace(false)
		}
		writeAck(conn)
	case cmdRebalOn:
		if !s.Flags.RebalMode() {
			logging.Logger.Info("turning on rebalance mode")
			s.Flags.SetRebalMode(true)
		}
		writeAck(conn)
	case cmdRebalOff:
		if s.Flags.RebalMode() {
			logging.Logger.Info("turning off rebalance mode")
			s.Flags.SetRebalMode(false)
		}
		writeAck(conn)
	case cmdRebalQuickOn:
		if !s.Flags.RebalQuick() {
			logging.Logger.Info("turning on rebalance quick mode")
			s.Flags.SetRebalQuick(true)
		}
		writeAck(conn)
	case cmdRebalQuickOff:
		if s.Flags.RebalQuick() {
			logging.Logger.Info("turning off rebalance quick mode")
			s.Flags.SetRebalQuick(false)
		}
		writeAck(conn)
	case cmdVerboseOn:
		if !s.Flags.Verbose() {
			logging.Logger.Info("turning on verbose mode")
			s.Flags.SetVerbose(true)
		}
		writeAck(conn)
	case cmdVerboseOff:
		if s.Flags.Verbose() {
			logging.Logger.Info("turning off verbose mode")
			s.Flags.SetVerbose(false)
		}
		writeAck(conn)
	case cmdRebalCnt:
		writeDataAck(conn, strconv.Itoa(s.Events.CountByName("rebalance")))
	case cmdConfig:
		writeDataAck(conn, s.renderConfig())
	case cmdStatus:
		writeDataAck(conn, s.renderStatus())
	case cmdVersion:
		writeDataAck(conn, s.renderVersion())
	case "":
		// client disconnected without sending anything
	default:
		logging.Logger.Infow("unknown control command", "command", cmd)
	}
}

func writeAck(conn net.Conn) {
	if _, err := conn.Write([]byte(ack)); err != nil {
		logging.Logger.Warnw("control socket write failed", "error", err)
	}
}

func writeDataAck(conn net.Conn, payload string) {
	header := fmt.Sprintf("CTLD_DATA_ACK %6d", len(payload))
	if _, err := conn.Write([]byte(header)); err != nil {
		logging.Logger.Warnw("control socket write failed", "error", err)
		return
	}
	if _, err := conn.Write([]byte(payload)); err != nil {
		logging.Logger.Warnw("control socket write failed", "error", err)
	}
}

func (s *Server) renderConfig() string {
	onOff := func(b bool) string {
		if b {
			return "on"
		}
		return "off"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "trace mode: %s\n", onOff(s.Flags.Trace()))
	fmt.Fprintf(&b, "rebalance mode: %s\n", onOff(s.Flags.RebalMode()))
	fmt.Fprintf(&b, "rebalance quick: %s\n", onOff(s.Flags.RebalQuick()))
	fmt.Fprintf(&b, "verbose log: %s\n", onOff(s.Flags.Verbose()))
	return b.String()
}

func (s *Server) renderStatus() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-16s | %-12s | %s\n", "Interface", "Event", "Time stamp")
	b.WriteString(strings.Repeat("-", 17) + "+" + strings.Repeat("-", 14) + "+" + strings.Repeat("-", 28) + "\n")

	events := s.Events.Snapshot()
	sort.SliceStable(events, func(i, j int) bool { return events[i].Time.Before(events[j].Time) })
	for _, e := range events {
		fmt.Fprintf(&b, "%-16s | %-12s | %s\n", e.Interface, e.Name, e.Time.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}

func (s *Server) renderVersion() string {
	var b strings.Builder
	fmt.Fprintf(&b, "ncd %s\n", version.String())

	out, err := s.Exec.Exec(context.Background(), s.Vsctl+" -V")
	if err != nil {
		b.WriteString("openvswitch (unknown)\n")
	} else {
		line := strings.SplitN(out, "\n", 2)[0]
		fmt.Fprintf(&b, "%s\n", line)
	}

	platform, family, platformVersion, err := host.PlatformInformation()
	if err == nil {
		fmt.Fprintf(&b, "host %s %s %s\n", platform, family, platformVersion)
	}
	return b.String()
}
