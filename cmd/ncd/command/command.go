// Package command assembles the ncd CLI: "ncd run" starts the
// decision loop in the foreground, "ncd status"/"ncd version" and the
// trace/rebalance/verbose toggles dial the running daemon's control
// socket (§6).
package command

import (
	"github.com/urfave/cli"

	"github.com/netcontrold/ncd/internal/config"
	"github.com/netcontrold/ncd/internal/version"
)

const usage = `
# start the rebalance daemon in the foreground
sudo ncd run

# check what the running daemon is doing
ncd status

# turn on packet-drop tracing against the running daemon
ncd trace on
`

var (
	sampleInterval    int
	trace             bool
	traceCallback     string
	rebalance         bool
	rebalanceInterval int
	rebalanceN        int
	rebalanceIQ       bool
	quiet             bool
	verbose           bool

	socketPath string
	pidFile    string
	logFile    string
	appctl     string
	vsctl      string
)

// App builds the urfave/cli application the way the teacher's gpud
// command package does: package-level flag variables populated by
// cli.Context, one cli.Command per subcommand.
func App() *cli.App {
	app := cli.NewApp()

	app.Name = "ncd"
	app.Version = version.Version
	app.Usage = "rebalance OVS PMD rxq placement against observed per-core load"
	app.Description = "samples ovs-appctl/ovs-vsctl counters, estimates per-pmd load, and dry-runs rxq moves before committing a pmd-rxq-affinity change"

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:        "socket",
			Usage:       "control socket path",
			Value:       config.DefaultSocketPath,
			Destination: &socketPath,
		},
		cli.StringFlag{
			Name:  "metrics-address",
			Usage: "address to serve Prometheus metrics on (empty disables)",
		},
	}

	app.Commands = []cli.Command{
		{
			Name:   "run",
			Usage:  "run the rebalance daemon in the foreground",
			Action: cmdRun,
			Flags: []cli.Flag{
				cli.IntFlag{Name: "sample-interval, s", Usage: "seconds between samples", Value: int(config.DefaultSampleInterval.Seconds()), Destination: &sampleInterval},
				cli.BoolFlag{Name: "trace, t", Usage: "enable packet-drop tracing at startup", Destination: &trace},
				cli.StringFlag{Name: "trace-cb", Usage: "trace callback program on PATH", Value: config.DefaultTraceCallback, Destination: &traceCallback},
				cli.BoolTFlag{Name: "rebalance, r", Usage: "enable rebalancing at startup", Destination: &rebalance},
				cli.IntFlag{Name: "rebalance-interval", Usage: "seconds between commit opportunities", Value: int(config.DefaultRebalanceInterval.Seconds()), Destination: &rebalanceInterval},
				cli.IntFlag{Name: "rebalance-n", Usage: "max dry-run iterations per evaluation window", Value: config.DefaultRebalanceN, Destination: &rebalanceN},
				cli.BoolFlag{Name: "rebalance-iq", Usage: "use the iterative idle-queue rebalancer instead of cycle-ordered", Destination: &rebalanceIQ},
				cli.BoolFlag{Name: "quiet, q", Usage: "suppress informational logging", Destination: &quiet},
				cli.BoolFlag{Name: "verbose, v", Usage: "enable debug logging at startup", Destination: &verbose},
				cli.StringFlag{Name: "pidfile", Usage: "pid file path", Value: config.DefaultPidFile, Destination: &pidFile},
				cli.StringFlag{Name: "logfile", Usage: "log file path", Value: config.DefaultLogFile, Destination: &logFile},
				cli.StringFlag{Name: "appctl", Usage: "ovs-appctl binary", Value: config.DefaultAppctl, Destination: &appctl},
				cli.StringFlag{Name: "vsctl", Usage: "ovs-vsctl binary", Value: config.DefaultVsctl, Destination: &vsctl},
			},
		},
		{
			Name:   "status",
			Usage:  "print the running daemon's event log",
			Action: cmdStatus,
		},
		{
			Name:   "version",
			Usage:  "print the running daemon's version and the switch's version",
			Action: cmdVersion,
		},
		{
			Name:   "config",
			Usage:  "print the running daemon's current flag state",
			Action: cmdConfig,
		},
		{
			Name:   "rebal-count",
			Usage:  "print the number of rebalance commits since startup",
			Action: cmdRebalCount,
		},
		{
			Name:  "trace",
			Usage: "toggle packet-drop tracing on the running daemon",
			Subcommands: []cli.Command{
				{Name: "on", Action: cmdTraceOn},
				{Name: "off", Action: cmdTraceOff},
			},
		},
		{
			Name:  "rebalance",
			Usage: "toggle rebalancing on the running daemon",
			Subcommands: []cli.Command{
				{Name: "on", Action: cmdRebalOn},
				{Name: "off", Action: cmdRebalOff},
				{Name: "quick-on", Action: cmdRebalQuickOn},
				{Name: "quick-off", Action: cmdRebalQuickOff},
			},
		},
		{
			Name:  "verbose",
			Usage: "toggle verbose logging on the running daemon",
			Subcommands: []cli.Command{
				{Name: "on", Action: cmdVerboseOn},
				{Name: "off", Action: cmdVerboseOff},
			},
		},
	}

	return app
}
