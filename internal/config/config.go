// Package config holds the daemon's runtime configuration, assembled
// from CLI flags (§6) with functional-option overrides for tests.
package config

import (
	"time"

	homedir "github.com/mitchellh/go-homedir"
)

const (
	DefaultSampleInterval    = 10 * time.Second
	DefaultRebalanceInterval = 60 * time.Second
	DefaultRebalanceN        = 1
	DefaultRingLen           = 6
	DefaultMinImprovementPct = 25.0
	DefaultQuiesce           = 10 * time.Second
	DefaultCoreThreshold     = 95.0
	DefaultTraceCallback     = "ncd_cb_pktdrop"
	DefaultAppctl            = "ovs-appctl"
	DefaultVsctl             = "ovs-vsctl"
	DefaultSocketPath        = "/var/run/ncd/ncd-ctl.sock"
	DefaultPidFile           = "/var/run/ncd/ncd.pid"
	DefaultLogFile           = "/var/log/ncd/ncd.log"
	DefaultLogMaxSizeKiB     = 1024
	DefaultLogBackups        = 1
	DefaultDropPPMThreshold  = 1000
	DefaultTxRetryThreshold  = 10
)

// Config is the fully-resolved set of parameters the decision loop,
// collector and emitter run with.
type Config struct {
	SampleInterval    time.Duration
	RebalanceInterval time.Duration
	// RebalanceN is M, the maximum number of dry-run iterations
	// attempted per evaluation window before giving up on commit.
	RebalanceN        int
	RebalanceIQ       bool
	Rebalance         bool
	RingLen           int
	MinImprovementPct float64
	Quiesce           time.Duration
	CoreThreshold     float64

	Trace           bool
	TraceCallback   string
	DropPPMThresh   int64
	TxRetryThresh   int64

	Quiet   bool
	Verbose bool

	Appctl string
	Vsctl  string

	SocketPath string
	PidFile    string

	LogFile       string
	LogMaxSizeKiB int
	LogBackups    int
}

// Default returns a Config populated with every §6 CLI default.
func Default() Config {
	return Config{
		SampleInterval:    DefaultSampleInterval,
		RebalanceInterval: DefaultRebalanceInterval,
		RebalanceN:        DefaultRebalanceN,
		Rebalance:         true,
		RingLen:           DefaultRingLen,
		MinImprovementPct: DefaultMinImprovementPct,
		Quiesce:           DefaultQuiesce,
		CoreThreshold:     DefaultCoreThreshold,
		TraceCallback:     DefaultTraceCallback,
		DropPPMThresh:     DefaultDropPPMThreshold,
		TxRetryThresh:     DefaultTxRetryThreshold,
		Appctl:            DefaultAppctl,
		Vsctl:             DefaultVsctl,
		SocketPath:        DefaultSocketPath,
		PidFile:           DefaultPidFile,
		LogFile:           DefaultLogFile,
		LogMaxSizeKiB:     DefaultLogMaxSizeKiB,
		LogBackups:        DefaultLogBackups,
	}
}

// Option mutates a Config in place; used by tests and by the CLI
// layer to apply flag overrides onto Default().
type Option func(*Config)

func WithSampleInterval(d time.Duration) Option    { return func(c *Config) { c.SampleInterval = d } }
func WithRebalanceInterval(d time.Duration) Option { return func(c *Config) { c.RebalanceInterval = d } }
func WithRebalanceN(n int) Option                  { return func(c *Config) { c.RebalanceN = n } }
func WithRebalanceIQ(on bool) Option                { return func(c *Config) { c.RebalanceIQ = on } }
func WithRebalance(on bool) Option                  { return func(c *Config) { c.Rebalance = on } }
func WithTrace(on bool) Option                      { return func(c *Config) { c.Trace = on } }
func WithTraceCallback(name string) Option          { return func(c *Config) { c.TraceCallback = name } }
func WithQuiet(on bool) Option                      { return func(c *Config) { c.Quiet = on } }
func WithVerbose(on bool) Option                    { return func(c *Config) { c.Verbose = on } }
func WithSocketPath(p string) Option                { return func(c *Config) { c.SocketPath = p } }
func WithPidFile(p string) Option                   { return func(c *Config) { c.PidFile = p } }
func WithLogFile(p string) Option                   { return func(c *Config) { c.LogFile = p } }

// New returns Default() with opts applied in order.
func New(opts ...Option) Config {
	cfg := Default()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// ExpandPath resolves a leading "~" in a user-supplied path (pidfile,
// socket, log-file flags) to the invoking user's home directory,
// leaving absolute and already-expanded paths untouched.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	return homedir.Expand(path)
}

// MinTicksBetweenCommits is R/S, the minimum number of sample ticks
// that must elapse between two commits (§4.F).
func (c Config) MinTicksBetweenCommits() int {
	if c.SampleInterval <= 0 {
		return 1
	}
	ticks := int(c.RebalanceInterval / c.SampleInterval)
	if ticks < 1 {
		ticks = 1
	}
	return ticks
}

// WindowSamples is N, the samples-per-window, capped at R/S per §4.F.
func (c Config) WindowSamples() int {
	n := c.RingLen
	if max := c.MinTicksBetweenCommits(); n > max {
		n = max
	}
	if n < 1 {
		n = 1
	}
	return n
}
