package command

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"github.com/netcontrold/ncd/internal/collector"
	"github.com/netcontrold/ncd/internal/config"
	"github.com/netcontrold/ncd/internal/ctlsocket"
	"github.com/netcontrold/ncd/internal/exec"
	"github.com/netcontrold/ncd/internal/logging"
	"github.com/netcontrold/ncd/internal/loop"
	"github.com/netcontrold/ncd/internal/metrics"
	"github.com/netcontrold/ncd/internal/pidfile"
	"github.com/netcontrold/ncd/internal/rebalance"
	"github.com/netcontrold/ncd/internal/version"
)

func cmdRun(cliCtx *cli.Context) error {
	expSocket, err := config.ExpandPath(socketPath)
	if err != nil {
		return fmt.Errorf("expand --socket: %w", err)
	}
	expPidFile, err := config.ExpandPath(pidFile)
	if err != nil {
		return fmt.Errorf("expand --pidfile: %w", err)
	}
	expLogFile, err := config.ExpandPath(logFile)
	if err != nil {
		return fmt.Errorf("expand --logfile: %w", err)
	}

	cfg := config.New(
		config.WithSampleInterval(time.Duration(sampleInterval)*time.Second),
		config.WithRebalanceInterval(time.Duration(rebalanceInterval)*time.Second),
		config.WithRebalanceN(rebalanceN),
		config.WithRebalanceIQ(rebalanceIQ),
		config.WithRebalance(rebalance),
		config.WithTrace(trace),
		config.WithTraceCallback(traceCallback),
		config.WithQuiet(quiet),
		config.WithVerbose(verbose),
		config.WithSocketPath(expSocket),
		config.WithPidFile(expPidFile),
		config.WithLogFile(expLogFile),
	)
	if appctl != "" {
		cfg.Appctl = appctl
	}
	if vsctl != "" {
		cfg.Vsctl = vsctl
	}

	level := zap.NewAtomicLevelAt(zap.InfoLevel)
	if cfg.Verbose {
		level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	if cfg.Quiet {
		level = zap.NewAtomicLevelAt(zap.WarnLevel)
	}
	logging.Logger = logging.CreateLogger(level, cfg.LogFile, cfg.LogMaxSizeKiB/1024, cfg.LogBackups)

	logging.Logger.Infow("starting ncd", "version", version.Version)

	if err := pidfile.Acquire(cfg.PidFile); err != nil {
		return fmt.Errorf("acquire pidfile: %w", err)
	}
	defer pidfile.Release(cfg.PidFile)

	cpuOrder, err := rebalance.CPUOrder("/proc/cpuinfo")
	if err != nil {
		logging.Logger.Warnw("falling back to empty cpu order", "error", err)
	}

	ex := exec.Host{}
	col := collector.New(ex, collector.DefaultCommands(cfg.Appctl, cfg.Vsctl))
	clock := loop.RealClock{}
	l := loop.New(cfg, col, ex, cpuOrder, clock)

	srv, err := ctlsocket.NewServer(cfg.SocketPath, l.Flags, l.Events, ex, cfg.Vsctl)
	if err != nil {
		return fmt.Errorf("start control socket: %w", err)
	}
	defer srv.Close()

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	signals := make(chan os.Signal, 8)
	done := handleSignals(rootCancel, signals)
	notifySignals(signals)

	go func() {
		if err := srv.Serve(rootCtx); err != nil {
			logging.Logger.Warnw("control socket exited", "error", err)
		}
	}()

	if cliCtx.GlobalString("metrics-address") != "" {
		go func() {
			if err := metrics.Serve(rootCtx, cliCtx.GlobalString("metrics-address")); err != nil {
				logging.Logger.Warnw("metrics server exited", "error", err)
			}
		}()
	}

	notifyReady()

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- l.Run(rootCtx)
	}()

	select {
	case <-done:
		return nil
	case err := <-loopErr:
		rootCancel()
		<-done
		return err
	}
}
