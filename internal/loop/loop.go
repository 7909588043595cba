// Package loop implements the cooperative, single-threaded decision
// loop (§4.F): sample, evaluate, dry-run, resample, and conditionally
// commit a better rxq placement.
package loop

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/netcontrold/ncd/internal/collector"
	"github.com/netcontrold/ncd/internal/config"
	"github.com/netcontrold/ncd/internal/emitter"
	"github.com/netcontrold/ncd/internal/estimator"
	"github.com/netcontrold/ncd/internal/exec"
	"github.com/netcontrold/ncd/internal/logging"
	"github.com/netcontrold/ncd/internal/metrics"
	"github.com/netcontrold/ncd/internal/model"
	"github.com/netcontrold/ncd/internal/rebalance"
)

// Clock abstracts time.Sleep so tests can run the loop without
// waiting on real wall-clock time.
type Clock interface {
	Sleep(d time.Duration)
	Now() time.Time
}

// RealClock sleeps and reads the system clock for real.
type RealClock struct{}

func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }
func (RealClock) Now() time.Time        { return time.Now() }

// Loop owns every piece of state the decision loop touches: the model,
// the collector/emitter seams, the shared flags and event log, and
// the tick counters that gate commit cadence.
type Loop struct {
	Cfg       config.Config
	Collector *collector.Collector
	Exec      exec.Executor
	CPUOrder  []int
	Clock     Clock
	Flags     *Flags
	Events    *EventLog

	model         *model.Model
	ticksSinceApply int
}

// New returns a Loop ready to Run.
func New(cfg config.Config, col *collector.Collector, ex exec.Executor, cpuOrder []int, clock Clock) *Loop {
	if clock == nil {
		clock = RealClock{}
	}
	return &Loop{
		Cfg:       cfg,
		Collector: col,
		Exec:      ex,
		CPUOrder:  cpuOrder,
		Clock:     clock,
		Flags:     NewFlags(cfg.Trace, cfg.Rebalance, cfg.Verbose),
		Events:    &EventLog{},
		model:     model.New(cfg.RingLen),
	}
}

// Run executes the decision loop until ctx is cancelled or a
// non-recoverable error escapes a tick. A cancelled context always
// runs the shutdown cleanup path before returning.
func (l *Loop) Run(ctx context.Context) error {
	windowFull := false

	for {
		select {
		case <-ctx.Done():
			return l.shutdown(context.Background())
		default:
		}

		if err := l.sampleWindow(ctx, windowFull); err != nil {
			if err := l.handleError(ctx, err); err != nil {
				return err
			}
			windowFull = false
			continue
		}
		windowFull = true

		if l.Cfg.Trace || l.Flags.Trace() {
			if err := Trace(ctx, l.Exec, l.model, l.Cfg.TraceCallback, l.Cfg.DropPPMThresh, l.Cfg.TxRetryThresh); err != nil {
				logging.Logger.Warnw("trace callback failed", "error", err)
			}
		}

		estimator.UpdateLoad(l.model)
		l.reportLoadMetrics()
		threshold := l.Cfg.CoreThreshold
		if !l.Flags.RebalMode() || !estimator.NeedRebalance(l.model, threshold) {
			l.clearModel()
			continue
		}

		if err := l.dryRunAndMaybeCommit(ctx); err != nil {
			if err := l.handleError(ctx, err); err != nil {
				return err
			}
		}

		l.clearModel()
		windowFull = false
	}
}

// sampleWindow runs K ticks (N cold, 1 once a window is already full
// and quick mode is in effect) with S-second sleeps between them.
func (l *Loop) sampleWindow(ctx context.Context, windowFull bool) error {
	k := l.Cfg.WindowSamples()
	if windowFull && l.Flags.RebalQuick() {
		k = 1
	}
	for i := 0; i < k; i++ {
		if err := l.Collector.Collect(ctx, l.model); err != nil {
			return err
		}
		l.Clock.Sleep(l.Cfg.SampleInterval)
	}
	return nil
}

// dryRunAndMaybeCommit runs the configured rebalancer, resamples to
// measure improvement, and commits if it clears the minimum
// improvement bar and the minimum inter-commit tick count.
func (l *Loop) dryRunAndMaybeCommit(ctx context.Context) error {
	prevVar := estimator.FleetVariance(l.model)

	maxIters := l.Cfg.RebalanceN
	if maxIters < 1 {
		maxIters = 1
	}
	apply := false
	totalMoves := 0

	for iter := 0; iter < maxIters; iter++ {
		var moves int
		if l.Cfg.RebalanceIQ {
			moves = rebalance.Iterative(l.model, l.Cfg.CoreThreshold, 1)
		} else {
			moves = rebalance.CycleOrdered(l.model, l.CPUOrder)
		}
		if moves <= 0 {
			break
		}
		totalMoves += moves
		metrics.RebalanceMovesTotal.Add(float64(moves))

		if err := l.sampleWindow(ctx, true); err != nil {
			return err
		}
		estimator.UpdateLoad(l.model)
		l.reportLoadMetrics()
		curVar := estimator.FleetVariance(l.model)

		if prevVar > 0 && (prevVar-curVar)/prevVar*100 >= l.Cfg.MinImprovementPct {
			apply = true
		}
		prevVar = curVar

		if !l.Cfg.RebalanceIQ {
			break // cycle-ordered is capped at one iteration
		}
		if !apply {
			break
		}
	}

	l.ticksSinceApply++
	if apply && totalMoves > 0 && l.ticksSinceApply >= l.Cfg.MinTicksBetweenCommits() {
		l.commit(ctx)
		l.ticksSinceApply = 0
	}
	return nil
}

func (l *Loop) commit(ctx context.Context) {
	result := emitter.RenderCommit(l.model, l.Cfg.Vsctl)
	for _, skip := range result.Skipped {
		l.Events.Append(skip.Port, "skip", l.Clock.Now())
	}
	if result.Command == "" {
		return
	}

	if _, err := l.Exec.Exec(ctx, result.Command); err != nil {
		l.Events.Append("-", "switch_error", l.Clock.Now())
		metrics.SwitchErrorsTotal.Inc()
		logging.Logger.Warnw("commit failed", "error", err)
		return
	}

	l.markRebalanced()
	l.Events.Append("-", "rebalance", l.Clock.Now())
	metrics.CommitsTotal.Inc()
}

// reportLoadMetrics mirrors the model's current PmdLoad and fleet
// variance onto the Prometheus gauges.
func (l *Loop) reportLoadMetrics() {
	for id, pmd := range l.model.PmdMap {
		metrics.PmdLoad.WithLabelValues(strconv.Itoa(id)).Set(pmd.PmdLoad)
	}
	metrics.FleetLoadVariance.Set(estimator.FleetVariance(l.model))
}

// markRebalanced sets Rebalance on every port the dry-run touched, so
// the shutdown cleanup path knows which ports to clear.
func (l *Loop) markRebalanced() {
	for _, port := range l.model.PortToCls {
		if len(port.RxqRebalanced) > 0 {
			port.Rebalance = true
		}
	}
}

func (l *Loop) clearModel() {
	l.model = model.New(l.Cfg.RingLen)
}

// handleError applies §7's recovery rule: ModelChangedError and
// ParseError are caught, logged, and the window restarted; everything
// else (including a ShutdownRequest) escapes to the shutdown path.
func (l *Loop) handleError(ctx context.Context, err error) error {
	var merr *model.Error
	if errors.As(err, &merr) && model.Recoverable(err) {
		name := "retry_parse"
		if merr.Kind == model.KindModelChanged {
			name = "retry_model"
		}
		l.Events.Append("-", name, l.Clock.Now())
		l.clearModel()
		l.Clock.Sleep(l.Cfg.SampleInterval)
		return nil
	}

	if errors.As(err, &merr) && merr.Kind == model.KindOsCommand {
		l.Events.Append("-", "switch_error", l.Clock.Now())
		metrics.SwitchErrorsTotal.Inc()
	}

	_ = l.shutdown(ctx)
	return err
}

// shutdown runs the always-on cleanup: clear affinity on every port
// ever rebalanced (§7).
func (l *Loop) shutdown(ctx context.Context) error {
	cmd := emitter.RenderCleanup(l.model, l.Cfg.Vsctl)
	if cmd != "" {
		if _, err := l.Exec.Exec(ctx, cmd); err != nil {
			logging.Logger.Warnw("shutdown cleanup failed", "error", err)
		}
	}
	return nil
}
