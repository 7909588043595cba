package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netcontrold/ncd/internal/collector"
	"github.com/netcontrold/ncd/internal/config"
	"github.com/netcontrold/ncd/internal/exec"
	"github.com/netcontrold/ncd/internal/model"
)

// fakeClock never actually sleeps, so tests run instantly regardless
// of configured SampleInterval.
type fakeClock struct{ now time.Time }

func (c *fakeClock) Sleep(time.Duration) {}
func (c *fakeClock) Now() time.Time      { return c.now }

func newTestConfig() config.Config {
	cfg := config.Default()
	cfg.RingLen = 2
	cfg.RebalanceN = 3
	cfg.Appctl = "ovs-appctl"
	cfg.Vsctl = "ovs-vsctl"
	return cfg
}

func TestLoopReturnsOnNonRecoverableCollectError(t *testing.T) {
	cfg := newTestConfig()
	cmds := collector.DefaultCommands(cfg.Appctl, cfg.Vsctl)
	fake := exec.NewFake()
	// No outputs registered at all: every Collect call fails with a
	// KindOsCommand error, which is NOT recoverable, so Run must
	// return promptly rather than loop forever.
	col := collector.New(fake, cmds)

	l := New(cfg, col, fake, nil, &fakeClock{})

	// No outputs registered in fake: the very first Collect call fails
	// with a non-recoverable KindOsCommand error, so Run must return
	// that error rather than looping forever.
	err := l.Run(context.Background())
	require.Error(t, err)
}

func TestHandleErrorRecoversFromModelChanged(t *testing.T) {
	cfg := newTestConfig()
	cmds := collector.DefaultCommands(cfg.Appctl, cfg.Vsctl)
	fake := exec.NewFake()
	col := collector.New(fake, cmds)
	l := New(cfg, col, fake, nil, &fakeClock{now: time.Unix(0, 0)})

	err := model.NewModelChangedError("port set changed between samples")
	handleErr := l.handleError(context.Background(), err)

	assert.NoError(t, handleErr)
	events := l.Events.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "retry_model", events[0].Name)
}

func TestHandleErrorRecoversFromParseError(t *testing.T) {
	cfg := newTestConfig()
	cmds := collector.DefaultCommands(cfg.Appctl, cfg.Vsctl)
	fake := exec.NewFake()
	col := collector.New(fake, cmds)
	l := New(cfg, col, fake, nil, &fakeClock{now: time.Unix(0, 0)})

	err := model.NewParseError("NOT AVAIL")
	handleErr := l.handleError(context.Background(), err)

	assert.NoError(t, handleErr)
	events := l.Events.Snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "retry_parse", events[0].Name)
}

func TestHandleErrorEscalatesInconsistency(t *testing.T) {
	cfg := newTestConfig()
	cmds := collector.DefaultCommands(cfg.Appctl, cfg.Vsctl)
	fake := exec.NewFake()
	col := collector.New(fake, cmds)
	l := New(cfg, col, fake, nil, &fakeClock{now: time.Unix(0, 0)})

	err := model.NewInconsistencyError("pmd 3 numa mismatch")
	handleErr := l.handleError(context.Background(), err)

	assert.Error(t, handleErr)
	assert.Equal(t, err, handleErr)
}

func TestCommitSkipsWhenRebalancerFindsNoMoves(t *testing.T) {
	cfg := newTestConfig()
	cmds := collector.DefaultCommands(cfg.Appctl, cfg.Vsctl)
	fake := exec.NewFake()
	col := collector.New(fake, cmds)
	l := New(cfg, col, fake, []int{0, 1}, &fakeClock{now: time.Unix(0, 0)})

	// A bare, empty model: no pmds at all, so both rebalancers are a
	// guaranteed no-op and dryRunAndMaybeCommit must not call Exec.
	err := l.dryRunAndMaybeCommit(context.Background())
	require.NoError(t, err)
	assert.Empty(t, fake.Calls)
}

func TestMarkRebalancedSetsFlagOnlyForTouchedPorts(t *testing.T) {
	m := model.New(2)
	untouched, err := m.PortClass("dpdk0")
	require.NoError(t, err)
	touched, err := m.PortClass("dpdk1")
	require.NoError(t, err)
	touched.RxqRebalanced[0] = 7

	cfg := newTestConfig()
	cmds := collector.DefaultCommands(cfg.Appctl, cfg.Vsctl)
	fake := exec.NewFake()
	col := collector.New(fake, cmds)
	l := New(cfg, col, fake, nil, &fakeClock{now: time.Unix(0, 0)})
	l.model = m

	l.markRebalanced()
	assert.False(t, untouched.Rebalance)
	assert.True(t, touched.Rebalance)
}
