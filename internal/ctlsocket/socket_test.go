package ctlsocket

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netcontrold/ncd/internal/exec"
	"github.com/netcontrold/ncd/internal/loop"
)

func startTestServer(t *testing.T) (*Server, *Client, *loop.Flags, *loop.EventLog) {
	t.Helper()
	sockPath := filepath.Join(t.TempDir(), "ncd-ctl.sock")

	flags := loop.NewFlags(false, true, false)
	events := &loop.EventLog{}
	fake := exec.NewFake()
	fake.Outputs["ovs-vsctl -V"] = "ovs-vsctl (Open vSwitch) 3.1.0\n"

	srv, err := NewServer(sockPath, flags, events, fake, "ovs-vsctl")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	go srv.Serve(ctx)
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})

	return srv, NewClient(sockPath), flags, events
}

func TestClientTraceToggle(t *testing.T) {
	_, client, flags, _ := startTestServer(t)

	require.NoError(t, client.TraceOn())
	assert.True(t, flags.Trace())

	require.NoError(t, client.TraceOff())
	assert.False(t, flags.Trace())
}

func TestClientRebalToggle(t *testing.T) {
	_, client, flags, _ := startTestServer(t)

	require.NoError(t, client.RebalOff())
	assert.False(t, flags.RebalMode())

	require.NoError(t, client.RebalOn())
	assert.True(t, flags.RebalMode())
}

func TestClientRebalCount(t *testing.T) {
	_, client, _, events := startTestServer(t)

	events.Append("dpdk0", "rebalance", time.Now())
	events.Append("dpdk1", "skip", time.Now())
	events.Append("dpdk2", "rebalance", time.Now())

	n, err := client.RebalCount()
	require.NoError(t, err)
	assert.Equal(t, "2", n)
}

func TestClientConfigReflectsFlags(t *testing.T) {
	_, client, flags, _ := startTestServer(t)
	flags.SetVerbose(true)

	cfg, err := client.Config()
	require.NoError(t, err)
	assert.Contains(t, cfg, "verbose log: on")
	assert.Contains(t, cfg, "rebalance mode: on")
	assert.Contains(t, cfg, "trace mode: off")
}

func TestClientStatusRendersEvents(t *testing.T) {
	_, client, _, events := startTestServer(t)
	events.Append("dpdk0", "rebalance", time.Now())

	status, err := client.Status()
	require.NoError(t, err)
	assert.Contains(t, status, "dpdk0")
	assert.Contains(t, status, "rebalance")
}

func TestClientVersion(t *testing.T) {
	_, client, _, _ := startTestServer(t)

	v, err := client.Version()
	require.NoError(t, err)
	assert.Contains(t, v, "ncd")
	assert.Contains(t, v, "3.1.0")
}
