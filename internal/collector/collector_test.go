package collector

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netcontrold/ncd/internal/exec"
	"github.com/netcontrold/ncd/internal/model"
)

func TestCollectorRunsAllFourParsesInOrder(t *testing.T) {
	cmds := DefaultCommands("ovs-appctl", "ovs-vsctl")
	fake := exec.NewFake()
	fake.Outputs[cmds.PortStats] = portStatsFixture
	fake.Outputs[cmds.Interfaces] = interfacesFixture
	fake.Outputs[cmds.PmdStats] = pmdStatsFixture
	fake.Outputs[cmds.PmdRxqs] = `pmd thread numa_id 0 core_id 1:
  isolated : false
  port: dpdk0            queue-id:  0  pmd usage: 30 %

pmd thread numa_id 0 core_id 2:
  isolated : false
  port: dpdk1            queue-id:  0  pmd usage: 70 %
`

	c := New(fake, cmds)
	m := model.New(6)
	require.NoError(t, c.Collect(context.Background(), m))

	assert.Equal(t, []string{cmds.PortStats, cmds.Interfaces, cmds.PmdStats, cmds.PmdRxqs}, fake.Calls)
	assert.NotNil(t, m.Pmd(1))
	assert.NotNil(t, m.Pmd(2))
	assert.Equal(t, "dpdk", m.PortToCls["dpdk0"].Type)
}

func TestCollectorStopsOnOsCommandError(t *testing.T) {
	cmds := DefaultCommands("ovs-appctl", "ovs-vsctl")
	fake := exec.NewFake()
	// PortStats deliberately left unregistered -> fake returns OsCommandError.

	c := New(fake, cmds)
	m := model.New(6)
	err := c.Collect(context.Background(), m)
	require.Error(t, err)
	assert.False(t, model.Recoverable(err))
	assert.Equal(t, []string{cmds.PortStats}, fake.Calls)
}
