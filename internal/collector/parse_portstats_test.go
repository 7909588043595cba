package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netcontrold/ncd/internal/model"
)

const portStatsFixture = `port 0: br0 (internal)
  RX packets:0 errors:0 dropped:0 overruns:0 frame:0
  TX packets:0 errors:0 dropped:0 aborted:0 collisions:0
port 1: dpdk0
  RX packets:1000 errors:0 dropped:5 overruns:0 frame:0
  TX packets:900 errors:0 dropped:2 aborted:0 collisions:0
port 2: dpdk1
  RX packets:2000 errors:0 dropped:0 overruns:0 frame:0
  TX packets:1800 errors:0 dropped:0 aborted:0 collisions:0
`

func TestParsePortStatsPopulatesPorts(t *testing.T) {
	m := model.New(6)
	require.NoError(t, ParsePortStats(m, portStatsFixture))

	assert.Equal(t, 1, m.PortToID["dpdk0"])
	assert.Equal(t, 2, m.PortToID["dpdk1"])

	port := m.PortToCls["dpdk0"]
	require.NotNil(t, port)
	assert.Equal(t, int64(1000), port.RxCyc.At(0))
	assert.Equal(t, int64(5), port.RxDropCyc.At(0))
	assert.Equal(t, int64(900), port.TxCyc.At(0))
	assert.Equal(t, int64(2), port.TxDropCyc.At(0))
}

func TestParsePortStatsAdvancesCursorOnSecondSample(t *testing.T) {
	m := model.New(6)
	require.NoError(t, ParsePortStats(m, portStatsFixture))
	require.NoError(t, ParsePortStats(m, portStatsFixture))

	port := m.PortToCls["dpdk0"]
	assert.Equal(t, 1, port.CycIdx)
}

func TestParsePortStatsDetectsPortSetChange(t *testing.T) {
	m := model.New(6)
	require.NoError(t, ParsePortStats(m, portStatsFixture))

	grown := portStatsFixture + `port 3: dpdk2
  RX packets:500 errors:0 dropped:0 overruns:0 frame:0
  TX packets:400 errors:0 dropped:0 aborted:0 collisions:0
`
	err := ParsePortStats(m, grown)
	require.Error(t, err)
	assert.True(t, model.Recoverable(err))
}
