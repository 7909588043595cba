package collector

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netcontrold/ncd/internal/model"
)

const interfacesFixture = `name                : "br0"
ofport              : 65534
type                : internal
statistics          : {rx_bytes=0, rx_packets=0, tx_bytes=0, tx_packets=0}

name                : "dpdk0"
ofport              : 1
type                : dpdk
statistics          : {rx_bytes=1024, rx_packets=10, tx_bytes=512, tx_packets=5, tx_retries=3}

name                : "dpdk1"
ofport              : 2
type                : dpdkvhostuser
statistics          : {rx_bytes=0, rx_packets=0, tx_bytes=0, tx_packets=0}
`

func TestParseInterfacesSetsTypeAndRetries(t *testing.T) {
	m := model.New(6)
	_, err := m.PortClass("dpdk0")
	require.NoError(t, err)
	_, err = m.PortClass("dpdk1")
	require.NoError(t, err)

	require.NoError(t, ParseInterfaces(m, interfacesFixture))

	assert.Equal(t, "dpdk", m.PortToCls["dpdk0"].Type)
	assert.Equal(t, int64(3), m.PortToCls["dpdk0"].TxRetryCyc.At(0))

	assert.Equal(t, "dpdkvhostuser", m.PortToCls["dpdk1"].Type)
	assert.Equal(t, int64(0), m.PortToCls["dpdk1"].TxRetryCyc.At(0))
}

func TestParseInterfacesDetectsPortSetChange(t *testing.T) {
	m := model.New(6)
	_, err := m.PortClass("dpdk0")
	require.NoError(t, err)
	require.NoError(t, ParseInterfaces(m, interfacesFixture))

	// simulate a port (registered by an earlier ParsePortStats call in
	// the same tick) that this interfaces dump doesn't mention.
	_, err = m.PortClass("dpdk2")
	require.NoError(t, err)

	err = ParseInterfaces(m, interfacesFixture)
	require.Error(t, err)
	assert.True(t, model.Recoverable(err))
}
