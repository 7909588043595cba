package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPmdDuplicateFails(t *testing.T) {
	m := New(6)
	_, err := m.AddPmd(0, 0)
	require.NoError(t, err)
	_, err = m.AddPmd(0, 0)
	require.Error(t, err)
	var merr *Error
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, KindInconsistency, merr.Kind)
}

func TestPortAddDeleteRxqInvariants(t *testing.T) {
	m := New(6)
	pmd, err := m.AddPmd(0, 0)
	require.NoError(t, err)
	port, err := pmd.AddPort("dpdk0", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, pmd.NumaID, port.NumaID)

	rxq, err := port.AddRxq(1)
	require.NoError(t, err)
	assert.Same(t, port, rxq.Port)

	_, err = port.AddRxq(1)
	require.Error(t, err)

	require.NoError(t, port.DelRxq(1))
	require.Error(t, port.DelRxq(1))
}

func TestSameTopologyDetectsChange(t *testing.T) {
	m := New(6)
	_, _ = m.AddPmd(0, 0)
	_, _ = m.AddPmd(1, 0)
	prev := m.PmdIDs()

	assert.True(t, m.SameTopology(prev))

	m.Clear()
	_, _ = m.AddPmd(0, 0)
	assert.False(t, m.SameTopology(prev))
}

func TestSameTopologyEmptyPrevAlwaysMatches(t *testing.T) {
	m := New(6)
	assert.True(t, m.SameTopology(nil))
}

func TestModelEqualIgnoresCursorPosition(t *testing.T) {
	a := New(3)
	pmdA, _ := a.AddPmd(0, 0)
	pmdA.RxCyc.Write(10)
	pmdA.RxCyc.Write(20)

	b := New(3)
	pmdB, _ := b.AddPmd(0, 0)
	// same values, different write order -> different cursor, same
	// sorted snapshot.
	pmdB.RxCyc.Write(20)
	pmdB.RxCyc.Write(10)

	assert.True(t, a.Equal(b))
}

func TestModelEqualDetectsDifference(t *testing.T) {
	a := New(3)
	_, _ = a.AddPmd(0, 0)
	b := New(3)
	_, _ = b.AddPmd(1, 0)
	assert.False(t, a.Equal(b))
}

func TestRxqAppearsInMapXorRebalanced(t *testing.T) {
	m := New(6)
	pmd, _ := m.AddPmd(0, 0)
	port, _ := pmd.AddPort("dpdk0", 3, 0)
	_, err := port.AddRxq(1)
	require.NoError(t, err)

	_, inMap := port.RxqMap[1]
	_, inRebal := port.RxqRebalanced[1]
	assert.True(t, inMap)
	assert.False(t, inRebal)

	require.NoError(t, port.DelRxq(1))
	port.RxqRebalanced[1] = 2

	_, inMap = port.RxqMap[1]
	_, inRebal = port.RxqRebalanced[1]
	assert.False(t, inMap)
	assert.True(t, inRebal)
}
