package rebalance

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/netcontrold/ncd/internal/model"
)

func writeAll(r interface{ Write(int64) }, vals ...int64) {
	for _, v := range vals {
		r.Write(v)
	}
}

// loadPmd wires a pmd's three rings so Load(pmd) comes out to the
// given percentage, using a 2-slot ring and a single Δrx=1000 window.
func loadPmd(t *testing.T, pmd *model.Pmd, pct float64) {
	t.Helper()
	proc := int64(pct * 10) // Δproc such that proc/1000*100 == pct, with cpp==1
	idle := int64(1000) - proc
	writeAll(pmd.RxCyc, 0, 1000)
	writeAll(pmd.IdleCpuCyc, 0, idle)
	writeAll(pmd.ProcCpuCyc, 0, proc)
}

func addRxqWithCyc(t *testing.T, pmd *model.Pmd, port *model.Port, id int, cpuCyc int64) *model.Rxq {
	t.Helper()
	rxq, err := port.AddRxq(id)
	require.NoError(t, err)
	rxq.CpuCyc.Write(cpuCyc)
	rxq.RxCyc.Write(cpuCyc)
	rxq.Pmd = pmd
	return rxq
}

func TestCycleOrderedSinglePmdNotApplicable(t *testing.T) {
	m := model.New(2)
	pmd, _ := m.AddPmd(0, 0)
	loadPmd(t, pmd, 99)
	assert.Equal(t, -1, CycleOrdered(m, []int{0}))
}

func TestCycleOrderedBalancedFleetDoesNothing(t *testing.T) {
	m := model.New(2)
	pmd1, _ := m.AddPmd(1, 0)
	pmd2, _ := m.AddPmd(2, 0)
	loadPmd(t, pmd1, 50)
	loadPmd(t, pmd2, 50)
	assert.LessOrEqual(t, CycleOrdered(m, []int{1, 2}), 0)
}

func TestCycleOrderedNeverMovesBusiestRxqAndHonoursSnakeWalk(t *testing.T) {
	m := model.New(2)
	pmd1, _ := m.AddPmd(1, 0)
	pmd2, _ := m.AddPmd(2, 0)
	loadPmd(t, pmd1, 95)
	loadPmd(t, pmd2, 10)

	port1, err := pmd1.AddPort("p0", 1, 0)
	require.NoError(t, err)
	busiest := addRxqWithCyc(t, pmd1, port1, 1, 9000)
	mid := addRxqWithCyc(t, pmd1, port1, 2, 1000)
	small := addRxqWithCyc(t, pmd1, port1, 3, 500)

	moves := CycleOrdered(m, []int{1, 2})
	require.Equal(t, 1, moves)

	assert.Same(t, pmd1, busiest.Pmd, "busiest rxq of a pmd must never move")
	assert.Same(t, pmd1, mid.Pmd, "first cursor slot lands back on the owner: no move")
	assert.Same(t, pmd2, small.Pmd, "second cursor slot should land on the idle same-numa pmd")

	_, stillOwned := port1.RxqMap[3]
	assert.False(t, stillOwned)
	assert.Equal(t, 2, port1.RxqRebalanced[3])
}

func TestCycleOrderedNeverCrossesNumaBoundary(t *testing.T) {
	m := model.New(2)
	pmd1, _ := m.AddPmd(1, 0)
	pmd2, _ := m.AddPmd(2, 1) // different numa: ineligible receiver
	loadPmd(t, pmd1, 95)
	loadPmd(t, pmd2, 10)

	port1, err := pmd1.AddPort("p0", 1, 0)
	require.NoError(t, err)
	addRxqWithCyc(t, pmd1, port1, 1, 9000)
	small := addRxqWithCyc(t, pmd1, port1, 2, 500)

	moves := CycleOrdered(m, []int{1, 2})
	assert.Equal(t, 0, moves)
	assert.Same(t, pmd1, small.Pmd)
}
