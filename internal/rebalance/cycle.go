package rebalance

import (
	"sort"

	"github.com/netcontrold/ncd/internal/estimator"
	"github.com/netcontrold/ncd/internal/model"
)

// bounceCursor walks 0..n-1..0..n-1... (a "snake"), reversing
// direction at either end instead of wrapping, so adjacent-ranked
// rxqs land on distinct PMDs near each list boundary (§4.E.1 step 4).
type bounceCursor struct {
	idx, dir int
}

func newBounceCursor() *bounceCursor { return &bounceCursor{idx: 0, dir: 1} }

func (c *bounceCursor) next(n int) int {
	if n <= 1 {
		return 0
	}
	cur := c.idx
	c.idx += c.dir
	if c.idx >= n {
		c.idx = n - 2
		c.dir = -1
	} else if c.idx < 0 {
		c.idx = 1
		c.dir = 1
	}
	return cur
}

// CycleOrdered performs the one-shot, topology-ordered dry-run rebalance
// (§4.E.1). cpuOrder is the platform round-robin-by-numa-then-core core
// id list (see CPUOrder). It returns the number of rxqs virtually
// moved, 0 for no moves, or -1 if not applicable (fewer than 2 PMDs or
// no PMD needs rebalancing).
func CycleOrdered(m *model.Model, cpuOrder []int) int {
	if len(m.PmdMap) < 2 {
		return -1
	}
	estimator.UpdateLoad(m)
	if !estimator.NeedRebalance(m, estimator.DefaultCoreThreshold) {
		return -1
	}

	rxqs := allRxqsSorted(m)
	if len(rxqs) == 0 {
		return 0
	}

	order := pmdOrder(m, cpuOrder, rxqs)

	busiest := make(map[int]int, len(m.PmdMap))
	for _, rxq := range rxqs {
		if rxq.Pmd == nil {
			continue
		}
		if _, ok := busiest[rxq.Pmd.ID]; !ok {
			busiest[rxq.Pmd.ID] = rxq.ID
		}
	}

	cursors := make(map[int]*bounceCursor)
	moves := 0

	for _, rxq := range rxqs {
		owner := rxq.Pmd
		if owner == nil || busiest[owner.ID] == rxq.ID {
			continue
		}

		numaOrder := filterNuma(order, m, owner.NumaID)
		if len(numaOrder) == 0 {
			continue
		}
		cs, ok := cursors[owner.NumaID]
		if !ok {
			cs = newBounceCursor()
			cursors[owner.NumaID] = cs
		}
		receiverID := numaOrder[cs.next(len(numaOrder))]
		receiver := m.Pmd(receiverID)
		if receiver == nil || receiver.ID == owner.ID {
			continue
		}

		move(rxq, owner, receiver)
		moves++
	}

	estimator.UpdateLoad(m)
	return moves
}

// allRxqsSorted collects every rxq currently live (in some port's
// RxqMap) across the whole model, sorted by descending sum(cpu_cyc).
func allRxqsSorted(m *model.Model) []*model.Rxq {
	seen := make(map[int]bool)
	var rxqs []*model.Rxq
	for _, pmd := range m.PmdMap {
		for _, port := range pmd.PortMap {
			for id, rxq := range port.RxqMap {
				key := rxq.Port.ID*100000 + id
				if seen[key] {
					continue
				}
				seen[key] = true
				rxqs = append(rxqs, rxq)
			}
		}
	}
	sort.Slice(rxqs, func(i, j int) bool {
		si, sj := rxqs[i].SumCpuCyc(), rxqs[j].SumCpuCyc()
		if si != sj {
			return si > sj
		}
		// stable tie-break for deterministic tests.
		if rxqs[i].Port.Name != rxqs[j].Port.Name {
			return rxqs[i].Port.Name < rxqs[j].Port.Name
		}
		return rxqs[i].ID < rxqs[j].ID
	})
	return rxqs
}

// pmdOrder builds the target PMD traversal order (§4.E.1 step 1):
// the platform round-robin order, filtered to cores with a live PMD,
// reordered so that PMDs owning the globally-busiest rxqs come first
// (in the order their busiest rxq was encountered), with any remaining
// PMDs appended in their original platform order.
func pmdOrder(m *model.Model, cpuOrder []int, rxqsSorted []*model.Rxq) []int {
	present := make(map[int]bool, len(cpuOrder))
	for _, id := range cpuOrder {
		if m.Pmd(id) != nil {
			present[id] = true
		}
	}

	var ordered []int
	added := make(map[int]bool)
	for _, rxq := range rxqsSorted {
		if rxq.Pmd == nil || added[rxq.Pmd.ID] || !present[rxq.Pmd.ID] {
			continue
		}
		ordered = append(ordered, rxq.Pmd.ID)
		added[rxq.Pmd.ID] = true
	}
	for _, id := range cpuOrder {
		if present[id] && !added[id] {
			ordered = append(ordered, id)
			added[id] = true
		}
	}
	// PMDs with no platform cpuinfo entry at all (e.g. test fixtures
	// that build a model directly): append in id order so they still
	// participate.
	var ids []int
	for id := range m.PmdMap {
		if !added[id] {
			ids = append(ids, id)
		}
	}
	sort.Ints(ids)
	ordered = append(ordered, ids...)
	return ordered
}

// filterNuma returns the subsequence of order whose PMDs belong to
// numaID.
func filterNuma(order []int, m *model.Model, numaID int) []int {
	var out []int
	for _, id := range order {
		if pmd := m.Pmd(id); pmd != nil && pmd.NumaID == numaID {
			out = append(out, id)
		}
	}
	return out
}
