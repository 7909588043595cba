package rebalance

import (
	"sort"

	"github.com/netcontrold/ncd/internal/estimator"
	"github.com/netcontrold/ncd/internal/model"
)

// candidateRing is a round-robin cursor over one numa's idle-candidate
// PMD ids; entries are removed in place once a candidate crosses the
// load threshold (§4.E.2 step 3).
type candidateRing struct {
	ids []int
	pos int
}

func (c *candidateRing) next() (int, bool) {
	if len(c.ids) == 0 {
		return 0, false
	}
	id := c.ids[c.pos%len(c.ids)]
	c.pos++
	return id, true
}

func (c *candidateRing) remove(id int) {
	for i, v := range c.ids {
		if v == id {
			c.ids = append(c.ids[:i], c.ids[i+1:]...)
			break
		}
	}
	if len(c.ids) > 0 {
		c.pos %= len(c.ids)
	} else {
		c.pos = 0
	}
}

// Iterative performs the idle-queue dry-run rebalance (§4.E.2):
// repeatedly hands a busy PMD's least-loaded rxq to the least-loaded
// same-numa idle PMD, up to maxIterations passes or until a pass moves
// nothing. Returns the total rxqs moved, or -1 if not applicable
// (fewer than 2 PMDs or no PMD needs rebalancing).
func Iterative(m *model.Model, threshold float64, maxIterations int) int {
	if len(m.PmdMap) < 2 {
		return -1
	}
	estimator.UpdateLoad(m)
	if !estimator.NeedRebalance(m, threshold) {
		return -1
	}

	total := 0
	for i := 0; i < maxIterations; i++ {
		moved := iterativePass(m, threshold)
		total += moved
		estimator.UpdateLoad(m)
		if moved == 0 || !estimator.NeedRebalance(m, threshold) {
			break
		}
	}
	return total
}

func iterativePass(m *model.Model, threshold float64) int {
	var pmds []*model.Pmd
	for _, pmd := range m.PmdMap {
		pmds = append(pmds, pmd)
	}
	sort.Slice(pmds, func(i, j int) bool { return pmds[i].PmdLoad < pmds[j].PmdLoad })

	candidatesByNuma := make(map[int]*candidateRing)
	for _, pmd := range pmds {
		if pmd.PmdLoad > threshold {
			continue
		}
		if pmd.CountRxq() == 1 && pmd.PmdLoad >= threshold {
			continue
		}
		cr := candidatesByNuma[pmd.NumaID]
		if cr == nil {
			cr = &candidateRing{}
			candidatesByNuma[pmd.NumaID] = cr
		}
		cr.ids = append(cr.ids, pmd.ID)
	}

	var busy []*model.Pmd
	for i := len(pmds) - 1; i >= 0; i-- {
		if pmds[i].PmdLoad > threshold {
			busy = append(busy, pmds[i])
		}
	}

	moves := 0
	for _, donor := range busy {
		portNames := make([]string, 0, len(donor.PortMap))
		for name := range donor.PortMap {
			portNames = append(portNames, name)
		}
		sort.Strings(portNames)

		for _, name := range portNames {
			if donor.CountRxq() <= 1 {
				break
			}
			port := donor.PortMap[name]
			if len(port.RxqMap) == 0 {
				continue
			}

			cr := candidatesByNuma[donor.NumaID]
			candidateID, ok := nextNonSelf(cr, donor.ID)
			if !ok {
				continue
			}
			receiver := m.Pmd(candidateID)
			if receiver == nil {
				continue
			}

			rxqs := make([]*model.Rxq, 0, len(port.RxqMap))
			for _, rxq := range port.RxqMap {
				rxqs = append(rxqs, rxq)
			}
			sort.Slice(rxqs, func(i, j int) bool { return rxqs[i].SumCpuCyc() < rxqs[j].SumCpuCyc() })

			move(rxqs[0], donor, receiver)
			moves++

			donor.PmdLoad = estimator.Load(donor)
			receiver.PmdLoad = estimator.Load(receiver)
			if receiver.PmdLoad >= threshold {
				cr.remove(receiver.ID)
			}
		}
	}
	return moves
}

// nextNonSelf draws from cr, skipping an id equal to self (a donor
// should never be offered as its own receiver); it tries at most
// len(cr.ids) times before giving up.
func nextNonSelf(cr *candidateRing, self int) (int, bool) {
	if cr == nil {
		return 0, false
	}
	tries := len(cr.ids)
	for i := 0; i < tries; i++ {
		id, ok := cr.next()
		if !ok {
			return 0, false
		}
		if id != self {
			return id, true
		}
	}
	return 0, false
}
