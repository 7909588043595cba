// Package emitter renders the switch command that commits a dry-run's
// rxq placement (§4.G), and the cleanup command that clears affinity
// on shutdown.
package emitter

import (
	"fmt"
	"sort"
	"strings"

	"github.com/netcontrold/ncd/internal/model"
)

// SkipEvent records a port the model believed existed but the switch
// no longer reports; callers append these to the event log rather
// than treating them as fatal (§4.G: "skipped with a skip event, no
// crash").
type SkipEvent struct {
	Port string
}

// Result is a rendered commit: the command line to execute (empty if
// there is nothing to commit) and any ports skipped during rendering.
type Result struct {
	Command string
	Skipped []SkipEvent
}

// RenderCommit builds the ovs-vsctl command that applies the model's
// current (possibly dry-run-adjusted) rxq->pmd placement.
//
// Policy: exactly one PMD per observed numa is left non-isolated — no
// affinity lines are emitted for its ports, and any port it still
// holds gets an explicit removal clause to clear whatever affinity
// was set on a previous commit. Every other PMD gets one
// pmd-rxq-affinity clause per port, concatenating all the rxqs the
// dry-run placed on it for that port.
//
// Before rendering, RenderCommit refreshes each referenced port's id
// from m.PortToID; a port no longer reported by the switch is skipped
// rather than emitted.
func RenderCommit(m *model.Model, vsctl string) Result {
	nonIsolated := pickNonIsolatedPerNuma(m)

	type portAffinity struct {
		port  *model.Port
		pairs []string
	}
	var affinities []portAffinity
	var removals []*model.Port
	var result Result

	seenPorts := make(map[string]bool)

	pmdIDs := m.PmdIDs()
	for _, pmdID := range pmdIDs {
		pmd := m.Pmd(pmdID)
		isNonIsolated := nonIsolated[pmd.NumaID] == pmd.ID

		names := make([]string, 0, len(pmd.PortMap))
		for name := range pmd.PortMap {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			port := pmd.PortMap[name]
			if len(port.RxqMap) == 0 {
				continue
			}
			id, ok := m.PortToID[name]
			if !ok {
				if !seenPorts[name] {
					result.Skipped = append(result.Skipped, SkipEvent{Port: name})
					seenPorts[name] = true
				}
				continue
			}
			port.ID = id
			seenPorts[name] = true

			if isNonIsolated {
				removals = append(removals, port)
				continue
			}

			qids := make([]int, 0, len(port.RxqMap))
			for qid := range port.RxqMap {
				qids = append(qids, qid)
			}
			sort.Ints(qids)

			pairs := make([]string, len(qids))
			for i, qid := range qids {
				pairs[i] = fmt.Sprintf("%d:%d", qid, pmd.ID)
			}
			affinities = append(affinities, portAffinity{port: port, pairs: pairs})
		}
	}

	if len(affinities) == 0 && len(removals) == 0 {
		return result
	}

	var clauses []string
	for _, a := range affinities {
		clauses = append(clauses, fmt.Sprintf("set Interface %s other_config:pmd-rxq-affinity=%s",
			a.port.Name, strings.Join(a.pairs, ",")))
	}
	for _, p := range removals {
		clauses = append(clauses, fmt.Sprintf("remove Interface %s other_config pmd-rxq-affinity", p.Name))
	}

	result.Command = fmt.Sprintf("%s --no-wait -- %s", vsctl, strings.Join(clauses, " -- "))
	return result
}

// RenderCleanup builds the shutdown command that clears affinity on
// every port the daemon ever rebalanced (any port with Rebalance set),
// regardless of its current placement (§7: "the shutdown routine
// clears any affinity set on ports it rebalanced").
func RenderCleanup(m *model.Model, vsctl string) string {
	var names []string
	for name, port := range m.PortToCls {
		if port.Rebalance {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)

	var clauses []string
	for _, name := range names {
		clauses = append(clauses, fmt.Sprintf("remove Interface %s other_config pmd-rxq-affinity", name))
	}
	return fmt.Sprintf("%s --no-wait -- %s", vsctl, strings.Join(clauses, " -- "))
}

// pickNonIsolatedPerNuma selects one PMD id to leave non-isolated for
// each numa actually present in the model — the lowest core id
// observed on that numa in this tick, not a running counter carried
// across ticks (a counter can drift onto a numa that no longer has any
// PMDs, or skip one that just appeared).
func pickNonIsolatedPerNuma(m *model.Model) map[int]int {
	best := make(map[int]int)
	ids := m.PmdIDs()
	for _, id := range ids {
		pmd := m.Pmd(id)
		if cur, ok := best[pmd.NumaID]; !ok || pmd.ID < cur {
			best[pmd.NumaID] = pmd.ID
		}
	}
	return best
}
