package collector

import (
	"bufio"
	"strings"

	"github.com/netcontrold/ncd/internal/model"
)

// ParsePmdRxqs consumes the output of "<sw-ctl> dpif-netdev/pmd-rxq-show"
// and pins each reported rxq to its current pmd/port, creating rxqs on
// first sight and moving them if the switch has re-pinned them since
// the last sample (§4.C.4).
//
// Per-rxq cpu_cyc and rx_cyc are derived from the rxq's reported usage
// percentage and the owning pmd's window-wide proc/rx deltas:
//
//	cpu_cyc = pct * Δproc / 100
//	rx_cyc  = pct * Δrx   / 100
//
// Both scale off the pmd's own deltas; rx_cyc is not derived from
// cpu_cyc.
func ParsePmdRxqs(m *model.Model, text string) error {
	var pmd *model.Pmd
	var isolated bool

	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := scanner.Text()

		if hdr, ok := matchPmdHeader(line); ok {
			pmd = m.Pmd(hdr.CoreID)
			if pmd == nil {
				return model.NewInconsistencyError("pmd-rxq-show reports unknown pmd %d", hdr.CoreID)
			}
			isolated = false
			continue
		}
		if pmd == nil {
			continue
		}

		if iso, ok := matchIsolated(line); ok {
			isolated = iso
			pmd.Isolated = isolated
			continue
		}

		rl, ok := matchRxqLine(line)
		if !ok {
			continue
		}
		if rl.NotAvail {
			return model.NewParseError("rxq %d on port %s: pmd usage not available yet", rl.QueueID, rl.Port)
		}

		port, err := m.PortClass(rl.Port)
		if err != nil {
			return err
		}
		port.Rebalance = true
		if port.NumaID != 0 && port.NumaID != pmd.NumaID {
			return model.NewInconsistencyError(
				"port %s numa_id %d disagrees with pmd %d numa_id %d", rl.Port, port.NumaID, pmd.ID, pmd.NumaID)
		}
		port.NumaID = pmd.NumaID

		if _, stillRebalanced := port.RxqRebalanced[rl.QueueID]; stillRebalanced {
			return model.NewInconsistencyError(
				"rxq %d on port %s still marked rebalanced from a prior dry run", rl.QueueID, rl.Port)
		}

		rxq := port.FindRxqByID(rl.QueueID)
		if rxq == nil {
			rxq, err = port.AddRxq(rl.QueueID)
			if err != nil {
				return err
			}
		}
		rxq.Pmd = pmd

		if _, ok := pmd.PortMap[rl.Port]; !ok {
			pmd.PortMap[rl.Port] = port
		}

		deltaRx := pmd.RxCyc.SumDiffs()
		deltaProc := pmd.ProcCpuCyc.SumDiffs()
		rxq.CpuCyc.Set(port.CycIdx, rl.UsagePct*deltaProc/100)
		rxq.RxCyc.Set(port.CycIdx, rl.UsagePct*deltaRx/100)
	}
	if err := scanner.Err(); err != nil {
		return model.NewParseError("reading pmd rxq map: %v", err)
	}
	return nil
}
