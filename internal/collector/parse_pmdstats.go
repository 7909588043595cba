package collector

import (
	"bufio"
	"strings"

	"github.com/netcontrold/ncd/internal/model"
)

// ParsePmdStats consumes the output of
// "<sw-ctl> dpif-netdev/pmd-stats-show" and populates/updates each
// pmd's rx_cyc, idle_cpu_cyc and proc_cpu_cyc rings, advancing the
// cursor (§4.C.3). A pmd first seen creates a model entry; a pmd
// previously seen must match its recorded numa id.
func ParsePmdStats(m *model.Model, text string) error {
	curPmds := m.PmdIDs()

	var pmd *model.Pmd
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := scanner.Text()

		if strings.HasPrefix(line, "main thread") {
			break
		}

		if hdr, ok := matchPmdHeader(line); ok {
			if existing := m.Pmd(hdr.CoreID); existing != nil {
				if existing.NumaID != hdr.NumaID {
					return model.NewInconsistencyError(
						"pmd %d reported numa_id %d, model has %d", hdr.CoreID, hdr.NumaID, existing.NumaID)
				}
				pmd = existing
				pmd.CycIdx = (pmd.CycIdx + 1) % pmd.RxCyc.Len()
			} else {
				p, err := m.AddPmd(hdr.CoreID, hdr.NumaID)
				if err != nil {
					return err
				}
				pmd = p
			}
			continue
		}

		if pmd == nil {
			continue
		}

		if stat, ok := matchStatLine(line); ok {
			switch strings.TrimSpace(stat.Name) {
			case "packets received":
				pmd.RxCyc.Set(pmd.CycIdx, stat.Value)
			case "idle cycles":
				pmd.IdleCpuCyc.Set(pmd.CycIdx, stat.Value)
			case "processing cycles":
				pmd.ProcCpuCyc.Set(pmd.CycIdx, stat.Value)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return model.NewParseError("reading pmd stats: %v", err)
	}

	newPmds := m.PmdIDs()
	if len(curPmds) > 0 && !intSlicesEqual(curPmds, newPmds) {
		return model.NewModelChangedError("pmd set changed between samples")
	}
	return nil
}

func intSlicesEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
