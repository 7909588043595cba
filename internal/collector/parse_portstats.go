package collector

import (
	"bufio"
	"sort"
	"strings"

	"github.com/netcontrold/ncd/internal/model"
)

// ParsePortStats consumes the output of "<sw-ctl> dpctl/show -s" and
// populates/updates m.PortToID and each port's rx/tx packet and drop
// rings, advancing the port's sample cursor (§4.C.1).
func ParsePortStats(m *model.Model, text string) error {
	curPorts := sortedKeys(m.PortToCls)

	var port *model.Port
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := scanner.Text()

		if hdr, ok := matchPortHeader(line); ok {
			m.PortToID[hdr.Name] = hdr.ID

			existing, seen := m.PortToCls[hdr.Name]
			if seen {
				port = existing
				port.CycIdx = (port.CycIdx + 1) % port.RxCyc.Len()
			} else {
				p, err := m.PortClass(hdr.Name)
				if err != nil {
					return err
				}
				port = p
			}
			continue
		}

		if port == nil {
			continue
		}

		if rx, drop, ok := matchRxStats(line); ok {
			port.RxCyc.Set(port.CycIdx, rx)
			port.RxDropCyc.Set(port.CycIdx, drop)
			continue
		}
		if tx, drop, ok := matchTxStats(line); ok {
			port.TxCyc.Set(port.CycIdx, tx)
			port.TxDropCyc.Set(port.CycIdx, drop)
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return model.NewParseError("reading port stats: %v", err)
	}

	newPorts := sortedKeys(m.PortToCls)
	if len(curPorts) > 0 && !stringSlicesEqual(curPorts, newPorts) {
		return model.NewModelChangedError("port set changed between samples")
	}
	return nil
}

func sortedKeys(m map[string]*model.Port) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func stringSlicesEqual(a, b []string) bool {
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
