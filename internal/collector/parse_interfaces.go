package collector

import (
	"bufio"
	"sort"
	"strconv"
	"strings"

	"github.com/netcontrold/ncd/internal/model"
)

// ParseInterfaces consumes the output of "<sw-vsctl> list interface"
// and populates each known port's Type and, if present in the
// statistics map, TxRetryCyc (§4.C.2).
func ParseInterfaces(m *model.Model, text string) error {
	curPorts := sortedKeys(m.PortToCls)
	seen := make(map[string]bool, len(curPorts))

	var port *model.Port
	scanner := bufio.NewScanner(strings.NewReader(text))
	for scanner.Scan() {
		line := scanner.Text()

		if name, ok := matchInterfaceName(line); ok {
			port = m.PortToCls[name]
			if port != nil {
				seen[name] = true
			}
			continue
		}

		if port == nil {
			continue
		}

		if typ, ok := matchInterfaceType(line); ok {
			port.Type = typ
			continue
		}

		if stats, ok := matchInterfaceStats(line); ok {
			if retries, found := lookupStat(stats, "tx_retries"); found {
				port.TxRetryCyc.Set(port.CycIdx, retries)
			}
			continue
		}
	}
	if err := scanner.Err(); err != nil {
		return model.NewParseError("reading interface details: %v", err)
	}

	if len(curPorts) > 0 {
		observed := make([]string, 0, len(seen))
		for name := range seen {
			observed = append(observed, name)
		}
		sort.Strings(observed)
		if !stringSlicesEqual(curPorts, observed) {
			return model.NewModelChangedError("port set changed between samples")
		}
	}
	return nil
}

// lookupStat parses a "k=v, k2=v2" blob for key and returns its
// integer value.
func lookupStat(blob, key string) (int64, bool) {
	for _, kv := range strings.Split(blob, ",") {
		kv = strings.TrimSpace(kv)
		parts := strings.SplitN(kv, "=", 2)
		if len(parts) != 2 {
			continue
		}
		if parts[0] != key {
			continue
		}
		v, err := strconv.ParseInt(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return 0, false
		}
		return v, true
	}
	return 0, false
}
