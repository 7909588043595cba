// Package collector turns the switch's textual introspection command
// output into typed records and uses them to populate the topology
// model (§4.C). Each of the four commands gets a small hand-written,
// block-structured scanner rather than one regex per concern, so a
// future structured (e.g. JSON) switch interface could substitute
// cleanly behind the same typed-record shape.
package collector

import (
	"regexp"
	"strconv"
)

// pmdHeaderLine is "pmd thread numa_id <N> core_id <C>:".
type pmdHeaderLine struct {
	NumaID int
	CoreID int
}

var pmdHeaderRe = regexp.MustCompile(`^pmd thread numa_id (\d+) core_id (\d+):`)

func matchPmdHeader(line string) (pmdHeaderLine, bool) {
	m := pmdHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return pmdHeaderLine{}, false
	}
	numa, _ := strconv.Atoi(m[1])
	core, _ := strconv.Atoi(m[2])
	return pmdHeaderLine{NumaID: numa, CoreID: core}, true
}

// statLine is a "<name>: <value> ..." line, where value is the
// leading integer token (trailing percentages/annotations ignored).
type statLine struct {
	Name  string
	Value int64
}

var statLineRe = regexp.MustCompile(`^\s*([a-zA-Z ]+?):\s*(\d+)`)

func matchStatLine(line string) (statLine, bool) {
	m := statLineRe.FindStringSubmatch(line)
	if m == nil {
		return statLine{}, false
	}
	v, _ := strconv.ParseInt(m[2], 10, 64)
	return statLine{Name: m[1], Value: v}, true
}

// isolatedLine is "isolated : true|false".
var isolatedRe = regexp.MustCompile(`^\s*isolated\s*:\s*(true|false)`)

func matchIsolated(line string) (bool, bool) {
	m := isolatedRe.FindStringSubmatch(line)
	if m == nil {
		return false, false
	}
	return m[1] == "true", true
}

// rxqLine is "port: <name> queue-id: <id> pmd usage: <pct|NOT AVAIL>".
type rxqLine struct {
	Port      string
	QueueID   int
	UsagePct  int64
	NotAvail  bool
}

var rxqLineRe = regexp.MustCompile(`port:\s*([A-Za-z0-9_.-]+)\s*queue-id:\s*(\d+)\s*pmd usage:\s*(\d+|NOT AVAIL)`)

func matchRxqLine(line string) (rxqLine, bool) {
	m := rxqLineRe.FindStringSubmatch(line)
	if m == nil {
		return rxqLine{}, false
	}
	rl := rxqLine{Port: m[1]}
	qid, _ := strconv.Atoi(m[2])
	rl.QueueID = qid
	if m[3] == "NOT AVAIL" {
		rl.NotAvail = true
	} else {
		v, _ := strconv.ParseInt(m[3], 10, 64)
		rl.UsagePct = v
	}
	return rl, true
}

// portHeaderLine is "port <id>: <name> ...".
type portHeaderLine struct {
	ID   int
	Name string
}

var portHeaderRe = regexp.MustCompile(`^\s*port\s(\d+):\s([A-Za-z0-9_.-]+)`)

func matchPortHeader(line string) (portHeaderLine, bool) {
	m := portHeaderRe.FindStringSubmatch(line)
	if m == nil {
		return portHeaderLine{}, false
	}
	id, _ := strconv.Atoi(m[1])
	return portHeaderLine{ID: id, Name: m[2]}, true
}

var rxStatsRe = regexp.MustCompile(`RX packets:(\d+).*?dropped:(\d+)`)
var txStatsRe = regexp.MustCompile(`TX packets:(\d+).*?dropped:(\d+)`)

func matchRxStats(line string) (pkts, dropped int64, ok bool) {
	m := rxStatsRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	p, _ := strconv.ParseInt(m[1], 10, 64)
	d, _ := strconv.ParseInt(m[2], 10, 64)
	return p, d, true
}

func matchTxStats(line string) (pkts, dropped int64, ok bool) {
	m := txStatsRe.FindStringSubmatch(line)
	if m == nil {
		return 0, 0, false
	}
	p, _ := strconv.ParseInt(m[1], 10, 64)
	d, _ := strconv.ParseInt(m[2], 10, 64)
	return p, d, true
}

// interfaceNameLine is `name : "<name>"` from `ovs-vsctl list interface`.
var interfaceNameRe = regexp.MustCompile(`^\s*name\s*:\s*"?([A-Za-z0-9_.-]+)"?`)

func matchInterfaceName(line string) (string, bool) {
	m := interfaceNameRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var interfaceTypeRe = regexp.MustCompile(`^\s*type\s*:\s*([a-z]+)`)

func matchInterfaceType(line string) (string, bool) {
	m := interfaceTypeRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}

var interfaceStatsRe = regexp.MustCompile(`^\s*statistics\s*:\s*\{(.*)\}`)

func matchInterfaceStats(line string) (string, bool) {
	m := interfaceStatsRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	return m[1], true
}
