package model

import (
	"fmt"
	"sort"

	"github.com/netcontrold/ncd/internal/ring"
)

// Port is a logical port on the switch, identified by its unique
// name. A Port instance is shared by reference across PMDs: the
// model keeps one instance per name in Model.PortToCls, and PMDs hold
// a pointer into that map rather than a private copy, so sample
// history survives a port being re-pinned to a different PMD.
type Port struct {
	Name string

	// ID is the numeric port id assigned by the switch, refreshed
	// every sample.
	ID int
	// NumaID is inherited from the PMD that owns this port's rxqs.
	NumaID int
	// Type is the interface type reported by "ovs-vsctl list
	// interface" (e.g. "dpdk", "dpdkvhostuser").
	Type string

	// RxqMap holds rxqs still pinned to this port/PMD pairing.
	RxqMap map[int]*Rxq
	// RxqRebalanced records queue_id -> target PMD id for rxqs the
	// dry-run has virtually moved away from this port. A queue_id
	// appears in exactly one of RxqMap or RxqRebalanced, never both.
	RxqRebalanced map[int]int
	// Rebalance is set true once any rxq on this port has been
	// touched (observed) by a pmd-rxq-map parse, marking the port as
	// one the shutdown cleanup path must clear affinity on.
	Rebalance bool

	RxCyc      *ring.Ring
	RxDropCyc  *ring.Ring
	TxCyc      *ring.Ring
	TxDropCyc  *ring.Ring
	TxRetryCyc *ring.Ring
	CycIdx     int

	ringLen int
}

// NewPort constructs a Port with all counter rings of length n. name
// must be non-empty.
func NewPort(name string, n int) (*Port, error) {
	if name == "" {
		return nil, NewObjCreateError("port name can not be empty")
	}
	return &Port{
		Name:          name,
		RxqMap:        make(map[int]*Rxq),
		RxqRebalanced: make(map[int]int),
		RxCyc:         ring.New(n),
		RxDropCyc:     ring.New(n),
		TxCyc:         ring.New(n),
		TxDropCyc:     ring.New(n),
		TxRetryCyc:    ring.New(n),
		ringLen:       n,
	}, nil
}

// FindRxqByID returns the rxq of this id if it is currently pinned to
// this port, or nil otherwise. It does not consult RxqRebalanced.
func (p *Port) FindRxqByID(id int) *Rxq {
	return p.RxqMap[id]
}

// AddRxq creates and returns a new Rxq for id, failing with an
// InconsistencyError if one already exists.
func (p *Port) AddRxq(id int) (*Rxq, error) {
	if p.FindRxqByID(id) != nil {
		return nil, NewInconsistencyError("rxq %d already exists in %s", id, p.Name)
	}
	rxq := NewRxq(id, p.ringLen)
	rxq.Port = p
	p.RxqMap[id] = rxq
	return rxq, nil
}

// DelRxq removes the rxq of this id from the port, failing with an
// InconsistencyError if it is not present.
func (p *Port) DelRxq(id int) error {
	if p.FindRxqByID(id) == nil {
		return NewInconsistencyError("rxq %d not found in %s", id, p.Name)
	}
	delete(p.RxqMap, id)
	return nil
}

// DropPPM returns the rx and tx packet-drop rate in parts per
// million, computed from sorted-diff sums; 0 when the corresponding
// packet count saw no traffic in the window.
func (p *Port) DropPPM() (rxPPM, txPPM int64) {
	rxSum := p.RxCyc.SumDiffs()
	rxDropSum := p.RxDropCyc.SumDiffs()
	txSum := p.TxCyc.SumDiffs()
	txDropSum := p.TxDropCyc.SumDiffs()

	if rxSum != 0 {
		rxPPM = (1_000_000 * rxDropSum) / rxSum
	}
	if txSum != 0 {
		txPPM = (1_000_000 * txDropSum) / txSum
	}
	return rxPPM, txPPM
}

// TxRetries returns the sorted-diff sum of tx_retry_cyc.
func (p *Port) TxRetries() int64 {
	return p.TxRetryCyc.SumDiffs()
}

// String renders a stable, deterministic text dump of the port and
// its rxqs, used by diagnostics and by model-equality tests.
func (p *Port) String() string {
	s := fmt.Sprintf("port %s\n", p.Name)
	s += fmt.Sprintf("port %s id %d numa_id %d type %s cyc_idx %d rebalance %v\n",
		p.Name, p.ID, p.NumaID, p.Type, p.CycIdx, p.Rebalance)

	ids := make([]int, 0, len(p.RxqMap))
	for id := range p.RxqMap {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		rxq := p.RxqMap[id]
		s += fmt.Sprintf("  rxq %d cpu_cyc=%v rx_cyc=%v\n", id, rxq.CpuCyc.Snapshot(), rxq.RxCyc.Snapshot())
	}

	rebalIDs := make([]int, 0, len(p.RxqRebalanced))
	for id := range p.RxqRebalanced {
		rebalIDs = append(rebalIDs, id)
	}
	sort.Ints(rebalIDs)
	for _, id := range rebalIDs {
		s += fmt.Sprintf("  rxq %d rebalanced to pmd %d\n", id, p.RxqRebalanced[id])
	}
	return s
}
