package model

import (
	"fmt"
	"sort"

	"github.com/netcontrold/ncd/internal/ring"
)

// Pmd represents one polling thread pinned to a CPU core.
type Pmd struct {
	ID     int
	NumaID int

	RxCyc      *ring.Ring // packets received
	IdleCpuCyc *ring.Ring
	ProcCpuCyc *ring.Ring
	CycIdx     int

	// Isolated is true when the switch's own balancer excludes this
	// PMD; the daemon reports but does not otherwise specialise.
	Isolated bool
	// PmdLoad is the last-computed scalar load in [0,100].
	PmdLoad float64

	PortMap map[string]*Port

	ringLen int
}

// NewPmd constructs a Pmd with counter rings of length n. id must be
// given.
func NewPmd(id int, n int) (*Pmd, error) {
	return &Pmd{
		ID:         id,
		RxCyc:      ring.New(n),
		IdleCpuCyc: ring.New(n),
		ProcCpuCyc: ring.New(n),
		PortMap:    make(map[string]*Port),
		ringLen:    n,
	}, nil
}

// FindPortByName returns the port of this name in the pmd's port
// map, or nil.
func (p *Pmd) FindPortByName(name string) *Port {
	return p.PortMap[name]
}

// FindPortByID returns the port whose ID matches, or nil.
func (p *Pmd) FindPortByID(id int) *Port {
	for _, port := range p.PortMap {
		if port.ID == id {
			return port
		}
	}
	return nil
}

// AddPort adds a new Port for name into the pmd's port map and returns
// it, failing with an InconsistencyError if one is already present.
// The numa invariant (port.NumaID == pmd.NumaID) is enforced here.
func (p *Pmd) AddPort(name string, id int, numaID int) (*Port, error) {
	if existing := p.FindPortByName(name); existing != nil {
		return nil, NewInconsistencyError("port %s already exists in pmd %d", name, p.ID)
	}
	if numaID != p.NumaID {
		return nil, NewInconsistencyError("port %s numa_id %d disagrees with pmd %d numa_id %d", name, numaID, p.ID, p.NumaID)
	}
	port, err := NewPort(name, p.ringLen)
	if err != nil {
		return nil, err
	}
	port.ID = id
	port.NumaID = numaID
	p.PortMap[name] = port
	return port, nil
}

// DelPort removes the port of this name from the pmd's port map.
func (p *Pmd) DelPort(name string) error {
	if p.FindPortByName(name) == nil {
		return NewInconsistencyError("port %s not found in pmd %d", name, p.ID)
	}
	delete(p.PortMap, name)
	return nil
}

// CountRxq returns the total number of rxqs currently pinned across
// all ports of this pmd.
func (p *Pmd) CountRxq() int {
	n := 0
	for _, port := range p.PortMap {
		n += len(port.RxqMap)
	}
	return n
}

// String renders a stable text dump, used by diagnostics and tests.
func (p *Pmd) String() string {
	s := fmt.Sprintf("pmd %d numa_id %d isolated %v pmd_load %.2f cyc_idx %d\n",
		p.ID, p.NumaID, p.Isolated, p.PmdLoad, p.CycIdx)
	s += fmt.Sprintf("pmd %d rx_cyc=%v idle_cpu_cyc=%v proc_cpu_cyc=%v\n",
		p.ID, p.RxCyc.Snapshot(), p.IdleCpuCyc.Snapshot(), p.ProcCpuCyc.Snapshot())

	names := make([]string, 0, len(p.PortMap))
	for name := range p.PortMap {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		s += p.PortMap[name].String()
	}
	return s
}
