// Package model implements the in-memory PMD/Port/Rxq topology graph
// (§3, §4.B of the specification): the collector populates it each
// sample tick, the estimator reads it, and the dry-run rebalancers
// mutate it in place to simulate a reassignment.
package model

import (
	"sort"
	"strings"
)

// Model is the global topology: three maps per §3. PortToCls holds
// per-port state that outlives any single PMD placement — a port
// rebinding across PMDs retains its sample history — so PMDs hold
// *Port references drawn from PortToCls, never private copies.
type Model struct {
	PmdMap    map[int]*Pmd
	PortToCls map[string]*Port
	PortToID  map[string]int

	// RingLen is N, the configured sample-ring length applied to
	// every counter ring created through this model's constructors.
	RingLen int
}

// New returns an empty Model with the given ring length.
func New(ringLen int) *Model {
	if ringLen <= 0 {
		ringLen = 6
	}
	return &Model{
		PmdMap:    make(map[int]*Pmd),
		PortToCls: make(map[string]*Port),
		PortToID:  make(map[string]int),
		RingLen:   ringLen,
	}
}

// Clear empties all three maps in place, as the decision loop does
// between sample windows and on recoverable-error retry.
func (m *Model) Clear() {
	m.PmdMap = make(map[int]*Pmd)
	m.PortToCls = make(map[string]*Port)
	m.PortToID = make(map[string]int)
}

// AddPmd adds a new Pmd for core_id, failing with InconsistencyError
// if one already exists.
func (m *Model) AddPmd(coreID int, numaID int) (*Pmd, error) {
	if _, ok := m.PmdMap[coreID]; ok {
		return nil, NewInconsistencyError("pmd %d already exists", coreID)
	}
	pmd, err := NewPmd(coreID, m.RingLen)
	if err != nil {
		return nil, err
	}
	pmd.NumaID = numaID
	m.PmdMap[coreID] = pmd
	return pmd, nil
}

// Pmd returns the pmd of this core id, or nil.
func (m *Model) Pmd(coreID int) *Pmd {
	return m.PmdMap[coreID]
}

// PortClass returns the shared Port instance for name, creating it if
// this is the first time the model has seen this port name.
func (m *Model) PortClass(name string) (*Port, error) {
	if p, ok := m.PortToCls[name]; ok {
		return p, nil
	}
	p, err := NewPort(name, m.RingLen)
	if err != nil {
		return nil, err
	}
	m.PortToCls[name] = p
	return p, nil
}

// PmdIDs returns the sorted set of pmd core ids currently modeled,
// used to detect a topology change between sample ticks (§4.C).
func (m *Model) PmdIDs() []int {
	ids := make([]int, 0, len(m.PmdMap))
	for id := range m.PmdMap {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// SameTopology reports whether prev and the model's current PmdIDs
// describe the same set of pmds. An empty prev always matches (used
// on the very first sample tick, when there is nothing to compare
// against yet).
func (m *Model) SameTopology(prev []int) bool {
	if len(prev) == 0 {
		return true
	}
	cur := m.PmdIDs()
	if len(cur) != len(prev) {
		return false
	}
	for i := range cur {
		if cur[i] != prev[i] {
			return false
		}
	}
	return true
}

// String renders a stable, deterministic text dump of the whole
// model, used by diagnostic dumps and by equality tests.
func (m *Model) String() string {
	var b strings.Builder
	ids := m.PmdIDs()
	for _, id := range ids {
		b.WriteString(m.PmdMap[id].String())
	}
	return b.String()
}

// Equal reports deep equality between two models: same pmd ids, same
// per-pmd attributes, same port/rxq placement. Counter ring contents
// are compared as sorted snapshots, so the cursor position — which
// slot happens to be next for overwrite — is not part of equality.
func (m *Model) Equal(o *Model) bool {
	if o == nil {
		return false
	}
	if len(m.PmdMap) != len(o.PmdMap) {
		return false
	}
	for id, pmd := range m.PmdMap {
		opmd, ok := o.PmdMap[id]
		if !ok || !pmdEqual(pmd, opmd) {
			return false
		}
	}
	return true
}

func sortedSnapshot(r interface{ Snapshot() []int64 }) []int64 {
	s := r.Snapshot()
	sort.Slice(s, func(i, j int) bool { return s[i] < s[j] })
	return s
}

func int64SlicesEqual(a, b []int64) bool {
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

func pmdEqual(a, b *Pmd) bool {
	if a.ID != b.ID || a.NumaID != b.NumaID || a.Isolated != b.Isolated || a.PmdLoad != b.PmdLoad {
		return false
	}
	if !int64SlicesEqual(sortedSnapshot(a.RxCyc), sortedSnapshot(b.RxCyc)) ||
		!int64SlicesEqual(sortedSnapshot(a.IdleCpuCyc), sortedSnapshot(b.IdleCpuCyc)) ||
		!int64SlicesEqual(sortedSnapshot(a.ProcCpuCyc), sortedSnapshot(b.ProcCpuCyc)) {
		return false
	}
	if len(a.PortMap) != len(b.PortMap) {
		return false
	}
	for name, port := range a.PortMap {
		oport, ok := b.PortMap[name]
		if !ok || !portEqual(port, oport) {
			return false
		}
	}
	return true
}

func portEqual(a, b *Port) bool {
	if a.Name != b.Name || a.Type != b.Type {
		return false
	}
	if len(a.RxqRebalanced) != len(b.RxqRebalanced) {
		return false
	}
	for id, pmdID := range a.RxqRebalanced {
		if b.RxqRebalanced[id] != pmdID {
			return false
		}
	}
	if len(a.RxqMap) != len(b.RxqMap) {
		return false
	}
	for id := range a.RxqMap {
		if _, ok := b.RxqMap[id]; !ok {
			return false
		}
	}
	return true
}
