package model

import "github.com/netcontrold/ncd/internal/ring"

// Rxq represents one receive queue on one port, owned by exactly one
// PMD at any instant. Identity is (port.Name, ID).
type Rxq struct {
	ID int

	// Port is the back-reference to the owning Port. Invariant: for
	// every port p and every rxq in p.RxqMap, rxq.Port == p.
	Port *Port
	// Pmd is the back-reference to the current owning PMD, stamped
	// by the collector when the pmd-rxq map is parsed.
	Pmd *Pmd

	// CpuCyc is the simulated processing cycles attributable to
	// this rxq in each sample; RxCyc is the simulated packets.
	CpuCyc *ring.Ring
	RxCyc  *ring.Ring
}

// NewRxq constructs an Rxq with rings of length n. id must be given;
// callers that can't guarantee that should use Port.AddRxq instead of
// calling this directly.
func NewRxq(id int, n int) *Rxq {
	return &Rxq{
		ID:     id,
		CpuCyc: ring.New(n),
		RxCyc:  ring.New(n),
	}
}

// SumCpuCyc is the sum over all samples in CpuCyc, the sort key used
// by both dry-run rebalancers to rank rxqs by load.
func (r *Rxq) SumCpuCyc() int64 { return r.CpuCyc.Sum() }
