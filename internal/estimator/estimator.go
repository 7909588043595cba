// Package estimator converts raw per-PMD counters into a scalar load
// value and fleet-wide variance (§4.D of the specification).
package estimator

import "github.com/netcontrold/ncd/internal/model"

// DefaultCoreThreshold is the default pmd_load percentage, at or
// above which a PMD is considered a rebalance candidate.
const DefaultCoreThreshold = 95.0

// Load computes a PMD's load in [0,100] from the sorted-diff sums of
// its three counter rings:
//
//	cpp  = (Δidle + Δproc) / Δrx
//	load = (Δproc / Δrx) * 100 / cpp
//
// If Δrx is zero the pmd saw no traffic and load is 0. If cpp is zero
// (a pmd with no rxqs configured, as happens mid dry-run) the pmd is
// declared fully loaded, since dry-run bookkeeping only ever adds
// proc cycles or removes idle cycles when virtually assigning rxqs.
func Load(pmd *model.Pmd) float64 {
	rxSum := pmd.RxCyc.SumDiffs()
	if rxSum == 0 {
		return 0
	}

	idleSum := pmd.IdleCpuCyc.SumDiffs()
	procSum := pmd.ProcCpuCyc.SumDiffs()

	cpp := float64(idleSum+procSum) / float64(rxSum)
	if cpp == 0 {
		return 100
	}

	pcpp := float64(procSum) / float64(rxSum)
	return (pcpp * 100) / cpp
}

// UpdateLoad recomputes PmdLoad for every pmd in the model.
func UpdateLoad(m *model.Model) {
	for _, pmd := range m.PmdMap {
		pmd.PmdLoad = Load(pmd)
	}
}

// Variance returns the population variance of a fleet's pmd_load
// values.
func Variance(loads []float64) float64 {
	if len(loads) == 0 {
		return 0
	}
	var sum float64
	for _, l := range loads {
		sum += l
	}
	mean := sum / float64(len(loads))

	var sqDiff float64
	for _, l := range loads {
		d := l - mean
		sqDiff += d * d
	}
	return sqDiff / float64(len(loads))
}

// FleetVariance is a convenience wrapper over Variance that reads
// PmdLoad directly off the model.
func FleetVariance(m *model.Model) float64 {
	loads := make([]float64, 0, len(m.PmdMap))
	for _, pmd := range m.PmdMap {
		loads = append(loads, pmd.PmdLoad)
	}
	return Variance(loads)
}

// NeedRebalance reports whether at least one pmd has load >=
// threshold and holds more than one rxq, while not every pmd in the
// fleet is so loaded (a uniformly saturated fleet has nowhere to move
// work to, so rebalancing would be pointless).
func NeedRebalance(m *model.Model, threshold float64) bool {
	loaded := 0
	for _, pmd := range m.PmdMap {
		if pmd.PmdLoad >= threshold && pmd.CountRxq() > 1 {
			loaded++
		}
	}
	return len(m.PmdMap) > loaded && loaded > 0
}
