// Package ring implements the fixed-length rolling sample buffer that
// every counter in the topology model is built from.
package ring

import "sort"

// Ring is a fixed-size circular buffer of counter samples. The zero
// value is not usable; construct with New.
type Ring struct {
	samples []int64
	cur     int
}

// New returns a Ring of length n, zero-filled.
func New(n int) *Ring {
	if n <= 0 {
		n = 1
	}
	return &Ring{samples: make([]int64, n)}
}

// Len returns the ring's fixed length N.
func (r *Ring) Len() int { return len(r.samples) }

// Cursor returns the index of the next slot to be overwritten.
func (r *Ring) Cursor() int { return r.cur }

// Write stores value in the current slot and advances the cursor
// modulo N.
func (r *Ring) Write(value int64) {
	r.samples[r.cur] = value
	r.cur = (r.cur + 1) % len(r.samples)
}

// Set stores value at the given slot without advancing the cursor.
// Used when a parse step writes directly into a known sample index
// (e.g. the current pmd.cyc_idx) rather than via Write.
func (r *Ring) Set(idx int, value int64) {
	r.samples[idx] = value
}

// At returns the sample at idx.
func (r *Ring) At(idx int) int64 { return r.samples[idx] }

// Snapshot returns a copy of the ring's contents. Index order is not
// meaningful; callers that need the write order should use Cursor.
func (r *Ring) Snapshot() []int64 {
	out := make([]int64, len(r.samples))
	copy(out, r.samples)
	return out
}

// Sum returns the sum of all samples currently in the ring.
func (r *Ring) Sum() int64 {
	var total int64
	for _, v := range r.samples {
		total += v
	}
	return total
}

// SortedDiffs returns the sequence of adjacent-sample differences of
// the sorted snapshot. This is the estimator's primitive: with
// monotonically-advancing counters, summing these diffs recovers the
// total delta across the sampling window regardless of which slot the
// cursor happened to land on. Early in a ring's life, unwritten slots
// are zero and contribute zero diffs.
func (r *Ring) SortedDiffs() []int64 {
	sorted := r.Snapshot()
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	diffs := make([]int64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		diffs = append(diffs, sorted[i]-sorted[i-1])
	}
	return diffs
}

// SumDiffs is a convenience wrapper around SortedDiffs that returns
// the total of the adjacent differences — the quantity the load
// estimator and drop-rate calculations actually consume.
func (r *Ring) SumDiffs() int64 {
	var total int64
	for _, d := range r.SortedDiffs() {
		total += d
	}
	return total
}
