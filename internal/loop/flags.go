package loop

import "sync/atomic"

// Flags holds the control-socket-mutable daemon state: single-value
// atomics read without locking by the main loop and written without
// locking by the listener (§5). Each bool is stored as an int32 that
// only ever holds 0 or 1.
type Flags struct {
	trace       atomic.Int32
	rebalMode   atomic.Int32
	rebalQuick  atomic.Int32
	verbose     atomic.Int32
}

// NewFlags returns a Flags seeded from the startup configuration.
func NewFlags(trace, rebalMode, verbose bool) *Flags {
	f := &Flags{}
	f.setBool(&f.trace, trace)
	f.setBool(&f.rebalMode, rebalMode)
	f.setBool(&f.verbose, verbose)
	return f
}

func (f *Flags) setBool(a *atomic.Int32, v bool) {
	if v {
		a.Store(1)
	} else {
		a.Store(0)
	}
}

func (f *Flags) Trace() bool        { return f.trace.Load() == 1 }
func (f *Flags) SetTrace(v bool)    { f.setBool(&f.trace, v) }
func (f *Flags) RebalMode() bool     { return f.rebalMode.Load() == 1 }
func (f *Flags) SetRebalMode(v bool) { f.setBool(&f.rebalMode, v) }
func (f *Flags) RebalQuick() bool     { return f.rebalQuick.Load() == 1 }
func (f *Flags) SetRebalQuick(v bool) { f.setBool(&f.rebalQuick, v) }
func (f *Flags) Verbose() bool        { return f.verbose.Load() == 1 }
func (f *Flags) SetVerbose(v bool)    { f.setBool(&f.verbose, v) }
