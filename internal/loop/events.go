package loop

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Event is one append-only log entry: the interface (or "-" for
// daemon-wide events) it concerns, the event name, and when it
// happened. ID is a per-event identifier used to correlate a logged
// event with its line in an external log aggregator; it plays no role
// in CTLD_STATUS rendering or CTLD_REBAL_CNT counting. CTLD_STATUS
// renders the whole log; CTLD_REBAL_CNT counts "rebalance" entries
// (§6, §7).
type Event struct {
	ID        string
	Interface string
	Name      string
	Time      time.Time
}

// EventLog is the mutex-guarded append-only log shared between the
// main loop (writer) and the control-socket listener (reader) — the
// only piece of loop state that isn't a single-value atomic (§5).
type EventLog struct {
	mu     sync.Mutex
	events []Event
}

// Append records one event with the given timestamp.
func (l *EventLog) Append(iface, name string, when time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, Event{ID: uuid.NewString(), Interface: iface, Name: name, Time: when})
}

// Snapshot returns a copy of the log, safe for the caller to render
// without holding the lock.
func (l *EventLog) Snapshot() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Event, len(l.events))
	copy(out, l.events)
	return out
}

// CountByName returns how many logged events have exactly this name —
// the basis for CTLD_REBAL_CNT, which counts "rebalance" events
// directly from the log rather than a separately maintained counter
// that can drift out of sync with it.
func (l *EventLog) CountByName(name string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.events {
		if e.Name == name {
			n++
		}
	}
	return n
}
