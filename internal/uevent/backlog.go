package uevent

// Backlog is the ordered cold-boot event queue. It is appended to
// single-threaded during regeneration and read-only afterwards, so readers
// need no locking.
type Backlog struct {
	events []Event
}

// Append adds an event to the backlog. Must not be called once readers exist.
func (b *Backlog) Append(ev Event) {
	b.events = append(b.events, ev)
}

// Len returns the number of queued events.
func (b *Backlog) Len() int {
	return len(b.events)
}

// At returns the event at position i.
func (b *Backlog) At(i int) Event {
	return b.events[i]
}

// Events exposes the underlying ordered slice for serialization.
func (b *Backlog) Events() []Event {
	return b.events
}

// NewBacklog wraps an already-ordered event slice, as reconstructed by a
// worker from a snapshot.
func NewBacklog(events []Event) *Backlog {
	return &Backlog{events: events}
}
