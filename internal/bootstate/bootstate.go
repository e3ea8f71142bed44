// Package bootstate publishes the process-wide cold-boot completion signal.
//
// The orchestrator is the only writer; it marks completion exactly once.
// Downstream daemon logic reads the flag or blocks on the wait channel.
package bootstate

import (
	"sync"
	"sync/atomic"
)

// State is the single-writer, multi-reader cold-boot completion fact.
type State struct {
	done atomic.Bool
	once sync.Once
	ch   chan struct{}
}

// New returns a State with cold boot not yet complete.
func New() *State {
	return &State{ch: make(chan struct{})}
}

// SetDone marks cold boot complete. Only the first call has any effect;
// there is no way to clear the flag.
func (s *State) SetDone() {
	s.once.Do(func() {
		s.done.Store(true)
		close(s.ch)
	})
}

// Done reports whether cold boot has completed.
func (s *State) Done() bool {
	return s.done.Load()
}

// Wait returns a channel closed once cold boot completes.
func (s *State) Wait() <-chan struct{} {
	return s.ch
}
