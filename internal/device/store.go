package device

import (
	"sync"
	"sync/atomic"
)

// Store holds the live Record snapshot. Load never blocks. Swap is meant to
// be called from a single writer; concurrent readers see either the old or
// the new record in full.
type Store struct {
	cur atomic.Pointer[Record]

	mu      sync.Mutex // guards changed
	changed chan struct{}
}

// NewStore returns a Store holding initial.
func NewStore(initial *Record) *Store {
	s := &Store{changed: make(chan struct{})}
	s.cur.Store(initial)
	return s
}

// Load returns the current snapshot.
func (s *Store) Load() *Record {
	return s.cur.Load()
}

// Swap installs next and returns the snapshot it replaced. Watchers blocked
// on a channel from Changed are released.
func (s *Store) Swap(next *Record) *Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := s.cur.Swap(next)
	close(s.changed)
	s.changed = make(chan struct{})
	return old
}

// Changed returns a channel that is closed by the next Swap. Obtain the
// channel before calling Load to avoid missing an update.
func (s *Store) Changed() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.changed
}
