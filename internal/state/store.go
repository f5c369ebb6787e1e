package state

import (
	"log/slog"
	"sync"
)

// Store holds the canonical snapshot and applies actions to it. It is
// the single writer: Dispatch serializes transitions behind a mutex
// and each transition runs to completion before the next begins.
//
// The store is a plain dependency, passed explicitly to every workflow
// that needs it; there is no package-level instance.
type Store struct {
	mu          sync.Mutex
	snapshot    Snapshot
	log         *slog.Logger
	persist     func(Snapshot)
	subscribers []func(Snapshot)
}

// New creates a Store holding an empty, not-yet-ready snapshot.
func New(log *slog.Logger) *Store {
	return &Store{
		snapshot: Snapshot{},
		log:      log,
	}
}

// OnCommit registers the persistence hook. It fires after every
// committed transition once the store is ready; failures are the
// hook's problem and must not propagate back into dispatch.
func (s *Store) OnCommit(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.persist = fn
}

// Subscribe registers an observer invoked with each committed
// snapshot. Observers run outside the store lock.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// Current returns the latest committed snapshot.
func (s *Store) Current() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot
}

// Dispatch applies one action and returns the new snapshot. The
// reducer is pure; all validation happens in the calling workflow
// before anything reaches here.
func (s *Store) Dispatch(action Action) Snapshot {
	s.mu.Lock()
	next := action.apply(s.snapshot)
	s.snapshot = next
	persist := s.persist
	subscribers := append(([]func(Snapshot))(nil), s.subscribers...)
	s.mu.Unlock()

	if next.ready && persist != nil {
		persist(next)
	}
	for _, fn := range subscribers {
		fn(next)
	}
	return next
}
