package session

import (
	"sync"
)

// Ticket identifies one initiated operation: its initiation number and the write
// sequence it observed.
type Ticket struct {
	id  uint64
	seq uint64
}

// Seq returns the sequence number captured by the ticket.
func (t Ticket) Seq() uint64 { return t.seq }

// Listener receives every committed snapshot in write order. It must not write to the
// store synchronously.
type Listener func(Session)

// Store is the single authoritative session cell.
type Store struct {
	mu             sync.Mutex
	current        Session
	seq            uint64
	hintsSuspended bool

	// issued is the last initiation number handed out; outstanding holds the
	// tickets that have neither committed nor been released.
	issued      uint64
	outstanding map[uint64]struct{}

	subMu  sync.Mutex
	nextID uint64
	subs   map[uint64]Listener

	// notifyMu serializes listener fan-out so subscribers observe writes in order.
	notifyMu sync.Mutex
}

// NewStore returns an unauthenticated store.
func NewStore() *Store {
	return &Store{
		subs:        make(map[uint64]Listener),
		outstanding: make(map[uint64]struct{}),
	}
}

// Read returns a copy of the current snapshot.
func (s *Store) Read() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone()
}

// Snapshot returns the current session together with whether liveness hints are
// currently ignored. Hints are suspended by [Store.Clear] and re-enabled by the next
// server-verified commit.
func (s *Store) Snapshot() (Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current.clone(), s.hintsSuspended
}

// Seq returns the current write sequence.
func (s *Store) Seq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Write unconditionally replaces the snapshot.
func (s *Store) Write(next Session) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.apply(next)
	snap := s.current.clone()
	s.mu.Unlock()

	s.notify(snap)
}

// Clear resets the store to the empty session and suspends liveness hints until the
// next server-verified commit.
func (s *Store) Clear() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	s.apply(Session{})
	s.hintsSuspended = true
	snap := s.current.clone()
	s.mu.Unlock()

	s.notify(snap)
}

// Begin starts a new operation. Its ticket supersedes every ticket issued earlier:
// once it exists, older operations can no longer commit.
func (s *Store) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	s.outstanding[s.issued] = struct{}{}
	return Ticket{id: s.issued, seq: s.seq}
}

// Release abandons t without writing. An operation that ends without a write must
// release its ticket so older operations are not held back by it.
func (s *Store) Release(t Ticket) {
	s.mu.Lock()
	delete(s.outstanding, t.id)
	s.mu.Unlock()
}

// Commit applies next only if t is still the most recently initiated outstanding
// operation and no write happened since it was taken. It reports whether the write
// was applied. t is spent either way.
func (s *Store) Commit(t Ticket, next Session) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !s.take(t) {
		s.mu.Unlock()
		return false
	}
	s.apply(next)
	snap := s.current.clone()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// CommitClear is [Store.Clear] under the same conditions as [Store.Commit].
func (s *Store) CommitClear(t Ticket) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if !s.take(t) {
		s.mu.Unlock()
		return false
	}
	s.apply(Session{})
	s.hintsSuspended = true
	snap := s.current.clone()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// take spends t and reports whether it may still write. Must be called with mu held.
func (s *Store) take(t Ticket) bool {
	delete(s.outstanding, t.id)
	if t.id == 0 || s.seq != t.seq {
		return false
	}
	for id := range s.outstanding {
		if id > t.id {
			return false
		}
	}
	return true
}

// Adopt installs an unverified hint session only when the store is unauthenticated and
// hints are not suspended. It neither advances the sequence nor issues a ticket, so
// an in-flight verification may still commit over it.
func (s *Store) Adopt(next Session) bool {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	if s.current.Authenticated || s.hintsSuspended {
		s.mu.Unlock()
		return false
	}
	s.current = next.clone()
	snap := s.current.clone()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Subscribe registers fn for future commits and returns a function that removes it.
func (s *Store) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}

	s.subMu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.subMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
		})
	}
}

// apply must be called with mu held.
func (s *Store) apply(next Session) {
	s.seq++
	s.current = next.clone()
	if next.Authenticated && next.Source == SourceServerVerified {
		s.hintsSuspended = false
	}
}

func (s *Store) notify(snap Session) {
	s.subMu.Lock()
	listeners := make([]Listener, 0, len(s.subs))
	for _, fn := range s.subs {
		listeners = append(listeners, fn)
	}
	s.subMu.Unlock()

	for _, fn := range listeners {
		fn(snap.clone())
	}
}
