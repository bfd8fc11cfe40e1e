package app

import (
	"sync"
	"time"

	"trivia-builder-service/internal/builder"
	"trivia-builder-service/internal/domain"
)

// Session is one live builder: the current snapshot plus everyone watching it.
// A phone and a tablet opening the same set share a session.
type Session struct {
	id        string
	ownerID   string
	createdAt time.Time
	machine   *builder.Machine

	// saveMu serializes saves so an older snapshot never lands after a newer one.
	saveMu sync.Mutex

	mu          sync.Mutex
	state       builder.State
	subscribers map[chan builder.State]struct{}
}

// NewSession is exported for infrastructure layers that need to seed sessions.
func NewSession(id, ownerID string, state builder.State, machine *builder.Machine, now func() time.Time) *Session {
	return &Session{
		id:          id,
		ownerID:     ownerID,
		createdAt:   now(),
		machine:     machine,
		state:       state,
		subscribers: make(map[chan builder.State]struct{}),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// OwnerID returns the user the session belongs to.
func (s *Session) OwnerID() string { return s.ownerID }

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() builder.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// IsIdle reports whether nobody is subscribed to the session.
func (s *Session) IsIdle() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subscribers) == 0
}

func (s *Session) dispatch(in builder.Intent) (builder.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := s.machine.Dispatch(s.state, in)
	if err != nil {
		return builder.State{}, err
	}
	s.state = next
	return s.broadcastLocked(), nil
}

// prepareSave assigns ids in place, so concurrent edits keep targeting the same
// documents, and returns the snapshot to persist.
func (s *Session) prepareSave(newID func() string) (builder.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := builder.Validate(s.state); err != nil {
		return builder.State{}, err
	}
	if s.state.Set.ID == "" {
		s.state.Set.ID = s.id
	}
	s.state = s.state.WithIDs(newID)
	return s.state.Clone(), nil
}

// commitSave records a successful write of saved. Edits made while the write
// was in flight stay counted as dirty.
func (s *Session) commitSave(saved builder.State, set domain.CustomSet) builder.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Dirty -= saved.Dirty
	if s.state.Dirty < 0 {
		s.state.Dirty = 0
	}
	if n := len(saved.Orphaned); n <= len(s.state.Orphaned) {
		s.state.Orphaned = append([]string(nil), s.state.Orphaned[n:]...)
	}
	s.state.Set.IsDraft = set.IsDraft
	s.state.Set.NumClues = set.NumClues
	s.state.Set.CategoryNames = append([]string(nil), set.CategoryNames...)
	s.state.Set.CreatedAt = set.CreatedAt
	s.state.Set.UpdatedAt = set.UpdatedAt
	return s.broadcastLocked()
}

func (s *Session) subscribe() (<-chan builder.State, func()) {
	ch := make(chan builder.State, 8)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	initial := s.state.Clone()
	s.mu.Unlock()

	ch <- initial

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() builder.State {
	snapshot := s.state.Clone()
	for ch := range s.subscribers {
		select {
		case ch <- snapshot.Clone():
		default:
			// Slow subscriber: drop its oldest snapshot so the newest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- snapshot.Clone()
		}
	}
	return snapshot
}
