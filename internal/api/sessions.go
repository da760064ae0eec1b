package api

import (
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/dusk-indust/mermpad/internal/pipeline"
)

// NewSessionID generates a UUID v4 string using crypto/rand.
func NewSessionID() string {
	var uuid [16]byte
	_, _ = rand.Read(uuid[:])
	// Set version 4 (bits 12-15 of time_hi_and_version).
	uuid[6] = (uuid[6] & 0x0f) | 0x40
	// Set variant bits (bits 6-7 of clock_seq_hi_and_reserved).
	uuid[8] = (uuid[8] & 0x3f) | 0x80
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		uuid[0:4], uuid[4:6], uuid[6:8], uuid[8:10], uuid[10:16])
}

// Session binds one editing surface to its validation coordinator.
type Session struct {
	ID        string
	Coord     *pipeline.Coordinator
	CreatedAt time.Time

	// lastSeen is managed by the store under its lock.
	lastSeen time.Time
}

// SessionStore is a concurrency-safe in-memory store of live sessions.
// Sessions live in a map keyed by ID with a separate slice maintaining
// insertion order for deterministic listings. Sessions idle longer than
// the configured timeout are closed and evicted by a background
// sweeper.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	orderIDs []string // insertion-order session IDs

	idle     time.Duration
	stopOnce sync.Once
	done     chan struct{}
}

// NewSessionStore returns an initialized store. A positive idle timeout
// starts the eviction sweeper; zero disables eviction.
func NewSessionStore(idle time.Duration) *SessionStore {
	s := &SessionStore{
		sessions: make(map[string]*Session),
		orderIDs: make([]string, 0),
		idle:     idle,
		done:     make(chan struct{}),
	}
	if idle > 0 {
		go s.sweeper()
	}
	return s
}

// Create registers coord under a fresh session ID and returns the live
// session.
func (s *SessionStore) Create(coord *pipeline.Coordinator) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	sess := &Session{
		ID:        NewSessionID(),
		Coord:     coord,
		CreatedAt: now,
		lastSeen:  now,
	}
	s.sessions[sess.ID] = sess
	s.orderIDs = append(s.orderIDs, sess.ID)
	return sess
}

// Get returns the live session with the given ID and refreshes its idle
// clock. It returns an error if no session with that ID is found.
func (s *SessionStore) Get(id string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("api: session %q not found", id)
	}
	sess.lastSeen = time.Now()
	return sess, nil
}

// Delete closes the session's coordinator and removes it from the
// store.
func (s *SessionStore) Delete(id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		return fmt.Errorf("api: session %q not found", id)
	}
	delete(s.sessions, id)
	s.removeOrderLocked(id)
	s.mu.Unlock()

	sess.Coord.Close()
	return nil
}

// List returns point-in-time snapshots of every session in insertion
// order. The snapshots are independent copies, safe to hold after the
// sessions change or die.
func (s *SessionStore) List() []SessionInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]SessionInfo, 0, len(s.orderIDs))
	for _, id := range s.orderIDs {
		sess := s.sessions[id]
		infos = append(infos, SessionInfo{
			ID:        sess.ID,
			CreatedAt: sess.CreatedAt,
			LastSeen:  sess.lastSeen,
			State:     cloneState(sess.Coord.State()),
		})
	}
	return infos
}

// Len reports the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Close stops the sweeper and closes every session.
func (s *SessionStore) Close() {
	s.stopOnce.Do(func() { close(s.done) })

	s.mu.Lock()
	victims := make([]*Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		victims = append(victims, sess)
	}
	s.sessions = make(map[string]*Session)
	s.orderIDs = s.orderIDs[:0]
	s.mu.Unlock()

	for _, sess := range victims {
		sess.Coord.Close()
	}
}

func (s *SessionStore) removeOrderLocked(id string) {
	for i, oid := range s.orderIDs {
		if oid == id {
			s.orderIDs = append(s.orderIDs[:i], s.orderIDs[i+1:]...)
			return
		}
	}
}

// sweeper evicts idle sessions until Close.
func (s *SessionStore) sweeper() {
	every := s.idle / 4
	if every < 25*time.Millisecond {
		every = 25 * time.Millisecond
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case now := <-ticker.C:
			s.evictIdle(now)
		}
	}
}

func (s *SessionStore) evictIdle(now time.Time) {
	s.mu.Lock()
	var victims []*Session
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.idle {
			delete(s.sessions, id)
			s.removeOrderLocked(id)
			victims = append(victims, sess)
		}
	}
	s.mu.Unlock()

	for _, sess := range victims {
		sess.Coord.Close()
	}
}

// cloneState copies st so the caller's copy shares nothing with the
// live pipeline state.
func cloneState(st pipeline.DisplayState) pipeline.DisplayState {
	if st.ErrorMessage != nil {
		m := *st.ErrorMessage
		st.ErrorMessage = &m
	}
	return st
}
