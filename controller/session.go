package controller

import (
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/pkg/errors"
)

// Session is the explicit state of one browser session.
//
// Sessions are independent: nothing here is shared between them.
type Session struct {
	mu sync.Mutex
	// ID is the cookie value that names the session.
	ID string
	// SampleIndex is the position of the current sample in the sample list.
	SampleIndex int
	// Last is the most recent successful render, nil before the first one.
	Last *Render
	// Request is the most recent submitted request, kept to prefill the form.
	Request *Request
}

// Snapshot returns copies of the mutable fields.
func (s *Session) Snapshot() (sampleIndex int, last *Render, req *Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.SampleIndex, s.Last, s.Request
}

// Shuffle picks a new sample index in [0, n).
//
// When n > 1 the new index always differs from the current one.
//
// Arguments:
//   - n: The number of samples.
//   - intN: Returns a uniform random integer in [0, k). Nil uses math/rand/v2.
//
// Returns:
//   - The new sample index.
func (s *Session) Shuffle(n int, intN func(k int) int) int {
	if intN == nil {
		intN = rand.IntN
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case n <= 1:
		s.SampleIndex = 0
	default:
		// Draw from the n-1 other indices.
		next := intN(n - 1)
		if next >= s.SampleIndex {
			next++
		}
		s.SampleIndex = next
	}
	return s.SampleIndex
}

// Remember records req as the request that prefills the session form.
func (s *Session) Remember(req Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Request = &req
}

func (s *Session) commit(r *Render) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Last = r
}

// SessionStore holds live sessions, dropping the least recently used beyond its limit.
type SessionStore struct {
	sessions *lru.Cache[string, *Session]
}

// NewSessionStore creates a store holding up to limit sessions.
func NewSessionStore(limit int) (*SessionStore, error) {
	if limit < 1 {
		limit = 1
	}
	sessions, err := lru.New[string, *Session](limit)
	if err != nil {
		return nil, errors.Wrap(err, "create session store")
	}
	return &SessionStore{sessions: sessions}, nil
}

// New creates and stores a session with a fresh id.
func (s *SessionStore) New() *Session {
	session := &Session{ID: uuid.NewString()}
	s.sessions.Add(session.ID, session)
	return session
}

// Get returns the session with id.
func (s *SessionStore) Get(id string) (*Session, bool) {
	if id == "" {
		return nil, false
	}
	return s.sessions.Get(id)
}

// GetOrCreate returns the session with id, or a new session when id is unknown.
//
// Returns:
//   - *Session: The session.
//   - bool: True when a new session was created.
func (s *SessionStore) GetOrCreate(id string) (*Session, bool) {
	if session, ok := s.Get(id); ok {
		return session, false
	}
	return s.New(), true
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	return s.sessions.Len()
}
