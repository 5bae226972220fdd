package telegram

import (
	"sync"
	"time"
)

// Wizard limits. Sessions past the TTL are swept lazily, and the map is
// capped so abandoned wizards cannot grow it without bound.
const (
	sessionTTL  = 10 * time.Minute
	maxSessions = 1000
)

// Wizard steps for /remind without arguments.
const (
	stepTime = iota
	stepText
)

// session holds the in-progress state of one reminder creation wizard.
type session struct {
	step      int
	timeHHMM  string
	expiresAt time.Time
}

// sessionStore keeps per-user wizard sessions.
type sessionStore struct {
	mu  sync.Mutex
	m   map[int64]*session
	ttl time.Duration
	cap int
}

func newSessionStore(ttl time.Duration, cap int) *sessionStore {
	return &sessionStore{
		m:   make(map[int64]*session),
		ttl: ttl,
		cap: cap,
	}
}

// get returns the user's live session, dropping it if expired.
func (s *sessionStore) get(userID int64) *session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[userID]
	if !ok {
		return nil
	}
	if time.Now().After(sess.expiresAt) {
		delete(s.m, userID)
		return nil
	}
	return sess
}

// begin starts a fresh session for the user. It reports false when the
// store is full even after sweeping expired entries.
func (s *sessionStore) begin(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.m[userID]; !ok && len(s.m) >= s.cap {
		s.sweepLocked()
		if len(s.m) >= s.cap {
			return false
		}
	}
	s.m[userID] = &session{
		step:      stepTime,
		expiresAt: time.Now().Add(s.ttl),
	}
	return true
}

// advance moves the session to the text step, keeping the parsed time.
func (s *sessionStore) advance(userID int64, hhmm string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.m[userID]
	if !ok {
		return
	}
	sess.step = stepText
	sess.timeHHMM = hhmm
	sess.expiresAt = time.Now().Add(s.ttl)
}

// end removes the user's session.
func (s *sessionStore) end(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}

func (s *sessionStore) sweepLocked() {
	now := time.Now()
	for id, sess := range s.m {
		if now.After(sess.expiresAt) {
			delete(s.m, id)
		}
	}
}
