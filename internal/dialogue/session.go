package dialogue

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ankittk/tasktalk/internal/intent"
	"github.com/ankittk/tasktalk/pkg/models"
)

// Session is one user's conversation. Hold Lock for a whole turn so turns of the
// same user run one at a time.
type Session struct {
	mu     sync.Mutex
	turns  []intent.Turn
	retain int
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// History returns a copy of the retained turns, oldest first. Caller holds the lock.
func (s *Session) History() []intent.Turn {
	out := make([]intent.Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Append records a turn, dropping the oldest beyond the retention window. Caller holds the lock.
func (s *Session) Append(t intent.Turn) {
	s.turns = append(s.turns, t)
	if over := len(s.turns) - s.retain; s.retain > 0 && over > 0 {
		s.turns = append(s.turns[:0:0], s.turns[over:]...)
	}
}

// SessionStore keeps the most recently active users' sessions in memory.
// Nothing survives a restart.
type SessionStore struct {
	mu     sync.Mutex
	cache  *lru.Cache[int64, *Session]
	retain int
}

// NewSessionStore holds up to capacity sessions of retain turns each.
// Non-positive values use the defaults.
func NewSessionStore(capacity, retain int) *SessionStore {
	if capacity <= 0 {
		capacity = models.DefaultSessionCapacity
	}
	if retain <= 0 {
		retain = models.DefaultHistoryRetained
	}
	cache, _ := lru.New[int64, *Session](capacity) // only errors on non-positive size
	return &SessionStore{cache: cache, retain: retain}
}

// Get returns the user's session, creating it on first use.
func (s *SessionStore) Get(userID int64) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.cache.Get(userID); ok {
		return sess
	}
	sess := &Session{retain: s.retain}
	s.cache.Add(userID, sess)
	return sess
}

// Reset clears the user's history. It waits for an in-flight turn of that user.
func (s *SessionStore) Reset(userID int64) {
	sess := s.Get(userID)
	sess.Lock()
	sess.turns = nil
	sess.Unlock()
}

// Len returns the number of sessions held.
func (s *SessionStore) Len() int { return s.cache.Len() }
