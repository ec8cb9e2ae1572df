package chat

import (
	"container/list"
	"sync"
	"time"
)

const (
	defaultMaxSessions = 256
	defaultSessionTTL  = 30 * time.Minute
	historyWindow      = 3
)

// Turn is one exchange in a conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Session holds conversation history for one report conversation.
type Session struct {
	ID       string
	ReportID string
	Turns    []Turn
	lastUsed time.Time
}

// RecentTurns returns the trailing history window fed back into prompts.
func (s *Session) RecentTurns() []Turn {
	if len(s.Turns) <= historyWindow {
		return s.Turns
	}
	return s.Turns[len(s.Turns)-historyWindow:]
}

// SessionRegistry keeps chat sessions with a hard capacity and idle TTL.
// Least-recently-used sessions are evicted when the cap is exceeded; stale
// sessions are dropped lazily on access.
type SessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*list.Element
	order    *list.List
	maxSize  int
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionRegistry builds a registry. Non-positive arguments take the
// defaults (256 sessions, 30 minute TTL).
func NewSessionRegistry(maxSize int, ttl time.Duration) *SessionRegistry {
	if maxSize <= 0 {
		maxSize = defaultMaxSessions
	}
	if ttl <= 0 {
		ttl = defaultSessionTTL
	}
	return &SessionRegistry{
		sessions: make(map[string]*list.Element),
		order:    list.New(),
		maxSize:  maxSize,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session for sessionID, creating it when absent or
// expired. The session is bound to reportID; reusing a session id against a
// different report resets its history.
func (r *SessionRegistry) Get(sessionID, reportID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()

	if elem, ok := r.sessions[sessionID]; ok {
		session := elem.Value.(*Session)
		if session.ReportID == reportID {
			session.lastUsed = r.now()
			r.order.MoveToFront(elem)
			return session
		}
		r.order.Remove(elem)
		delete(r.sessions, sessionID)
	}

	session := &Session{ID: sessionID, ReportID: reportID, lastUsed: r.now()}
	r.sessions[sessionID] = r.order.PushFront(session)
	for len(r.sessions) > r.maxSize {
		r.evictOldestLocked()
	}
	return session
}

// Append records a completed question/answer exchange on the session.
func (r *SessionRegistry) Append(session *Session, question, answer string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session.Turns = append(session.Turns,
		Turn{Role: "user", Content: question},
		Turn{Role: "assistant", Content: answer})
	session.lastUsed = r.now()
}

// Reset clears a session's history.
func (r *SessionRegistry) Reset(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if elem, ok := r.sessions[sessionID]; ok {
		elem.Value.(*Session).Turns = nil
	}
}

// Len reports the live session count after pruning expired entries.
func (r *SessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pruneLocked()
	return len(r.sessions)
}

func (r *SessionRegistry) pruneLocked() {
	cutoff := r.now().Add(-r.ttl)
	for {
		back := r.order.Back()
		if back == nil {
			return
		}
		session := back.Value.(*Session)
		if session.lastUsed.After(cutoff) {
			return
		}
		r.order.Remove(back)
		delete(r.sessions, session.ID)
	}
}

func (r *SessionRegistry) evictOldestLocked() {
	back := r.order.Back()
	if back == nil {
		return
	}
	session := back.Value.(*Session)
	r.order.Remove(back)
	delete(r.sessions, session.ID)
}
