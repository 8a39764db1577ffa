package engine

import (
	"context"
	"sync"
	"time"

	"github.com/brightsmile/frontdesk/pkg/logging"
)

// SessionStore keeps sessions in process memory, keyed by conversation id.
// Distinct conversations never block each other beyond the map lock; the
// orchestrator fetches a session once per turn, threads it through every
// call, and writes it back once at turn exit.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session

	idleTimeout   time.Duration
	sweepInterval time.Duration
	logger        *logging.Logger
	now           func() time.Time

	stop chan struct{}
	done chan struct{}
}

// NewSessionStore creates a store with the given idle timeout and sweep
// interval. Non-positive arguments fall back to 10m / 1m.
func NewSessionStore(idleTimeout, sweepInterval time.Duration, logger *logging.Logger) *SessionStore {
	if idleTimeout <= 0 {
		idleTimeout = 10 * time.Minute
	}
	if sweepInterval <= 0 {
		sweepInterval = time.Minute
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SessionStore{
		sessions:      make(map[string]Session),
		idleTimeout:   idleTimeout,
		sweepInterval: sweepInterval,
		logger:        logger,
		now:           time.Now,
	}
}

// Get returns the session for the conversation id, creating a fresh one when
// absent or idle-expired. The returned value is a copy; callers mutate it
// and write it back with Put.
func (s *SessionStore) Get(id string) Session {
	now := s.now()

	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()

	if ok && now.Sub(sess.LastActiveAt) <= s.idleTimeout {
		return sess
	}

	fresh := Session{
		ConversationID: id,
		Pending:        PendingAction{Kind: PendingNone},
		CreatedAt:      now,
		LastActiveAt:   now,
	}
	s.mu.Lock()
	s.sessions[id] = fresh
	s.mu.Unlock()
	return fresh
}

// Put writes a session back and refreshes its last-activity time.
func (s *SessionStore) Put(sess Session) {
	sess.LastActiveAt = s.now()
	s.mu.Lock()
	s.sessions[sess.ConversationID] = sess
	s.mu.Unlock()
}

// End removes the session immediately, irrespective of idle time.
func (s *SessionStore) End(id string) {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
}

// Len returns the number of live sessions.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Start launches the background sweep. It runs until the context is
// cancelled or Stop is called.
func (s *SessionStore) Start(ctx context.Context) {
	s.mu.Lock()
	if s.stop != nil {
		s.mu.Unlock()
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stop, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		ticker := time.NewTicker(s.sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

// Stop halts the background sweep and waits for it to exit.
func (s *SessionStore) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// sweep removes every session whose idle time exceeds the timeout. This is
// the only place a session is removed without an explicit End.
func (s *SessionStore) sweep() {
	now := s.now()
	var removed int

	s.mu.Lock()
	for id, sess := range s.sessions {
		if now.Sub(sess.LastActiveAt) > s.idleTimeout {
			delete(s.sessions, id)
			removed++
		}
	}
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Debug("swept idle sessions", "removed", removed)
	}
}
