package server

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/TFMV/solmap/interact"
)

// session is one live layout: a controller plus the goroutine ticking it
type session struct {
	id      string
	ctrl    *interact.Controller
	created time.Time

	mu       sync.Mutex
	lastSeen time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

func (s *session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// run ticks the controller until ctx is done. Settled layouts keep being
// ticked so that a later drag restarts them.
func (s *session) run(ctx context.Context, interval time.Duration) {
	defer close(s.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.ctrl.Tick()
		}
	}
}

func (s *session) stop() {
	s.cancel()
	<-s.done
}

// sessionStore holds the live sessions in memory, keyed by uuid
type sessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

// start registers ctrl under a fresh id and starts ticking it
func (st *sessionStore) start(ctx context.Context, ctrl *interact.Controller, interval time.Duration) *session {
	ctx, cancel := context.WithCancel(ctx)
	now := time.Now()
	s := &session{
		id:       uuid.NewString(),
		ctrl:     ctrl,
		created:  now,
		lastSeen: now,
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()

	go s.run(ctx, interval)
	return s
}

func (st *sessionStore) get(id string) (*session, bool) {
	st.mu.RLock()
	s, ok := st.sessions[id]
	st.mu.RUnlock()
	if ok {
		s.touch(time.Now())
	}
	return s, ok
}

func (st *sessionStore) remove(id string) bool {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if ok {
		s.stop()
	}
	return ok
}

func (st *sessionStore) len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// reap stops every session idle for longer than ttl and returns their ids
func (st *sessionStore) reap(now time.Time, ttl time.Duration) []string {
	st.mu.Lock()
	var expired []*session
	for id, s := range st.sessions {
		if now.Sub(s.idleSince()) > ttl {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	ids := make([]string, 0, len(expired))
	for _, s := range expired {
		s.stop()
		ids = append(ids, s.id)
	}
	return ids
}

// closeAll stops every session
func (st *sessionStore) closeAll() {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*session)
	st.mu.Unlock()

	for _, s := range all {
		s.stop()
	}
}
