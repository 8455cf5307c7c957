package memstore

import (
	"context"
	"sync"
	"time"

	"photo-market/internal/domain/model"
	"photo-market/internal/domain/ports/repository"

	"github.com/rs/zerolog"
)

var _ repository.SessionStore = (*SessionStore)(nil)

// SessionStore keeps registrations in process memory. A restart loses them.
type SessionStore struct {
	mu    sync.Mutex
	items map[int64]entry
	ttl   time.Duration
	now   func() time.Time
}

type entry struct {
	s       *model.RegistrationSession
	expires time.Time
}

// NewSessionStore builds a store; ttl <= 0 keeps idle sessions forever.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{items: map[int64]entry{}, ttl: ttl, now: time.Now}
}

func (m *SessionStore) Get(_ context.Context, tgID int64) (*model.RegistrationSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.items[tgID]
	if !ok {
		return model.EmptySession(tgID), nil
	}
	if m.expired(e) {
		delete(m.items, tgID)
		return model.EmptySession(tgID), nil
	}
	return e.s.Clone(), nil
}

// Set stores a copy of s. Sessions without an active step are dropped.
func (m *SessionStore) Set(_ context.Context, tgID int64, s *model.RegistrationSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !s.Active() {
		delete(m.items, tgID)
		return nil
	}
	e := entry{s: s.Clone()}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.items[tgID] = e
	return nil
}

func (m *SessionStore) Clear(_ context.Context, tgID int64) error {
	m.mu.Lock()
	delete(m.items, tgID)
	m.mu.Unlock()
	return nil
}

// Sweep drops expired sessions and returns how many were removed.
func (m *SessionStore) Sweep() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.items {
		if m.expired(e) {
			delete(m.items, id)
			n++
		}
	}
	return n
}

// RunSweeper calls Sweep every interval until ctx is done, so sessions
// abandoned mid-dialogue do not stay in memory. A zero interval derives one
// from the ttl (a quarter, at least a minute).
func (m *SessionStore) RunSweeper(ctx context.Context, every time.Duration, logger *zerolog.Logger) error {
	if m.ttl <= 0 {
		<-ctx.Done()
		return ctx.Err()
	}
	if every <= 0 {
		every = m.ttl / 4
		if every < time.Minute {
			every = time.Minute
		}
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			if n := m.Sweep(); n > 0 {
				logger.Debug().Int("sessions", n).Msg("expired registration sessions dropped")
			}
		}
	}
}

// Len is the number of stored sessions, expired ones included.
func (m *SessionStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

func (m *SessionStore) expired(e entry) bool {
	return !e.expires.IsZero() && !m.now().Before(e.expires)
}
