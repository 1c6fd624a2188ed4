// Package session owns the per-visitor state that used to live in global
// contexts: the cart and the signed-in user.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"storefront-service/internal/cart"
	"storefront-service/internal/domain"
)

// StorageFactory returns the durable storage scoped to one session.
type StorageFactory func(sessionID string) cart.Storage

// Session is one visitor's cart plus an optional signed-in user.
type Session struct {
	ID   string
	Cart *cart.Cart

	mu   sync.RWMutex
	user *domain.User
}

// User returns the signed-in user, or nil for a guest.
func (s *Session) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// UserID returns the signed-in user's id; ok is false for a guest.
func (s *Session) UserID() (string, bool) {
	u := s.User()
	if u == nil {
		return "", false
	}
	return u.ID, true
}

func (s *Session) SignIn(user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = &user
}

func (s *Session) SignOut() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
}

// Manager hands out sessions by id. Sessions idle for longer than idleTTL
// are dropped by Sweep; their carts stay in storage and are rehydrated on the
// next Open. At most maxLive sessions are held; opening past the cap evicts
// the least recently seen one.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	storage  StorageFactory
	idleTTL  time.Duration
	maxLive  int
	now      func() time.Time
	logger   *zap.Logger
}

type entry struct {
	session  *Session
	lastSeen time.Time
}

// Limits bounds the live session set. Zero values disable the bound.
type Limits struct {
	IdleTTL time.Duration
	MaxLive int
}

func NewManager(storage StorageFactory, limits Limits, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*entry),
		storage:  storage,
		idleTTL:  limits.IdleTTL,
		maxLive:  limits.MaxLive,
		now:      time.Now,
		logger:   logger,
	}
}

// Open returns the live session for id. An id that is not yet live is opened
// and its cart rehydrated from storage; an empty or malformed id gets a fresh
// one. created reports whether a new session was opened.
func (m *Manager) Open(ctx context.Context, id string) (s *Session, created bool) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		parsed = uuid.New()
	}
	id = parsed.String()

	if s, ok := m.touch(id); ok {
		return s, false
	}

	// Storage is read without holding m.mu.
	fresh := &Session{
		ID:   id,
		Cart: cart.New(ctx, m.storage(id), m.logger.With(zap.String("session_id", id))),
	}
	return m.insert(fresh)
}

// SignIn signs user into s under a newly issued id and returns the session to
// use from now on. The cart moves to the new id's storage and the old id is
// no longer live.
func (m *Manager) SignIn(ctx context.Context, s *Session, user domain.User) *Session {
	rotated := &Session{ID: uuid.NewString(), Cart: s.Cart}
	rotated.SignIn(user)
	rotated.Cart.Rebind(ctx, m.storage(rotated.ID))

	m.mu.Lock()
	delete(m.sessions, s.ID)
	m.mu.Unlock()

	// The old handle may still be used by requests in flight.
	s.SignOut()

	m.insert(rotated)
	m.logger.Debug("session rotated on sign-in", zap.String("session_id", rotated.ID))
	return rotated
}

// Sweep drops sessions idle for longer than the idle TTL and reports how many
// were dropped.
func (m *Manager) Sweep() int {
	if m.idleTTL <= 0 {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sweepLocked()
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	if m.idleTTL <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Debug("idle sessions dropped", zap.Int("count", n), zap.Int("live", m.Len()))
			}
		}
	}
}

// Len is the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) touch(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[id]
	if !ok {
		return nil, false
	}
	now := m.now()
	if m.idleTTL > 0 && now.Sub(e.lastSeen) > m.idleTTL {
		delete(m.sessions, id)
		return nil, false
	}
	e.lastSeen = now
	return e.session, true
}

// insert stores s unless another request opened the same id first, in which
// case the live session wins.
func (m *Manager) insert(s *Session) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if e, ok := m.sessions[s.ID]; ok {
		e.lastSeen = now
		return e.session, false
	}
	if m.maxLive > 0 && len(m.sessions) >= m.maxLive {
		m.sweepLocked()
		for len(m.sessions) >= m.maxLive {
			m.evictOldestLocked()
		}
	}
	m.sessions[s.ID] = &entry{session: s, lastSeen: now}
	m.logger.Debug("session opened", zap.String("session_id", s.ID))
	return s, true
}

func (m *Manager) sweepLocked() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.idleTTL)
	n := 0
	for id, e := range m.sessions {
		if e.lastSeen.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

func (m *Manager) evictOldestLocked() {
	var (
		oldestID string
		oldest   time.Time
	)
	for id, e := range m.sessions {
		if oldestID == "" || e.lastSeen.Before(oldest) {
			oldestID, oldest = id, e.lastSeen
		}
	}
	delete(m.sessions, oldestID)
}
