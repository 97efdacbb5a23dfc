// Package session tracks one active chat session per user: the mode the
// conversation is currently in and the per-mode flow cursors. Starting a
// new session (or expiring an idle one) resets every cursor, which is
// what makes scripts replay from the top after a restart.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/antoniostano/zoey/internal/mode"
)

type Status string

const (
	StatusActive Status = "active"
	StatusEnded  Status = "ended"
)

var ErrNotFound = errors.New("session not found")

type Session struct {
	ID             string          `json:"session_id"`
	UserID         string          `json:"user_id"`
	Status         Status          `json:"status"`
	ActiveMode     mode.ID         `json:"active_mode"`
	Cursors        map[mode.ID]int `json:"cursors"`
	TurnCount      int             `json:"turn_count"`
	StartedAt      time.Time       `json:"started_at"`
	LastActivityAt time.Time       `json:"last_activity_at"`
}

type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	sessionByUser     map[string]string
	inactivityTimeout time.Duration
	onExpire          func(*Session)
}

func NewManager(inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 30 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		sessionByUser:     make(map[string]string),
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Create starts a fresh session for the user with all cursors at zero,
// ending any session the user already has.
func (m *Manager) Create(userID string, initial mode.ID) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return clone(m.createLocked(userID, initial))
}

func (m *Manager) createLocked(userID string, initial mode.ID) *Session {
	now := time.Now().UTC()
	s := &Session{
		ID:             uuid.NewString(),
		UserID:         userID,
		Status:         StatusActive,
		ActiveMode:     initial,
		Cursors:        make(map[mode.ID]int),
		StartedAt:      now,
		LastActivityAt: now,
	}

	if prevID, ok := m.sessionByUser[userID]; ok {
		if prev, ok := m.sessions[prevID]; ok && prev.Status == StatusActive {
			prev.Status = StatusEnded
			prev.LastActivityAt = now
		}
	}
	m.sessions[s.ID] = s
	m.sessionByUser[userID] = s.ID
	return s
}

// Ensure returns the user's active session, creating one when none
// exists.
func (m *Manager) Ensure(userID string, initial mode.ID) *Session {
	m.mu.RLock()
	id, ok := m.sessionByUser[userID]
	if ok {
		if s, ok := m.sessions[id]; ok && s.Status == StatusActive {
			c := clone(s)
			m.mu.RUnlock()
			return c
		}
	}
	m.mu.RUnlock()
	return m.Create(userID, initial)
}

func (m *Manager) Get(sessionID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// ByUser returns the user's active session.
func (m *Manager) ByUser(userID string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.sessionByUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := m.sessions[id]
	if !ok || s.Status != StatusActive {
		return nil, ErrNotFound
	}
	return clone(s), nil
}

// EnterMode makes md the session's active mode and returns the cursor to
// advance from. Switching into a mode resets that mode's cursor to zero.
// A user without a live session gets a fresh one: the janitor may expire
// a session at any point, and expiry behaves like a restart rather than
// failing the turn in flight.
func (m *Manager) EnterMode(userID string, md mode.ID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.activeLocked(userID)
	if err != nil {
		s = m.createLocked(userID, md)
	}
	if s.ActiveMode != md {
		s.Cursors[md] = 0
		s.ActiveMode = md
	}
	s.LastActivityAt = time.Now().UTC()
	return s.Cursors[md]
}

// SetCursor stores the next cursor for a mode after a turn advanced it.
func (m *Manager) SetCursor(userID string, md mode.ID, cursor int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, err := m.activeLocked(userID)
	if err != nil {
		return err
	}
	if cursor < 0 {
		cursor = 0
	}
	s.Cursors[md] = cursor
	s.TurnCount++
	s.LastActivityAt = time.Now().UTC()
	return nil
}

func (m *Manager) End(sessionID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	s.Status = StatusEnded
	s.LastActivityAt = time.Now().UTC()
	if cur, ok := m.sessionByUser[s.UserID]; ok && cur == s.ID {
		delete(m.sessionByUser, s.UserID)
	}
	return clone(s), nil
}

func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				m.expireInactive()
			}
		}
	}()
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, s := range m.sessions {
		if s.Status == StatusActive {
			count++
		}
	}
	return count
}

func (m *Manager) activeLocked(userID string) (*Session, error) {
	id, ok := m.sessionByUser[userID]
	if !ok {
		return nil, ErrNotFound
	}
	s, ok := m.sessions[id]
	if !ok || s.Status != StatusActive {
		return nil, ErrNotFound
	}
	return s, nil
}

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []*Session

	m.mu.Lock()
	for _, s := range m.sessions {
		if s.Status != StatusActive {
			continue
		}
		if now.Sub(s.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		s.Status = StatusEnded
		s.LastActivityAt = now
		expired = append(expired, clone(s))
		if cur, ok := m.sessionByUser[s.UserID]; ok && cur == s.ID {
			delete(m.sessionByUser, s.UserID)
		}
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}

func clone(s *Session) *Session {
	c := *s
	c.Cursors = make(map[mode.ID]int, len(s.Cursors))
	for k, v := range s.Cursors {
		c.Cursors[k] = v
	}
	return &c
}
