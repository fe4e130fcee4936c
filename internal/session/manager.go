// Package session ties one agent and one fresh conversation log together
// under an opaque id. Each session is exclusively owned by its creator, so
// concurrent sessions cannot interfere with each other's history.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartassistant/internal/agent"
	"smartassistant/internal/memory"
)

// AgentKind selects which orchestrator a session runs.
type AgentKind string

const (
	KindWeather AgentKind = "weather"
	KindFinance AgentKind = "finance"
)

var ErrNotFound = errors.New("session not found")

// Session is one live conversation with one agent.
type Session struct {
	ID             string
	Kind           AgentKind
	Agent          agent.Agent
	Log            *memory.Log
	StartedAt      time.Time
	LastActivityAt time.Time
}

// Factory builds the agent and its conversation log for a new session.
type Factory func(kind AgentKind) (agent.Agent, *memory.Log, error)

// Manager owns live sessions and expires inactive ones.
type Manager struct {
	mu                sync.RWMutex
	sessions          map[string]*Session
	factory           Factory
	inactivityTimeout time.Duration
	onExpire          func(*Session)
}

func NewManager(factory Factory, inactivityTimeout time.Duration) *Manager {
	if inactivityTimeout <= 0 {
		inactivityTimeout = 10 * time.Minute
	}
	return &Manager{
		sessions:          make(map[string]*Session),
		factory:           factory,
		inactivityTimeout: inactivityTimeout,
	}
}

func (m *Manager) SetExpireHook(hook func(*Session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onExpire = hook
}

// Create starts a session with a fresh, empty conversation log.
func (m *Manager) Create(kind AgentKind) (*Session, error) {
	switch kind {
	case KindWeather, KindFinance:
	default:
		return nil, fmt.Errorf("unknown agent kind %q", kind)
	}
	ag, log, err := m.factory(kind)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	s := &Session{
		ID:             uuid.NewString(),
		Kind:           kind,
		Agent:          ag,
		Log:            log,
		StartedAt:      now,
		LastActivityAt: now,
	}
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Touch marks a session active.
func (m *Manager) Touch(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.LastActivityAt = time.Now().UTC()
	return nil
}

// End discards a session; its conversation log is not persisted anywhere.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// StartJanitor expires inactive sessions until ctx is done.
func (m *Manager) StartJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
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

func (m *Manager) expireInactive() {
	now := time.Now().UTC()
	var expired []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if now.Sub(s.LastActivityAt) < m.inactivityTimeout {
			continue
		}
		delete(m.sessions, id)
		expired = append(expired, s)
	}
	hook := m.onExpire
	m.mu.Unlock()

	if hook != nil {
		for _, s := range expired {
			hook(s)
		}
	}
}
