package memory

import (
	"strings"
	"sync"
	"time"
)

// Log is an append-only conversation history owned by one agent session.
// Turns are never edited or deleted; truncation happens only when a capped
// recent window is requested.
type Log struct {
	mu    sync.RWMutex
	turns []Turn
}

func NewLog() *Log {
	return &Log{}
}

// Append adds one turn to the history, stamping CreatedAt when unset.
func (l *Log) Append(t Turn) {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	l.mu.Lock()
	l.turns = append(l.turns, t)
	l.mu.Unlock()
}

// All returns a copy of the full history.
func (l *Log) All() []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]Turn, len(l.turns))
	copy(out, l.turns)
	return out
}

// Recent returns a copy of the most recent limit turns. limit <= 0 returns
// the full history.
func (l *Log) Recent(limit int) []Turn {
	l.mu.RLock()
	defer l.mu.RUnlock()
	n := len(l.turns)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]Turn, limit)
	copy(out, l.turns[n-limit:])
	return out
}

// Len returns the number of turns in the history.
func (l *Log) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.turns)
}

// UserText concatenates the content of all user turns, separated by single
// spaces, for heuristic scanning.
func (l *Log) UserText() string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var parts []string
	for _, t := range l.turns {
		if t.Role == RoleUser && t.Content != "" {
			parts = append(parts, t.Content)
		}
	}
	return strings.Join(parts, " ")
}
