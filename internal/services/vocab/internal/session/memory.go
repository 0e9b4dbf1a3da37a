package session

import (
	"context"
	"sync"
	"time"
)

type cursor struct {
	pos     int64
	expires time.Time
}

// Memory keeps session cursors in process memory. A cursor expires when it is not advanced
// for the configured TTL.
type Memory struct {
	mu      sync.Mutex
	cursors map[string]*cursor
	ttl     time.Duration
	now     func() time.Time
}

func NewMemory(ttl time.Duration) *Memory {
	return &Memory{
		cursors: make(map[string]*cursor),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (m *Memory) Create(ctx context.Context, userID int64, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for k, c := range m.cursors {
		if !now.Before(c.expires) {
			delete(m.cursors, k)
		}
	}

	k := key(userID, sessionID)
	if _, ok := m.cursors[k]; ok {
		return ErrExists
	}

	m.cursors[k] = &cursor{expires: now.Add(m.ttl)}
	return nil
}

// Advance returns the current position of the cursor and moves it one step forward.
func (m *Memory) Advance(ctx context.Context, userID int64, sessionID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	k := key(userID, sessionID)
	c, ok := m.cursors[k]
	if !ok {
		return 0, ErrNotFound
	}

	now := m.now()
	if !now.Before(c.expires) {
		delete(m.cursors, k)
		return 0, ErrNotFound
	}

	pos := c.pos
	c.pos++
	c.expires = now.Add(m.ttl)

	return pos, nil
}
