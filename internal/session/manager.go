package session

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/termfolio/termfolio/internal/env"
	"github.com/termfolio/termfolio/internal/events"
	"github.com/termfolio/termfolio/internal/logging"
	"github.com/termfolio/termfolio/internal/metrics"
	"github.com/termfolio/termfolio/internal/mount"
)

// Loader builds a fresh mount table, for remounting.
type Loader func(ctx context.Context) (*mount.Table, error)

// Manager owns all live sessions and the mount table they share.
type Manager struct {
	mounts atomic.Pointer[mount.Table]
	stores env.Sessions
	opts   Options
	bus    *events.Broadcaster

	mu       sync.RWMutex
	sessions map[string]*Session

	remountMu sync.Mutex
}

// NewManager starts with table. bus may be nil.
func NewManager(table *mount.Table, stores env.Sessions, opts Options, bus *events.Broadcaster) *Manager {
	m := &Manager{
		stores:   stores,
		opts:     opts,
		bus:      bus,
		sessions: make(map[string]*Session),
	}
	m.mounts.Store(table)
	return m
}

// Mounts returns the current mount table.
func (m *Manager) Mounts() *mount.Table { return m.mounts.Load() }

// Create starts a session with a new id and the default variables.
func (m *Manager) Create(ctx context.Context, userAgent string) (*Session, error) {
	id := uuid.NewString()
	store := m.stores.Session(id)
	if err := env.InitDefaults(ctx, store); err != nil {
		return nil, fmt.Errorf("init session env: %w", err)
	}

	opts := m.opts
	opts.UserAgent = userAgent
	s := New(id, &m.mounts, store, opts)

	m.mu.Lock()
	m.sessions[id] = s
	n := len(m.sessions)
	m.mu.Unlock()

	metrics.SetSessionsActive(n)
	logging.Info("session created", zap.String("session", id))
	m.publish(events.Event{Type: events.EventSessionCreated, Session: id})
	return s, nil
}

// Get looks up a live session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// End removes a session and deletes its variables.
func (m *Manager) End(ctx context.Context, id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	n := len(m.sessions)
	m.mu.Unlock()
	if !ok {
		return nil
	}

	metrics.SetSessionsActive(n)
	m.publish(events.Event{Type: events.EventSessionEnded, Session: id})
	if err := m.stores.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session %s env: %w", id, err)
	}
	return nil
}

// Expire ends sessions idle for longer than ttl and returns how many.
func (m *Manager) Expire(ctx context.Context, ttl time.Duration) int {
	cutoff := time.Now().Add(-ttl)

	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		if s.LastSeen().Before(cutoff) {
			stale = append(stale, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range stale {
		if err := m.End(ctx, id); err != nil {
			logging.Warn("expire session", zap.String("session", id), zap.Error(err))
		}
	}
	return len(stale)
}

// RunExpiry calls Expire every interval until ctx is done.
func (m *Manager) RunExpiry(ctx context.Context, ttl, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Expire(ctx, ttl); n > 0 {
				logging.Info("expired sessions", zap.Int("count", n))
			}
		}
	}
}

// Remount rebuilds the mount table with load and swaps it in for every
// session at once. On failure the old table stays.
func (m *Manager) Remount(ctx context.Context, load Loader) error {
	m.remountMu.Lock()
	defer m.remountMu.Unlock()

	start := time.Now()
	table, err := load(ctx)
	if err != nil {
		logging.Error("remount failed", zap.Error(err))
		m.publish(events.Event{Type: events.EventRemountFailed, Error: err.Error()})
		return fmt.Errorf("remount: %w", err)
	}
	m.mounts.Store(table)

	counts := make(map[string]int)
	for _, alias := range table.Aliases() {
		if fs, ok := table.FS(alias); ok {
			counts[alias] = fs.Len()
		}
	}
	logging.Info("remounted",
		zap.Int("mounts", len(counts)),
		zap.Duration("duration", time.Since(start)))
	m.publish(events.Event{Type: events.EventRemounted, Mounts: counts})
	return nil
}

func (m *Manager) publish(e events.Event) {
	if m.bus != nil {
		m.bus.Publish(e)
	}
}
