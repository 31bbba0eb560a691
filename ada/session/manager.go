package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/odit-bit/ada/ada/dialogue"
)

type Config struct {
	IdleTimeout   time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	SweepInterval time.Duration `yaml:"sweep_interval" mapstructure:"sweep_interval"`
	MaxHistory    int           `yaml:"max_history" mapstructure:"max_history"`
	// optional snapshot mirror, empty disables it
	RedisURL string `yaml:"redis_url" mapstructure:"redis_url"`
}

const (
	defaultIdleTimeout   = 30 * time.Minute
	defaultSweepInterval = time.Minute
)

type Option func(m *Manager)

func WithMirror(mirror Mirror) Option {
	return func(m *Manager) {
		m.mirror = mirror
	}
}

// WithClock override the wall clock used for idle tracking.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns every live session keyed by normalised sender address.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg     Config
	variant dialogue.Variant
	mirror  Mirror
	now     func() time.Time
}

func NewManager(cfg Config, variant dialogue.Variant, opts ...Option) *Manager {
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = defaultIdleTimeout
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = defaultSweepInterval
	}

	m := &Manager{
		sessions: map[string]*Session{},
		cfg:      cfg,
		variant:  variant,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}

	meter := otel.Meter("ada.session")
	_, err := meter.Int64ObservableGauge(
		"ada.session.active",
		metric.WithDescription("Number of live sessions."),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(m.Count()))
			return nil
		}),
	)
	if err != nil {
		slog.Warn("failed register session gauge", "error", err)
	}

	return m
}

// Lookup return the live session for key.
func (m *Manager) Lookup(key string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	return s, ok
}

// GetOrCreate return the session for key, creating it when absent. A new
// session resumes the mirrored dialogue when one exists.
func (m *Manager) GetOrCreate(ctx context.Context, key string) *Session {
	if s, ok := m.touch(key); ok {
		return s
	}

	conv := m.restore(ctx, key)

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[key]; ok {
		s.Touch(m.now())
		return s
	}
	s := newSession(key, conv, m.cfg.MaxHistory, m.now())
	m.sessions[key] = s
	slog.Debug("session created", "id", s.ID, "key", key)
	return s
}

// touch mark a live session active while holding the lock Evict needs.
func (m *Manager) touch(key string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[key]
	if ok {
		s.Touch(m.now())
	}
	return s, ok
}

func (m *Manager) restore(ctx context.Context, key string) *dialogue.Conversation {
	fresh := dialogue.NewConversation(key, m.variant)
	if m.mirror == nil {
		return fresh
	}

	snap, ok, err := m.mirror.Load(ctx, key)
	if err != nil {
		slog.Warn("failed restore session", "key", key, "error", err)
		return fresh
	}
	if !ok {
		return fresh
	}
	conv, err := dialogue.Restore(snap)
	if err != nil || conv.Variant().Name != m.variant.Name {
		slog.Warn("discard session snapshot", "key", key, "error", err)
		return fresh
	}
	slog.Debug("session restored", "key", key, "state", conv.State())
	return conv
}

// Save mirror the dialogue of s.
func (m *Manager) Save(ctx context.Context, s *Session) {
	s.Touch(m.now())
	if m.mirror == nil {
		return
	}
	if err := m.mirror.Store(ctx, s.Key, s.Conversation().Snapshot(), m.cfg.IdleTimeout); err != nil {
		slog.Warn("failed mirror session", "key", s.Key, "error", err)
	}
}

// Reset start the dialogue of key over and drop its mirrored snapshot.
// A turn running on the session finishes first.
func (m *Manager) Reset(ctx context.Context, key string) error {
	if s, ok := m.Lookup(key); ok {
		release, err := s.Acquire(ctx)
		if err != nil {
			return fmt.Errorf("session: reset %s: %w", key, err)
		}
		s.Reset()
		s.Touch(m.now())
		release()
	}

	if m.mirror != nil {
		if err := m.mirror.Delete(ctx, key); err != nil {
			slog.Warn("failed delete mirrored session", "key", key, "error", err)
		}
	}
	return nil
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Evict remove sessions idle longer than the idle timeout. Sessions in the
// middle of a turn are kept.
func (m *Manager) Evict(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for key, s := range m.sessions {
		if s.busy() || now.Sub(s.LastActive()) <= m.cfg.IdleTimeout {
			continue
		}
		delete(m.sessions, key)
		n++
	}
	if n > 0 {
		slog.Debug("sessions evicted", "count", n, "remaining", len(m.sessions))
	}
	return n
}

// Run sweep idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Evict(m.now())
		}
	}
}

func (m *Manager) Close() error {
	m.mu.Lock()
	m.sessions = map[string]*Session{}
	m.mu.Unlock()

	if m.mirror != nil {
		return m.mirror.Close()
	}
	return nil
}
