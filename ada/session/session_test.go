package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/odit-bit/ada/ada/dialogue"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memMirror struct {
	mu    sync.Mutex
	snaps map[string]dialogue.Snapshot
	ttls  map[string]time.Duration
	err   error
}

func newMemMirror() *memMirror {
	return &memMirror{snaps: map[string]dialogue.Snapshot{}, ttls: map[string]time.Duration{}}
}

func (m *memMirror) Load(ctx context.Context, key string) (dialogue.Snapshot, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return dialogue.Snapshot{}, false, m.err
	}
	s, ok := m.snaps[key]
	return s, ok, nil
}

func (m *memMirror) Store(ctx context.Context, key string, snap dialogue.Snapshot, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[key] = snap
	m.ttls[key] = ttl
	return nil
}

func (m *memMirror) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snaps, key)
	return nil
}

func (m *memMirror) Close() error { return nil }

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func TestManager_LookupAndCreate(t *testing.T) {
	m := NewManager(Config{}, dialogue.VariantBasic)
	ctx := context.Background()

	_, ok := m.Lookup("telegram:1")
	assert.False(t, ok)

	s := m.GetOrCreate(ctx, "telegram:1")
	require.NotNil(t, s)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, "telegram:1", s.Conversation().Sender())

	again := m.GetOrCreate(ctx, "telegram:1")
	assert.Same(t, s, again)

	other := m.GetOrCreate(ctx, "telegram:2")
	assert.NotSame(t, s, other)
	assert.Equal(t, 2, m.Count())

	got, ok := m.Lookup("telegram:1")
	require.True(t, ok)
	assert.Same(t, s, got)
}

func TestManager_Evict(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	m := NewManager(Config{IdleTimeout: 10 * time.Minute}, dialogue.VariantBasic, WithClock(clock.now))
	ctx := context.Background()

	idle := m.GetOrCreate(ctx, "idle")
	busy := m.GetOrCreate(ctx, "busy")
	release, err := busy.Acquire(ctx)
	require.NoError(t, err)
	defer release()

	clock.t = clock.t.Add(5 * time.Minute)
	m.GetOrCreate(ctx, "fresh")

	evicted := m.Evict(clock.t.Add(6 * time.Minute))
	assert.Equal(t, 1, evicted)

	_, ok := m.Lookup(idle.Key)
	assert.False(t, ok)
	_, ok = m.Lookup("busy")
	assert.True(t, ok, "session in a turn is kept")
	_, ok = m.Lookup("fresh")
	assert.True(t, ok)
}

func TestManager_MirrorRestore(t *testing.T) {
	mirror := newMemMirror()
	ctx := context.Background()
	cfg := Config{IdleTimeout: time.Minute}

	m := NewManager(cfg, dialogue.VariantBasic, WithMirror(mirror))
	s := m.GetOrCreate(ctx, "whatsapp:+905551112233")
	conv := s.Conversation()
	conv.BeginTurn()
	name := "Ece"
	_, err := conv.Apply(dialogue.Update{Name: &name})
	require.NoError(t, err)
	m.Save(ctx, s)
	assert.Equal(t, time.Minute, mirror.ttls["whatsapp:+905551112233"])

	// a new process with the same mirror
	restarted := NewManager(cfg, dialogue.VariantBasic, WithMirror(mirror))
	rs := restarted.GetOrCreate(ctx, "whatsapp:+905551112233")
	assert.Equal(t, "Ece", rs.Conversation().Request().Name)
	assert.Empty(t, rs.History())

	// snapshots of another variant are discarded
	full := NewManager(cfg, dialogue.VariantFull, WithMirror(mirror))
	fs := full.GetOrCreate(ctx, "whatsapp:+905551112233")
	assert.Empty(t, fs.Conversation().Request().Name)

	require.NoError(t, restarted.Reset(ctx, "whatsapp:+905551112233"))
	assert.Empty(t, rs.Conversation().Request().Name)
	_, ok := mirror.snaps["whatsapp:+905551112233"]
	assert.False(t, ok)
}

func TestManager_MirrorFailureStartsFresh(t *testing.T) {
	mirror := newMemMirror()
	mirror.err = errors.New("connection refused")
	m := NewManager(Config{}, dialogue.VariantBasic, WithMirror(mirror))

	s := m.GetOrCreate(context.Background(), "k")
	assert.Equal(t, dialogue.StateCollecting, s.Conversation().State())
}

func TestSession_AcquireSerializesTurns(t *testing.T) {
	m := NewManager(Config{}, dialogue.VariantBasic)
	s := m.GetOrCreate(context.Background(), "k")

	release, err := s.Acquire(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = s.Acquire(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	release()
	release2, err := s.Acquire(context.Background())
	require.NoError(t, err)
	release2()
}

func TestSession_HistoryLimit(t *testing.T) {
	m := NewManager(Config{MaxHistory: 3}, dialogue.VariantBasic)
	s := m.GetOrCreate(context.Background(), "k")

	s.Append(
		agent.NewTextMessage(agent.RoleUser, "hi"),
		agent.NewTextMessage(agent.RoleAssistant, "hello"),
	)
	s.Append(
		agent.NewTextMessage(agent.RoleUser, "book a table"),
		&agent.Message{Role: agent.RoleTool},
		agent.NewTextMessage(agent.RoleAssistant, "for how many?"),
	)

	h := s.History()
	require.Len(t, h, 3)
	assert.Equal(t, "book a table", h[0].Text())

	// the returned slice is a copy
	h[0] = nil
	assert.NotNil(t, s.History()[0])
}

func TestManager_Reset(t *testing.T) {
	ctx := context.Background()
	mirror := newMemMirror()
	m := NewManager(Config{}, dialogue.VariantBasic, WithMirror(mirror))
	s := m.GetOrCreate(ctx, "k")
	s.Append(agent.NewTextMessage(agent.RoleUser, "hi"))
	conv := s.Conversation()
	conv.BeginTurn()
	name := "Ali"
	_, err := conv.Apply(dialogue.Update{Name: &name})
	require.NoError(t, err)
	m.Save(ctx, s)

	require.NoError(t, m.Reset(ctx, "k"))
	got, ok := m.Lookup("k")
	require.True(t, ok)
	assert.Same(t, s, got)
	assert.Empty(t, s.History())
	assert.NotSame(t, conv, s.Conversation())
	assert.Equal(t, "k", s.Conversation().Sender())
	assert.Empty(t, s.Conversation().Request().Name)
	_, ok = mirror.snaps["k"]
	assert.False(t, ok)

	// unknown keys only clear the mirror
	require.NoError(t, m.Reset(ctx, "missing"))
}

func TestManager_ResetWaitsForTurn(t *testing.T) {
	m := NewManager(Config{}, dialogue.VariantBasic)
	s := m.GetOrCreate(context.Background(), "k")
	release, err := s.Acquire(context.Background())
	require.NoError(t, err)
	defer release()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err = m.Reset(ctx, "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestManager_LookupKeepsSessionFromSweep(t *testing.T) {
	clock := &fakeClock{t: time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)}
	m := NewManager(Config{IdleTimeout: time.Minute}, dialogue.VariantBasic, WithClock(clock.now))
	s := m.GetOrCreate(context.Background(), "k")

	clock.t = clock.t.Add(10 * time.Minute)
	again := m.GetOrCreate(context.Background(), "k")
	require.Same(t, s, again)

	assert.Zero(t, m.Evict(clock.t))
	_, ok := m.Lookup("k")
	assert.True(t, ok)
}

func TestRedisKey(t *testing.T) {
	assert.Equal(t, "ada:session:telegram:42", redisKey("telegram:42"))
}
