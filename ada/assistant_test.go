package ada

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/odit-bit/ada/ada/agent/toolprovider/reservation"
	"github.com/odit-bit/ada/ada/agent/tooldef"
	"github.com/odit-bit/ada/ada/dialogue"
	"github.com/odit-bit/ada/ada/session"
	"github.com/odit-bit/ada/ada/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSender = "whatsapp:+905551112233"

type memStore struct {
	mu    sync.Mutex
	saved []store.Record
	err   error
}

func (m *memStore) Save(ctx context.Context, rec store.Record) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	m.saved = append(m.saved, rec)
	return int64(len(m.saved)), nil
}

func (m *memStore) Ping(ctx context.Context) error { return nil }

// scriptedProvider answer a user message with the scripted tool call, and a
// tool result with the text produced by after.
type scriptedProvider struct {
	mu    sync.Mutex
	calls int
	tools map[string]agent.FunctionCall
	texts map[string]string
	after func(out map[string]any) string
}

func (p *scriptedProvider) Chat(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	last := req.Messages[len(req.Messages)-1]
	if last.Role == agent.RoleTool {
		out := last.Parts[0].ToolResponse.Output
		return &agent.CCRes{Choices: []agent.Choice{{Text: p.after(out)}}}, nil
	}

	text := last.Text()
	if fc, ok := p.tools[text]; ok {
		return &agent.CCRes{Choices: []agent.Choice{{ToolCalls: []*agent.ToolCall{{
			ID: "call_1", Type: "function", Function: fc,
		}}}}}, nil
	}
	if reply, ok := p.texts[text]; ok {
		return &agent.CCRes{Choices: []agent.Choice{{Text: reply}}}, nil
	}
	return nil, fmt.Errorf("no script for %q", text)
}

func (p *scriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestAssistant(t *testing.T, p agent.Provider, st store.Saver, timeout time.Duration) *Assistant {
	t.Helper()
	loc := time.FixedZone("+03", 3*60*60)
	env := tooldef.Env{
		Store:    st,
		Location: loc,
		Variant:  dialogue.VariantBasic,
		Now: func() time.Time {
			return time.Date(2026, 10, 15, 18, 0, 0, 0, loc)
		},
	}
	tools, err := tooldef.Build(context.Background(), []tooldef.Config{
		{Name: "clock"},
		{Name: reservation.DraftNamespace},
		{Name: reservation.CommitNamespace},
	}, env)
	require.NoError(t, err)
	require.Len(t, tools, 3)

	a := agent.New(p, agent.WithTool(tools...))
	return NewAssistant(a, session.NewManager(session.Config{}, dialogue.VariantBasic), timeout)
}

func reservationScript() *scriptedProvider {
	return &scriptedProvider{
		texts: map[string]string{
			"I want a reservation": "Sure! May I have your name, the date, time and number of guests?",
		},
		tools: map[string]agent.FunctionCall{
			"Mustafa Cankan, today, 20:00, 8 guests": {
				Name:      dialogue.ToolUpdate,
				Arguments: `{"name":"Mustafa Cankan","date":"today","time":"20:00","party_size":8}`,
			},
			"yes": {
				Name:      dialogue.ToolCommit,
				Arguments: `{"confirmed":true}`,
			},
			"what time is it?": {
				Name: "get_current_time",
			},
		},
		after: func(out map[string]any) string {
			if s, ok := out["summary"]; ok {
				return fmt.Sprintf("Please confirm: %v", s)
			}
			if r, ok := out["result"]; ok {
				// the model paraphrases
				return fmt.Sprintf("Done! %v", r)
			}
			return "ok"
		},
	}
}

func TestAssistant_ReservationConversation(t *testing.T) {
	ctx := context.Background()
	st := &memStore{}
	p := reservationScript()
	a := newTestAssistant(t, p, st, 5*time.Second)

	reply, err := a.Turn(ctx, testSender, "Hello")
	require.NoError(t, err)
	assert.Equal(t, dialogue.GreetingReply, reply)
	assert.Zero(t, p.Calls(), "greeting does not reach the model")

	reply, err = a.Turn(ctx, testSender, "I want a reservation")
	require.NoError(t, err)
	assert.Contains(t, reply, "May I have your name")

	reply, err = a.Turn(ctx, testSender, "Mustafa Cankan, today, 20:00, 8 guests")
	require.NoError(t, err)
	assert.Equal(t, "Please confirm: name: Mustafa Cankan, date: 2026-10-15, time: 20:00, party size: 8", reply)
	assert.Empty(t, st.saved)

	reply, err = a.Turn(ctx, testSender, "yes")
	require.NoError(t, err)
	assert.Equal(t,
		"OK! I've successfully made a reservation for Mustafa Cankan on 2026-10-15 at 20:00 for 8 guest(s). Have fun! See you soon!",
		reply,
		"commit outcome is relayed verbatim",
	)
	require.Len(t, st.saved, 1)
	assert.Equal(t, testSender, st.saved[0].Sender)

	sess, ok := a.Sessions().Lookup(testSender)
	require.True(t, ok)
	assert.Equal(t, dialogue.StateCommitted, sess.Conversation().State())
	assert.Len(t, sess.History(), 8)
}

func TestAssistant_GreetingWhileConfirming(t *testing.T) {
	ctx := context.Background()
	st := &memStore{}
	p := reservationScript()
	a := newTestAssistant(t, p, st, 5*time.Second)

	_, err := a.Turn(ctx, testSender, "Mustafa Cankan, today, 20:00, 8 guests")
	require.NoError(t, err)
	sess, ok := a.Sessions().Lookup(testSender)
	require.True(t, ok)
	before := sess.Conversation().Snapshot()
	require.Equal(t, dialogue.StateConfirming, before.State)
	calls := p.Calls()

	reply, err := a.Turn(ctx, testSender, "hi")
	require.NoError(t, err)
	assert.Equal(t, dialogue.GreetingReply, reply)
	assert.Equal(t, calls, p.Calls())
	assert.Equal(t, before, sess.Conversation().Snapshot(), "request, state and turn guard are unchanged")

	reply, err = a.Turn(ctx, testSender, "yes")
	require.NoError(t, err)
	assert.Contains(t, reply, "OK! I've successfully made a reservation for Mustafa Cankan")
	assert.Len(t, st.saved, 1)
}

func TestAssistant_ClockQuestionLeavesDraft(t *testing.T) {
	p := reservationScript()
	p.after = func(out map[string]any) string { return fmt.Sprint(out["result"]) }
	a := newTestAssistant(t, p, &memStore{}, 5*time.Second)

	reply, err := a.Turn(context.Background(), testSender, "what time is it?")
	require.NoError(t, err)
	assert.Equal(t, "The current date in Turkey is 2026-10-15. The current time is 18:00:00 +03+0300.", reply)

	sess, ok := a.Sessions().Lookup(testSender)
	require.True(t, ok)
	assert.Equal(t, dialogue.Request{}, sess.Conversation().Request())
}

func TestAssistant_StorageFailure(t *testing.T) {
	st := &memStore{err: fmt.Errorf("%w: connection refused", store.ErrStorage)}
	a := newTestAssistant(t, reservationScript(), st, 5*time.Second)
	ctx := context.Background()

	_, err := a.Turn(ctx, testSender, "Mustafa Cankan, today, 20:00, 8 guests")
	require.NoError(t, err)

	reply, err := a.Turn(ctx, testSender, "yes")
	require.NoError(t, err)
	assert.Equal(t, reservation.DatabaseFailureReply, reply)
	assert.Empty(t, st.saved)
}

func TestAssistant_Timeout(t *testing.T) {
	p := &mockProvider{
		ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}
	a := newTestAssistant(t, p, &memStore{}, 20*time.Millisecond)

	reply, err := a.Turn(context.Background(), testSender, "book a table")
	require.NoError(t, err)
	assert.Equal(t, TimeoutReply, reply)
}

func TestAssistant_ProviderError(t *testing.T) {
	p := &mockProvider{
		ChatFunc: func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
			return nil, errors.New("quota exceeded")
		},
	}
	a := newTestAssistant(t, p, &memStore{}, time.Second)

	_, err := a.Turn(context.Background(), testSender, "book a table")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")

	_, err = a.Turn(context.Background(), testSender, "   ")
	require.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAssistant_SendersAreIsolated(t *testing.T) {
	p := reservationScript()
	a := newTestAssistant(t, p, &memStore{}, 5*time.Second)
	ctx := context.Background()

	_, err := a.Turn(ctx, testSender, "Mustafa Cankan, today, 20:00, 8 guests")
	require.NoError(t, err)
	_, err = a.Turn(ctx, "telegram:42", "I want a reservation")
	require.NoError(t, err)

	other, ok := a.Sessions().Lookup("telegram:42")
	require.True(t, ok)
	assert.Equal(t, dialogue.StateCollecting, other.Conversation().State())
	assert.Equal(t, 2, a.Sessions().Count())

	a.Reset(ctx, "telegram:42")
	other, ok = a.Sessions().Lookup("telegram:42")
	require.True(t, ok)
	assert.Empty(t, other.History())
	assert.Equal(t, dialogue.StateCollecting, other.Conversation().State())
}

type mockProvider struct {
	ChatFunc func(ctx context.Context, req agent.CCReq) (*agent.CCRes, error)
}

func (m *mockProvider) Chat(ctx context.Context, req agent.CCReq) (*agent.CCRes, error) {
	return m.ChatFunc(ctx, req)
}
