package session

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/odit-bit/ada/ada/agent"
	"github.com/odit-bit/ada/ada/dialogue"
)

// Session is the conversation state of one sender.
type Session struct {
	ID      string
	Key     string
	Created time.Time

	// held for the length of a turn
	sem chan struct{}

	mu         sync.Mutex
	history    []*agent.Message
	maxHistory int
	conv       *dialogue.Conversation

	lastActive atomic.Int64
}

func newSession(key string, conv *dialogue.Conversation, maxHistory int, now time.Time) *Session {
	s := &Session{
		ID:         uuid.NewString(),
		Key:        key,
		Created:    now,
		sem:        make(chan struct{}, 1),
		maxHistory: maxHistory,
		conv:       conv,
	}
	s.Touch(now)
	return s
}

// Acquire wait until no other turn runs on the session.
func (s *Session) Acquire(ctx context.Context) (release func(), err error) {
	select {
	case s.sem <- struct{}{}:
		return func() { <-s.sem }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *Session) busy() bool {
	return len(s.sem) > 0
}

func (s *Session) Conversation() *dialogue.Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conv
}

// History return a copy of the stored messages, oldest first.
func (s *Session) History() []*agent.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*agent.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Append add msgs and drop the oldest exchanges beyond the history limit.
func (s *Session) Append(msgs ...*agent.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = append(s.history, msgs...)

	if s.maxHistory <= 0 || len(s.history) <= s.maxHistory {
		return
	}
	h := s.history[len(s.history)-s.maxHistory:]
	// never start with a tool exchange cut in half
	for len(h) > 0 && h[0].Role != agent.RoleUser {
		h = h[1:]
	}
	s.history = append([]*agent.Message(nil), h...)
}

// Reset forget the history and start a new reservation.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.history = nil
	s.conv = dialogue.NewConversation(s.conv.Sender(), s.conv.Variant())
}

func (s *Session) Touch(now time.Time) {
	s.lastActive.Store(now.UnixNano())
}

func (s *Session) LastActive() time.Time {
	return time.Unix(0, s.lastActive.Load())
}
