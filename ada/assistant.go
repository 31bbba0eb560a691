package ada

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/odit-bit/ada/ada/dialogue"
	"github.com/odit-bit/ada/ada/session"
)

const (
	TimeoutReply = "I'm sorry, I'm unable to respond right now. Please try again in a moment."
	// used when the model answers with nothing
	EmptyReply = "Sorry, I didn't catch that. Could you say it again?"

	defaultTurnTimeout = 30 * time.Second
)

var ErrEmptyMessage = errors.New("message is empty")

type Agent interface {
	Completion(ctx context.Context, msgs []*agent.Message) (*agent.Message, error)
}

// Assistant runs conversation turns for every sender.
type Assistant struct {
	agent    Agent
	sessions *session.Manager
	timeout  time.Duration
	timeouts metric.Int64Counter
}

func NewAssistant(a Agent, sessions *session.Manager, turnTimeout time.Duration) *Assistant {
	if turnTimeout <= 0 {
		turnTimeout = defaultTurnTimeout
	}

	meter := otel.Meter("ada.turn")
	timeouts, err := meter.Int64Counter(
		"ada.turn.timeout_total",
		metric.WithDescription("Turns answered with the timeout reply."),
	)
	if err != nil {
		panic(err)
	}

	return &Assistant{
		agent:    a,
		sessions: sessions,
		timeout:  turnTimeout,
		timeouts: timeouts,
	}
}

func (a *Assistant) Sessions() *session.Manager {
	return a.sessions
}

// Turn answer one inbound message of sender. Turns of the same sender run one
// at a time. A commit outcome recorded during the turn is returned as the
// reply unchanged.
func (a *Assistant) Turn(ctx context.Context, sender, text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyMessage
	}

	sess := a.sessions.GetOrCreate(ctx, sender)

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	release, err := sess.Acquire(ctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return a.timedOut(ctx, sender, "waiting for previous turn"), nil
		}
		return "", err
	}
	defer release()
	defer a.sessions.Save(context.WithoutCancel(ctx), sess)

	userMsg := agent.NewTextMessage(agent.RoleUser, text)

	if dialogue.IsGreeting(text) {
		sess.Append(userMsg, agent.NewTextMessage(agent.RoleAssistant, dialogue.GreetingReply))
		return dialogue.GreetingReply, nil
	}

	conv := sess.Conversation()
	turn := conv.BeginTurn()

	msgs := []*agent.Message{agent.NewTextMessage(agent.RoleSystem, dialogue.SystemPrompt(conv))}
	msgs = append(msgs, sess.History()...)
	msgs = append(msgs, userMsg)

	out, err := a.agent.Completion(dialogue.WithConversation(ctx, conv), msgs)

	var reply string
	if outcome, ok := conv.Outcome(); ok {
		reply = outcome
	} else if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return a.timedOut(ctx, sender, "completion"), nil
		}
		slog.Error("failed completion", "sender", sender, "turn", turn, "error", err)
		return "", fmt.Errorf("turn failed: %w", err)
	} else {
		reply = strings.TrimSpace(out.Text())
	}

	if reply == "" {
		reply = EmptyReply
	}

	sess.Append(userMsg, agent.NewTextMessage(agent.RoleAssistant, reply))
	slog.Debug("turn finished", "sender", sender, "turn", turn, "state", conv.State())
	return reply, nil
}

func (a *Assistant) timedOut(ctx context.Context, sender, stage string) string {
	a.timeouts.Add(context.WithoutCancel(ctx), 1)
	slog.Warn("turn timeout", "sender", sender, "stage", stage, "timeout", a.timeout)
	return TimeoutReply
}

// Reset forget the conversation of sender.
func (a *Assistant) Reset(ctx context.Context, sender string) {
	if err := a.sessions.Reset(ctx, sender); err != nil {
		slog.Warn("failed reset session", "sender", sender, "error", err)
	}
}
