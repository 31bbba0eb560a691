package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/odit-bit/ada/ada/agent/tooldef"
	"github.com/odit-bit/ada/ada/dialogue"
	"github.com/odit-bit/ada/ada/store"
)

const CommitNamespace = "reservation_commit"

var errPanic = errors.New("panic while saving reservation")

func init() {
	tooldef.Register(CommitNamespace, NewCommitProvider)
}

var _ agent.ToolProvider = (*commit)(nil)

type commit struct {
	def     agent.Tool
	store   store.Saver
	counter metric.Int64Counter
}

func NewCommitProvider(cfg tooldef.Config, env tooldef.Env) (agent.ToolProvider, error) {
	if env.Store == nil {
		return nil, errors.New("reservation store is required")
	}

	meter := otel.Meter("ada.reservation")
	counter, err := meter.Int64Counter(
		"ada.reservation.commit_total",
		metric.WithDescription("Reservation commit attempts by result."),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create commit counter: %w", err)
	}

	return &commit{
		def: agent.Tool{
			Type: "function",
			Function: agent.Function{
				Name:        dialogue.ToolCommit,
				Description: "save the reservation. call it only after the customer explicitly confirmed the summary, then relay the returned text exactly.",
				Parameters: agent.ParameterSchema{
					Type: agent.Parameter_Type_Object,
					Properties: map[string]agent.ParameterDefinition{
						"confirmed": {Type: "boolean", Description: "true when the customer confirmed the summary"},
					},
					Required: []string{"confirmed"},
				},
			},
		},
		store:   env.Store,
		counter: counter,
	}, nil
}

func (c *commit) Def() agent.Tool {
	return c.def
}

func (c *commit) Ping(ctx context.Context) error {
	return c.store.Ping(ctx)
}

func (c *commit) Call(ctx context.Context, fc agent.FunctionCall) (*agent.ToolResponse, error) {
	conv, ok := dialogue.FromContext(ctx)
	if !ok {
		return nil, errNoConversation
	}

	var args struct {
		Confirmed bool `json:"confirmed"`
	}
	if strings.TrimSpace(fc.Arguments) != "" {
		if err := json.Unmarshal([]byte(fc.Arguments), &args); err != nil {
			return nil, fmt.Errorf("invalid tool arguments: %w", err)
		}
	}
	if !args.Confirmed {
		return c.pending(conv, "the customer has not confirmed the summary yet"), nil
	}

	text, inserted, err := conv.Commit(ctx, c.save(conv.Sender()))
	switch {
	case err == nil:
		if inserted {
			c.count(ctx, "success")
		}

	case errors.Is(err, dialogue.ErrIncomplete), errors.Is(err, dialogue.ErrNotConfirmed):
		return c.pending(conv, err.Error()), nil

	case errors.Is(err, store.ErrStorage):
		text = DatabaseFailureReply
		slog.Error("failed make reservation", "failure", "persistence", "sender", conv.Sender(), "error", err)
		conv.RecordOutcome(text)
		c.count(ctx, "persistence_failure")

	default:
		text = UnexpectedFailureReply
		slog.Error("failed make reservation", "failure", "unexpected", "sender", conv.Sender(), "error", err)
		conv.RecordOutcome(text)
		c.count(ctx, "unexpected_failure")
	}

	return &agent.ToolResponse{
		Name:   dialogue.ToolCommit,
		Output: map[string]any{"result": text},
	}, nil
}

func (c *commit) pending(conv *dialogue.Conversation, reason string) *agent.ToolResponse {
	out := map[string]any{
		"error": reason,
		"state": string(conv.State()),
	}
	if missing := conv.Missing(); len(missing) > 0 {
		out["missing"] = fieldNames(missing)
		out["instruction"] = "ask the customer for the missing details"
	} else {
		out["summary"] = conv.Summary()
		out["instruction"] = "repeat the summary and wait for the customer to confirm it"
	}
	return &agent.ToolResponse{Name: dialogue.ToolCommit, Output: out}
}

// save run while the conversation is locked and must not call back into it.
func (c *commit) save(sender string) dialogue.CommitFunc {
	return func(ctx context.Context, req dialogue.Request) (text string, err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("%w: %v", errPanic, r)
			}
		}()

		id, err := c.store.Save(ctx, store.Record{
			Sender:          sender,
			Name:            req.Name,
			Surname:         req.Surname,
			Date:            req.Date,
			Time:            req.Time,
			ReservationType: req.ReservationType,
			PartySize:       req.PartySize,
		})
		if err != nil {
			return "", err
		}

		slog.Info("reservation saved", "id", id, "sender", sender, "date", req.Date, "time", req.Time)
		return ConfirmationText(req), nil
	}
}

func (c *commit) count(ctx context.Context, result string) {
	c.counter.Add(ctx, 1, metric.WithAttributes(attribute.String("result", result)))
}
