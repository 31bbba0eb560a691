package reservation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/odit-bit/ada/ada/agent/toolprovider/xtime"
	"github.com/odit-bit/ada/ada/agent/tooldef"
	"github.com/odit-bit/ada/ada/dialogue"
)

const DraftNamespace = "reservation_draft"

var errNoConversation = errors.New("no reservation in progress for this turn")

func init() {
	tooldef.Register(DraftNamespace, NewDraftProvider)
}

var fieldDefs = map[dialogue.Field]agent.ParameterDefinition{
	dialogue.FieldName:            {Type: "string", Description: "first name of the guest"},
	dialogue.FieldSurname:         {Type: "string", Description: "family name of the guest"},
	dialogue.FieldDate:            {Type: "string", Description: "date as YYYY-MM-DD, or the word today or tomorrow"},
	dialogue.FieldTime:            {Type: "string", Description: "time as 24-hour HH:MM"},
	dialogue.FieldReservationType: {Type: "string", Description: "kind of table, for example booth, backstage or stage"},
	dialogue.FieldPartySize:       {Type: "integer", Description: "number of guests as a plain number"},
}

var _ agent.ToolProvider = (*draft)(nil)

type draft struct {
	def   agent.Tool
	clock *xtime.Clock
}

func NewDraftProvider(cfg tooldef.Config, env tooldef.Env) (agent.ToolProvider, error) {
	v := env.Variant
	if v.Name == "" {
		v = dialogue.VariantFull
	}

	props := map[string]agent.ParameterDefinition{}
	for _, f := range v.Required {
		props[string(f)] = fieldDefs[f]
	}

	return &draft{
		def: agent.Tool{
			Type: "function",
			Function: agent.Function{
				Name:        dialogue.ToolUpdate,
				Description: "record reservation details the customer stated. pass only the details stated in the latest message.",
				Parameters: agent.ParameterSchema{
					Type:       agent.Parameter_Type_Object,
					Properties: props,
					Required:   []string{},
				},
			},
		},
		clock: xtime.NewClock(env.Location, env.Region, env.Now),
	}, nil
}

func (d *draft) Def() agent.Tool {
	return d.def
}

func (d *draft) Ping(ctx context.Context) error {
	return nil
}

func (d *draft) Call(ctx context.Context, fc agent.FunctionCall) (*agent.ToolResponse, error) {
	conv, ok := dialogue.FromContext(ctx)
	if !ok {
		return nil, errNoConversation
	}

	args, err := decodeArgs(fc.Arguments)
	if err != nil {
		return nil, err
	}

	u, parseErr := d.toUpdate(args)
	state, applyErr := conv.Apply(u)

	out := map[string]any{
		"state":   string(state),
		"missing": fieldNames(conv.Missing()),
	}

	var rejected []string
	for _, err := range []error{parseErr, applyErr} {
		rejected = append(rejected, flatten(err)...)
	}

	switch {
	case len(rejected) > 0:
		out["errors"] = rejected
		out["instruction"] = "explain what was wrong and ask the customer again for the rejected details"
	case state == dialogue.StateConfirming:
		out["summary"] = conv.Summary()
		out["instruction"] = "repeat the summary to the customer and ask them to confirm it"
	default:
		out["instruction"] = "ask the customer for the missing details"
	}

	slog.Debug("reservation draft updated",
		"sender", conv.Sender(),
		"state", state,
		"rejected", len(rejected),
	)

	return &agent.ToolResponse{Name: dialogue.ToolUpdate, Output: out}, nil
}

func (d *draft) toUpdate(args map[string]any) (dialogue.Update, error) {
	var u dialogue.Update
	var errs []error

	text := func(f dialogue.Field) *string {
		raw, ok := args[string(f)]
		if !ok || raw == nil {
			return nil
		}
		switch x := raw.(type) {
		case string:
			return &x
		case json.Number:
			s := x.String()
			return &s
		}
		errs = append(errs, &dialogue.FieldError{Field: f, Err: fmt.Errorf("unexpected value %v", raw)})
		return nil
	}

	u.Name = text(dialogue.FieldName)
	u.Surname = text(dialogue.FieldSurname)
	u.Time = text(dialogue.FieldTime)
	u.ReservationType = text(dialogue.FieldReservationType)

	if date := text(dialogue.FieldDate); date != nil {
		resolved, err := d.resolveDate(*date)
		if err != nil {
			errs = append(errs, &dialogue.FieldError{Field: dialogue.FieldDate, Err: err})
		} else {
			u.Date = &resolved
		}
	}

	if raw, ok := args[string(dialogue.FieldPartySize)]; ok && raw != nil {
		n, err := dialogue.ParsePartySize(raw)
		if err != nil {
			errs = append(errs, &dialogue.FieldError{Field: dialogue.FieldPartySize, Err: err})
		} else {
			u.PartySize = &n
		}
	}

	return u, errors.Join(errs...)
}

// resolveDate turn today or tomorrow into a calendar date of the clock zone.
func (d *draft) resolveDate(s string) (string, error) {
	offset := -1
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "today", "bugün", "bugun":
		offset = 0
	case "tomorrow", "yarın", "yarin":
		offset = 1
	}
	if offset < 0 {
		return s, nil
	}

	today, err := d.clock.Today()
	if err != nil {
		return "", fmt.Errorf("could not resolve %q: %w", s, err)
	}
	return today.AddDate(0, 0, offset).Format(dialogue.DateLayout), nil
}

func decodeArgs(s string) (map[string]any, error) {
	args := map[string]any{}
	if strings.TrimSpace(s) == "" {
		return args, nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("invalid tool arguments: %w", err)
	}
	return args, nil
}

func fieldNames(fs []dialogue.Field) []string {
	out := make([]string, len(fs))
	for i, f := range fs {
		out[i] = string(f)
	}
	return out
}

// flatten split a joined error into one message per field.
func flatten(err error) []string {
	if err == nil {
		return nil
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []string
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []string{err.Error()}
}
