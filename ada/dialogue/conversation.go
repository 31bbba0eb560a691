package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
)

type State string

const (
	StateCollecting State = "collecting"
	StateConfirming State = "confirming"
	StateCommitted  State = "committed"
)

var (
	ErrIncomplete   = errors.New("reservation is missing required fields")
	ErrNotConfirmed = errors.New("the summary has not been confirmed by the user yet")
)

// CommitFunc persists a complete request and return the text shown to the user.
type CommitFunc func(ctx context.Context, req Request) (string, error)

// Conversation tracks one in-progress reservation of a session.
//
// State moves collecting -> confirming -> committed. Commit is accepted only
// on a turn after the one that produced the confirming summary, so the user
// always sees the summary before anything is written.
type Conversation struct {
	mu sync.Mutex

	sender  string
	variant Variant
	state   State
	req     Request

	turn        int
	summaryTurn int

	commitText  string
	outcome     string
	outcomeTurn int
}

func NewConversation(sender string, v Variant) *Conversation {
	return &Conversation{
		sender:  sender,
		variant: v,
		state:   StateCollecting,
	}
}

func (c *Conversation) Sender() string {
	return c.sender
}

func (c *Conversation) Variant() Variant {
	return c.variant
}

// BeginTurn mark the start of a new user turn and return its number.
func (c *Conversation) BeginTurn() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.turn++
	return c.turn
}

func (c *Conversation) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Conversation) Request() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req
}

// Missing list the required fields that are still unknown, in variant order.
func (c *Conversation) Missing() []Field {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.missing()
}

func (c *Conversation) missing() []Field {
	out := []Field{}
	for _, f := range c.variant.Required {
		if !c.req.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// Apply merge the stated values into the request and re-evaluate the state.
// Valid fields are merged even when others are rejected; rejected fields are
// reported as a joined *FieldError.
func (c *Conversation) Apply(u Update) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if u.IsEmpty() {
		return c.state, nil
	}

	// a committed booking is only replaced once a new value is accepted
	next := c.req
	if c.state == StateCommitted {
		next = Request{}
	}

	var errs []error
	changed := false

	setText := func(f Field, dst *string, v *string, normalize func(string) (string, error)) {
		if v == nil {
			return
		}
		s := strings.TrimSpace(*v)
		if s == "" {
			return
		}
		if normalize != nil {
			n, err := normalize(s)
			if err != nil {
				errs = append(errs, &FieldError{Field: f, Err: err})
				return
			}
			s = n
		}
		if *dst != s {
			*dst = s
			changed = true
		}
	}

	setText(FieldName, &next.Name, u.Name, nil)
	setText(FieldSurname, &next.Surname, u.Surname, nil)
	setText(FieldDate, &next.Date, u.Date, NormalizeDate)
	setText(FieldTime, &next.Time, u.Time, NormalizeTime)
	setText(FieldReservationType, &next.ReservationType, u.ReservationType, nil)

	if u.PartySize != nil {
		n := *u.PartySize
		switch {
		case n < 1 || n > MaxPartySize:
			errs = append(errs, &FieldError{Field: FieldPartySize, Err: ErrPartySizeRange})
		case next.PartySize != n:
			next.PartySize = n
			changed = true
		}
	}

	if c.state == StateCommitted {
		if !changed {
			return c.state, errors.Join(errs...)
		}
		c.commitText = ""
		c.state = StateCollecting
	}
	c.req = next

	c.evaluate(changed)
	return c.state, errors.Join(errs...)
}

func (c *Conversation) evaluate(changed bool) {
	complete := len(c.missing()) == 0
	switch {
	case !complete:
		c.state = StateCollecting
	case c.state != StateConfirming || changed:
		c.state = StateConfirming
		c.summaryTurn = c.turn
	}
}

// Summary restate the current request for confirmation.
func (c *Conversation) Summary() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.req.Summary(c.variant)
}

// Commit persist the request through fn once the user confirmed it.
// In the committed state it return the previous confirmation and inserted is false.
func (c *Conversation) Commit(ctx context.Context, fn CommitFunc) (text string, inserted bool, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.state {
	case StateCommitted:
		return c.commitText, false, nil

	case StateCollecting:
		return "", false, fmt.Errorf("%w: %s", ErrIncomplete, joinFields(c.missing()))
	}

	if c.turn <= c.summaryTurn {
		return "", false, ErrNotConfirmed
	}

	text, err = fn(ctx, c.req)
	if err != nil {
		return "", false, err
	}

	c.state = StateCommitted
	c.commitText = text
	c.setOutcome(text)
	return text, true, nil
}

// RecordOutcome store text as the reply of the current turn.
func (c *Conversation) RecordOutcome(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setOutcome(text)
}

func (c *Conversation) setOutcome(text string) {
	c.outcome = text
	c.outcomeTurn = c.turn
}

// Outcome return the commit outcome recorded during the current turn.
func (c *Conversation) Outcome() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.outcome == "" || c.outcomeTurn != c.turn {
		return "", false
	}
	return c.outcome, true
}

func joinFields(fs []Field) string {
	s := make([]string, len(fs))
	for i, f := range fs {
		s[i] = string(f)
	}
	return strings.Join(s, ", ")
}

// Snapshot is the serialisable form of a conversation.
type Snapshot struct {
	Sender      string  `json:"sender"`
	Variant     string  `json:"variant"`
	State       State   `json:"state"`
	Request     Request `json:"request"`
	Turn        int     `json:"turn"`
	SummaryTurn int     `json:"summary_turn"`
	CommitText  string  `json:"commit_text,omitempty"`
}

func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		Sender:      c.sender,
		Variant:     c.variant.Name,
		State:       c.state,
		Request:     c.req,
		Turn:        c.turn,
		SummaryTurn: c.summaryTurn,
		CommitText:  c.commitText,
	}
}

// Restore rebuild a conversation from a snapshot.
func Restore(s Snapshot) (*Conversation, error) {
	v, err := ParseVariant(s.Variant)
	if err != nil {
		return nil, err
	}
	switch s.State {
	case StateCollecting, StateConfirming, StateCommitted:
	default:
		return nil, fmt.Errorf("unknown dialogue state %q", s.State)
	}
	return &Conversation{
		sender:      s.Sender,
		variant:     v,
		state:       s.State,
		req:         s.Request,
		turn:        s.Turn,
		summaryTurn: s.SummaryTurn,
		commitText:  s.CommitText,
	}, nil
}
