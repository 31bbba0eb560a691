package xtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
	_ "time/tzdata"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/odit-bit/ada/ada/agent/tooldef"
)

const (
	Namespace = "clock"

	// ToolName is the function name the model calls.
	ToolName = "get_current_time"

	DefaultZone   = "Europe/Istanbul"
	DefaultRegion = "Turkey"

	FallbackReply = "I'm having trouble getting the current time right now."
)

var ErrNoLocation = errors.New("time zone is not available")

func init() {
	tooldef.Register(Namespace, NewToolProvider)
}

// Clock report wall time in a fixed zone.
type Clock struct {
	loc    *time.Location
	region string
	now    func() time.Time
}

// NewClock return a clock for loc. A nil loc makes every report fail.
func NewClock(loc *time.Location, region string, now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	if region == "" {
		region = DefaultRegion
	}
	return &Clock{loc: loc, region: region, now: now}
}

// LoadLocation resolve zone, falling back to DefaultZone when empty.
func LoadLocation(zone string) (*time.Location, error) {
	if zone == "" {
		zone = DefaultZone
	}
	return time.LoadLocation(zone)
}

func (c *Clock) Now() (time.Time, error) {
	if c.loc == nil {
		return time.Time{}, ErrNoLocation
	}
	return c.now().In(c.loc), nil
}

// Today return the calendar date in the clock zone.
func (c *Clock) Today() (time.Time, error) {
	now, err := c.Now()
	if err != nil {
		return time.Time{}, err
	}
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.loc), nil
}

// Report format the current date and time as a sentence. It never fails,
// the fallback text is returned instead.
func (c *Clock) Report() string {
	now, err := c.Now()
	if err != nil {
		return FallbackReply
	}
	return fmt.Sprintf("The current date in %s is %s. The current time is %s.",
		c.region,
		now.Format("2006-01-02"),
		now.Format("15:04:05 MST-0700"),
	)
}

var _ agent.ToolProvider = (*clockTool)(nil)

type clockTool struct {
	def   agent.Tool
	clock *Clock
}

// Ping never fails. Without a zone the tool stays available and answers
// with FallbackReply.
func (c *clockTool) Ping(ctx context.Context) error {
	if _, err := c.clock.Now(); err != nil {
		slog.Warn("clock serve fallback reply", "error", err)
	}
	return nil
}

func (c *clockTool) Def() agent.Tool {
	return c.def
}

func NewToolProvider(cfg tooldef.Config, env tooldef.Env) (agent.ToolProvider, error) {
	t := agent.Tool{
		Type: "function",
		Function: agent.Function{
			Name:        ToolName,
			Description: "get the current date and time of the restaurant. use it for questions about today's date or the current time.",
			Parameters: agent.ParameterSchema{
				Type:       agent.Parameter_Type_Object,
				Properties: map[string]agent.ParameterDefinition{},
				Required:   []string{},
			},
		},
	}

	return &clockTool{
		def:   t,
		clock: NewClock(env.Location, env.Region, env.Now),
	}, nil
}

func (c *clockTool) Call(ctx context.Context, fc agent.FunctionCall) (*agent.ToolResponse, error) {
	return &agent.ToolResponse{
		Name: ToolName,
		Output: map[string]any{
			"result": c.clock.Report(),
		},
	}, nil
}
