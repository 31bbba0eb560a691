package messaging

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Sender deliver a reply to a chat address.
type Sender interface {
	Send(ctx context.Context, to, text string) error
}

type Config struct {
	// log or twilio
	Provider      string       `yaml:"provider" mapstructure:"provider"`
	DefaultRegion string       `yaml:"default_region" mapstructure:"default_region"`
	Twilio        TwilioConfig `yaml:"twilio" mapstructure:"twilio"`
}

func New(cfg Config) (Sender, error) {
	var s Sender
	switch cfg.Provider {
	case "", "log":
		s = LogSender{}
	case "twilio":
		t, err := NewTwilio(cfg.Twilio)
		if err != nil {
			return nil, err
		}
		s = t
	default:
		return nil, fmt.Errorf("unknown messaging provider %q", cfg.Provider)
	}
	return Instrument(s), nil
}

// LogSender write replies to the log instead of a network.
type LogSender struct{}

func (LogSender) Send(ctx context.Context, to, text string) error {
	slog.Info("outbound message", "to", to, "text", text)
	return nil
}

type instrumented struct {
	next     Sender
	failures metric.Int64Counter
}

// Instrument count failed deliveries of next.
func Instrument(next Sender) Sender {
	meter := otel.Meter("ada.messaging")
	failures, err := meter.Int64Counter(
		"ada.messaging.delivery_failure_total",
		metric.WithDescription("Outbound replies that could not be delivered."),
	)
	if err != nil {
		slog.Warn("failed create delivery counter", "error", err)
		return next
	}
	return &instrumented{next: next, failures: failures}
}

func (i *instrumented) Send(ctx context.Context, to, text string) error {
	err := i.next.Send(ctx, to, text)
	if err != nil {
		i.failures.Add(ctx, 1)
		slog.Error("failed deliver message", "to", to, "error", err)
	}
	return err
}
