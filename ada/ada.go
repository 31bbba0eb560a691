package ada

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/odit-bit/ada/ada/agent/driver"
	"github.com/odit-bit/ada/ada/agent/tooldef"
	_ "github.com/odit-bit/ada/ada/agent/toolprovider"
	"github.com/odit-bit/ada/ada/agent/toolprovider/xtime"
	"github.com/odit-bit/ada/ada/config"
	"github.com/odit-bit/ada/ada/dialogue"
	"github.com/odit-bit/ada/ada/messaging"
	"github.com/odit-bit/ada/ada/session"
	"github.com/odit-bit/ada/ada/store"
)

// App wires every component of the reservation assistant.
type App struct {
	*Assistant

	Config   *config.Config
	Store    *store.Store
	Sessions *session.Manager
	Sender   messaging.Sender
}

func NewProvider(ctx context.Context, cfg config.Provider) (agent.Provider, error) {
	opts := cfg.Options
	if cfg.Endpoint != "" {
		opts.Endpoint = cfg.Endpoint
	}

	switch cfg.Name {
	case "ollama":
		return driver.NewOllamaAdapter(cfg.Model, cfg.ApiKey, &opts)
	case "genai":
		return driver.NewGeminiAdapter(ctx, cfg.Model, cfg.ApiKey, &opts)
	}
	return nil, fmt.Errorf("unknown provider specified in config: %s", cfg.Name)
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Validate the final config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	//logging
	if cfg.Server.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
		slog.Debug("configuration", "config", cfg.Redacted())
	}

	variant, err := dialogue.ParseVariant(cfg.Dialogue.Variant)
	if err != nil {
		return nil, err
	}

	// llm provider
	provider, err := NewProvider(ctx, cfg.Provider)
	if err != nil {
		slog.Error("ada init provider", "error", err)
		return nil, err
	}

	// storage
	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}
	if cfg.Database.Migrate {
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, err
		}
	}

	loc, err := xtime.LoadLocation(cfg.Dialogue.Timezone)
	if err != nil {
		// the clock answers with its fallback text
		slog.Warn("failed load time zone", "zone", cfg.Dialogue.Timezone, "error", err)
	}

	// tools
	t, err := tooldef.Build(ctx, cfg.Tools, tooldef.Env{
		Store:    st,
		Location: loc,
		Region:   cfg.Dialogue.Region,
		Variant:  variant,
	})
	if err != nil {
		st.Close()
		return nil, err
	}
	slog.Debug("tools", "list", tooldef.RegisteredTools())

	// sessions
	opts := []session.Option{}
	if cfg.Session.RedisURL != "" {
		mirror, err := session.NewRedisMirror(ctx, cfg.Session.RedisURL)
		if err != nil {
			st.Close()
			return nil, err
		}
		opts = append(opts, session.WithMirror(mirror))
	}
	sessions := session.NewManager(cfg.Session, variant, opts...)

	sender, err := messaging.New(cfg.Messaging)
	if err != nil {
		st.Close()
		sessions.Close()
		return nil, err
	}

	// agent
	a := agent.New(provider, agent.WithTool(t...))

	return &App{
		Assistant: NewAssistant(a, sessions, cfg.Server.TurnTimeout),
		Config:    cfg,
		Store:     st,
		Sessions:  sessions,
		Sender:    sender,
	}, nil
}

func (a *App) Close() error {
	return errors.Join(a.Sessions.Close(), a.Store.Close())
}
