package tooldef

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/odit-bit/ada/ada/agent"
	"github.com/odit-bit/ada/ada/dialogue"
	"github.com/odit-bit/ada/ada/store"
)

// managing tool life cycle

// configuration for tool implementation
type Config struct {
	//name of tools that Register function use for discover
	Name string `yaml:"name" mapstructure:"name"`
	//connection string for external call
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	//secret or api key for tool
	ApiKey string `yaml:"apikey" mapstructure:"apikey"`
	//set true if tool need to skip ping when it's build.
	//see agent.ToolProvider for interface.
	DisablePing bool `yaml:"disableping" mapstructure:"disableping"`
}

// Env carries the shared dependencies handed to every tool constructor.
type Env struct {
	Store    store.Saver
	Location *time.Location
	// Region is the place name used when reporting the time
	Region  string
	Variant dialogue.Variant
	// Now overrides the wall clock, nil means time.Now
	Now func() time.Time
}

type ProviderConstructFunc func(cfg Config, env Env) (agent.ToolProvider, error)

var providers = make(map[string]ProviderConstructFunc)

var dmutex sync.RWMutex

func Register(name string, p ProviderConstructFunc) {
	dmutex.Lock()
	defer dmutex.Unlock()
	if p == nil {
		panic("tooldef: Register provider is nil")
	}
	if _, dup := providers[name]; dup {
		panic("tooldef: Register called twice for provider " + name)
	}
	providers[name] = p
}

func Count() int {
	dmutex.RLock()
	defer dmutex.RUnlock()
	return len(providers)
}

func Build(ctx context.Context, cfgs []Config, env Env) ([]agent.ToolProvider, error) {
	//temporary list provider
	type providerToBuild struct {
		provider agent.ToolProvider
		config   Config
	}
	toBuild := []providerToBuild{}

	dmutex.RLock()
	for _, cfg := range cfgs {
		fn, ok := providers[cfg.Name]
		if !ok {
			slog.Warn("tool provider initated but not available, forget to register ?", "name", cfg.Name)
			continue
		}
		p, err := fn(cfg, env)
		if err != nil {
			dmutex.RUnlock()
			return nil, fmt.Errorf("tooldef: build %s: %w", cfg.Name, err)
		}
		toBuild = append(toBuild, providerToBuild{provider: p, config: cfg})
	}
	dmutex.RUnlock()

	t := []agent.ToolProvider{}
	for _, item := range toBuild {
		if !item.config.DisablePing {
			if err := item.provider.Ping(ctx); err != nil {
				slog.Warn("skip build tool that not respond ping",
					"name", item.config.Name,
					"endpoint", item.config.Endpoint,
					"error", err,
				)
				continue
			}
		}

		t = append(t, item.provider)
		slog.Debug("tool initate", "name", item.config.Name, "function", item.provider.Def().Function.Name)
	}

	return t, nil
}

// RegisteredTools returns a sorted list of all registered tool provider names.
func RegisteredTools() []string {
	dmutex.RLock()
	defer dmutex.RUnlock()
	names := make([]string, 0, len(providers))
	for name := range providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
