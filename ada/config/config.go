package config

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/odit-bit/ada/ada/agent/driver"
	"github.com/odit-bit/ada/ada/agent/tooldef"
	"github.com/odit-bit/ada/ada/dialogue"
	"github.com/odit-bit/ada/ada/messaging"
	"github.com/odit-bit/ada/ada/session"
	"github.com/odit-bit/ada/ada/store"
)

//go:embed config.yaml
var defaultConfig embed.FS

const EnvPrefix = "ADA"

const redacted = "******"

// holds aggregats configuration across ada environment.
type Config struct {
	Server    ServerConfig     `yaml:"server" mapstructure:"server"`
	Provider  Provider         `yaml:"provider" mapstructure:"provider"`
	Dialogue  DialogueConfig   `yaml:"dialogue" mapstructure:"dialogue"`
	Database  store.Config     `yaml:"database" mapstructure:"database"`
	Session   session.Config   `yaml:"session" mapstructure:"session"`
	Messaging messaging.Config `yaml:"messaging" mapstructure:"messaging"`
	Telegram  TelegramConfig   `yaml:"telegram" mapstructure:"telegram"`
	Tools     []tooldef.Config `yaml:"tools" mapstructure:"tools"`
	Observe   ObsConfig        `yaml:"observability" mapstructure:"observability"`
}

// ada server config
type ServerConfig struct {
	Address string `yaml:"address" mapstructure:"address"`
	Debug   bool   `yaml:"debug" mapstructure:"debug"`
	// upper bound of one conversation turn
	TurnTimeout time.Duration `yaml:"turn_timeout" mapstructure:"turn_timeout"`
}

// external llm provider
type Provider struct {
	Name     string        `yaml:"name" mapstructure:"name"`
	Model    string        `yaml:"model" mapstructure:"model"`
	ApiKey   string        `yaml:"apikey" mapstructure:"apikey"`
	Endpoint string        `yaml:"endpoint" mapstructure:"endpoint"`
	Options  driver.Config `yaml:"options" mapstructure:"options"`
}

type DialogueConfig struct {
	// full or basic
	Variant  string `yaml:"variant" mapstructure:"variant"`
	Timezone string `yaml:"timezone" mapstructure:"timezone"`
	Region   string `yaml:"region" mapstructure:"region"`
}

type TelegramConfig struct {
	Token       string        `yaml:"token" mapstructure:"token"`
	PollTimeout time.Duration `yaml:"poll_timeout" mapstructure:"poll_timeout"`
}

type ObsConfig struct {
	Enable bool `yaml:"enable" mapstructure:"enable"`
	// prometheus, otlp or stdout
	Metrics string `yaml:"metrics" mapstructure:"metrics"`
	// otlp or stdout, empty disable tracing
	Traces string `yaml:"traces" mapstructure:"traces"`
	// http endpoint exporter
	MetricsEndpoint string `yaml:"metrics_endpoint" mapstructure:"metrics_endpoint"`
	TraceEndpoint   string `yaml:"trace_endpoint" mapstructure:"trace_endpoint"`
	// secure endpoint (https)
	Secure bool `yaml:"secure" mapstructure:"secure"`
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Address == "" {
		errs = append(errs, errors.New("server address is required"))
	} else if _, _, err := net.SplitHostPort(c.Server.Address); err != nil {
		errs = append(errs, fmt.Errorf("invalid server address format: %w", err))
	}
	if c.Server.TurnTimeout <= 0 {
		errs = append(errs, errors.New("server turn_timeout must be positive"))
	}

	if c.Provider.Name == "" {
		errs = append(errs, errors.New("provider name is required"))
	}
	if c.Provider.Model == "" {
		errs = append(errs, errors.New("provider model is required"))
	}

	if _, err := dialogue.ParseVariant(c.Dialogue.Variant); err != nil {
		errs = append(errs, err)
	}

	if c.Database.Host == "" || c.Database.Name == "" {
		errs = append(errs, errors.New("database host and name are required"))
	}

	switch c.Messaging.Provider {
	case "", "log", "twilio":
	default:
		errs = append(errs, fmt.Errorf("unknown messaging provider %q", c.Messaging.Provider))
	}

	return errors.Join(errs...)
}

// Redacted return a copy safe to print.
func (c Config) Redacted() Config {
	mask := func(s *string) {
		if *s != "" {
			*s = redacted
		}
	}
	mask(&c.Provider.ApiKey)
	mask(&c.Database.Password)
	mask(&c.Messaging.Twilio.AuthToken)
	mask(&c.Telegram.Token)
	if c.Session.RedisURL != "" {
		c.Session.RedisURL = redactURL(c.Session.RedisURL)
	}

	tools := make([]tooldef.Config, len(c.Tools))
	copy(tools, c.Tools)
	for i := range tools {
		mask(&tools[i].ApiKey)
	}
	c.Tools = tools
	return c
}

func redactURL(u string) string {
	scheme, rest, ok := strings.Cut(u, "://")
	if !ok {
		return u
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return u
	}
	user, _, _ := strings.Cut(creds, ":")
	return scheme + "://" + user + ":" + redacted + "@" + host
}

// load configuration from default embedded config.yaml, provided config.yaml, .env, env and flags before validation.
func LoadAndValidate(flags *pflag.FlagSet) (*Config, error) {
	cfg, err := Load(flags)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load read the configuration without validating it.
func Load(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// 1. dotenv file feeds the environment, real env variables win
	envFile, _ := flags.GetString(FLAG_ENV_FILE)
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file: %w", err)
		}
	}

	// 2. Bind env variable
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 3. Bind Pflags flags
	for flagName, configKey := range flagToConfigKeyMap {
		if f := flags.Lookup(flagName); f != nil {
			if err := v.BindPFlag(configKey, f); err != nil {
				return nil, fmt.Errorf("failed to bind flag %s: %w", flagName, err)
			}
		}
	}

	// 4. Set default value by reading from the embedded config.yaml
	defaultBytes, _ := defaultConfig.ReadFile("config.yaml")
	if err := v.ReadConfig(bytes.NewReader(defaultBytes)); err != nil {
		return nil, fmt.Errorf("failed to read default config: %w", err)
	}

	// 5. Merge external config file if provided
	configFile, _ := flags.GetString(FLAG_SERVER_CONFIG_FILE)
	if configFile != "" {
		providedBytes, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("config : %w", err)
		}
		if err := v.MergeConfig(bytes.NewReader(providedBytes)); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// 6. Unmarshal
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	return &cfg, nil
}
