package config

import "github.com/spf13/pflag"

const (
	FLAG_PROVIDER_KEY      = "p_key"
	FLAG_PROVIDER_ENDPOINT = "p_addr"
	FLAG_PROVIDER_NAME     = "p_name"
	FLAG_PROVIDER_MODEL    = "p_model"

	FLAG_SERVER_ADDRESS     = "addr"
	FLAG_SERVER_DEBUG       = "debug"
	FLAG_SERVER_CONFIG_FILE = "config"
	FLAG_ENV_FILE           = "env-file"

	FLAG_DIALOGUE_VARIANT = "variant"
	FLAG_DATABASE_HOST    = "db_host"
	FLAG_SESSION_REDIS    = "redis"
	FLAG_MESSAGING        = "messaging"
	FLAG_TELEGRAM_TOKEN   = "tg_token"
	FLAG_OBSERVE_ENABLE   = "observe"
)

// Defined set of flags for ada configuration use.
var FlagSet = pflag.NewFlagSet("ada_flags", pflag.ContinueOnError)

var flagToConfigKeyMap = map[string]string{
	FLAG_PROVIDER_KEY:      "provider.apikey",
	FLAG_PROVIDER_ENDPOINT: "provider.endpoint",
	FLAG_PROVIDER_NAME:     "provider.name",
	FLAG_PROVIDER_MODEL:    "provider.model",

	FLAG_SERVER_ADDRESS: "server.address",
	FLAG_SERVER_DEBUG:   "server.debug",

	FLAG_DIALOGUE_VARIANT: "dialogue.variant",
	FLAG_DATABASE_HOST:    "database.host",
	FLAG_SESSION_REDIS:    "session.redis_url",
	FLAG_MESSAGING:        "messaging.provider",
	FLAG_TELEGRAM_TOKEN:   "telegram.token",
	FLAG_OBSERVE_ENABLE:   "observability.enable",
}

func init() {
	defineFlags(FlagSet)
}

// NewFlagSet return a fresh set carrying every configuration flag.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	defineFlags(fs)
	return fs
}

func defineFlags(fs *pflag.FlagSet) {
	// server
	fs.String(FLAG_SERVER_ADDRESS, "", "server address")
	fs.Bool(FLAG_SERVER_DEBUG, false, "debug log")
	fs.String(FLAG_SERVER_CONFIG_FILE, "", "path to config file")
	fs.String(FLAG_ENV_FILE, ".env", "path to dotenv file")

	// provider
	fs.String(FLAG_PROVIDER_KEY, "", "provider's api key")
	fs.String(FLAG_PROVIDER_ENDPOINT, "", "provider's endpoint")
	fs.String(FLAG_PROVIDER_NAME, "", "provider's name (genai or ollama)")
	fs.String(FLAG_PROVIDER_MODEL, "", "provider's model name")

	// domain
	fs.String(FLAG_DIALOGUE_VARIANT, "", "reservation variant (full or basic)")
	fs.String(FLAG_DATABASE_HOST, "", "postgres host")
	fs.String(FLAG_SESSION_REDIS, "", "redis url for session snapshots")
	fs.String(FLAG_MESSAGING, "", "outbound messaging provider (log or twilio)")
	fs.String(FLAG_TELEGRAM_TOKEN, "", "telegram bot token")

	//observe
	fs.Bool(FLAG_OBSERVE_ENABLE, false, "enable observability default false")
}
