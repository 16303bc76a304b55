package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable Load reads.
const EnvPrefix = "SCRY"

// defaults are applied before the config file, environment and flags.
var defaults = map[string]any{
	"server.port":             8080,
	"server.log_level":        "info",
	"server.shutdown_timeout": 10 * time.Second,

	"database.dialect":           "sqlite",
	"database.dsn":               "file:scry.db",
	"database.max_open_conns":    10,
	"database.max_idle_conns":    5,
	"database.conn_max_lifetime": 30 * time.Minute,
	"database.max_attempts":      3,
	"database.auto_migrate":      true,

	"schedule.timezone":          "UTC",
	"schedule.rollover_interval": time.Hour,

	"rewards.base.read":           30,
	"rewards.base.solve":          50,
	"rewards.base.memorize":       20,
	"rewards.capacity.read":       20,
	"rewards.capacity.solve":      5,
	"rewards.capacity.memorize":   30,
	"rewards.default_target":      500,
	"rewards.minimum_reward":      300,
	"rewards.priority_multiplier": 1.3,

	"memory.desired_retention":      0.9,
	"memory.maximum_interval":       36500,
	"memory.graduation_repetitions": 2,
	"memory.again_step":             time.Minute,
	"memory.hard_step":              5 * time.Minute,
	"memory.good_step":              10 * time.Minute,
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"port":         "server.port",
	"log-level":    "server.log_level",
	"db-dialect":   "database.dialect",
	"db-dsn":       "database.dsn",
	"timezone":     "schedule.timezone",
	"auto-migrate": "database.auto_migrate",
}

// RegisterFlags adds the configuration flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a YAML config file")
	fs.Int("port", 0, "HTTP listen port")
	fs.String("log-level", "", "log level (debug, info, warn, error)")
	fs.String("db-dialect", "", "database dialect (postgres, sqlite)")
	fs.String("db-dsn", "", "database connection string")
	fs.String("timezone", "", "IANA time zone for day boundaries")
	fs.Bool("auto-migrate", true, "apply database migrations on startup")
}

// Load configuration from defaults, an optional YAML file, SCRY_ environment
// variables and flags, in increasing order of precedence. Only flags that
// were set on fs override other sources; fs may be nil.
// Returns a populated Config struct or an error if loading/validation fails.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	v.SetConfigType("yaml")
	if path := configPath(fs); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("error binding flag %s: %w", name, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// configPath returns the --config flag or SCRY_CONFIG_FILE.
func configPath(fs *pflag.FlagSet) string {
	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			return f.Value.String()
		}
	}
	return os.Getenv(EnvPrefix + "_CONFIG_FILE")
}
