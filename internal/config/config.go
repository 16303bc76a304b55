package config

import "time"

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"   validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Schedule ScheduleConfig `mapstructure:"schedule" validate:"required"`
	Rewards  RewardsConfig  `mapstructure:"rewards"  validate:"required"`
	Memory   MemoryConfig   `mapstructure:"memory"   validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port            int           `mapstructure:"port"             validate:"required,gt=0,lt=65536"`
	LogLevel        string        `mapstructure:"log_level"        validate:"required,oneof=debug info warn error"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	Dialect         string        `mapstructure:"dialect"           validate:"required,oneof=postgres sqlite"`
	DSN             string        `mapstructure:"dsn"               validate:"required"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"    validate:"gte=0"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    validate:"gte=0"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime" validate:"gte=0"`
	MaxAttempts     int           `mapstructure:"max_attempts"      validate:"gte=0"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

// ScheduleConfig controls the calendar the ledger runs on.
type ScheduleConfig struct {
	// Timezone is an IANA zone name; day boundaries are local to it
	Timezone         string        `mapstructure:"timezone"          validate:"required,timezone"`
	RolloverInterval time.Duration `mapstructure:"rollover_interval" validate:"gte=0"`
}

// ModeValues holds one integer per collection mode.
type ModeValues struct {
	Read     int `mapstructure:"read"     validate:"gt=0"`
	Solve    int `mapstructure:"solve"    validate:"gt=0"`
	Memorize int `mapstructure:"memorize" validate:"gt=0"`
}

// RewardsConfig contains the reward table and allocation tuning.
type RewardsConfig struct {
	Base               ModeValues `mapstructure:"base"                validate:"required"`
	Capacity           ModeValues `mapstructure:"capacity"            validate:"required"`
	DefaultTarget      int        `mapstructure:"default_target"      validate:"gt=0"`
	MinimumReward      int        `mapstructure:"minimum_reward"      validate:"gt=0"`
	PriorityMultiplier float64    `mapstructure:"priority_multiplier" validate:"gt=0"`
}

// MemoryConfig overrides memory model and scheduler parameters. Zero values
// keep the model defaults.
type MemoryConfig struct {
	DesiredRetention      float64       `mapstructure:"desired_retention"      validate:"gte=0,lt=1"`
	MaximumInterval       int           `mapstructure:"maximum_interval"       validate:"gte=0"`
	GraduationRepetitions int           `mapstructure:"graduation_repetitions" validate:"gte=0"`
	AgainStep             time.Duration `mapstructure:"again_step"             validate:"gte=0"`
	HardStep              time.Duration `mapstructure:"hard_step"              validate:"gte=0"`
	GoodStep              time.Duration `mapstructure:"good_step"              validate:"gte=0"`
}
