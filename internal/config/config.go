// Package config provides Viper-based configuration loading for the game
// server.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// StorageConfig selects and parameterizes the persistence backend.
type StorageConfig struct {
	// Backend is one of "jsonfile", "postgres", or "redis".
	Backend string `mapstructure:"backend"`
	// CharactersFile is the character table document (jsonfile backend).
	CharactersFile string `mapstructure:"characters_file"`
	// BossFile is the world-boss document (jsonfile backend).
	BossFile string `mapstructure:"boss_file"`
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds the operational game settings. Gameplay constants (crit
// chance, costs, bounty percentages) live with the rules that own them;
// only deployment-tunable timers and paths belong here.
type GameConfig struct {
	// ContentDir is the root of the YAML content tree.
	ContentDir string `mapstructure:"content_dir"`
	// TurnDelay paces combat narration between turns.
	TurnDelay time.Duration `mapstructure:"turn_delay"`
	// BossTickInterval is the period of the world-boss attack timer.
	BossTickInterval time.Duration `mapstructure:"boss_tick_interval"`
	// BossMaxTargets is how many participants one boss tick can strike.
	BossMaxTargets int `mapstructure:"boss_max_targets"`
	// SweepInterval is the period of the energy-regen/effect-expiry sweep.
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
	// AwayDuration is how long away protection lasts.
	AwayDuration time.Duration `mapstructure:"away_duration"`
	// Action cooldown bases, before per-character discounts.
	HuntCooldown    time.Duration `mapstructure:"hunt_cooldown"`
	DuelCooldown    time.Duration `mapstructure:"duel_cooldown"`
	StrikeCooldown  time.Duration `mapstructure:"strike_cooldown"`
	TravelCooldown  time.Duration `mapstructure:"travel_cooldown"`
	ReviveCooldown  time.Duration `mapstructure:"revive_cooldown"`
	SpecialCooldown time.Duration `mapstructure:"special_cooldown"`
	AwayCooldown    time.Duration `mapstructure:"away_cooldown"`
}

// Config is the top-level application configuration.
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error
// describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateStorage(c.Storage); err != nil {
		errs = append(errs, err.Error())
	}
	if c.Storage.Backend == "postgres" {
		if err := validateDatabase(c.Database); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if c.Storage.Backend == "redis" {
		if err := validateRedis(c.Redis); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateStorage(s StorageConfig) error {
	validBackends := map[string]bool{"jsonfile": true, "postgres": true, "redis": true}
	if !validBackends[s.Backend] {
		return fmt.Errorf("storage.backend must be one of [jsonfile, postgres, redis], got %q", s.Backend)
	}
	if s.Backend == "jsonfile" {
		var errs []string
		if s.CharactersFile == "" {
			errs = append(errs, "storage.characters_file must not be empty")
		}
		if s.BossFile == "" {
			errs = append(errs, "storage.boss_file must not be empty")
		}
		if len(errs) > 0 {
			return fmt.Errorf("%s", strings.Join(errs, "; "))
		}
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateRedis(r RedisConfig) error {
	var errs []string
	if r.Addr == "" {
		errs = append(errs, "redis.addr must not be empty")
	}
	if r.DB < 0 {
		errs = append(errs, fmt.Sprintf("redis.db must be >= 0, got %d", r.DB))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.ContentDir == "" {
		errs = append(errs, "game.content_dir must not be empty")
	}
	if g.TurnDelay < 0 {
		errs = append(errs, "game.turn_delay must not be negative")
	}
	if g.BossTickInterval < time.Second {
		errs = append(errs, fmt.Sprintf("game.boss_tick_interval must be >= 1s, got %s", g.BossTickInterval))
	}
	if g.BossMaxTargets < 1 {
		errs = append(errs, fmt.Sprintf("game.boss_max_targets must be >= 1, got %d", g.BossMaxTargets))
	}
	if g.SweepInterval < time.Second {
		errs = append(errs, fmt.Sprintf("game.sweep_interval must be >= 1s, got %s", g.SweepInterval))
	}
	if g.AwayDuration < time.Minute {
		errs = append(errs, fmt.Sprintf("game.away_duration must be >= 1m, got %s", g.AwayDuration))
	}
	for name, d := range map[string]time.Duration{
		"game.hunt_cooldown":    g.HuntCooldown,
		"game.duel_cooldown":    g.DuelCooldown,
		"game.strike_cooldown":  g.StrikeCooldown,
		"game.travel_cooldown":  g.TravelCooldown,
		"game.revive_cooldown":  g.ReviveCooldown,
		"game.special_cooldown": g.SpecialCooldown,
		"game.away_cooldown":    g.AwayCooldown,
	} {
		if d < 0 {
			errs = append(errs, fmt.Sprintf("%s must not be negative", name))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment
// variable overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with OUTLAW_ prefix
	v.SetEnvPrefix("OUTLAW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadFromViper builds a Config from an already-configured Viper instance.
//
// Precondition: v must be non-nil and have configuration values set.
// Postcondition: Returns a valid Config or a non-nil error.
func LoadFromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("storage.backend", "jsonfile")
	v.SetDefault("storage.characters_file", "data/characters.json")
	v.SetDefault("storage.boss_file", "data/boss.json")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "outlaw")
	v.SetDefault("database.password", "outlaw")
	v.SetDefault("database.name", "outlaw")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.content_dir", "content")
	v.SetDefault("game.turn_delay", "2s")
	v.SetDefault("game.boss_tick_interval", "45s")
	v.SetDefault("game.boss_max_targets", 3)
	v.SetDefault("game.sweep_interval", "1m")
	v.SetDefault("game.away_duration", "3h")
	v.SetDefault("game.hunt_cooldown", "30s")
	v.SetDefault("game.duel_cooldown", "1m")
	v.SetDefault("game.strike_cooldown", "30s")
	v.SetDefault("game.travel_cooldown", "10s")
	v.SetDefault("game.revive_cooldown", "1m")
	v.SetDefault("game.special_cooldown", "20s")
	v.SetDefault("game.away_cooldown", "1h")
}
