package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/meditationmind/bloombot/internal/database/types"
)

var (
	ErrConfigFileNotFound    = errors.New("could not find config file in any config path")
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrInvalidConfig         = errors.New("invalid config")
)

// RepositoryVersion is the repository version tag for config file references.
const RepositoryVersion = "v2.0.0"

// Current version of the config file.
const (
	CurrentCommonVersion = 1
	CurrentBotVersion    = 1
)

// EnvPrefix prefixes environment overrides, e.g. BLOOMBOT_BOT__DISCORD__TOKEN.
const EnvPrefix = "BLOOMBOT_"

// Config represents the entire application configuration.
type Config struct {
	Common CommonConfig `koanf:"common"`
	Bot    BotConfig    `koanf:"bot"`
}

// CommonConfig contains configuration shared between the bot, worker and db tool.
type CommonConfig struct {
	// Version of the common config.
	Version    int        `koanf:"version"`
	Debug      Debug      `koanf:"debug"`
	PostgreSQL PostgreSQL `koanf:"postgresql"`
	Redis      Redis      `koanf:"redis"`
	Telemetry  Telemetry  `koanf:"telemetry"`
}

// BotConfig contains bot specific configuration.
type BotConfig struct {
	// Version of the bot config.
	Version int     `koanf:"version"`
	Discord Discord `koanf:"discord"`
	Refresh Refresh `koanf:"refresh"`
	Streak  Streak  `koanf:"streak"`
}

// Debug contains debug-related configuration.
type Debug struct {
	// Log level (debug, info, warn, error).
	LogLevel string `koanf:"log_level"`
	// Maximum log sessions to keep.
	MaxLogsToKeep int `koanf:"max_logs_to_keep"`
	// Maximum lines per log file.
	MaxLogLines int `koanf:"max_log_lines"`
	// Enable pprof debugging.
	EnablePprof bool `koanf:"enable_pprof"`
	// Debug server port serving pprof and metrics.
	PprofPort int `koanf:"pprof_port"`
	// Serve Prometheus metrics on the debug server.
	EnableMetrics bool `koanf:"enable_metrics"`
}

// PostgreSQL contains database connection configuration.
type PostgreSQL struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	DBName   string `koanf:"db_name"`
	// Require TLS for the connection.
	SSL bool `koanf:"ssl"`
	// Maximum open connections.
	MaxOpenConns int `koanf:"max_open_conns"`
	// Maximum idle connections.
	MaxIdleConns int `koanf:"max_idle_conns"`
	// Connection lifetime in minutes.
	MaxLifetime int `koanf:"max_lifetime"`
	// Idle timeout in minutes.
	MaxIdleTime int `koanf:"max_idle_time"`
}

// Redis contains Redis connection configuration.
type Redis struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

// Telemetry contains tracing configuration. Tracing is off without a DSN.
type Telemetry struct {
	UptraceDSN  string `koanf:"uptrace_dsn"`
	ServiceName string `koanf:"service_name"`
}

// Discord contains Discord bot configuration.
type Discord struct {
	// Bot token for authentication.
	Token string `koanf:"token"`
	// Guild to register commands in instead of globally. Zero registers globally.
	TestGuildID uint64 `koanf:"test_guild_id"`
	// Role allowed to see private streaks of other members.
	StaffRoleID uint64 `koanf:"staff_role_id"`
}

// Refresh configures the materialized view refresh scheduler.
type Refresh struct {
	// Run the scheduler inside the bot process.
	Enabled bool `koanf:"enabled"`
	// IANA timezone used for the noon and midnight anchors. Empty means local time.
	Timezone string `koanf:"timezone"`
	// Pause between two refresh jobs.
	Cooldown time.Duration `koanf:"cooldown"`
	// Bound on a single refresh. Zero means no bound.
	JobTimeout time.Duration `koanf:"job_timeout"`
	// View names in run order. Empty means the default list.
	Jobs []string `koanf:"jobs"`
}

// Streak configures streak maintenance.
type Streak struct {
	// Concurrent computations during a rebuild.
	RebuildConcurrency int `koanf:"rebuild_concurrency"`
}

// Location resolves the anchor timezone.
func (r *Refresh) Location() (*time.Location, error) {
	if r.Timezone == "" || r.Timezone == "Local" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: refresh.timezone %q: %w", ErrInvalidConfig, r.Timezone, err)
	}

	return loc, nil
}

// Views resolves the configured job list into views, in order.
func (r *Refresh) Views() ([]types.AggregateView, error) {
	if len(r.Jobs) == 0 {
		return types.DefaultAggregateViews(), nil
	}

	views := make([]types.AggregateView, 0, len(r.Jobs))
	for _, name := range r.Jobs {
		view, err := types.ParseAggregateView(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("%w: refresh.jobs: %w", ErrInvalidConfig, err)
		}

		views = append(views, view)
	}

	return views, nil
}

// LoadConfig loads the configuration from the first matching config directory.
// Returns the config along with the used config directory.
func LoadConfig() (*Config, string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadFromPaths(
		".bloombot",
		homeDir+"/.bloombot/config",
		"/etc/bloombot/config",
		"/app/config",
		"config",
		".",
	)
}

// LoadFromPaths loads common.toml and bot.toml from the first path holding each,
// then applies a .env file and BLOOMBOT_ environment overrides.
func LoadFromPaths(configPaths ...string) (*Config, string, error) {
	k := koanf.New(".")

	var usedConfigPath string

	for _, configName := range []string{"common", "bot"} {
		configLoaded := false

		for _, path := range configPaths {
			section := koanf.New(".")

			configPath := fmt.Sprintf("%s/%s.toml", path, configName)
			if err := section.Load(file.Provider(configPath), toml.Parser()); err != nil {
				continue
			}

			if err := k.MergeAt(section, configName); err != nil {
				return nil, "", fmt.Errorf("error merging %s.toml: %w", configName, err)
			}

			configLoaded = true

			if usedConfigPath == "" {
				usedConfigPath = path
			}

			break
		}

		if !configLoaded {
			return nil, "", fmt.Errorf("%w: %s.toml", ErrConfigFileNotFound, configName)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("error loading .env file: %w", err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, "", fmt.Errorf("error loading environment overrides: %w", err)
	}

	var config Config
	if err := k.Unmarshal("", &config); err != nil {
		return nil, "", fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := checkConfigVersion("common", config.Common.Version, CurrentCommonVersion); err != nil {
		return nil, "", err
	}

	if err := checkConfigVersion("bot", config.Bot.Version, CurrentBotVersion); err != nil {
		return nil, "", err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, "", err
	}

	return &config, usedConfigPath, nil
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if _, err := c.Bot.Refresh.Location(); err != nil {
		return err
	}

	if _, err := c.Bot.Refresh.Views(); err != nil {
		return err
	}

	if c.Bot.Refresh.Cooldown < 0 || c.Bot.Refresh.JobTimeout < 0 {
		return fmt.Errorf("%w: refresh durations must not be negative", ErrInvalidConfig)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Common.Debug.LogLevel == "" {
		c.Common.Debug.LogLevel = "info"
	}

	if c.Common.Debug.MaxLogsToKeep <= 0 {
		c.Common.Debug.MaxLogsToKeep = 10
	}

	if c.Common.Debug.MaxLogLines <= 0 {
		c.Common.Debug.MaxLogLines = 10000
	}

	if c.Common.Debug.PprofPort == 0 {
		c.Common.Debug.PprofPort = 6060
	}

	if c.Common.PostgreSQL.Port == 0 {
		c.Common.PostgreSQL.Port = 5432
	}

	if c.Common.Redis.Port == 0 {
		c.Common.Redis.Port = 6379
	}

	if c.Common.Telemetry.ServiceName == "" {
		c.Common.Telemetry.ServiceName = "bloombot"
	}

	if c.Bot.Refresh.Cooldown == 0 {
		c.Bot.Refresh.Cooldown = 2 * time.Minute
	}

	if c.Bot.Streak.RebuildConcurrency <= 0 {
		c.Bot.Streak.RebuildConcurrency = 8
	}
}

// envKey maps BLOOMBOT_BOT__DISCORD__TOKEN to bot.discord.token.
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(key, "__", ".")
}

// checkConfigVersion checks if the config file version is correct.
func checkConfigVersion(name string, current, expected int) error {
	if current == 0 {
		return fmt.Errorf("%w: %s.toml", ErrConfigVersionMissing, name)
	}

	if current != expected {
		return fmt.Errorf(
			"%w: %s.toml (got: %d, expected: %d)\n"+
				"Please update your config file from: https://github.com/meditationmind/bloombot/tree/%s/config/%s.toml",
			ErrConfigVersionMismatch,
			name,
			current,
			expected,
			RepositoryVersion,
			name,
		)
	}

	return nil
}
