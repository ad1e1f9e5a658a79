// Package config binds the server's flags and TWOROOMS_* environment
// variables into one validated Config.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/mcoot/tworoomsboom/internal/api"
	"github.com/mcoot/tworoomsboom/internal/factory"
	"github.com/mcoot/tworoomsboom/internal/janitor"
	"github.com/mcoot/tworoomsboom/internal/services/assignment"
	"github.com/mcoot/tworoomsboom/internal/services/rounds"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
	redisstorage "github.com/mcoot/tworoomsboom/internal/storage/redis"
)

// EnvPrefix prefixes every environment variable the server reads
const EnvPrefix = "TWOROOMS"

// Config is the server configuration
type Config struct {
	Bind     string
	Port     int
	LogLevel string

	Storage     string
	RedisURL    string
	DatabaseURL string

	SeatSecret string
	SeatTTL    time.Duration

	SessionTTL        time.Duration
	FinishedRetention time.Duration

	Round1 time.Duration
	Round2 time.Duration
	Round3 time.Duration
	// Gambler sets aside a grey Gambler when the roster is odd
	Gambler bool

	PublicURL       string
	StaticDir       string
	JanitorSchedule string
}

// Validate checks values that flags alone cannot constrain
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.Storage {
	case factory.StorageTypeMemory:
	case factory.StorageTypeRedis:
		if c.RedisURL == "" {
			return errors.New("--redis-url is required with --storage=redis")
		}
	default:
		return fmt.Errorf("invalid storage %q: must be memory or redis", c.Storage)
	}
	for name, d := range map[string]time.Duration{
		"seat-ttl":           c.SeatTTL,
		"session-ttl":        c.SessionTTL,
		"finished-retention": c.FinishedRetention,
		"round1":             c.Round1,
		"round2":             c.Round2,
		"round3":             c.Round3,
	} {
		if d <= 0 {
			return fmt.Errorf("--%s must be positive", name)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel
func (c *Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Factory returns the application factory settings
func (c *Config) Factory(logger *slog.Logger) factory.Config {
	fc := factory.Config{
		Logger:      logger,
		StorageType: c.Storage,
		DatabaseURL: c.DatabaseURL,
		SeatConfig: seat.Config{
			Secret:   c.SeatSecret,
			TokenTTL: c.SeatTTL,
		},
		RoundsConfig: rounds.Config{
			Round1: c.Round1,
			Round2: c.Round2,
			Round3: c.Round3,
		},
		AssignmentOptions: &assignment.Options{GamblerForOddRoster: c.Gambler},
	}
	if c.Storage == factory.StorageTypeRedis {
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = c.RedisURL
		redisCfg.SessionTTL = c.SessionTTL
		redisCfg.FinishedTTL = c.FinishedRetention
		fc.RedisConfig = &redisCfg
	}
	return fc
}

// Server returns the HTTP server settings
func (c *Config) Server() api.ServerConfig {
	sc := api.DefaultServerConfig()
	sc.Host = c.Bind
	sc.Port = c.Port
	return sc
}

// Janitor returns the cleanup job settings
func (c *Config) Janitor() janitor.Config {
	jc := janitor.DefaultConfig()
	if c.JanitorSchedule != "" {
		jc.Schedule = c.JanitorSchedule
	}
	jc.SessionTTL = c.SessionTTL
	jc.FinishedRetention = c.FinishedRetention
	return jc
}

// Bind registers the server flags on cmd and fills unset flags from the
// environment, so flags win over TWOROOMS_* variables which win over defaults.
func Bind(cmd *cobra.Command, cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rd := rounds.DefaultConfig()
	sd := seat.DefaultConfig()
	rs := redisstorage.DefaultConfig()

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: TWOROOMS_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: TWOROOMS_PORT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: TWOROOMS_LOG_LEVEL)")
	fs.StringVar(&cfg.Storage, "storage", factory.StorageTypeMemory, "session store: memory or redis (env: TWOROOMS_STORAGE)")
	fs.StringVar(&cfg.RedisURL, "redis-url", "", "redis connection url (env: TWOROOMS_REDIS_URL)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres dsn for the results archive (env: TWOROOMS_DATABASE_URL)")
	fs.StringVar(&cfg.SeatSecret, "seat-secret", "", "seat token signing secret; random if empty (env: TWOROOMS_SEAT_SECRET)")
	fs.DurationVar(&cfg.SeatTTL, "seat-ttl", sd.TokenTTL, "seat token lifetime (env: TWOROOMS_SEAT_TTL)")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", rs.SessionTTL, "idle session lifetime (env: TWOROOMS_SESSION_TTL)")
	fs.DurationVar(&cfg.FinishedRetention, "finished-retention", rs.FinishedTTL, "how long finished sessions are kept (env: TWOROOMS_FINISHED_RETENTION)")
	fs.DurationVar(&cfg.Round1, "round1", rd.Round1, "round 1 countdown (env: TWOROOMS_ROUND1)")
	fs.DurationVar(&cfg.Round2, "round2", rd.Round2, "round 2 countdown (env: TWOROOMS_ROUND2)")
	fs.DurationVar(&cfg.Round3, "round3", rd.Round3, "round 3 countdown (env: TWOROOMS_ROUND3)")
	fs.BoolVar(&cfg.Gambler, "gambler", assignment.DefaultOptions().GamblerForOddRoster, "deal a grey Gambler for odd rosters (env: TWOROOMS_GAMBLER)")
	fs.StringVar(&cfg.PublicURL, "public-url", "", "external base url used in join QR codes (env: TWOROOMS_PUBLIC_URL)")
	fs.StringVar(&cfg.StaticDir, "static-dir", "", "directory served under /static/ (env: TWOROOMS_STATIC_DIR)")
	fs.StringVar(&cfg.JanitorSchedule, "janitor-schedule", janitor.DefaultConfig().Schedule, "cron schedule for cleanup jobs (env: TWOROOMS_JANITOR_SCHEDULE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}
