package factory

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/mcoot/tworoomsboom/internal/dependencies/clock"
	"github.com/mcoot/tworoomsboom/internal/dependencies/random"
	"github.com/mcoot/tworoomsboom/internal/services/archive"
	"github.com/mcoot/tworoomsboom/internal/services/assignment"
	"github.com/mcoot/tworoomsboom/internal/services/rounds"
	"github.com/mcoot/tworoomsboom/internal/services/seat"
	"github.com/mcoot/tworoomsboom/internal/services/session"
	"github.com/mcoot/tworoomsboom/internal/services/view"
	"github.com/mcoot/tworoomsboom/internal/storage"
	"github.com/mcoot/tworoomsboom/internal/storage/memory"
	redisstorage "github.com/mcoot/tworoomsboom/internal/storage/redis"
	"github.com/mcoot/tworoomsboom/internal/web/stream"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// DefaultArchiveCapacity is how many results the in-memory archive keeps
const DefaultArchiveCapacity = 200

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage
	// Purger is set when the backend needs explicit cleanup (memory);
	// Redis expires keys itself
	Purger storage.Purger

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	Rules             *rounds.Rules
	Assigner          *assignment.Service
	Archive           archive.Archive
	SessionController *session.Controller
	SeatService       *seat.Service
	ViewService       *view.Service
	HubManager        *stream.HubManager

	closers []io.Closer
}

// Config holds configuration for the application factory
type Config struct {
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
	// DatabaseURL enables the Postgres results archive when set
	DatabaseURL string
	// SeatConfig holds seat token settings; zero TTL means seat.DefaultConfig()
	SeatConfig seat.Config
	// RoundsConfig holds round durations; zero value means rounds.DefaultConfig()
	RoundsConfig rounds.Config
	// AssignmentOptions holds the team dealing rules (optional)
	// If nil, defaults to assignment.DefaultOptions()
	AssignmentOptions *assignment.Options
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	var closers []io.Closer

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
		closers = append(closers, redisStore)
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	var arch archive.Archive = archive.NewMemory(DefaultArchiveCapacity)
	if cfg.DatabaseURL != "" {
		pg, err := archive.OpenPostgres(cfg.DatabaseURL, logger)
		if err != nil {
			closeAll(closers)
			return nil, fmt.Errorf("open results archive: %w", err)
		}
		arch = pg
		closers = append(closers, pg)
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	seats, err := seat.New(clk, cfg.SeatConfig)
	if err != nil {
		closeAll(closers)
		return nil, err
	}

	opts := assignment.DefaultOptions()
	if cfg.AssignmentOptions != nil {
		opts = *cfg.AssignmentOptions
	}

	roundsCfg := cfg.RoundsConfig
	if roundsCfg == (rounds.Config{}) {
		roundsCfg = rounds.DefaultConfig()
	}

	app := newWithDependencies(store, arch, clk, rnd, seats, roundsCfg, opts, logger)
	app.closers = closers
	return app, nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	arch archive.Archive,
	clk clock.Clock,
	rnd random.Random,
	seats *seat.Service,
	roundsCfg rounds.Config,
	opts assignment.Options,
	logger *slog.Logger,
) *App {
	rules := rounds.New(roundsCfg)
	assigner := assignment.New(rnd, opts)
	sessionController := session.NewController(store, assigner, arch, clk, rnd, logger)
	viewService := view.New(rules)
	hubManager := stream.NewHubManager(sessionController, logger)

	app := &App{
		Storage:           store,
		Clock:             clk,
		Random:            rnd,
		Rules:             rules,
		Assigner:          assigner,
		Archive:           arch,
		SessionController: sessionController,
		SeatService:       seats,
		ViewService:       viewService,
		HubManager:        hubManager,
	}
	if purger, ok := store.(storage.Purger); ok {
		app.Purger = purger
	}
	return app
}

// Close stops the stream hubs and releases storage and archive connections
func (a *App) Close() error {
	a.HubManager.Shutdown()
	return closeAll(a.closers)
}

func closeAll(closers []io.Closer) error {
	var errs []error
	for _, c := range closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
