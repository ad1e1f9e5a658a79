// Package janitor runs the periodic cleanup jobs: stopping stream hubs
// nobody listens to and purging expired sessions from stores without key TTL.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mcoot/tworoomsboom/internal/dependencies/clock"
	"github.com/mcoot/tworoomsboom/internal/storage"
)

// Config holds janitor settings
type Config struct {
	// Schedule is a cron expression, e.g. "@every 1m"
	Schedule string
	// HubMinAge keeps freshly created hubs alive while their first client connects
	HubMinAge time.Duration
	// SessionTTL purges sessions with no writes for this long
	SessionTTL time.Duration
	// FinishedRetention purges finished sessions this long after their last write
	FinishedRetention time.Duration
}

// DefaultConfig returns the default janitor settings
func DefaultConfig() Config {
	return Config{
		Schedule:          "@every 1m",
		HubMinAge:         time.Minute,
		SessionTTL:        6 * time.Hour,
		FinishedRetention: 10 * time.Minute,
	}
}

// HubSweeper stops idle stream hubs
type HubSweeper interface {
	CleanupEmptyHubs(minAge time.Duration) int
}

// Janitor owns the cron scheduler for cleanup jobs
type Janitor struct {
	cron   *cron.Cron
	hubs   HubSweeper
	purger storage.Purger
	clock  clock.Clock
	cfg    Config
	logger *slog.Logger
}

// New creates a janitor. purger may be nil for stores that expire keys themselves.
func New(hubs HubSweeper, purger storage.Purger, clk clock.Clock, cfg Config, logger *slog.Logger) (*Janitor, error) {
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultConfig().Schedule
	}

	cl := cronLogger{logger: logger}
	j := &Janitor{
		cron:   cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl))),
		hubs:   hubs,
		purger: purger,
		clock:  clk,
		cfg:    cfg,
		logger: logger,
	}

	if _, err := j.cron.AddFunc(cfg.Schedule, func() { j.Sweep(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", cfg.Schedule, err)
	}
	return j, nil
}

// Start runs the scheduler in the background
func (j *Janitor) Start() {
	j.cron.Start()
	j.logger.Info("janitor started", slog.String("schedule", j.cfg.Schedule))
}

// Stop halts the scheduler and waits for a running sweep to finish
func (j *Janitor) Stop(ctx context.Context) {
	select {
	case <-j.cron.Stop().Done():
	case <-ctx.Done():
	}
}

// Sweep runs every cleanup job once
func (j *Janitor) Sweep(ctx context.Context) {
	hubs := j.hubs.CleanupEmptyHubs(j.cfg.HubMinAge)

	purged := 0
	if j.purger != nil {
		now := j.clock.Now()
		n, err := j.purger.PurgeStale(ctx, now.Add(-j.cfg.FinishedRetention), now.Add(-j.cfg.SessionTTL))
		if err != nil {
			j.logger.Error("purge failed", slog.String("error", err.Error()))
		}
		purged = n
	}

	if hubs > 0 || purged > 0 {
		j.logger.Info("janitor sweep",
			slog.Int("hubs_removed", hubs),
			slog.Int("sessions_purged", purged),
		)
	}
}

// cronLogger adapts slog to the cron.Logger interface
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
