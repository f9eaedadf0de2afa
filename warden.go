// Package warden is the composition root of the group-management core: it
// constructs the cache registry, the flood tracker, and the telemetry loop,
// and hands shared references to every feature module. Nothing in this module
// is reachable through ambient globals; consumers must be given a Core.
package warden

import (
	"context"
	"log/slog"
	"time"

	"github.com/groupwarden/go-warden/cache"
	"github.com/groupwarden/go-warden/config"
	"github.com/groupwarden/go-warden/flood"
	"github.com/groupwarden/go-warden/internal/telemetry"
)

// Core owns the process-wide subsystems. Create exactly one per process and
// inject it; feature modules obtain their named caches from Registry once and
// hold the handles for their lifetime.
type Core struct {
	Registry *cache.Registry
	Flood    *flood.Tracker

	cfg      *config.Config
	reporter telemetry.Reporter
	cancel   context.CancelFunc
}

// New wires the core. A nil cfg uses defaults. Background maintenance stops
// when ctx is cancelled or Close is called.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) *Core {
	if cfg == nil {
		cfg = config.Default()
	}
	ctx, cancel := context.WithCancel(ctx)

	registry := cache.NewRegistry(ctx, logger)
	tracker := flood.NewTracker()
	reporter := telemetry.New(ctx, logger, registry, tracker,
		cfg.Telemetry.Interval, cfg.Telemetry.Enabled)

	return &Core{
		Registry: registry,
		Flood:    tracker,
		cfg:      cfg,
		reporter: reporter,
		cancel:   cancel,
	}
}

// Config returns the runtime configuration the core was built with.
func (c *Core) Config() *config.Config { return c.cfg }

// TelemetryInterval returns the stats reporting interval, zero when disabled.
func (c *Core) TelemetryInterval() time.Duration { return c.reporter.Interval() }

// Close stops telemetry and every cache's background maintenance.
func (c *Core) Close() error {
	c.cancel()
	return c.reporter.Close()
}
