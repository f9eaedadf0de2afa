// Package telemetry periodically reports cache and flood-tracker stats
// through the structured logger. Diagnostics only; nothing here sits on a
// message hot path.
package telemetry

import (
	"context"
	"log/slog"
	"time"
)

// CacheStats is the view of the registry the reporter needs.
type CacheStats interface {
	Walk(fn func(name string, entries uint64))
	Len() int
}

// FloodStats is the view of the flood tracker the reporter needs.
type FloodStats interface {
	Chats() int
}

type Reporter interface {
	Interval() time.Duration
	Close() error
}

type Logs struct {
	ctx      context.Context
	cancel   context.CancelFunc
	logger   *slog.Logger
	caches   CacheStats
	flood    FloodStats
	interval time.Duration
}

// New starts the reporting loop when enabled; otherwise it returns a no-op.
func New(
	ctx context.Context,
	logger *slog.Logger,
	caches CacheStats,
	flood FloodStats,
	interval time.Duration,
	enabled bool,
) Reporter {
	if !enabled {
		return &NoOpReporter{}
	}
	ctx, cancel := context.WithCancel(ctx)
	l := &Logs{
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
		caches:   caches,
		flood:    flood,
		interval: interval,
	}
	go l.loop()
	return l
}

func (l *Logs) Interval() time.Duration {
	return l.interval
}

func (l *Logs) Close() error {
	l.cancel()
	return nil
}

func (l *Logs) loop() {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-l.ctx.Done():
			return

		case <-ticker.C:
			common := []any{"interval", l.interval.String()}

			l.caches.Walk(func(name string, entries uint64) {
				l.logger.Info("cache",
					append(common, "name", name, "entries", int64(entries))...,
				)
			})

			l.logger.Info("registry",
				append(common, "caches", l.caches.Len())...,
			)
			l.logger.Info("flood_tracker",
				append(common, "chats", l.flood.Chats())...,
			)
		}
	}
}

// NoOpReporter satisfies Reporter when telemetry is disabled.
type NoOpReporter struct{}

func (*NoOpReporter) Interval() time.Duration { return 0 }
func (*NoOpReporter) Close() error            { return nil }
