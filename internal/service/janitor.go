package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/chess-relay/internal/metrics"
)

type sweeper interface {
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

// Janitor periodically drops games, waiting games and results nobody touched for a while.
type Janitor struct {
	logger      *slog.Logger
	games       sweeper
	queue       sweeper
	results     sweeper
	idleTimeout time.Duration
	interval    time.Duration

	now func() time.Time
}

func NewJanitor(logger *slog.Logger, games, queue, results sweeper, idleTimeout, interval time.Duration) *Janitor {
	return &Janitor{
		logger:      logger.With("component", "janitor"),
		games:       games,
		queue:       queue,
		results:     results,
		idleTimeout: idleTimeout,
		interval:    interval,
		now:         time.Now,
	}
}

// Run sweeps every interval until ctx is done.
func (that *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(that.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := that.Sweep(ctx); err != nil {
				that.logger.Error("sweep failed", "error", err)
			}
		}
	}
}

func (that *Janitor) Sweep(ctx context.Context) error {
	now := that.now().UTC()
	cutoff := now.Add(-that.idleTimeout)

	for _, target := range []struct {
		kind    string
		sweeper sweeper
		cutoff  time.Time
	}{
		{kind: "game", sweeper: that.games, cutoff: cutoff},
		{kind: "waiting", sweeper: that.queue, cutoff: cutoff},
		{kind: "result", sweeper: that.results, cutoff: now},
	} {
		swept, err := target.sweeper.Sweep(ctx, target.cutoff)
		if err != nil {
			return fmt.Errorf("failed to sweep %s records: %w", target.kind, err)
		}

		if swept > 0 {
			metrics.Swept.WithLabelValues(target.kind).Add(float64(swept))
			that.logger.Info("swept idle records", "kind", target.kind, "count", swept)
		}
	}

	return nil
}
