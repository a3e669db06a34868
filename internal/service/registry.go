package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/metrics"
)

var ErrHandleSpaceExhausted = errors.New("could not find a free handle")

type Registry interface {
	// Register issues a fresh handle. addr is the caller's address and is only logged.
	Register(ctx context.Context, addr string) (string, error)
}

type registry struct {
	logger      *slog.Logger
	players     playerRepo
	maxAttempts int

	generate func() string
	now      func() time.Time
}

func NewRegistry(logger *slog.Logger, players playerRepo, maxAttempts int) Registry {
	return &registry{
		logger:      logger.With("component", "registry"),
		players:     players,
		maxAttempts: maxAttempts,
		generate:    GenerateHandle,
		now:         time.Now,
	}
}

func (that *registry) Register(ctx context.Context, addr string) (string, error) {
	log := that.logger.With("method", "Register", "addr", addr)

	for attempt := 1; attempt <= that.maxAttempts; attempt++ {
		player := &entity.Player{
			ID:           that.generate(),
			Addr:         addr,
			RegisteredAt: that.now().UTC(),
		}

		created, err := that.players.Create(ctx, player)
		if err != nil {
			return "", fmt.Errorf("failed to create player: %w", err)
		}

		if !created {
			log.Debug("handle collision", "handle", player.ID, "attempt", attempt)
			continue
		}

		metrics.PlayersRegistered.Inc()
		log.Info("player registered", "player", player.ID)

		return player.ID, nil
	}

	return "", fmt.Errorf("%w after %d attempts", ErrHandleSpaceExhausted, that.maxAttempts)
}

// GenerateHandle returns three uppercase letters followed by three digits, e.g. "QZK042".
func GenerateHandle() string {
	handle := make([]byte, 6)

	for i := range 3 {
		handle[i] = byte('A' + rand.IntN(26))
		handle[i+3] = byte('0' + rand.IntN(10))
	}

	return string(handle)
}
