package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/metrics"
	"github.com/rocketscienceinc/chess-relay/internal/repository"
)

type Matchmaker interface {
	// Pair returns the caller's active game, claims the oldest waiting game of someone else,
	// or leaves the caller waiting.
	Pair(ctx context.Context, playerID string) (entity.GameView, error)
}

type matchmaker struct {
	logger  *slog.Logger
	players playerRepo
	games   gameRepo
	queue   queueRepo

	newID func() string
	now   func() time.Time
}

func NewMatchmaker(logger *slog.Logger, players playerRepo, games gameRepo, queue queueRepo) Matchmaker {
	return &matchmaker{
		logger:  logger.With("component", "matchmaker"),
		players: players,
		games:   games,
		queue:   queue,
		newID:   uuid.NewString,
		now:     time.Now,
	}
}

func (that *matchmaker) Pair(ctx context.Context, playerID string) (entity.GameView, error) {
	log := that.logger.With("method", "Pair", "player", playerID)

	if err := requirePlayer(ctx, that.players, playerID); err != nil {
		return entity.GameView{}, err
	}

	active, err := that.games.FindByPlayer(ctx, playerID)
	if err == nil {
		that.withdraw(ctx, log, playerID)
		return active.View(), nil
	}

	if !errors.Is(err, repository.ErrGameNotFound) {
		return entity.GameView{}, fmt.Errorf("failed to find active game: %w", err)
	}

	for {
		candidate, err := that.queue.Dequeue(ctx)
		if errors.Is(err, repository.ErrQueueEmpty) {
			return that.wait(ctx, log, playerID)
		}

		if err != nil {
			return entity.GameView{}, fmt.Errorf("failed to dequeue waiting game: %w", err)
		}

		if candidate.Player1 == playerID {
			if err = that.queue.PushFront(ctx, candidate); err != nil {
				return entity.GameView{}, fmt.Errorf("failed to requeue own game: %w", err)
			}

			return candidate.View(), nil
		}

		stale, err := that.ownerIsPlaying(ctx, candidate)
		if err != nil {
			that.requeue(ctx, log, candidate)
			return entity.GameView{}, err
		}

		if stale {
			log.Info("discarding stale waiting game", "game", candidate.ID, "owner", candidate.Player1)
			continue
		}

		waiting := candidate.Clone()

		if err = candidate.Join(playerID, that.now().UTC()); err != nil {
			that.requeue(ctx, log, waiting)
			return entity.GameView{}, fmt.Errorf("failed to join game: %w", err)
		}

		if err = that.games.Create(ctx, candidate); err != nil {
			that.requeue(ctx, log, waiting)
			return entity.GameView{}, fmt.Errorf("failed to start game: %w", err)
		}

		that.withdraw(ctx, log, playerID)

		metrics.GamesStarted.Inc()
		log.Info("game started", "game", candidate.ID, "opponent", candidate.Player1)

		return candidate.View(), nil
	}
}

// wait returns the player's own waiting game, creating one when there is none.
func (that *matchmaker) wait(ctx context.Context, log *slog.Logger, playerID string) (entity.GameView, error) {
	now := that.now().UTC()

	own, err := that.queue.FindByPlayer(ctx, playerID)
	if err == nil {
		if err = that.queue.Touch(ctx, own, now); err != nil {
			return entity.GameView{}, fmt.Errorf("failed to refresh waiting game: %w", err)
		}

		return own.View(), nil
	}

	if !errors.Is(err, repository.ErrGameNotFound) {
		return entity.GameView{}, fmt.Errorf("failed to find waiting game: %w", err)
	}

	game := entity.NewGame(that.newID(), playerID, now)
	if err = that.queue.Enqueue(ctx, game); err != nil {
		return entity.GameView{}, fmt.Errorf("failed to enqueue game: %w", err)
	}

	log.Info("waiting for opponent", "game", game.ID)

	return game.View(), nil
}

func (that *matchmaker) ownerIsPlaying(ctx context.Context, candidate *entity.Game) (bool, error) {
	_, err := that.games.FindByPlayer(ctx, candidate.Player1)
	if err == nil {
		return true, nil
	}

	if errors.Is(err, repository.ErrGameNotFound) {
		return false, nil
	}

	return false, fmt.Errorf("failed to check waiting game owner: %w", err)
}

// requeue puts a claimed waiting game back at the head of the queue after a failed start.
func (that *matchmaker) requeue(ctx context.Context, log *slog.Logger, game *entity.Game) {
	if err := that.queue.PushFront(ctx, game); err != nil {
		log.Error("failed to requeue waiting game", "game", game.ID, "owner", game.Player1, "error", err)
	}
}

// withdraw drops the player's own waiting game, if any. Failures only leave a stale entry behind.
func (that *matchmaker) withdraw(ctx context.Context, log *slog.Logger, playerID string) {
	own, err := that.queue.FindByPlayer(ctx, playerID)
	if errors.Is(err, repository.ErrGameNotFound) {
		return
	}

	if err == nil {
		_, err = that.queue.Remove(ctx, own.ID)
	}

	if err != nil && !errors.Is(err, repository.ErrGameNotFound) {
		log.Warn("failed to withdraw waiting game", "error", err)
	}
}
