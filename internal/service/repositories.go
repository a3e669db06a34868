package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/repository"
)

type playerRepo interface {
	Create(ctx context.Context, player *entity.Player) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	FindByPlayer(ctx context.Context, playerID string) (*entity.Game, error)
	Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error)
	Remove(ctx context.Context, id string) (*entity.Game, error)
}

type queueRepo interface {
	Enqueue(ctx context.Context, game *entity.Game) error
	PushFront(ctx context.Context, game *entity.Game) error
	Dequeue(ctx context.Context) (*entity.Game, error)
	FindByPlayer(ctx context.Context, playerID string) (*entity.Game, error)
	Touch(ctx context.Context, game *entity.Game, now time.Time) error
	Remove(ctx context.Context, id string) (*entity.Game, error)
}

type resultRepo interface {
	Save(ctx context.Context, result *entity.Result, ttl time.Duration) error
	Take(ctx context.Context, gameID, playerID string) (*entity.Result, error)
}

func requirePlayer(ctx context.Context, players playerRepo, playerID string) error {
	if playerID == "" {
		return fmt.Errorf("%w: missing player", apperror.ErrMalformedRequest)
	}

	if _, err := players.GetByID(ctx, playerID); err != nil {
		if errors.Is(err, repository.ErrPlayerNotFound) {
			return fmt.Errorf("%w: %s", apperror.ErrUnknownPlayer, playerID)
		}

		return fmt.Errorf("failed to get player: %w", err)
	}

	return nil
}

// ownWaitingGame returns the player's queued game when its id is gameID.
func ownWaitingGame(ctx context.Context, queue queueRepo, playerID, gameID string) (*entity.Game, bool, error) {
	game, err := queue.FindByPlayer(ctx, playerID)
	if errors.Is(err, repository.ErrGameNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("failed to find waiting game: %w", err)
	}

	return game, game.ID == gameID, nil
}
