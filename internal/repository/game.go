package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
)

var (
	ErrGameNotFound   = errors.New("game not found")
	ErrTooManyRetries = errors.New("too many concurrent updates")
)

// GameRepository holds in-progress games.
type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id string) (*entity.Game, error)
	FindByPlayer(ctx context.Context, playerID string) (*entity.Game, error)

	// Update applies fn to the stored game atomically. Nothing is written when fn fails.
	Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error)

	// Remove deletes the game and returns it. Exactly one of several concurrent callers succeeds.
	Remove(ctx context.Context, id string) (*entity.Game, error)

	// Sweep drops games not touched since cutoff.
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

type dbGame struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGameRepository returns a Redis-backed repository. Keys expire after ttl without activity.
func NewGameRepository(client *redis.Client, ttl time.Duration) GameRepository {
	return &dbGame{
		client: client,
		ttl:    ttl,
	}
}

func gameKey(id string) string {
	return "game:" + id
}

func playerGameKey(playerID string) string {
	return "player:" + playerID + ":game"
}

func (that *dbGame) Create(ctx context.Context, game *entity.Game) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, gameKey(game.ID), gameJSON, that.ttl)
		pipe.Set(ctx, playerGameKey(game.Player1), game.ID, that.ttl)
		pipe.Set(ctx, playerGameKey(game.Player2), game.ID, that.ttl)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to set game: %w", err)
	}

	return nil
}

func (that *dbGame) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	return decodeGame(response)
}

func (that *dbGame) FindByPlayer(ctx context.Context, playerID string) (*entity.Game, error) {
	gameID, err := that.client.Get(ctx, playerGameKey(playerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get game of player: %w", err)
	}

	game, err := that.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if !game.IsParticipant(playerID) {
		return nil, ErrGameNotFound
	}

	return game, nil
}

func (that *dbGame) Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	key := gameKey(id)

	var updated *entity.Game

	txf := func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrGameNotFound
		}

		if err != nil {
			return fmt.Errorf("failed to get game by id: %w", err)
		}

		game, err := decodeGame(response)
		if err != nil {
			return err
		}

		if err = fn(game); err != nil {
			return err
		}

		gameJSON, err := json.Marshal(game)
		if err != nil {
			return fmt.Errorf("could not marshal game: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, gameJSON, that.ttl)
			pipe.Expire(ctx, playerGameKey(game.Player1), that.ttl)
			pipe.Expire(ctx, playerGameKey(game.Player2), that.ttl)

			return nil
		})
		if err != nil {
			return err
		}

		updated = game

		return nil
	}

	for range maxTxRetries {
		err := that.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}

		if err != nil {
			return nil, err
		}

		return updated, nil
	}

	return nil, fmt.Errorf("failed to update game %s: %w", id, ErrTooManyRetries)
}

func (that *dbGame) Remove(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.GetDel(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to delete game by id: %w", err)
	}

	game, err := decodeGame(response)
	if err != nil {
		return nil, err
	}

	for _, playerID := range []string{game.Player1, game.Player2} {
		keys := []string{playerGameKey(playerID)}
		if err = deleteIfEquals.Run(ctx, that.client, keys, game.ID).Err(); err != nil {
			return nil, fmt.Errorf("failed to delete game index: %w", err)
		}
	}

	return game, nil
}

// Sweep is a no-op: Redis expires idle games on its own.
func (that *dbGame) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

func decodeGame(data []byte) (*entity.Game, error) {
	var game entity.Game
	if err := json.Unmarshal(data, &game); err != nil {
		return nil, fmt.Errorf("failed to unmarshal game: %w", err)
	}

	return &game, nil
}

type memoryGame struct {
	mu       sync.Mutex
	games    map[string]*entity.Game
	byPlayer map[string]string
}

func NewMemoryGameRepository() GameRepository {
	return &memoryGame{
		games:    make(map[string]*entity.Game),
		byPlayer: make(map[string]string),
	}
}

func (that *memoryGame) Create(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games[game.ID] = game.Clone()
	that.byPlayer[game.Player1] = game.ID
	that.byPlayer[game.Player2] = game.ID

	return nil
}

func (that *memoryGame) GetByID(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}

	return game.Clone(), nil
}

func (that *memoryGame) FindByPlayer(_ context.Context, playerID string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[that.byPlayer[playerID]]
	if !ok || !game.IsParticipant(playerID) {
		return nil, ErrGameNotFound
	}

	return game.Clone(), nil
}

func (that *memoryGame) Update(_ context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}

	updated := game.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}

	that.games[id] = updated

	return updated.Clone(), nil
}

func (that *memoryGame) Remove(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	game, ok := that.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}

	that.drop(game)

	return game, nil
}

func (that *memoryGame) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	swept := 0

	for _, game := range that.games {
		if game.UpdatedAt.Before(cutoff) {
			that.drop(game)
			swept++
		}
	}

	return swept, nil
}

// drop must be called with mu held.
func (that *memoryGame) drop(game *entity.Game) {
	delete(that.games, game.ID)

	for _, playerID := range []string{game.Player1, game.Player2} {
		if that.byPlayer[playerID] == game.ID {
			delete(that.byPlayer, playerID)
		}
	}
}
