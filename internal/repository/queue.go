package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
)

var ErrQueueEmpty = errors.New("no waiting games")

// QueueRepository keeps waiting games in arrival order.
type QueueRepository interface {
	Enqueue(ctx context.Context, game *entity.Game) error

	// PushFront puts a dequeued game back at the head of the queue.
	PushFront(ctx context.Context, game *entity.Game) error

	// Dequeue claims the oldest waiting game. A claimed game is no longer visible to anyone else.
	Dequeue(ctx context.Context) (*entity.Game, error)

	FindByPlayer(ctx context.Context, playerID string) (*entity.Game, error)
	Touch(ctx context.Context, game *entity.Game, now time.Time) error
	Remove(ctx context.Context, id string) (*entity.Game, error)
	Sweep(ctx context.Context, cutoff time.Time) (int, error)
}

const waitingListKey = "queue:waiting"

func waitingKey(id string) string {
	return "waiting:" + id
}

func waitingPlayerKey(playerID string) string {
	return "waiting:player:" + playerID
}

type dbQueue struct {
	client *redis.Client
	ttl    time.Duration
}

func NewQueueRepository(client *redis.Client, ttl time.Duration) QueueRepository {
	return &dbQueue{
		client: client,
		ttl:    ttl,
	}
}

func (that *dbQueue) Enqueue(ctx context.Context, game *entity.Game) error {
	return that.push(ctx, game, false)
}

func (that *dbQueue) PushFront(ctx context.Context, game *entity.Game) error {
	return that.push(ctx, game, true)
}

func (that *dbQueue) push(ctx context.Context, game *entity.Game, front bool) error {
	gameJSON, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("could not marshal game: %w", err)
	}

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, waitingKey(game.ID), gameJSON, that.ttl)
		pipe.Set(ctx, waitingPlayerKey(game.Player1), game.ID, that.ttl)

		if front {
			pipe.LPush(ctx, waitingListKey, game.ID)
		} else {
			pipe.RPush(ctx, waitingListKey, game.ID)
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to enqueue game: %w", err)
	}

	return nil
}

func (that *dbQueue) Dequeue(ctx context.Context) (*entity.Game, error) {
	for {
		id, err := that.client.LPop(ctx, waitingListKey).Result()
		if errors.Is(err, redis.Nil) {
			return nil, ErrQueueEmpty
		}

		if err != nil {
			return nil, fmt.Errorf("failed to pop waiting game: %w", err)
		}

		game, err := that.Remove(ctx, id)
		if errors.Is(err, ErrGameNotFound) {
			// expired or cancelled while queued
			continue
		}

		if err != nil {
			return nil, err
		}

		return game, nil
	}
}

func (that *dbQueue) FindByPlayer(ctx context.Context, playerID string) (*entity.Game, error) {
	id, err := that.client.Get(ctx, waitingPlayerKey(playerID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get waiting game of player: %w", err)
	}

	response, err := that.client.Get(ctx, waitingKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get waiting game: %w", err)
	}

	return decodeGame(response)
}

func (that *dbQueue) Touch(ctx context.Context, game *entity.Game, _ time.Time) error {
	_, err := that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Expire(ctx, waitingKey(game.ID), that.ttl)
		pipe.Expire(ctx, waitingPlayerKey(game.Player1), that.ttl)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to refresh waiting game: %w", err)
	}

	return nil
}

// Remove withdraws a waiting game. Its id may linger in the list until Dequeue skips it.
func (that *dbQueue) Remove(ctx context.Context, id string) (*entity.Game, error) {
	response, err := that.client.GetDel(ctx, waitingKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrGameNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to delete waiting game: %w", err)
	}

	game, err := decodeGame(response)
	if err != nil {
		return nil, err
	}

	keys := []string{waitingPlayerKey(game.Player1)}
	if err = deleteIfEquals.Run(ctx, that.client, keys, game.ID).Err(); err != nil {
		return nil, fmt.Errorf("failed to delete waiting game index: %w", err)
	}

	return game, nil
}

// Sweep is a no-op: Redis expires idle waiting games on its own.
func (that *dbQueue) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

type memoryQueue struct {
	mu       sync.Mutex
	games    []*entity.Game
	byPlayer map[string]string
}

func NewMemoryQueueRepository() QueueRepository {
	return &memoryQueue{
		byPlayer: make(map[string]string),
	}
}

func (that *memoryQueue) Enqueue(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games = append(that.games, game.Clone())
	that.byPlayer[game.Player1] = game.ID

	return nil
}

func (that *memoryQueue) PushFront(_ context.Context, game *entity.Game) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.games = slices.Insert(that.games, 0, game.Clone())
	that.byPlayer[game.Player1] = game.ID

	return nil
}

func (that *memoryQueue) Dequeue(_ context.Context) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if len(that.games) == 0 {
		return nil, ErrQueueEmpty
	}

	game := that.games[0]
	that.removeAt(0)

	return game, nil
}

func (that *memoryQueue) FindByPlayer(_ context.Context, playerID string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	i := that.indexOf(that.byPlayer[playerID])
	if i < 0 {
		return nil, ErrGameNotFound
	}

	return that.games[i].Clone(), nil
}

func (that *memoryQueue) Touch(_ context.Context, game *entity.Game, now time.Time) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if i := that.indexOf(game.ID); i >= 0 {
		that.games[i].Touch(now)
	}

	return nil
}

func (that *memoryQueue) Remove(_ context.Context, id string) (*entity.Game, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	i := that.indexOf(id)
	if i < 0 {
		return nil, ErrGameNotFound
	}

	game := that.games[i]
	that.removeAt(i)

	return game, nil
}

func (that *memoryQueue) Sweep(_ context.Context, cutoff time.Time) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	swept := 0

	for i := len(that.games) - 1; i >= 0; i-- {
		if that.games[i].UpdatedAt.Before(cutoff) {
			that.removeAt(i)
			swept++
		}
	}

	return swept, nil
}

func (that *memoryQueue) indexOf(id string) int {
	if id == "" {
		return -1
	}

	return slices.IndexFunc(that.games, func(game *entity.Game) bool {
		return game.ID == id
	})
}

// removeAt must be called with mu held.
func (that *memoryQueue) removeAt(i int) {
	game := that.games[i]
	that.games = slices.Delete(that.games, i, i+1)

	if that.byPlayer[game.Player1] == game.ID {
		delete(that.byPlayer, game.Player1)
	}
}
