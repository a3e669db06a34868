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

var ErrResultNotFound = errors.New("result not found")

// ResultRepository keeps short-lived outcomes of resigned games until the winner collects them.
type ResultRepository interface {
	Save(ctx context.Context, result *entity.Result, ttl time.Duration) error

	// Take returns the result once if playerID won gameID.
	Take(ctx context.Context, gameID, playerID string) (*entity.Result, error)

	Sweep(ctx context.Context, now time.Time) (int, error)
}

func resultKey(gameID, winner string) string {
	return "result:" + gameID + ":" + winner
}

type dbResult struct {
	client *redis.Client
}

func NewResultRepository(client *redis.Client) ResultRepository {
	return &dbResult{
		client: client,
	}
}

func (that *dbResult) Save(ctx context.Context, result *entity.Result, ttl time.Duration) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("could not marshal result: %w", err)
	}

	if err = that.client.Set(ctx, resultKey(result.GameID, result.Winner), resultJSON, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set result: %w", err)
	}

	return nil
}

func (that *dbResult) Take(ctx context.Context, gameID, playerID string) (*entity.Result, error) {
	response, err := that.client.GetDel(ctx, resultKey(gameID, playerID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrResultNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to take result: %w", err)
	}

	var result entity.Result
	if err = json.Unmarshal(response, &result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}

	return &result, nil
}

// Sweep is a no-op: results carry their own TTL in Redis.
func (that *dbResult) Sweep(context.Context, time.Time) (int, error) {
	return 0, nil
}

type storedResult struct {
	result    entity.Result
	expiresAt time.Time
}

type memoryResult struct {
	mu      sync.Mutex
	results map[string]storedResult
	now     func() time.Time
}

func NewMemoryResultRepository() ResultRepository {
	return &memoryResult{
		results: make(map[string]storedResult),
		now:     time.Now,
	}
}

func (that *memoryResult) Save(_ context.Context, result *entity.Result, ttl time.Duration) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.results[resultKey(result.GameID, result.Winner)] = storedResult{
		result:    *result,
		expiresAt: that.now().Add(ttl),
	}

	return nil
}

func (that *memoryResult) Take(_ context.Context, gameID, playerID string) (*entity.Result, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	key := resultKey(gameID, playerID)

	stored, ok := that.results[key]
	if !ok {
		return nil, ErrResultNotFound
	}

	delete(that.results, key)

	if !that.now().Before(stored.expiresAt) {
		return nil, ErrResultNotFound
	}

	return &stored.result, nil
}

func (that *memoryResult) Sweep(_ context.Context, now time.Time) (int, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	swept := 0

	for key, stored := range that.results {
		if !now.Before(stored.expiresAt) {
			delete(that.results, key)
			swept++
		}
	}

	return swept, nil
}
