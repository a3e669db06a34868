package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
)

var ErrPlayerNotFound = errors.New("player not found")

type PlayerRepository interface {
	// Create stores player unless its handle is taken. It reports whether the insert happened.
	Create(ctx context.Context, player *entity.Player) (bool, error)
	GetByID(ctx context.Context, id string) (*entity.Player, error)
}

type dbPlayer struct {
	client *redis.Client
}

func NewPlayerRepository(client *redis.Client) PlayerRepository {
	return &dbPlayer{
		client: client,
	}
}

func playerKey(id string) string {
	return "player:" + id
}

func (that *dbPlayer) Create(ctx context.Context, player *entity.Player) (bool, error) {
	playerJSON, err := json.Marshal(player)
	if err != nil {
		return false, fmt.Errorf("failed to marshal player: %w", err)
	}

	created, err := that.client.SetNX(ctx, playerKey(player.ID), playerJSON, 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set player: %w", err)
	}

	return created, nil
}

func (that *dbPlayer) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	response, err := that.client.Get(ctx, playerKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrPlayerNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get player by ID: %w", err)
	}

	var existingPlayer entity.Player
	if err = json.Unmarshal(response, &existingPlayer); err != nil {
		return nil, fmt.Errorf("failed to unmarshal player: %w", err)
	}

	return &existingPlayer, nil
}

type memoryPlayer struct {
	mu      sync.RWMutex
	players map[string]entity.Player
}

func NewMemoryPlayerRepository() PlayerRepository {
	return &memoryPlayer{
		players: make(map[string]entity.Player),
	}
}

func (that *memoryPlayer) Create(_ context.Context, player *entity.Player) (bool, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.players[player.ID]; ok {
		return false, nil
	}

	that.players[player.ID] = *player

	return true, nil
}

func (that *memoryPlayer) GetByID(_ context.Context, id string) (*entity.Player, error) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	player, ok := that.players[id]
	if !ok {
		return nil, ErrPlayerNotFound
	}

	return &player, nil
}
