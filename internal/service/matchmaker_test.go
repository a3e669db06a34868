package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/repository"
	"github.com/rocketscienceinc/chess-relay/testing/suite"
)

func TestMatchmaker_Pair(t *testing.T) {
	ctx := context.Background()

	t.Run("First caller waits and second caller starts the game", func(t *testing.T) {
		// Given: two registered handles
		svc := newServices(t, RelayOptions{})
		handles := svc.register(t, 2)
		a, b := handles[0], handles[1]

		// When: A then B ask to be paired
		viewA, err := svc.matchmaker.Pair(ctx, a)
		require.NoError(t, err)

		viewB, err := svc.matchmaker.Pair(ctx, b)
		require.NoError(t, err)

		// Then: A waits alone, B completes the game with A as player 1
		assert.Equal(t, entity.GameView{GameID: viewA.GameID, State: entity.StatusWaiting, Player1: a}, viewA)
		assert.Equal(t, entity.GameView{GameID: viewA.GameID, State: entity.StatusInProgress, Player1: a, Player2: b}, viewB)

		// And: polling again is idempotent for both players
		for _, handle := range []string{a, b} {
			view, err := svc.matchmaker.Pair(ctx, handle)
			require.NoError(t, err)
			assert.Equal(t, viewB, view)
		}
	})

	t.Run("Caller is never paired with itself", func(t *testing.T) {
		svc := newServices(t, RelayOptions{})
		a := svc.register(t, 1)[0]

		first, err := svc.matchmaker.Pair(ctx, a)
		require.NoError(t, err)

		second, err := svc.matchmaker.Pair(ctx, a)
		require.NoError(t, err)

		assert.Equal(t, entity.StatusWaiting, first.State)
		assert.Equal(t, first, second)
	})

	t.Run("Unknown player", func(t *testing.T) {
		svc := newServices(t, RelayOptions{})

		_, err := svc.matchmaker.Pair(ctx, "ZZZ999")

		require.ErrorIs(t, err, apperror.ErrUnknownPlayer)
	})

	t.Run("Missing player", func(t *testing.T) {
		svc := newServices(t, RelayOptions{})

		_, err := svc.matchmaker.Pair(ctx, "")

		require.ErrorIs(t, err, apperror.ErrMalformedRequest)
	})

	t.Run("Games are handed out in arrival order", func(t *testing.T) {
		// Given: A and B already paired, then C waiting
		svc := newServices(t, RelayOptions{})
		handles := svc.register(t, 4)
		a, b, c, d := handles[0], handles[1], handles[2], handles[3]

		viewA, err := svc.matchmaker.Pair(ctx, a)
		require.NoError(t, err)

		_, err = svc.matchmaker.Pair(ctx, b)
		require.NoError(t, err)

		viewC, err := svc.matchmaker.Pair(ctx, c)
		require.NoError(t, err)

		// When: D arrives
		viewD, err := svc.matchmaker.Pair(ctx, d)
		require.NoError(t, err)

		// Then: D joins C
		assert.NotEqual(t, viewA.GameID, viewC.GameID)
		assert.Equal(t, viewC.GameID, viewD.GameID)
		assert.Equal(t, c, viewD.Player1)
		assert.Equal(t, d, viewD.Player2)
	})

	t.Run("Claiming another game withdraws the caller's own waiting game", func(t *testing.T) {
		// Given: A waiting, and B waiting behind A
		svc := newServices(t, RelayOptions{})
		handles := svc.register(t, 3)
		a, b, c := handles[0], handles[1], handles[2]

		require.NoError(t, svc.queue.Enqueue(ctx, entity.NewGame("game-a", a, time.Now())))
		require.NoError(t, svc.queue.Enqueue(ctx, entity.NewGame("game-b", b, time.Now())))

		// When: B polls
		view, err := svc.matchmaker.Pair(ctx, b)
		require.NoError(t, err)

		// Then: B joined A and its own waiting game is gone
		assert.Equal(t, "game-a", view.GameID)

		_, err = svc.queue.FindByPlayer(ctx, b)
		require.ErrorIs(t, err, repository.ErrGameNotFound)

		// And: C does not get B's stale game
		viewC, err := svc.matchmaker.Pair(ctx, c)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusWaiting, viewC.State)
		assert.Equal(t, c, viewC.Player1)
	})

	t.Run("Stale waiting game of an active player is discarded", func(t *testing.T) {
		// Given: A and B already play, and a leftover waiting game of A is queued
		svc := newServices(t, RelayOptions{})
		handles := svc.register(t, 3)
		a, b, c := handles[0], handles[1], handles[2]

		gameID := svc.startGame(t, a, b)
		require.NoError(t, svc.queue.Enqueue(ctx, entity.NewGame("leftover", a, time.Now())))

		// When: C polls
		view, err := svc.matchmaker.Pair(ctx, c)
		require.NoError(t, err)

		// Then: C waits in a fresh game and the A/B game is untouched
		assert.Equal(t, entity.StatusWaiting, view.State)
		assert.NotEqual(t, "leftover", view.GameID)

		game, err := svc.games.GetByID(ctx, gameID)
		require.NoError(t, err)
		assert.Equal(t, b, game.Player2)
	})

	t.Run("Exactly one racing caller claims a waiting game", func(t *testing.T) {
		// Given: A waiting and many other handles
		svc := newServices(t, RelayOptions{})
		handles := svc.register(t, 21)
		a, racers := handles[0], handles[1:]

		waiting, err := svc.matchmaker.Pair(ctx, a)
		require.NoError(t, err)

		var (
			wg      sync.WaitGroup
			mu      sync.Mutex
			winners []string
		)

		// When: they all poll at once
		for _, racer := range racers {
			wg.Add(1)

			go func() {
				defer wg.Done()

				view, err := svc.matchmaker.Pair(ctx, racer)
				assert.NoError(t, err)

				if view.GameID == waiting.GameID {
					mu.Lock()
					winners = append(winners, racer)
					mu.Unlock()
				}
			}()
		}

		wg.Wait()

		// Then: A's game has exactly one second player
		require.Len(t, winners, 1)

		game, err := svc.games.FindByPlayer(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, waiting.GameID, game.ID)
		assert.Equal(t, winners[0], game.Player2)
	})

	t.Run("Returns error if active game lookup fails", func(t *testing.T) {
		players := &mockPlayerRepo{}
		players.On("GetByID", mock.Anything, "AAA111").Return(&entity.Player{ID: "AAA111"}, nil).Once()

		games := &mockGameRepo{}
		games.On("FindByPlayer", mock.Anything, "AAA111").Return(nil, errRedisDown).Once()

		mm := NewMatchmaker(suite.NewLogger(), players, games, repository.NewMemoryQueueRepository())

		_, err := mm.Pair(ctx, "AAA111")

		require.ErrorIs(t, err, errRedisDown)
		players.AssertExpectations(t)
		games.AssertExpectations(t)
	})

	t.Run("Requeues claimed game if starting it fails", func(t *testing.T) {
		// Given: A waits in the queue and the game store rejects writes
		queue := repository.NewMemoryQueueRepository()
		require.NoError(t, queue.Enqueue(ctx, entity.NewGame("g1", "AAA111", time.Now().UTC())))

		players := &mockPlayerRepo{}
		players.On("GetByID", mock.Anything, "BBB222").Return(&entity.Player{ID: "BBB222"}, nil).Once()

		games := &mockGameRepo{}
		games.On("FindByPlayer", mock.Anything, "BBB222").Return(nil, repository.ErrGameNotFound).Once()
		games.On("FindByPlayer", mock.Anything, "AAA111").Return(nil, repository.ErrGameNotFound).Once()
		games.On("Create", mock.Anything, mock.Anything).Return(errRedisDown).Once()

		mm := NewMatchmaker(suite.NewLogger(), players, games, queue)

		// When: B tries to pair
		_, err := mm.Pair(ctx, "BBB222")

		// Then: the error surfaces and A's game is back in the queue untouched
		require.ErrorIs(t, err, errRedisDown)

		waiting, err := queue.FindByPlayer(ctx, "AAA111")
		require.NoError(t, err)
		assert.Equal(t, "g1", waiting.ID)
		assert.Equal(t, entity.StatusWaiting, waiting.Status)
		assert.Empty(t, waiting.Player2)
		assert.Nil(t, waiting.Board)

		next, err := queue.Dequeue(ctx)
		require.NoError(t, err)
		assert.Equal(t, "g1", next.ID)

		players.AssertExpectations(t)
		games.AssertExpectations(t)
	})

	t.Run("Requeues claimed game if owner lookup fails", func(t *testing.T) {
		// Given: A waits in the queue and the owner check fails
		queue := repository.NewMemoryQueueRepository()
		require.NoError(t, queue.Enqueue(ctx, entity.NewGame("g1", "AAA111", time.Now().UTC())))

		players := &mockPlayerRepo{}
		players.On("GetByID", mock.Anything, "BBB222").Return(&entity.Player{ID: "BBB222"}, nil).Once()

		games := &mockGameRepo{}
		games.On("FindByPlayer", mock.Anything, "BBB222").Return(nil, repository.ErrGameNotFound).Once()
		games.On("FindByPlayer", mock.Anything, "AAA111").Return(nil, errRedisDown).Once()

		mm := NewMatchmaker(suite.NewLogger(), players, games, queue)

		// When: B tries to pair
		_, err := mm.Pair(ctx, "BBB222")

		// Then: A's game is still waiting
		require.ErrorIs(t, err, errRedisDown)

		waiting, err := queue.FindByPlayer(ctx, "AAA111")
		require.NoError(t, err)
		assert.Equal(t, "g1", waiting.ID)

		games.AssertExpectations(t)
	})
}
