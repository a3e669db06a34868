package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/repository"
	"github.com/rocketscienceinc/chess-relay/testing/suite"
)

type stores struct {
	players repository.PlayerRepository
	games   repository.GameRepository
	queue   repository.QueueRepository
	results repository.ResultRepository
}

type services struct {
	stores

	registry   Registry
	matchmaker Matchmaker
	relay      Relay
}

func newServices(t *testing.T, opts RelayOptions) services {
	t.Helper()

	logger := suite.NewLogger()

	st := stores{
		players: repository.NewMemoryPlayerRepository(),
		games:   repository.NewMemoryGameRepository(),
		queue:   repository.NewMemoryQueueRepository(),
		results: repository.NewMemoryResultRepository(),
	}

	if opts.ResultGrace == 0 {
		opts.ResultGrace = time.Minute
	}

	return services{
		stores:     st,
		registry:   NewRegistry(logger, st.players, 1000),
		matchmaker: NewMatchmaker(logger, st.players, st.games, st.queue),
		relay:      NewRelay(logger, st.players, st.games, st.queue, st.results, opts),
	}
}

func (that services) register(t *testing.T, n int) []string {
	t.Helper()

	handles := make([]string, n)
	for i := range handles {
		handle, err := that.registry.Register(context.Background(), "127.0.0.1:5000")
		require.NoError(t, err)

		handles[i] = handle
	}

	return handles
}

// startGame pairs white then black and returns the game id.
func (that services) startGame(t *testing.T, white, black string) string {
	t.Helper()

	ctx := context.Background()

	waiting, err := that.matchmaker.Pair(ctx, white)
	require.NoError(t, err)
	require.Equal(t, entity.StatusWaiting, waiting.State)

	started, err := that.matchmaker.Pair(ctx, black)
	require.NoError(t, err)
	require.Equal(t, entity.StatusInProgress, started.State)
	require.Equal(t, waiting.GameID, started.GameID)

	return started.GameID
}

type mockPlayerRepo struct {
	mock.Mock
}

func (that *mockPlayerRepo) Create(ctx context.Context, player *entity.Player) (bool, error) {
	args := that.Called(ctx, player)
	return args.Bool(0), args.Error(1)
}

func (that *mockPlayerRepo) GetByID(ctx context.Context, id string) (*entity.Player, error) {
	args := that.Called(ctx, id)
	player, _ := args.Get(0).(*entity.Player)

	return player, args.Error(1)
}

type mockGameRepo struct {
	mock.Mock
}

func (that *mockGameRepo) Create(ctx context.Context, game *entity.Game) error {
	return that.Called(ctx, game).Error(0)
}

func (that *mockGameRepo) GetByID(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameRepo) FindByPlayer(ctx context.Context, playerID string) (*entity.Game, error) {
	args := that.Called(ctx, playerID)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameRepo) Update(ctx context.Context, id string, fn func(game *entity.Game) error) (*entity.Game, error) {
	args := that.Called(ctx, id, fn)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

func (that *mockGameRepo) Remove(ctx context.Context, id string) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)

	return game, args.Error(1)
}

type mockResultRepo struct {
	mock.Mock
}

func (that *mockResultRepo) Save(ctx context.Context, result *entity.Result, ttl time.Duration) error {
	return that.Called(ctx, result, ttl).Error(0)
}

func (that *mockResultRepo) Take(ctx context.Context, gameID, playerID string) (*entity.Result, error) {
	args := that.Called(ctx, gameID, playerID)
	result, _ := args.Get(0).(*entity.Result)

	return result, args.Error(1)
}

func (that *mockResultRepo) Sweep(ctx context.Context, now time.Time) (int, error) {
	args := that.Called(ctx, now)

	return args.Int(0), args.Error(1)
}
