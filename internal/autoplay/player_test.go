package autoplay

import (
	"context"
	"math/rand/v2"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/chess-relay/internal/repository"
	"github.com/rocketscienceinc/chess-relay/internal/service"
	"github.com/rocketscienceinc/chess-relay/pkg/client"
	"github.com/rocketscienceinc/chess-relay/testing/suite"
	"github.com/rocketscienceinc/chess-relay/transport/rest"
)

type alwaysUp struct{}

func (alwaysUp) Ping(context.Context) error { return nil }

func TestPlayer_Play(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// Given: a strict server, so every move the players make must be legal and in turn
	logger := suite.NewLogger()

	players := repository.NewMemoryPlayerRepository()
	games := repository.NewMemoryGameRepository()
	queue := repository.NewMemoryQueueRepository()
	results := repository.NewMemoryResultRepository()

	h := rest.NewHandlers(logger,
		service.NewRegistry(logger, players, 100),
		service.NewMatchmaker(logger, players, games, queue),
		service.NewRelay(logger, players, games, queue, results,
			service.RelayOptions{StrictMoves: true, ResultGrace: time.Minute}),
	)

	srv := httptest.NewServer(rest.NewRouter(logger, h, rest.NewHealthHandler(alwaysUp{})))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	c := client.New(srv.URL, client.WithPollInterval(2*time.Millisecond))

	type played struct {
		outcome Outcome
		err     error
	}

	done := make(chan played, 2)

	// When: two autoplayers meet
	for seed := range uint64(2) {
		p := NewPlayer(logger, c, rand.New(rand.NewPCG(seed, seed+1)), 10)

		go func() {
			outcome, err := p.Play(ctx)
			done <- played{outcome: outcome, err: err}
		}()
	}

	first, second := <-done, <-done

	// Then: one hits the move limit or gets stuck and resigns, the other wins
	require.NoError(t, first.err)
	require.NoError(t, second.err)

	outcomes := []Outcome{first.outcome, second.outcome}
	assert.Contains(t, outcomes, OutcomeWon)
	assert.NotEqual(t, first.outcome, second.outcome)
}

func TestApplyNotation(t *testing.T) {
	t.Run("Malformed", func(t *testing.T) {
		err := applyNotation(nil, "nonsense")

		require.ErrorIs(t, err, errDesync)
	})
}
