// Package autoplay drives a headless player that picks random legal moves.
package autoplay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/rocketscienceinc/chess-relay/internal/chess"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/pkg/client"
)

type Outcome string

const (
	OutcomeWon       Outcome = "won"
	OutcomeStuck     Outcome = "no legal move"
	OutcomeMoveLimit Outcome = "move limit"
)

var errDesync = errors.New("opponent move does not fit the local board")

type relayClient interface {
	Register(ctx context.Context) (string, error)
	WaitForGame(ctx context.Context, player string) (entity.GameView, error)
	SubmitMove(ctx context.Context, player, gameID, move string) error
	WaitForOpponentMove(ctx context.Context, player, gameID string) (string, error)
	Quit(ctx context.Context, player, gameID string) error
}

type Player struct {
	logger   *slog.Logger
	client   relayClient
	rnd      *rand.Rand
	maxMoves int
}

func NewPlayer(logger *slog.Logger, c relayClient, rnd *rand.Rand, maxMoves int) *Player {
	return &Player{
		logger:   logger.With("component", "autoplayer"),
		client:   c,
		rnd:      rnd,
		maxMoves: maxMoves,
	}
}

// Play registers, waits for an opponent and plays one game to its end.
func (that *Player) Play(ctx context.Context) (Outcome, error) {
	handle, err := that.client.Register(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to register: %w", err)
	}

	log := that.logger.With("player", handle)
	log.Info("registered, waiting for opponent")

	view, err := that.client.WaitForGame(ctx, handle)
	if err != nil {
		return "", fmt.Errorf("failed to get paired: %w", err)
	}

	side := chess.Black
	if view.Player1 == handle {
		side = chess.White
	}

	log = log.With("game", view.GameID, "side", side.String())
	log.Info("game started")

	board := chess.StandardBoard()
	turn := chess.White
	made := 0

	for {
		if turn != side {
			notation, err := that.client.WaitForOpponentMove(ctx, handle, view.GameID)
			if err != nil {
				return "", fmt.Errorf("failed to get opponent move: %w", err)
			}

			if notation == client.WinSignal {
				log.Info("opponent resigned")
				return OutcomeWon, nil
			}

			if err = applyNotation(board, notation); err != nil {
				return "", err
			}

			turn = turn.Opposite()

			continue
		}

		if made >= that.maxMoves {
			return OutcomeMoveLimit, that.resign(ctx, log, handle, view.GameID)
		}

		moves := chess.Moves(board, side)
		if len(moves) == 0 {
			return OutcomeStuck, that.resign(ctx, log, handle, view.GameID)
		}

		move := moves[that.rnd.IntN(len(moves))]
		if _, err = board.Apply(move); err != nil {
			return "", fmt.Errorf("failed to apply own move: %w", err)
		}

		if err = that.client.SubmitMove(ctx, handle, view.GameID, move.String()); err != nil {
			return "", fmt.Errorf("failed to submit move: %w", err)
		}

		log.Debug("moved", "move", move.String())

		made++
		turn = turn.Opposite()
	}
}

func (that *Player) resign(ctx context.Context, log *slog.Logger, handle, gameID string) error {
	if err := that.client.Quit(ctx, handle, gameID); err != nil {
		return fmt.Errorf("failed to quit: %w", err)
	}

	log.Info("resigned")

	return nil
}

func applyNotation(board *chess.Board, notation string) error {
	move, err := chess.ParseMove(notation)
	if err != nil {
		return fmt.Errorf("%w: %w", errDesync, err)
	}

	if _, err = board.Apply(move); err != nil {
		return fmt.Errorf("%w: %w", errDesync, err)
	}

	return nil
}
