package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/chess"
	"github.com/rocketscienceinc/chess-relay/internal/entity"
	"github.com/rocketscienceinc/chess-relay/internal/metrics"
	"github.com/rocketscienceinc/chess-relay/internal/repository"
)

// WinSignal is what PollOpponentMove returns to a player whose opponent resigned.
const WinSignal = "You Win"

const reasonCancelled = "cancelled"

type Relay interface {
	SubmitMove(ctx context.Context, playerID, gameID, move string) error

	// PollOpponentMove returns the opponent's pending move, "" when there is none, or WinSignal.
	PollOpponentMove(ctx context.Context, playerID, gameID string) (string, error)

	Quit(ctx context.Context, playerID, gameID string) error

	// LegalMoves lists the destinations of the piece on cell in the server's copy of the board.
	LegalMoves(ctx context.Context, playerID, gameID, cell string) ([]string, error)
}

type RelayOptions struct {
	// StrictMoves rejects moves out of turn and moves the engine considers illegal.
	StrictMoves bool

	// ResultGrace is how long a resigned game's result waits for the winner to poll it.
	ResultGrace time.Duration
}

type relay struct {
	logger  *slog.Logger
	players playerRepo
	games   gameRepo
	queue   queueRepo
	results resultRepo
	opts    RelayOptions

	now func() time.Time
}

func NewRelay(logger *slog.Logger, players playerRepo, games gameRepo, queue queueRepo, results resultRepo, opts RelayOptions) Relay {
	return &relay{
		logger:  logger.With("component", "relay"),
		players: players,
		games:   games,
		queue:   queue,
		results: results,
		opts:    opts,
		now:     time.Now,
	}
}

func (that *relay) SubmitMove(ctx context.Context, playerID, gameID, notation string) error {
	log := that.logger.With("method", "SubmitMove", "player", playerID, "game", gameID)

	if err := that.validate(ctx, playerID, gameID); err != nil {
		return err
	}

	var move chess.Move

	_, err := that.games.Update(ctx, gameID, func(game *entity.Game) error {
		if err := confirmSeat(game, playerID); err != nil {
			return err
		}

		parsed, err := chess.ParseMove(notation)
		if err != nil {
			return fmt.Errorf("%w: %w", apperror.ErrMalformedRequest, err)
		}

		move = parsed
		side, _ := game.SideOf(playerID)

		if that.opts.StrictMoves {
			if game.Turn != side {
				return fmt.Errorf("%w: %s to move", apperror.ErrNotYourTurn, game.Turn)
			}

			if !chess.IsLegal(game.Board, move, side) {
				return fmt.Errorf("%w: %s", apperror.ErrIllegalMove, move)
			}
		}

		// a lenient board may fall out of sync with what clients play
		that.applyOwnMove(log, game.Board, move, side)

		game.PutMove(playerID, move.String())
		game.Turn = side.Opposite()
		game.Touch(that.now().UTC())

		return nil
	})
	if err != nil {
		return that.gameError(ctx, playerID, gameID, err)
	}

	metrics.MovesRelayed.WithLabelValues(metrics.MoveSubmitted).Inc()
	log.Debug("move submitted", "move", move.String())

	return nil
}

// applyOwnMove mirrors a relayed move on the server board when the origin holds one of the mover's pieces.
func (that *relay) applyOwnMove(log *slog.Logger, board *chess.Board, move chess.Move, side chess.Side) {
	piece, ok := board.At(move.From)
	if !ok || piece.Side != side {
		log.Debug("move not applied to server board", "move", move.String(), "origin", piece.String())
		return
	}

	if _, err := board.Apply(move); err != nil {
		log.Debug("move not applied to server board", "move", move.String(), "error", err)
	}
}

func (that *relay) PollOpponentMove(ctx context.Context, playerID, gameID string) (string, error) {
	if err := that.validate(ctx, playerID, gameID); err != nil {
		return "", err
	}

	var move string

	_, err := that.games.Update(ctx, gameID, func(game *entity.Game) error {
		if err := confirmSeat(game, playerID); err != nil {
			return err
		}

		move = game.TakeOpponentMove(playerID)
		game.Touch(that.now().UTC())

		return nil
	})
	if errors.Is(err, repository.ErrGameNotFound) {
		return that.collectResult(ctx, playerID, gameID)
	}

	if err != nil {
		return "", that.gameError(ctx, playerID, gameID, err)
	}

	if move != "" {
		metrics.MovesRelayed.WithLabelValues(metrics.MoveDelivered).Inc()
	}

	return move, nil
}

func (that *relay) collectResult(ctx context.Context, playerID, gameID string) (string, error) {
	log := that.logger.With("method", "PollOpponentMove", "player", playerID, "game", gameID)

	result, err := that.results.Take(ctx, gameID, playerID)
	if err == nil {
		log.Info("winner notified", "loser", result.Loser, "reason", result.Reason)
		return WinSignal, nil
	}

	if !errors.Is(err, repository.ErrResultNotFound) {
		return "", fmt.Errorf("failed to take result: %w", err)
	}

	return "", that.gameError(ctx, playerID, gameID, repository.ErrGameNotFound)
}

func (that *relay) Quit(ctx context.Context, playerID, gameID string) error {
	log := that.logger.With("method", "Quit", "player", playerID, "game", gameID)

	if err := that.validate(ctx, playerID, gameID); err != nil {
		return err
	}

	game, err := that.games.GetByID(ctx, gameID)
	if errors.Is(err, repository.ErrGameNotFound) {
		return that.cancelSearch(ctx, log, playerID, gameID)
	}

	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	if !game.IsParticipant(playerID) {
		return fmt.Errorf("%w: %s", apperror.ErrNotAParticipant, playerID)
	}

	removed, err := that.games.Remove(ctx, gameID)
	if err != nil {
		return that.gameError(ctx, playerID, gameID, err)
	}

	result := &entity.Result{
		GameID:     removed.ID,
		Winner:     removed.Opponent(playerID),
		Loser:      playerID,
		Reason:     entity.ReasonResigned,
		FinishedAt: that.now().UTC(),
	}

	if err = that.results.Save(ctx, result, that.opts.ResultGrace); err != nil {
		if restoreErr := that.games.Create(ctx, removed); restoreErr != nil {
			log.Error("failed to restore game after lost result", "error", restoreErr)
		}

		return fmt.Errorf("failed to save result: %w", err)
	}

	metrics.GamesFinished.WithLabelValues(entity.ReasonResigned).Inc()
	log.Info("player resigned", "winner", result.Winner)

	return nil
}

func (that *relay) cancelSearch(ctx context.Context, log *slog.Logger, playerID, gameID string) error {
	_, own, err := ownWaitingGame(ctx, that.queue, playerID, gameID)
	if err != nil {
		return err
	}

	if !own {
		return fmt.Errorf("%w: %s", apperror.ErrUnknownGame, gameID)
	}

	if _, err = that.queue.Remove(ctx, gameID); err != nil {
		if errors.Is(err, repository.ErrGameNotFound) {
			return fmt.Errorf("%w: %s", apperror.ErrUnknownGame, gameID)
		}

		return fmt.Errorf("failed to cancel waiting game: %w", err)
	}

	metrics.GamesFinished.WithLabelValues(reasonCancelled).Inc()
	log.Info("search cancelled")

	return nil
}

func (that *relay) LegalMoves(ctx context.Context, playerID, gameID, cellName string) ([]string, error) {
	if err := that.validate(ctx, playerID, gameID); err != nil {
		return nil, err
	}

	cell, ok := chess.ParseCell(cellName)
	if !ok {
		return nil, fmt.Errorf("%w: bad cell %q", apperror.ErrMalformedRequest, cellName)
	}

	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, that.gameError(ctx, playerID, gameID, err)
	}

	if err = confirmSeat(game, playerID); err != nil {
		return nil, err
	}

	return chess.LegalDestinationsFrom(game.Board, cell).Strings(), nil
}

func (that *relay) validate(ctx context.Context, playerID, gameID string) error {
	if err := requirePlayer(ctx, that.players, playerID); err != nil {
		return err
	}

	if gameID == "" {
		return fmt.Errorf("%w: missing game id", apperror.ErrMalformedRequest)
	}

	return nil
}

// gameError translates a missing game into UnknownGame, or InvalidState when it is
// the caller's own game still waiting for an opponent.
func (that *relay) gameError(ctx context.Context, playerID, gameID string, err error) error {
	if !errors.Is(err, repository.ErrGameNotFound) {
		return err
	}

	_, own, lookupErr := ownWaitingGame(ctx, that.queue, playerID, gameID)
	if lookupErr != nil {
		return lookupErr
	}

	if own {
		return fmt.Errorf("%w: game %s is waiting for an opponent", apperror.ErrInvalidState, gameID)
	}

	return fmt.Errorf("%w: %s", apperror.ErrUnknownGame, gameID)
}

func confirmSeat(game *entity.Game, playerID string) error {
	if !game.IsParticipant(playerID) {
		return fmt.Errorf("%w: %s", apperror.ErrNotAParticipant, playerID)
	}

	return game.ConfirmInProgress()
}
