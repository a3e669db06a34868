package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/chess-relay/internal/apperror"
	"github.com/rocketscienceinc/chess-relay/internal/chess"
)

const (
	StatusWaiting    = "waiting"
	StatusInProgress = "in_progress"
	StatusFinished   = "finished"
)

var ErrUnknownGameStatus = errors.New("unknown game status")

// Game is one pairing of two handles. Player1 plays white and moves first.
type Game struct {
	ID      string `json:"id"`
	Status  string `json:"status"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2,omitempty"`

	// Single-slot mailboxes holding each player's latest undelivered move.
	Player1LastMove string `json:"player1_last_move,omitempty"`
	Player2LastMove string `json:"player2_last_move,omitempty"`

	Board *chess.Board `json:"board,omitempty"`
	Turn  chess.Side   `json:"turn"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// GameView is what a Pair call returns.
type GameView struct {
	GameID  string `json:"gameId"`
	State   string `json:"state"`
	Player1 string `json:"player1"`
	Player2 string `json:"player2"`
}

func NewGame(id, player1 string, now time.Time) *Game {
	return &Game{
		ID:        id,
		Status:    StatusWaiting,
		Player1:   player1,
		Turn:      chess.White,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Join seats player2 and starts the game on a fresh board.
func (that *Game) Join(player2 string, now time.Time) error {
	if !that.IsWaiting() {
		return fmt.Errorf("%w: game %s is %s", apperror.ErrInvalidState, that.ID, that.Status)
	}

	if player2 == that.Player1 {
		return fmt.Errorf("%w: player %s cannot join own game", apperror.ErrInvalidState, player2)
	}

	that.Player2 = player2
	that.Status = StatusInProgress
	that.Board = chess.StandardBoard()
	that.Turn = chess.White
	that.Touch(now)

	return nil
}

func (that *Game) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Game) IsInProgress() bool {
	return that.Status == StatusInProgress
}

func (that *Game) IsFinished() bool {
	return that.Status == StatusFinished
}

func (that *Game) ConfirmInProgress() error {
	switch {
	case that.IsInProgress():
		return nil
	case that.IsWaiting():
		return fmt.Errorf("%w: game is not started", apperror.ErrInvalidState)
	case that.IsFinished():
		return fmt.Errorf("%w: game is already finished", apperror.ErrInvalidState)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownGameStatus, that.Status)
	}
}

func (that *Game) IsParticipant(playerID string) bool {
	return playerID != "" && (that.Player1 == playerID || that.Player2 == playerID)
}

// Opponent returns the other participant, or "" when playerID is not seated.
func (that *Game) Opponent(playerID string) string {
	switch playerID {
	case that.Player1:
		return that.Player2
	case that.Player2:
		return that.Player1
	default:
		return ""
	}
}

func (that *Game) SideOf(playerID string) (chess.Side, bool) {
	switch {
	case playerID == "":
		return chess.White, false
	case playerID == that.Player1:
		return chess.White, true
	case playerID == that.Player2:
		return chess.Black, true
	default:
		return chess.White, false
	}
}

// PutMove stores move in the sender's slot, replacing any undelivered move.
func (that *Game) PutMove(playerID, move string) {
	if playerID == that.Player1 {
		that.Player1LastMove = move
	} else {
		that.Player2LastMove = move
	}
}

// TakeOpponentMove empties the opponent's slot and returns what it held.
func (that *Game) TakeOpponentMove(playerID string) string {
	var move string

	if playerID == that.Player1 {
		move, that.Player2LastMove = that.Player2LastMove, ""
	} else {
		move, that.Player1LastMove = that.Player1LastMove, ""
	}

	return move
}

func (that *Game) Touch(now time.Time) {
	that.UpdatedAt = now
}

func (that *Game) View() GameView {
	return GameView{
		GameID:  that.ID,
		State:   that.Status,
		Player1: that.Player1,
		Player2: that.Player2,
	}
}

func (that *Game) Clone() *Game {
	clone := *that
	if that.Board != nil {
		clone.Board = that.Board.Clone()
	}

	return &clone
}
