package chess

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyOrigin  = errors.New("no piece at origin")
	ErrInvalidBoard = errors.New("invalid board placement")
)

// StartingPlacement is the standard initial position in FEN placement form.
const StartingPlacement = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

// Board is an occupancy snapshot: each cell is empty or holds one piece.
type Board struct {
	cells [boardSize * boardSize]Piece
}

// NewBoard returns an empty board.
func NewBoard() *Board {
	return &Board{}
}

func StandardBoard() *Board {
	board, err := ParsePlacement(StartingPlacement)
	if err != nil {
		panic(err)
	}

	return board
}

func (that *Board) At(cell Cell) (Piece, bool) {
	piece := that.cells[cell]

	return piece, !piece.IsEmpty()
}

func (that *Board) Place(cell Cell, piece Piece) {
	that.cells[cell] = piece
}

func (that *Board) Remove(cell Cell) {
	that.cells[cell] = Piece{}
}

// Apply moves the piece at move.From onto move.To and returns whatever stood on move.To.
func (that *Board) Apply(move Move) (Piece, error) {
	moving, ok := that.At(move.From)
	if !ok {
		return Piece{}, fmt.Errorf("%w: %s", ErrEmptyOrigin, move.From)
	}

	captured := that.cells[move.To]
	that.cells[move.To] = moving
	that.Remove(move.From)

	return captured, nil
}

func (that *Board) Clone() *Board {
	clone := *that

	return &clone
}

// Placement renders the board as a FEN placement field, rank 8 first.
func (that *Board) Placement() string {
	var sb strings.Builder

	for rank := boardSize - 1; rank >= 0; rank-- {
		empty := 0

		for file := 0; file < boardSize; file++ {
			cell, _ := CellFromCoords(file, rank)

			piece := that.cells[cell]
			if piece.IsEmpty() {
				empty++
				continue
			}

			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}

			sb.WriteByte(piece.letter())
		}

		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}

		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	return sb.String()
}

func ParsePlacement(placement string) (*Board, error) {
	ranks := strings.Split(placement, "/")
	if len(ranks) != boardSize {
		return nil, fmt.Errorf("%w: want %d ranks, got %d", ErrInvalidBoard, boardSize, len(ranks))
	}

	board := NewBoard()

	for i, row := range ranks {
		rank := boardSize - 1 - i
		file := 0

		for j := 0; j < len(row); j++ {
			ch := row[j]
			if ch >= '1' && ch <= '8' {
				file += int(ch - '0')
				continue
			}

			piece, ok := pieceFromLetter(ch)
			if !ok {
				return nil, fmt.Errorf("%w: unknown piece %q", ErrInvalidBoard, ch)
			}

			cell, ok := CellFromCoords(file, rank)
			if !ok {
				return nil, fmt.Errorf("%w: rank %d overflows", ErrInvalidBoard, rank+1)
			}

			board.Place(cell, piece)
			file++
		}

		if file != boardSize {
			return nil, fmt.Errorf("%w: rank %d has %d files", ErrInvalidBoard, rank+1, file)
		}
	}

	return board, nil
}

func (that *Board) MarshalText() ([]byte, error) {
	return []byte(that.Placement()), nil
}

func (that *Board) UnmarshalText(text []byte) error {
	parsed, err := ParsePlacement(string(text))
	if err != nil {
		return err
	}

	*that = *parsed

	return nil
}
