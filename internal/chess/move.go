package chess

import (
	"errors"
	"fmt"
	"strings"
)

var ErrInvalidMove = errors.New("invalid move notation")

// Move is an origin/destination pair written as "<col><row>-<col><row>", e.g. "E2-E4".
type Move struct {
	From Cell
	To   Cell
}

func (that Move) String() string {
	return that.From.String() + "-" + that.To.String()
}

func ParseMove(notation string) (Move, error) {
	from, to, found := strings.Cut(strings.TrimSpace(notation), "-")
	if !found {
		return Move{}, fmt.Errorf("%w: %q", ErrInvalidMove, notation)
	}

	fromCell, ok := ParseCell(from)
	if !ok {
		return Move{}, fmt.Errorf("%w: bad origin %q", ErrInvalidMove, from)
	}

	toCell, ok := ParseCell(to)
	if !ok {
		return Move{}, fmt.Errorf("%w: bad destination %q", ErrInvalidMove, to)
	}

	if fromCell == toCell {
		return Move{}, fmt.Errorf("%w: origin equals destination", ErrInvalidMove)
	}

	return Move{From: fromCell, To: toCell}, nil
}
