package chess

import (
	"fmt"
	"strings"
)

type Side uint8

const (
	White Side = iota
	Black
)

func (that Side) Opposite() Side {
	if that == White {
		return Black
	}

	return White
}

func (that Side) String() string {
	if that == White {
		return "white"
	}

	return "black"
}

// forward is the row delta a pawn of this side advances by.
func (that Side) forward() int {
	if that == White {
		return 1
	}

	return -1
}

// pawnStartRank is the zero-based rank from which a pawn may double-step.
func (that Side) pawnStartRank() int {
	if that == White {
		return 1
	}

	return 6
}

type PieceKind uint8

const (
	NoPiece PieceKind = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

var pieceNames = [...]string{
	NoPiece: "none",
	Pawn:    "pawn",
	Knight:  "knight",
	Bishop:  "bishop",
	Rook:    "rook",
	Queen:   "queen",
	King:    "king",
}

var pieceLetters = [...]byte{
	Pawn:   'P',
	Knight: 'N',
	Bishop: 'B',
	Rook:   'R',
	Queen:  'Q',
	King:   'K',
}

func (that PieceKind) String() string {
	if int(that) < len(pieceNames) {
		return pieceNames[that]
	}

	return fmt.Sprintf("piece(%d)", that)
}

// ParsePieceKind accepts a piece name ("knight") or its letter ("N"), case-insensitively.
func ParsePieceKind(name string) (PieceKind, bool) {
	name = strings.ToLower(strings.TrimSpace(name))

	for kind := Pawn; kind <= King; kind++ {
		if name == pieceNames[kind] || (len(name) == 1 && name[0] == pieceLetters[kind]+('a'-'A')) {
			return kind, true
		}
	}

	return NoPiece, false
}

// Piece is the occupant of a cell. The zero value is an empty cell.
type Piece struct {
	Side Side
	Kind PieceKind
}

func (that Piece) IsEmpty() bool {
	return that.Kind == NoPiece
}

func (that Piece) String() string {
	if that.IsEmpty() {
		return "empty"
	}

	return that.Side.String() + " " + that.Kind.String()
}

// letter returns the FEN letter, upper-case for white.
func (that Piece) letter() byte {
	letter := pieceLetters[that.Kind]
	if that.Side == Black {
		letter += 'a' - 'A'
	}

	return letter
}

func pieceFromLetter(letter byte) (Piece, bool) {
	side := White
	if letter >= 'a' && letter <= 'z' {
		side = Black
		letter -= 'a' - 'A'
	}

	for kind := Pawn; kind <= King; kind++ {
		if pieceLetters[kind] == letter {
			return Piece{Side: side, Kind: kind}, true
		}
	}

	return Piece{}, false
}
