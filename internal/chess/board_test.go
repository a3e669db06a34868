package chess

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCell(t *testing.T) {
	c, ok := ParseCell("e2")
	require.True(t, ok)
	assert.Equal(t, "E2", c.String())
	assert.Equal(t, 4, c.File())
	assert.Equal(t, 1, c.Rank())
	assert.Equal(t, byte('E'), c.Column())
	assert.Equal(t, 2, c.Row())

	for _, bad := range []string{"", "E", "I1", "A0", "A9", "E22", "2E"} {
		_, ok = ParseCell(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseMove(t *testing.T) {
	t.Run("Valid notation", func(t *testing.T) {
		m, err := ParseMove("E2-E4")
		require.NoError(t, err)
		assert.Equal(t, MustCell("E2"), m.From)
		assert.Equal(t, MustCell("E4"), m.To)
		assert.Equal(t, "E2-E4", m.String())
	})

	t.Run("Invalid notation", func(t *testing.T) {
		for _, bad := range []string{"", "E2E4", "E2-", "-E4", "Z2-E4", "E2-E9", "E2-E2"} {
			_, err := ParseMove(bad)
			assert.ErrorIs(t, err, ErrInvalidMove, bad)
		}
	})
}

func TestBoard_Apply(t *testing.T) {
	t.Run("Moves the piece and reports capture", func(t *testing.T) {
		// Given: a white rook on A1 and a black knight on A5
		board := NewBoard()
		board.Place(MustCell("A1"), Piece{Side: White, Kind: Rook})
		board.Place(MustCell("A5"), Piece{Side: Black, Kind: Knight})

		// When: the rook takes the knight
		captured, err := board.Apply(Move{From: MustCell("A1"), To: MustCell("A5")})

		// Then: the knight is returned and the rook stands on A5
		require.NoError(t, err)
		assert.Equal(t, Piece{Side: Black, Kind: Knight}, captured)
		p, ok := board.At(MustCell("A5"))
		assert.True(t, ok)
		assert.Equal(t, Rook, p.Kind)
		_, ok = board.At(MustCell("A1"))
		assert.False(t, ok)
	})

	t.Run("Empty origin is an error", func(t *testing.T) {
		board := NewBoard()

		_, err := board.Apply(Move{From: MustCell("A1"), To: MustCell("A2")})

		assert.ErrorIs(t, err, ErrEmptyOrigin)
	})
}

func TestBoard_Placement(t *testing.T) {
	t.Run("Standard board renders the starting placement", func(t *testing.T) {
		assert.Equal(t, StartingPlacement, StandardBoard().Placement())
	})

	t.Run("Placement survives JSON", func(t *testing.T) {
		// Given: a board after 1. e4
		board := StandardBoard()
		_, err := board.Apply(Move{From: MustCell("E2"), To: MustCell("E4")})
		require.NoError(t, err)

		// When: marshalling and unmarshalling through JSON
		raw, err := json.Marshal(board)
		require.NoError(t, err)

		var decoded Board
		require.NoError(t, json.Unmarshal(raw, &decoded))

		// Then: the boards match
		assert.JSONEq(t, `"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR"`, string(raw))
		assert.Equal(t, *board, decoded)
	})

	t.Run("Rejects malformed placements", func(t *testing.T) {
		for _, bad := range []string{"8/8", "9/8/8/8/8/8/8/8", "x7/8/8/8/8/8/8/8", "7/8/8/8/8/8/8/8"} {
			_, err := ParsePlacement(bad)
			assert.ErrorIs(t, err, ErrInvalidBoard, bad)
		}
	})
}

func TestParsePieceKind(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want PieceKind
	}{
		{"pawn", Pawn}, {"Knight", Knight}, {"b", Bishop}, {"R", Rook}, {"queen", Queen}, {"k", King},
	} {
		got, ok := ParsePieceKind(tc.in)
		assert.True(t, ok, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	_, ok := ParsePieceKind("dragon")
	assert.False(t, ok)
}
