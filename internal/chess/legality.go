package chess

type moveDelta struct {
	df, dr int
}

var (
	rookDirections = [...]moveDelta{
		{df: 0, dr: 1},
		{df: 0, dr: -1},
		{df: 1, dr: 0},
		{df: -1, dr: 0},
	}
	bishopDirections = [...]moveDelta{
		{df: 1, dr: 1},
		{df: -1, dr: 1},
		{df: 1, dr: -1},
		{df: -1, dr: -1},
	}
	knightOffsets = [...]moveDelta{
		{df: 1, dr: 2},
		{df: 2, dr: 1},
		{df: 2, dr: -1},
		{df: 1, dr: -2},
		{df: -1, dr: -2},
		{df: -2, dr: -1},
		{df: -2, dr: 1},
		{df: -1, dr: 2},
	}
	kingOffsets = [...]moveDelta{
		{df: 0, dr: 1}, {df: 1, dr: 1}, {df: 1, dr: 0}, {df: 1, dr: -1},
		{df: 0, dr: -1}, {df: -1, dr: -1}, {df: -1, dr: 0}, {df: -1, dr: 1},
	}
)

// LegalDestinations returns every cell a piece of the given kind and side standing on origin may
// move to. Check safety, castling, en passant and promotion are not considered.
func LegalDestinations(board *Board, origin Cell, kind PieceKind, side Side) CellSet {
	switch kind {
	case Pawn:
		return pawnDestinations(board, origin, side)
	case Knight:
		return stepDestinations(board, origin, side, knightOffsets[:])
	case King:
		return stepDestinations(board, origin, side, kingOffsets[:])
	case Rook:
		return rayDestinations(board, origin, side, rookDirections[:])
	case Bishop:
		return rayDestinations(board, origin, side, bishopDirections[:])
	case Queen:
		return rayDestinations(board, origin, side, rookDirections[:]).
			Union(rayDestinations(board, origin, side, bishopDirections[:]))
	default:
		return 0
	}
}

// LegalDestinationsFrom looks up the piece on origin and computes its destinations.
func LegalDestinationsFrom(board *Board, origin Cell) CellSet {
	piece, ok := board.At(origin)
	if !ok {
		return 0
	}

	return LegalDestinations(board, origin, piece.Kind, piece.Side)
}

// IsLegal reports whether move takes a piece of side to one of its legal destinations.
func IsLegal(board *Board, move Move, side Side) bool {
	piece, ok := board.At(move.From)
	if !ok || piece.Side != side {
		return false
	}

	return LegalDestinations(board, move.From, piece.Kind, piece.Side).Has(move.To)
}

// Moves lists every legal move available to side on board.
func Moves(board *Board, side Side) []Move {
	var moves []Move

	for cell := Cell(0); cell < boardSize*boardSize; cell++ {
		piece, ok := board.At(cell)
		if !ok || piece.Side != side {
			continue
		}

		for _, to := range LegalDestinations(board, cell, piece.Kind, piece.Side).Cells() {
			moves = append(moves, Move{From: cell, To: to})
		}
	}

	return moves
}

func pawnDestinations(board *Board, origin Cell, side Side) CellSet {
	var moves CellSet

	file, rank := origin.File(), origin.Rank()
	dir := side.forward()

	if one, ok := CellFromCoords(file, rank+dir); ok && isEmpty(board, one) {
		moves = moves.Add(one)

		if rank == side.pawnStartRank() {
			if two, ok := CellFromCoords(file, rank+2*dir); ok && isEmpty(board, two) {
				moves = moves.Add(two)
			}
		}
	}

	for _, df := range []int{-1, 1} {
		if target, ok := CellFromCoords(file+df, rank+dir); ok {
			if victim, occupied := board.At(target); occupied && victim.Side != side {
				moves = moves.Add(target)
			}
		}
	}

	return moves
}

func stepDestinations(board *Board, origin Cell, side Side, offsets []moveDelta) CellSet {
	var moves CellSet

	file, rank := origin.File(), origin.Rank()
	for _, delta := range offsets {
		target, ok := CellFromCoords(file+delta.df, rank+delta.dr)
		if !ok {
			continue
		}

		if occupant, occupied := board.At(target); !occupied || occupant.Side != side {
			moves = moves.Add(target)
		}
	}

	return moves
}

// rayDestinations walks each direction until the edge or the first occupied cell, which is
// included only when it holds an opposing piece.
func rayDestinations(board *Board, origin Cell, side Side, directions []moveDelta) CellSet {
	var moves CellSet

	for _, delta := range directions {
		file, rank := origin.File(), origin.Rank()
		for {
			file += delta.df
			rank += delta.dr

			target, ok := CellFromCoords(file, rank)
			if !ok {
				break
			}

			occupant, occupied := board.At(target)
			if !occupied {
				moves = moves.Add(target)
				continue
			}

			if occupant.Side != side {
				moves = moves.Add(target)
			}

			break
		}
	}

	return moves
}

func isEmpty(board *Board, cell Cell) bool {
	_, occupied := board.At(cell)

	return !occupied
}
