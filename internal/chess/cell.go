package chess

import (
	"math/bits"
	"strings"
)

const boardSize = 8

// Cell is a board coordinate packed as rank*8+file, A1 = 0, H8 = 63.
type Cell uint8

func (that Cell) File() int {
	return int(that) & 7
}

func (that Cell) Rank() int {
	return int(that) >> 3
}

// Column returns the column letter, 'A'..'H'.
func (that Cell) Column() byte {
	return byte('A' + that.File())
}

// Row returns the row number, 1..8.
func (that Cell) Row() int {
	return that.Rank() + 1
}

func (that Cell) String() string {
	return string([]byte{that.Column(), byte('1' + that.Rank())})
}

// CellFromCoords builds a cell from zero-based file and rank; off-board coordinates report false.
func CellFromCoords(file, rank int) (Cell, bool) {
	if file < 0 || file >= boardSize || rank < 0 || rank >= boardSize {
		return 0, false
	}

	return Cell(rank*boardSize + file), true
}

// ParseCell reads "<col><row>" such as "E2"; the column letter is case-insensitive.
func ParseCell(name string) (Cell, bool) {
	if len(name) != 2 {
		return 0, false
	}

	col := strings.ToUpper(name[:1])[0]
	row := name[1]

	if col < 'A' || col > 'H' || row < '1' || row > '8' {
		return 0, false
	}

	return CellFromCoords(int(col-'A'), int(row-'1'))
}

// MustCell is ParseCell for literals known to be valid.
func MustCell(name string) Cell {
	cell, ok := ParseCell(name)
	if !ok {
		panic("chess: invalid cell " + name)
	}

	return cell
}

// CellSet is a set of cells, one bit per cell.
type CellSet uint64

func (that CellSet) Has(cell Cell) bool {
	return that&(1<<cell) != 0
}

func (that CellSet) Add(cell Cell) CellSet {
	return that | (1 << cell)
}

func (that CellSet) Remove(cell Cell) CellSet {
	return that &^ (1 << cell)
}

func (that CellSet) Union(other CellSet) CellSet {
	return that | other
}

func (that CellSet) Len() int {
	return bits.OnesCount64(uint64(that))
}

func (that CellSet) Empty() bool {
	return that == 0
}

// Cells lists the members from A1 upwards.
func (that CellSet) Cells() []Cell {
	cells := make([]Cell, 0, that.Len())

	for rest := uint64(that); rest != 0; rest &= rest - 1 {
		cells = append(cells, Cell(bits.TrailingZeros64(rest)))
	}

	return cells
}

func (that CellSet) Strings() []string {
	cells := that.Cells()

	names := make([]string, len(cells))
	for i, cell := range cells {
		names[i] = cell.String()
	}

	return names
}

// NewCellSet builds a set from cell names; invalid names are ignored.
func NewCellSet(names ...string) CellSet {
	var set CellSet

	for _, name := range names {
		if cell, ok := ParseCell(name); ok {
			set = set.Add(cell)
		}
	}

	return set
}
