// Package memory implements the Memory Master game: a random connected shape
// is shown on an 8x8 grid, hidden, and the player has to recreate it from
// memory before the countdown runs out.
package memory

// GridSize is the width and height of the square playing grid.
const GridSize = 8

// CellCount is the number of cells on the grid.
const CellCount = GridSize * GridSize

// Cell is a grid position.
type Cell struct {
	Row int
	Col int
}

// Index returns the linear index row*8+col. This is the identity used by
// selections and by click mapping.
func (c Cell) Index() int {
	return c.Row*GridSize + c.Col
}

// Valid reports whether the cell lies on the grid.
func (c Cell) Valid() bool {
	return c.Row >= 0 && c.Row < GridSize && c.Col >= 0 && c.Col < GridSize
}

// CellAt converts a linear index back to a cell.
func CellAt(index int) Cell {
	return Cell{Row: index / GridSize, Col: index % GridSize}
}

var offsets = [4]Cell{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}

// Neighbors returns the orthogonally adjacent cells that lie on the grid.
func (c Cell) Neighbors() []Cell {
	out := make([]Cell, 0, 4)
	for _, o := range offsets {
		n := Cell{Row: c.Row + o.Row, Col: c.Col + o.Col}
		if n.Valid() {
			out = append(out, n)
		}
	}
	return out
}

// Adjacent reports whether two cells share an edge.
func (c Cell) Adjacent(other Cell) bool {
	dr := c.Row - other.Row
	dc := c.Col - other.Col
	return (dr == 0 && (dc == 1 || dc == -1)) || (dc == 0 && (dr == 1 || dr == -1))
}

// Selection is a set of cells keyed by linear index.
type Selection [CellCount]bool

// Toggle flips membership of the cell with the given index.
// Out-of-range indices are ignored.
func (s *Selection) Toggle(index int) {
	if index < 0 || index >= CellCount {
		return
	}
	s[index] = !s[index]
}

// Has reports whether the index is selected.
func (s *Selection) Has(index int) bool {
	if index < 0 || index >= CellCount {
		return false
	}
	return s[index]
}

// Len returns the number of selected cells.
func (s *Selection) Len() int {
	n := 0
	for _, v := range s {
		if v {
			n++
		}
	}
	return n
}

// Indices returns the selected indices in ascending order.
func (s *Selection) Indices() []int {
	out := make([]int, 0, s.Len())
	for i, v := range s {
		if v {
			out = append(out, i)
		}
	}
	return out
}

// Clear removes every cell from the selection.
func (s *Selection) Clear() {
	*s = Selection{}
}

// SelectionOf builds a selection from linear indices.
func SelectionOf(indices ...int) Selection {
	var s Selection
	for _, i := range indices {
		if i >= 0 && i < CellCount {
			s[i] = true
		}
	}
	return s
}
