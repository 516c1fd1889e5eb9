package memory

import "math/rand"

// Shape is a connected set of unique cells. The first cell is the seed the
// shape was grown from; every later cell touches an earlier one.
type Shape struct {
	cells []Cell
	set   Selection
}

// NewShape builds a shape from cells. Duplicates and off-grid cells are
// dropped; connectivity is not checked.
func NewShape(cells ...Cell) Shape {
	var s Shape
	for _, c := range cells {
		if !c.Valid() || s.set[c.Index()] {
			continue
		}
		s.cells = append(s.cells, c)
		s.set[c.Index()] = true
	}
	return s
}

// Size returns the number of cells.
func (s Shape) Size() int {
	return len(s.cells)
}

// Empty reports whether the shape has no cells.
func (s Shape) Empty() bool {
	return len(s.cells) == 0
}

// Cells returns a copy of the cells in insertion order.
func (s Shape) Cells() []Cell {
	if s.cells == nil {
		return nil
	}
	out := make([]Cell, len(s.cells))
	copy(out, s.cells)
	return out
}

// Contains reports whether the cell is part of the shape.
func (s Shape) Contains(c Cell) bool {
	return c.Valid() && s.set[c.Index()]
}

// Set returns the shape as a selection of linear indices.
func (s Shape) Set() Selection {
	return s.set
}

// Generator grows random connected shapes.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a generator with a deterministic seed.
func NewGenerator(seed int64) *Generator {
	return &Generator{rng: rand.New(rand.NewSource(seed))}
}

// Generate grows a shape of up to size cells from a random start cell.
// Each step adds one cell chosen uniformly from the frontier: on-grid
// neighbours of the shape that are not yet part of it. Growth stops early
// when the frontier is empty, so the result may be smaller than requested.
// Sizes below 1 are treated as 1.
func (g *Generator) Generate(size int) Shape {
	if size < 1 {
		size = 1
	}
	if size > CellCount {
		size = CellCount
	}

	start := Cell{Row: g.rng.Intn(GridSize), Col: g.rng.Intn(GridSize)}
	shape := NewShape(start)

	for shape.Size() < size {
		frontier := shape.frontier()
		if len(frontier) == 0 {
			break
		}
		next := frontier[g.rng.Intn(len(frontier))]
		shape.cells = append(shape.cells, next)
		shape.set[next.Index()] = true
	}

	return shape
}

// frontier lists each candidate cell once, in discovery order.
func (s Shape) frontier() []Cell {
	var seen Selection
	var out []Cell
	for _, c := range s.cells {
		for _, n := range c.Neighbors() {
			i := n.Index()
			if s.set[i] || seen[i] {
				continue
			}
			seen[i] = true
			out = append(out, n)
		}
	}
	return out
}
