// Package pool keeps pooled placement records in a coarse spatial grid and
// recycles a fixed set of objects to show the records near a moving point.
package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/landgen/scatter"
)

// ErrCellSize is returned for a non-positive cell size or a grid that
// would have no cells.
var ErrCellSize = errors.New("pool: cell size must be > 0 and <= terrain size")

// Cell is an integer grid coordinate on the XZ plane.
type Cell struct {
	X, Z int
}

// Record is one pooled placement.
type Record struct {
	Tag string
	scatter.Transform
}

// RecordsFrom converts the candidates carrying a pool tag into records.
func RecordsFrom(cands []scatter.Candidate) []Record {
	var out []Record
	for i := range cands {
		c := &cands[i]
		if c.PoolTag == "" {
			continue
		}
		out = append(out, Record{Tag: c.PoolTag, Transform: c.Transform})
		for _, ch := range c.Children {
			out = append(out, Record{Tag: c.PoolTag, Transform: ch})
		}
	}
	return out
}

// Grid buckets records by cell. Membership is fixed once assigned.
type Grid struct {
	cellSize float64
	dim      int
	cells    [][]Record // row-major, dim*dim

	active    Cell
	hasActive bool
}

// NewGrid creates a grid of floor(terrainSize/cellSize) cells per axis.
func NewGrid(terrainSize, cellSize float64) (*Grid, error) {
	if cellSize <= 0 || cellSize > terrainSize {
		return nil, fmt.Errorf("%w (cell %g, terrain %g)", ErrCellSize, cellSize, terrainSize)
	}
	dim := int(math.Floor(terrainSize / cellSize))
	return &Grid{
		cellSize: cellSize,
		dim:      dim,
		cells:    make([][]Record, dim*dim),
	}, nil
}

// Dim returns the number of cells per axis.
func (g *Grid) Dim() int { return g.dim }

// CellSize returns the cell edge length.
func (g *Grid) CellSize() float64 { return g.cellSize }

// CellOf maps a world position to its cell by flooring each axis, so a
// point on a boundary belongs to the cell that starts there.
func (g *Grid) CellOf(p r3.Vec) Cell {
	return Cell{
		X: int(math.Floor(p.X / g.cellSize)),
		Z: int(math.Floor(p.Z / g.cellSize)),
	}
}

// Contains reports whether c lies inside the grid.
func (g *Grid) Contains(c Cell) bool {
	return c.X >= 0 && c.Z >= 0 && c.X < g.dim && c.Z < g.dim
}

func (g *Grid) index(c Cell) int {
	return c.Z*g.dim + c.X
}

// Assign adds records to their cells. Records outside the grid are dropped
// and counted.
func (g *Grid) Assign(records []Record) (dropped int) {
	for _, r := range records {
		c := g.CellOf(r.Position)
		if !g.Contains(c) {
			dropped++
			continue
		}
		i := g.index(c)
		g.cells[i] = append(g.cells[i], r)
	}
	if dropped > 0 {
		slog.Debug("pooled records outside grid", "dropped", dropped)
	}
	return dropped
}

// Clear empties every cell, keeping their storage.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = g.cells[i][:0]
	}
	g.hasActive = false
}

// Records returns the records of c, or nil outside the grid.
func (g *Grid) Records(c Cell) []Record {
	if !g.Contains(c) {
		return nil
	}
	return g.cells[g.index(c)]
}

// Len returns the total number of assigned records.
func (g *Grid) Len() int {
	n := 0
	for _, c := range g.cells {
		n += len(c)
	}
	return n
}

// Tick recomputes the active cell from ref and returns its records. The
// returned slice aliases grid storage; callers must not modify it.
func (g *Grid) Tick(ref r3.Vec) []Record {
	c := g.CellOf(ref)
	if !g.Contains(c) {
		g.hasActive = false
		return nil
	}
	g.active, g.hasActive = c, true
	return g.cells[g.index(c)]
}

// Active returns the cell chosen by the last Tick.
func (g *Grid) Active() (Cell, bool) {
	return g.active, g.hasActive
}

// ActiveRecords returns the records of the active cell.
func (g *Grid) ActiveRecords() []Record {
	if !g.hasActive {
		return nil
	}
	return g.cells[g.index(g.active)]
}
