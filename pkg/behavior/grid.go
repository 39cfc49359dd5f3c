package behavior

import (
	"math"
	"slices"

	"github.com/adam-goose/fyp/pkg/geometry"
)

// minCellSize keeps the grid usable when every radius is zero.
const minCellSize = 1.0

type cellKey struct {
	x, y, z int
}

// Grid is a spatial hash bucketing agent indices by cell.
// With a cell size at least as large as the biggest query radius, every neighbor
// within that radius lives in the 3x3x3 block of cells around the agent.
type Grid struct {
	cellSize float64
	cells    map[cellKey][]int
}

// NewGrid creates an empty grid; cellSize is raised to minCellSize if smaller.
func NewGrid(cellSize float64) *Grid {
	g := &Grid{cells: make(map[cellKey][]int)}
	g.SetCellSize(cellSize)
	return g
}

// CellSize returns the edge length of a cell.
func (g *Grid) CellSize() float64 {
	return g.cellSize
}

// SetCellSize changes the cell edge length; it takes effect on the next Rebuild.
func (g *Grid) SetCellSize(cellSize float64) {
	g.cellSize = math.Max(cellSize, minCellSize)
}

func (g *Grid) cellOf(p geometry.Vector3D) cellKey {
	return cellKey{
		x: int(math.Floor(p.X / g.cellSize)),
		y: int(math.Floor(p.Y / g.cellSize)),
		z: int(math.Floor(p.Z / g.cellSize)),
	}
}

// Rebuild buckets every agent by its current position.
func (g *Grid) Rebuild(agents []Agent) {
	// Reset slices to length 0 but keep their capacity, so steady state ticks
	// reuse the same backing arrays instead of allocating.
	for k := range g.cells {
		g.cells[k] = g.cells[k][:0]
	}
	for i := range agents {
		key := g.cellOf(agents[i].Position)
		g.cells[key] = append(g.cells[key], i)
	}
}

// Nearby appends to dst the indices of the agents in the 3x3x3 block around p,
// sorted in ascending order so sums over them match a full scan.
func (g *Grid) Nearby(p geometry.Vector3D, dst []int) []int {
	c := g.cellOf(p)
	start := len(dst)
	for i := c.x - 1; i <= c.x+1; i++ {
		for j := c.y - 1; j <= c.y+1; j++ {
			for k := c.z - 1; k <= c.z+1; k++ {
				if idx, ok := g.cells[cellKey{i, j, k}]; ok {
					dst = append(dst, idx...)
				}
			}
		}
	}
	slices.Sort(dst[start:])
	return dst
}
