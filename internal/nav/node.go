package nav

import gmath "github.com/Faultbox/midgard-nav/pkg/math"

// Node is one sampled cell. Nodes are created during construction and never
// modified afterwards.
type Node struct {
	ID       int
	Local    gmath.Vec2i
	World    gmath.Vec3
	Normal   gmath.Vec3
	Passable bool
	Slope    float32 // 1 - dot(normal, up)
}

// Tile is a square block of nodes used for regional batch work.
type Tile struct {
	X, Y  int
	Side  int
	Nodes []int // Global node ids, row-major inside the tile
}

// Contains reports whether the grid coordinate falls inside the tile.
func (t *Tile) Contains(x, y int) bool {
	minX, minY := t.X*t.Side, t.Y*t.Side
	return x >= minX && x < minX+t.Side && y >= minY && y < minY+t.Side
}
