package nav

import (
	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// NeighborOffsets lists the king-move offsets in the order Neighbors
// reports them: top-left, top, top-right, right, bottom-right, bottom,
// bottom-left, left. "Top" is +Y in grid space.
var NeighborOffsets = [8]gmath.Vec2i{
	{X: -1, Y: 1},
	{X: 0, Y: 1},
	{X: 1, Y: 1},
	{X: 1, Y: 0},
	{X: 1, Y: -1},
	{X: 0, Y: -1},
	{X: -1, Y: -1},
	{X: -1, Y: 0},
}

// View is an immutable snapshot of a built grid. All methods are safe for
// concurrent use without locking.
type View struct {
	cfg      GridConfig
	dim      int
	side     int
	nodes    []Node
	tiles    []Tile
	passable int
}

// Config returns the configuration the snapshot was built from.
func (v *View) Config() GridConfig { return v.cfg }

// Dimension returns nodes per side.
func (v *View) Dimension() int { return v.dim }

// Nodes returns the node array. Callers must not modify it.
func (v *View) Nodes() []Node { return v.nodes }

// Tiles returns the tile array. Callers must not modify it.
func (v *View) Tiles() []Tile { return v.tiles }

// PassableCount returns how many nodes are passable.
func (v *View) PassableCount() int { return v.passable }

// Exists reports whether (x, y) is inside the grid.
func (v *View) Exists(x, y int) bool {
	return x >= 0 && y >= 0 && x < v.dim && y < v.dim
}

// Node returns the node at (x, y).
func (v *View) Node(x, y int) (*Node, bool) {
	if !v.Exists(x, y) {
		return nil, false
	}
	return &v.nodes[y*v.dim+x], true
}

// NodeByID returns the node with the given id.
func (v *View) NodeByID(id int) (*Node, bool) {
	if id < 0 || id >= len(v.nodes) {
		return nil, false
	}
	return &v.nodes[id], true
}

// Passable reports whether (x, y) exists and can be walked on.
func (v *View) Passable(x, y int) bool {
	return v.Exists(x, y) && v.nodes[y*v.dim+x].Passable
}

// WorldToGrid maps a world point to the cell whose centre is nearest on the
// horizontal plane. The result may lie outside the grid.
func (v *View) WorldToGrid(p gmath.Vec3) gmath.Vec2i {
	rel := p.XZ().Sub(v.cfg.Origin.XZ()).Scale(1 / v.cfg.UnitsPerNode)
	return rel.Floor()
}

// GridToWorld returns the world centre of a cell. The height comes from the
// stored node; cells outside the grid use the origin height.
func (v *View) GridToWorld(c gmath.Vec2i) gmath.Vec3 {
	if n, ok := v.Node(c.X, c.Y); ok {
		return n.World
	}
	return gmath.FromXZ(v.cellCentre(c), v.cfg.Origin.Y)
}

// ContainsPoint tests p against the grid's horizontal rectangle.
func (v *View) ContainsPoint(p gmath.Vec3) bool {
	size := float32(v.cfg.Size)
	dx := p.X - v.cfg.Origin.X
	dz := p.Z - v.cfg.Origin.Z
	return dx >= 0 && dz >= 0 && dx < size && dz < size
}

// Neighbors appends the passable king-move neighbours of (x, y) to buf in
// NeighborOffsets order and returns the extended slice.
func (v *View) Neighbors(x, y int, buf []*Node) []*Node {
	for _, off := range NeighborOffsets {
		nx, ny := x+off.X, y+off.Y
		if !v.Passable(nx, ny) {
			continue
		}
		buf = append(buf, &v.nodes[ny*v.dim+nx])
	}
	return buf
}

// TileAt returns the tile covering grid coordinate (x, y).
func (v *View) TileAt(x, y int) (*Tile, bool) {
	if !v.Exists(x, y) {
		return nil, false
	}
	sub := v.cfg.Subdivision
	return &v.tiles[(y/v.side)*sub+x/v.side], true
}

// TileOf returns the tile that owns the node id.
func (v *View) TileOf(id int) (*Tile, bool) {
	if id < 0 || id >= len(v.nodes) {
		return nil, false
	}
	return v.TileAt(id%v.dim, id/v.dim)
}

func (v *View) cellCentre(c gmath.Vec2i) gmath.Vec2 {
	half := gmath.Vec2{X: 0.5, Y: 0.5}
	return v.cfg.Origin.XZ().Add(c.Vec2().Add(half).Scale(v.cfg.UnitsPerNode))
}
