package terrain

import (
	"sync"

	"github.com/jakecoffman/cp"

	"github.com/Faultbox/midgard-nav/internal/nav"
	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// surface answers ground queries in scene-local coordinates.
type surface interface {
	// ground returns the height above the scene origin and the normal at
	// (x, z), or ok == false over a hole or outside the surface.
	ground(x, z float32) (height float32, normal gmath.Vec3, ok bool)
	// layers returns the obstacle layers the surface itself puts at (x, z).
	layers(x, z float32) uint32
}

// World answers nav probes against a scene. It is safe for concurrent use.
type World struct {
	scene   *Scene
	surface surface

	mu    sync.Mutex // guards space queries
	space *cp.Space
}

// NewWorld builds the ground surface and collision space for a validated
// scene. An altitude scene reads its table from disk.
func NewWorld(s *Scene) (*World, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	w := &World{scene: s, space: cp.NewSpace()}
	if s.Altitude != "" {
		t, err := LoadAltitudeTable(s.Altitude)
		if err != nil {
			return nil, err
		}
		w.surface = newAltitudeSurface(t, s)
	} else {
		w.surface = newRowSurface(s)
	}

	for _, o := range s.Obstacles {
		w.space.AddShape(w.newShape(o))
	}
	return w, nil
}

func (w *World) newShape(o Obstacle) *cp.Shape {
	body := w.space.StaticBody
	var shape *cp.Shape
	switch o.Kind {
	case KindBox:
		bb := cp.BB{
			L: float64(o.Min.X), B: float64(o.Min.Y),
			R: float64(o.Max.X), T: float64(o.Max.Y),
		}
		shape = cp.NewBox2(body, bb, 0)
	case KindCircle:
		shape = cp.NewCircle(body, float64(o.Radius), vec(o.Center))
	case KindWall:
		shape = cp.NewSegment(body, vec(o.From), vec(o.To), float64(o.Thickness)/2)
	}
	shape.SetFilter(cp.NewShapeFilter(cp.NO_GROUP, uint(o.Layer), cp.ALL_CATEGORIES))
	return shape
}

// Sample implements nav.Sampler. Ground is reported only when the probe's
// ground mask includes the scene's ground layer; obstacles only when their
// layer is in the obstacle mask.
func (w *World) Sample(p nav.Probe) (nav.Sample, error) {
	var s nav.Sample
	local := p.Position.Sub(w.scene.Origin.XZ())

	if p.GroundMask&w.scene.GroundLayer != 0 {
		if h, n, ok := w.surface.ground(local.X, local.Y); ok {
			s.Hit = true
			s.Height = w.scene.Origin.Y + h
			s.Normal = n
		}
	}

	if p.ObstacleMask != 0 {
		s.Obstacle = w.surface.layers(local.X, local.Y)&p.ObstacleMask != 0 ||
			w.obstacleAt(p.Position, p.ObstacleMask)
	}
	return s, nil
}

func (w *World) obstacleAt(pos gmath.Vec2, mask uint32) bool {
	filter := cp.NewShapeFilter(cp.NO_GROUP, cp.ALL_CATEGORIES, uint(mask))

	w.mu.Lock()
	defer w.mu.Unlock()
	info := w.space.PointQueryNearest(vec(pos), 0, filter)
	return info.Shape != nil
}

func vec(v gmath.Vec2) cp.Vector {
	return cp.Vector{X: float64(v.X), Y: float64(v.Y)}
}

// rowSurface is the character heightfield. Each cell is flat; normals come
// from central differences of the neighbouring cells.
type rowSurface struct {
	cell    float32
	width   int
	depth   int
	heights []float32
	solid   []bool
}

func newRowSurface(s *Scene) *rowSurface {
	r := &rowSurface{
		cell:  s.CellSize,
		width: len(s.Terrain[0]),
		depth: len(s.Terrain),
	}
	r.heights = make([]float32, r.width*r.depth)
	r.solid = make([]bool, r.width*r.depth)
	for z, row := range s.Terrain {
		for x := range r.width {
			level, ground, _ := parseCell(row[x])
			r.heights[z*r.width+x] = float32(level) * s.LevelHeight
			r.solid[z*r.width+x] = ground
		}
	}
	return r
}

func (r *rowSurface) ground(x, z float32) (float32, gmath.Vec3, bool) {
	c := gmath.Vec2{X: x, Y: z}.Scale(1 / r.cell).Floor()
	if !r.has(c.X, c.Y) {
		return 0, gmath.Vec3{}, false
	}
	return r.heights[c.Y*r.width+c.X], r.normal(c.X, c.Y), true
}

func (r *rowSurface) layers(x, z float32) uint32 { return 0 }

func (r *rowSurface) has(x, z int) bool {
	return x >= 0 && z >= 0 && x < r.width && z < r.depth && r.solid[z*r.width+x]
}

// heightOr returns the height of cell (x, z), or fallback off the ground.
func (r *rowSurface) heightOr(x, z int, fallback float32) float32 {
	if !r.has(x, z) {
		return fallback
	}
	return r.heights[z*r.width+x]
}

func (r *rowSurface) normal(x, z int) gmath.Vec3 {
	centre := r.heights[z*r.width+x]
	span := 2 * r.cell
	dx := (r.heightOr(x+1, z, centre) - r.heightOr(x-1, z, centre)) / span
	dz := (r.heightOr(x, z+1, centre) - r.heightOr(x, z-1, centre)) / span
	return gmath.Vec3{X: -dx, Y: 1, Z: -dz}.Normalize()
}

// altitudeSurface reads a GRAT table. Heights are bilinear across each
// cell's corners and negated, since tables store depth.
type altitudeSurface struct {
	table   *AltitudeTable
	cell    float32
	blocked uint32
	water   uint32
}

func newAltitudeSurface(t *AltitudeTable, s *Scene) *altitudeSurface {
	return &altitudeSurface{table: t, cell: s.CellSize, blocked: s.BlockedLayer, water: s.WaterLayer}
}

func (a *altitudeSurface) at(x, z float32) (*AltitudeCell, float32, float32) {
	fx, fz := x/a.cell, z/a.cell
	c := gmath.Vec2{X: fx, Y: fz}.Floor()
	cell := a.table.Cell(c.X, c.Y)
	return cell, fx - float32(c.X), fz - float32(c.Y)
}

func (a *altitudeSurface) ground(x, z float32) (float32, gmath.Vec3, bool) {
	cell, u, v := a.at(x, z)
	if cell == nil {
		return 0, gmath.Vec3{}, false
	}
	sw, se, nw, ne := -cell.Corners[0], -cell.Corners[1], -cell.Corners[2], -cell.Corners[3]

	south := sw + (se-sw)*u
	north := nw + (ne-nw)*u
	h := south + (north-south)*v

	dx := ((se-sw)*(1-v) + (ne-nw)*v) / a.cell
	dz := ((nw-sw)*(1-u) + (ne-se)*u) / a.cell
	return h, gmath.Vec3{X: -dx, Y: 1, Z: -dz}.Normalize(), true
}

func (a *altitudeSurface) layers(x, z float32) uint32 {
	cell, _, _ := a.at(x, z)
	switch {
	case cell == nil || cell.Type.Walkable():
		return 0
	case cell.Type.Water():
		return a.water
	default:
		return a.blocked
	}
}
