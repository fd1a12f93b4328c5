package pathfind

import (
	"math"

	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// Step costs on the integer scale shared by all heuristics and by the path
// cost in Result. One straight step between neighbouring cells costs 10, so
// every heuristic returns ten times its distance in cells.
const (
	StraightCost = 10
	DiagonalCost = 14
)

// Heuristic estimates the cost between two grid cells on the StraightCost
// scale.
type Heuristic func(a, b gmath.Vec2i) int

// Manhattan returns 10·(|dx| + |dy|). It overestimates diagonal moves, so it
// is not admissible for 8-way search.
func Manhattan(a, b gmath.Vec2i) int {
	d := a.Sub(b).Abs()
	return StraightCost * (d.X + d.Y)
}

// Octile returns 14·min(dx,dy) + 10·(max(dx,dy) − min(dx,dy)), the exact
// cost of an unobstructed 8-way path.
func Octile(a, b gmath.Vec2i) int {
	d := a.Sub(b).Abs()
	lo, hi := min(d.X, d.Y), max(d.X, d.Y)
	return DiagonalCost*lo + StraightCost*(hi-lo)
}

// Euclidean returns 10 times the straight-line distance in cells, truncated.
// DiagonalCost rounds 10·√2 down, so on long diagonals Euclidean can exceed
// the true path cost by a few points.
func Euclidean(a, b gmath.Vec2i) int {
	d := a.Sub(b)
	return int(StraightCost * math.Hypot(float64(d.X), float64(d.Y)))
}
