package pathfind

import (
	"fmt"

	"github.com/Faultbox/midgard-nav/internal/nav"
	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// retrace follows parent links from the goal back to the start and returns
// the node positions in start-to-goal order.
func retrace(v *nav.View, a *arena, goalID int, offset float32) []gmath.Vec3 {
	lift := gmath.Vec3{Y: offset}
	points := make([]gmath.Vec3, 0, 32)

	for id := int32(goalID); id != noParent; {
		s, ok := a.lookup(int(id))
		if !ok || len(points) > len(a.slots) {
			panic(fmt.Sprintf("pathfind: broken parent chain at node %d", id))
		}
		n, _ := v.NodeByID(int(id))
		points = append(points, n.World.Add(lift))
		id = s.parent
	}

	for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
		points[i], points[j] = points[j], points[i]
	}
	return points
}

// Simplify reduces a dense path to the waypoints where the horizontal heading
// changes. The first and last points are always kept. An interior point is
// dropped when it repeats the last kept point, or when the heading into it
// from the last kept point and the heading out of it differ by less than
// epsilon, measured as 1 - dot of the unit directions. Passes repeat until
// none drops a point, so simplifying the result again returns it unchanged.
// The input is not modified.
func Simplify(points []gmath.Vec3, epsilon float32) []gmath.Vec3 {
	out := simplifyPass(points, epsilon)
	for len(out) > 2 {
		next := simplifyPass(out, epsilon)
		if len(next) == len(out) {
			break
		}
		out = next
	}
	return out
}

// simplifyPass makes one sweep over points and returns a new slice. A sweep
// only ever removes interior points.
func simplifyPass(points []gmath.Vec3, epsilon float32) []gmath.Vec3 {
	if len(points) <= 2 {
		return append([]gmath.Vec3(nil), points...)
	}

	out := make([]gmath.Vec3, 0, len(points))
	out = append(out, points[0])
	for i := 1; i < len(points)-1; i++ {
		last := out[len(out)-1]
		in := points[i].XZ().Sub(last.XZ()).Normalize()
		next := points[i+1].XZ().Sub(points[i].XZ()).Normalize()
		if in == (gmath.Vec2{}) || next == (gmath.Vec2{}) {
			continue
		}
		if 1-in.Dot(next) < epsilon {
			continue
		}
		out = append(out, points[i])
	}
	return append(out, points[len(points)-1])
}
