// Package pathfind runs A* searches over a navigation grid, post-processes
// the resulting paths and offloads searches to worker goroutines.
package pathfind

import (
	"fmt"
	"time"

	"github.com/Faultbox/midgard-nav/internal/nav"
	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// DefaultSimplifyEpsilon is the heading change below which Simplify drops a
// waypoint.
const DefaultSimplifyEpsilon = 1.5e-4

// FailReason says why a search did not produce a path.
type FailReason int

// Fail reasons.
const (
	ReasonNone        FailReason = iota
	ReasonOutOfBounds            // Start or end outside the grid
	ReasonBlocked                // Start or end node impassable
	ReasonNoPath                 // Open set exhausted
	ReasonExhausted              // MaxExpansions reached
	ReasonLockTimeout            // Shared lock not acquired in time
	ReasonClosed                 // Dispatcher closed
	ReasonCanceled               // Caller stopped waiting
)

// String returns a short name for the reason.
func (r FailReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonOutOfBounds:
		return "out_of_bounds"
	case ReasonBlocked:
		return "blocked"
	case ReasonNoPath:
		return "no_path"
	case ReasonExhausted:
		return "exhausted"
	case ReasonLockTimeout:
		return "lock_timeout"
	case ReasonClosed:
		return "closed"
	case ReasonCanceled:
		return "canceled"
	default:
		return fmt.Sprintf("unknown(%d)", int(r))
	}
}

// Request asks for a path between two world points.
type Request struct {
	Start, End gmath.Vec3
	// Timeout bounds lock acquisition. Negative waits indefinitely, zero
	// tries once.
	Timeout  time.Duration
	Callback func(Result)
}

// Result is the outcome of a search. Failures are reported here, never as
// errors.
type Result struct {
	Success  bool
	Points   []gmath.Vec3
	Cost     int // Octile cost of the path, 10 per straight step
	Reason   FailReason
	Callback func(Result) // The request's callback, passed back unchanged
}

// Options tunes the search and post-processing.
type Options struct {
	CornerCutting   bool    `yaml:"corner_cutting"`   // Allow diagonals past a blocked orthogonal cell
	SimplifyEpsilon float32 `yaml:"simplify_epsilon"` // <= 0 disables Simplify
	PathOffset      float32 `yaml:"path_offset"`      // Added to every waypoint's height
	MaxExpansions   int     `yaml:"max_expansions"`   // 0 means unlimited
}

// DefaultOptions returns the standard search settings.
func DefaultOptions() Options {
	return Options{
		CornerCutting:   true,
		SimplifyEpsilon: DefaultSimplifyEpsilon,
	}
}

// Search runs A* on a grid snapshot. It takes no lock; use Find or a
// Dispatcher when the grid may be rebaked concurrently.
func Search(v *nav.View, req Request, opts Options) Result {
	res := Result{Callback: req.Callback}

	if !v.ContainsPoint(req.Start) || !v.ContainsPoint(req.End) {
		res.Reason = ReasonOutOfBounds
		return res
	}
	sc, ec := v.WorldToGrid(req.Start), v.WorldToGrid(req.End)
	start, ok := v.Node(sc.X, sc.Y)
	if !ok {
		res.Reason = ReasonOutOfBounds
		return res
	}
	goal, ok := v.Node(ec.X, ec.Y)
	if !ok {
		res.Reason = ReasonOutOfBounds
		return res
	}
	if !start.Passable || !goal.Passable {
		res.Reason = ReasonBlocked
		return res
	}

	if start.ID == goal.ID {
		res.Success = true
		res.Points = []gmath.Vec3{start.World.Add(gmath.Vec3{Y: opts.PathOffset})}
		return res
	}

	a := acquireArena(len(v.Nodes()))
	defer releaseArena(a)

	res.Reason = a.search(v, start, goal, opts)
	if res.Reason != ReasonNone {
		return res
	}

	goalSlot, _ := a.lookup(goal.ID)
	res.Success = true
	res.Cost = goalSlot.g
	res.Points = retrace(v, a, goal.ID, opts.PathOffset)
	if opts.SimplifyEpsilon > 0 {
		res.Points = Simplify(res.Points, opts.SimplifyEpsilon)
	}
	return res
}

// search expands nodes until the goal is popped from the open set.
func (a *arena) search(v *nav.View, start, goal *nav.Node, opts Options) FailReason {
	a.discover(start.ID, 0, Octile(start.Local, goal.Local), noParent)

	nodes := v.Nodes()
	neighbors := make([]*nav.Node, 0, len(nav.NeighborOffsets))
	expansions := 0

	for a.open.Len() > 0 {
		id, _ := a.open.Pop()
		if int(id) == goal.ID {
			return ReasonNone
		}

		cur := &a.slots[id]
		cur.closed = true
		expansions++
		if opts.MaxExpansions > 0 && expansions > opts.MaxExpansions {
			return ReasonExhausted
		}

		node := &nodes[id]
		neighbors = v.Neighbors(node.Local.X, node.Local.Y, neighbors[:0])
		for _, nb := range neighbors {
			if nb.ID < 0 || nb.ID >= len(a.slots) {
				panic(fmt.Sprintf("pathfind: neighbour id %d outside grid of %d nodes", nb.ID, len(a.slots)))
			}
			if !opts.CornerCutting && cutsCorner(v, node.Local, nb.Local) {
				continue
			}

			tentative := cur.g + Octile(node.Local, nb.Local)
			s, seen := a.lookup(nb.ID)
			switch {
			case !seen:
				a.discover(nb.ID, tentative, Octile(nb.Local, goal.Local), id)
			case s.closed:
				continue
			case tentative < s.g:
				s.g = tentative
				s.parent = id
				a.open.Fix(int(s.heapIndex))
			}
		}
	}
	return ReasonNoPath
}

// cutsCorner reports whether a diagonal step from a to b passes an
// impassable orthogonal cell.
func cutsCorner(v *nav.View, a, b gmath.Vec2i) bool {
	if a.X == b.X || a.Y == b.Y {
		return false
	}
	return !v.Passable(b.X, a.Y) || !v.Passable(a.X, b.Y)
}
