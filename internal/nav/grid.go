// Package nav builds a navigation grid from environment samples and answers
// coordinate and neighbour queries against it.
package nav

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// Grid owns the baked nodes and tiles of one navigable area.
//
// Node-level queries read the current snapshot and need no lock. Path
// searches hold the shared lock for their whole run so a rebake, which takes
// the exclusive lock, never swaps the snapshot underneath them.
type Grid struct {
	view       atomic.Pointer[View]
	lock       *rwLock
	generation atomic.Uint64
	log        *zap.Logger
}

// Build validates cfg, samples every node and returns the grid. Sampler
// failures abort the build and no grid is returned. log may be nil.
func Build(ctx context.Context, cfg GridConfig, sampler Sampler, log *zap.Logger) (*Grid, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v, err := buildView(ctx, cfg, sampler, log)
	if err != nil {
		return nil, err
	}
	g := &Grid{lock: newRWLock(), log: log}
	g.view.Store(v)
	g.generation.Store(1)
	return g, nil
}

// View returns the current immutable snapshot.
func (g *Grid) View() *View {
	return g.view.Load()
}

// Generation increases by one on every successful rebake.
func (g *Grid) Generation() uint64 {
	return g.generation.Load()
}

// Rebake resamples the grid with its current config. The new snapshot is
// built off-lock, then swapped in under the exclusive lock, which waits for
// in-flight searches to finish. On failure the old snapshot stays in place.
func (g *Grid) Rebake(ctx context.Context, sampler Sampler) error {
	start := time.Now()
	v, err := buildView(ctx, g.View().Config(), sampler, g.log)
	if err != nil {
		return err
	}
	if err := g.Lock(ctx, -1); err != nil {
		return err
	}
	defer g.Unlock()

	g.view.Store(v)
	gen := g.generation.Add(1)
	g.log.Info("navigation grid rebaked",
		zap.Uint64("generation", gen),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// RLock takes shared access. timeout < 0 waits until ctx is done, 0 tries
// once. Failure wraps ErrLockTimeout.
func (g *Grid) RLock(ctx context.Context, timeout time.Duration) error {
	return g.lock.rlock(ctx, timeout)
}

// RUnlock releases shared access.
func (g *Grid) RUnlock() { g.lock.runlock() }

// Lock takes exclusive access with the same timeout rules as RLock.
func (g *Grid) Lock(ctx context.Context, timeout time.Duration) error {
	return g.lock.lock(ctx, timeout)
}

// Unlock releases exclusive access.
func (g *Grid) Unlock() { g.lock.unlock() }

// Config returns the grid configuration.
func (g *Grid) Config() GridConfig { return g.View().Config() }

// Exists reports whether (x, y) is inside the grid.
func (g *Grid) Exists(x, y int) bool { return g.View().Exists(x, y) }

// Node returns the node at (x, y).
func (g *Grid) Node(x, y int) (*Node, bool) { return g.View().Node(x, y) }

// NodeByID returns the node with the given id.
func (g *Grid) NodeByID(id int) (*Node, bool) { return g.View().NodeByID(id) }

// Passable reports whether (x, y) exists and can be walked on.
func (g *Grid) Passable(x, y int) bool { return g.View().Passable(x, y) }

// WorldToGrid maps a world point to its cell.
func (g *Grid) WorldToGrid(p gmath.Vec3) gmath.Vec2i { return g.View().WorldToGrid(p) }

// GridToWorld maps a cell to its world centre.
func (g *Grid) GridToWorld(c gmath.Vec2i) gmath.Vec3 { return g.View().GridToWorld(c) }

// ContainsPoint tests p against the grid's horizontal bounds.
func (g *Grid) ContainsPoint(p gmath.Vec3) bool { return g.View().ContainsPoint(p) }

// Neighbors appends the passable neighbours of (x, y) to buf.
func (g *Grid) Neighbors(x, y int, buf []*Node) []*Node { return g.View().Neighbors(x, y, buf) }
