package nav_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-nav/internal/nav"
	"github.com/Faultbox/midgard-nav/internal/nav/navtest"
	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

func TestBuildNodes(t *testing.T) {
	cfg := navtest.Config(8)
	cfg.Origin = gmath.Vec3{X: 100, Y: 5, Z: -20}
	g, err := nav.Build(context.Background(), cfg, navtest.Sampler(cfg, gmath.Vec2i{X: 3, Y: 2}), nil)
	require.NoError(t, err)

	v := g.View()
	require.Len(t, v.Nodes(), cfg.NodeCount())
	for i, n := range v.Nodes() {
		assert.Equal(t, i, n.ID)
		assert.Equal(t, n.ID, v.Dimension()*n.Local.Y+n.Local.X)
	}

	n, ok := g.Node(3, 2)
	require.True(t, ok)
	assert.False(t, n.Passable)
	assert.Equal(t, gmath.Vec3{X: 103.5, Y: 5, Z: -17.5}, n.World)

	n, ok = g.Node(0, 0)
	require.True(t, ok)
	assert.True(t, n.Passable)
	assert.Equal(t, float32(0), n.Slope)
	assert.Equal(t, gmath.Up, n.Normal)
	assert.Equal(t, 63, v.PassableCount())
}

func TestBuildPassabilityRules(t *testing.T) {
	cfg := navtest.Config(4)
	cfg.MaxHeight = 10
	cfg.MaxSteepness = 0.2

	steep := gmath.Vec3{X: 1, Y: 1}.Normalize() // slope ≈ 0.29
	gentle := gmath.Vec3{X: 0.1, Y: 1}          // slope ≈ 0.005
	sampler := nav.SamplerFunc(func(p nav.Probe) (nav.Sample, error) {
		switch int(p.Position.X) {
		case 0:
			return nav.Sample{}, nil // no ground
		case 1:
			return nav.Sample{Hit: true, Height: 12, Normal: gmath.Up}, nil
		case 2:
			return nav.Sample{Hit: true, Height: 1, Normal: steep}, nil
		default:
			return nav.Sample{Hit: true, Height: 1, Normal: gentle}, nil
		}
	})

	g, err := nav.Build(context.Background(), cfg, sampler, nil)
	require.NoError(t, err)

	for y := range 4 {
		assert.False(t, g.Passable(0, y), "missing ground")
		assert.False(t, g.Passable(1, y), "too high")
		assert.False(t, g.Passable(2, y), "too steep")
		assert.True(t, g.Passable(3, y), "gentle slope")
	}

	n, _ := g.Node(0, 0)
	assert.Equal(t, cfg.Origin.Y, n.World.Y, "miss falls back to origin height")
	n, _ = g.Node(2, 0)
	assert.InDelta(t, 1-0.7071, n.Slope, 1e-3)
}

func TestBuildProbeCarriesMasks(t *testing.T) {
	cfg := navtest.Config(2)
	cfg.GroundMask = 0x10
	cfg.ObstacleMask = 0x20
	cfg.MaxHeight = 42

	var probes atomic.Int32
	sampler := nav.SamplerFunc(func(p nav.Probe) (nav.Sample, error) {
		probes.Add(1)
		assert.Equal(t, uint32(0x10), p.GroundMask)
		assert.Equal(t, uint32(0x20), p.ObstacleMask)
		assert.Equal(t, float32(42), p.MaxHeight)
		return nav.Sample{Hit: true}, nil
	})
	_, err := nav.Build(context.Background(), cfg, sampler, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(4), probes.Load())
}

func TestBuildInvalidConfigSkipsSampling(t *testing.T) {
	cfg := navtest.Config(3)
	called := false
	sampler := nav.SamplerFunc(func(nav.Probe) (nav.Sample, error) {
		called = true
		return nav.Sample{}, nil
	})

	g, err := nav.Build(context.Background(), cfg, sampler, nil)
	assert.Nil(t, g)
	assert.ErrorIs(t, err, nav.ErrInvalidConfig)
	assert.False(t, called)
}

func TestBuildSamplerError(t *testing.T) {
	boom := errors.New("physics offline")
	for _, workers := range []int{0, 4} {
		cfg := navtest.Config(8)
		cfg.BuildWorkers = workers
		sampler := nav.SamplerFunc(func(p nav.Probe) (nav.Sample, error) {
			if p.Position.Y > 5 {
				return nav.Sample{}, boom
			}
			return nav.Sample{Hit: true}, nil
		})

		g, err := nav.Build(context.Background(), cfg, sampler, nil)
		assert.Nil(t, g)
		assert.ErrorIs(t, err, nav.ErrSampler)
		assert.ErrorIs(t, err, boom)
	}
}

func TestBuildParallelMatchesSerial(t *testing.T) {
	blocked := []gmath.Vec2i{{X: 1, Y: 1}, {X: 5, Y: 9}, {X: 15, Y: 15}}

	serialCfg := navtest.Config(16)
	serialCfg.Subdivision = 4
	serial, err := nav.Build(context.Background(), serialCfg, navtest.Sampler(serialCfg, blocked...), nil)
	require.NoError(t, err)

	parallelCfg := serialCfg
	parallelCfg.BuildWorkers = 4
	parallel, err := nav.Build(context.Background(), parallelCfg, navtest.Sampler(parallelCfg, blocked...), nil)
	require.NoError(t, err)

	assert.Equal(t, serial.View().Nodes(), parallel.View().Nodes())
	assert.Equal(t, serial.View().Tiles(), parallel.View().Tiles())
}

func TestBuildCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cfg := navtest.Config(4)
	_, err := nav.Build(ctx, cfg, navtest.Sampler(cfg), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTilesPartitionNodes(t *testing.T) {
	cfg := navtest.Config(12)
	cfg.Subdivision = 3
	g, err := nav.Build(context.Background(), cfg, navtest.Sampler(cfg), nil)
	require.NoError(t, err)
	v := g.View()

	require.Len(t, v.Tiles(), 9)
	owner := make([]int, cfg.NodeCount())
	for i := range owner {
		owner[i] = -1
	}
	for ti, tile := range v.Tiles() {
		assert.Equal(t, 4, tile.Side)
		assert.Len(t, tile.Nodes, 16)
		for _, id := range tile.Nodes {
			require.Equal(t, -1, owner[id], "node %d in two tiles", id)
			owner[id] = ti
			n, ok := v.NodeByID(id)
			require.True(t, ok)
			assert.True(t, tile.Contains(n.Local.X, n.Local.Y))
		}
	}
	for id, ti := range owner {
		require.NotEqual(t, -1, ti, "node %d in no tile", id)
	}

	tile, ok := v.TileAt(5, 9)
	require.True(t, ok)
	assert.Equal(t, 1, tile.X)
	assert.Equal(t, 2, tile.Y)
	// First tile-local index maps to the tile's lower-left node.
	assert.Equal(t, 8*12+4, tile.Nodes[0])

	byID, ok := v.TileOf(9*12 + 5)
	require.True(t, ok)
	assert.Same(t, tile, byID)

	_, ok = v.TileAt(12, 0)
	assert.False(t, ok)
}

func TestCoordinateQueries(t *testing.T) {
	cfg := navtest.Config(10)
	cfg.Origin = gmath.Vec3{X: -5, Y: 2, Z: 10}
	cfg.UnitsPerNode = 2
	g, err := nav.Build(context.Background(), cfg, navtest.Sampler(cfg), nil)
	require.NoError(t, err)

	assert.Equal(t, 5, g.View().Dimension())
	assert.True(t, g.Exists(0, 0))
	assert.True(t, g.Exists(4, 4))
	assert.False(t, g.Exists(5, 0))
	assert.False(t, g.Exists(-1, 0))

	_, ok := g.Node(0, 5)
	assert.False(t, ok)
	_, ok = g.NodeByID(25)
	assert.False(t, ok)

	assert.Equal(t, gmath.Vec2i{X: 0, Y: 0}, g.WorldToGrid(gmath.Vec3{X: -5, Z: 10}))
	assert.Equal(t, gmath.Vec2i{X: 2, Y: 1}, g.WorldToGrid(gmath.Vec3{X: 0.9, Y: 99, Z: 13.9}))
	assert.Equal(t, gmath.Vec2i{X: -1, Y: 0}, g.WorldToGrid(gmath.Vec3{X: -5.5, Z: 10}))

	assert.Equal(t, gmath.Vec3{X: 0, Y: 2, Z: 13}, g.GridToWorld(gmath.Vec2i{X: 2, Y: 1}))
	assert.Equal(t, gmath.Vec3{X: 6, Y: 2, Z: 11}, g.GridToWorld(gmath.Vec2i{X: 5, Y: 0}))

	for _, c := range []gmath.Vec2i{{X: 0, Y: 0}, {X: 3, Y: 4}, {X: 4, Y: 1}} {
		assert.Equal(t, c, g.WorldToGrid(g.GridToWorld(c)))
	}

	assert.True(t, g.ContainsPoint(gmath.Vec3{X: -5, Z: 10}))
	assert.True(t, g.ContainsPoint(gmath.Vec3{X: 4.99, Y: -100, Z: 19.99}))
	assert.False(t, g.ContainsPoint(gmath.Vec3{X: 5, Z: 15}))
	assert.False(t, g.ContainsPoint(gmath.Vec3{X: 0, Z: 9.99}))
}

func TestNeighborsOrderAndFiltering(t *testing.T) {
	g := navtest.FromRows(t,
		"....",
		".#..",
		"....",
		"....",
	)

	locals := func(nodes []*nav.Node) []gmath.Vec2i {
		out := make([]gmath.Vec2i, 0, len(nodes))
		for _, n := range nodes {
			out = append(out, n.Local)
		}
		return out
	}

	got := locals(g.Neighbors(2, 2, nil))
	assert.Equal(t, []gmath.Vec2i{
		{X: 1, Y: 3}, {X: 2, Y: 3}, {X: 3, Y: 3},
		{X: 3, Y: 2},
		{X: 3, Y: 1}, {X: 2, Y: 1},
		// (1,1) is blocked
		{X: 1, Y: 2},
	}, got)

	corner := locals(g.Neighbors(0, 0, nil))
	assert.Equal(t, []gmath.Vec2i{{X: 0, Y: 1}, {X: 1, Y: 0}}, corner)

	buf := make([]*nav.Node, 0, 8)
	buf = g.Neighbors(3, 3, buf)
	assert.Len(t, buf, 3)
}

type countingSampler struct {
	calls   atomic.Int32
	blocked bool
	err     error
}

func (s *countingSampler) Sample(nav.Probe) (nav.Sample, error) {
	s.calls.Add(1)
	return nav.Sample{Hit: true, Obstacle: s.blocked}, s.err
}

func TestRebakeSwapsSnapshot(t *testing.T) {
	cfg := navtest.Config(4)
	s := &countingSampler{}
	g, err := nav.Build(context.Background(), cfg, s, nil)
	require.NoError(t, err)
	old := g.View()
	assert.Equal(t, uint64(1), g.Generation())
	assert.True(t, g.Passable(1, 1))

	s.blocked = true
	require.NoError(t, g.Rebake(context.Background(), s))

	assert.Equal(t, uint64(2), g.Generation())
	assert.False(t, g.Passable(1, 1))
	assert.True(t, old.Passable(1, 1), "old snapshot is unchanged")
	assert.NotSame(t, old, g.View())
}

func TestRebakeFailureKeepsOldSnapshot(t *testing.T) {
	cfg := navtest.Config(4)
	g, err := nav.Build(context.Background(), cfg, &countingSampler{}, nil)
	require.NoError(t, err)
	old := g.View()

	err = g.Rebake(context.Background(), &countingSampler{err: errors.New("lost")})
	assert.ErrorIs(t, err, nav.ErrSampler)
	assert.Same(t, old, g.View())
	assert.Equal(t, uint64(1), g.Generation())
}

func TestRebakeWaitsForReaders(t *testing.T) {
	cfg := navtest.Config(4)
	g, err := nav.Build(context.Background(), cfg, &countingSampler{}, nil)
	require.NoError(t, err)

	require.NoError(t, g.RLock(context.Background(), -1))
	done := make(chan error, 1)
	go func() {
		done <- g.Rebake(context.Background(), &countingSampler{blocked: true})
	}()

	select {
	case <-done:
		t.Fatal("rebake finished while a reader held the grid")
	case <-time.After(30 * time.Millisecond):
	}
	assert.True(t, g.Passable(0, 0))

	g.RUnlock()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("rebake never completed")
	}
	assert.False(t, g.Passable(0, 0))
}
