// Package navtest builds small in-memory grids for tests.
package navtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Faultbox/midgard-nav/internal/nav"
	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// FlatSampler reports flat ground everywhere, with obstacles on the listed
// grid cells. Safe for concurrent use once built.
type FlatSampler struct {
	Origin       gmath.Vec3
	UnitsPerNode float32
	Blocked      map[gmath.Vec2i]bool
}

// Sample implements nav.Sampler.
func (s FlatSampler) Sample(p nav.Probe) (nav.Sample, error) {
	cell := p.Position.Sub(s.Origin.XZ()).Scale(1 / s.UnitsPerNode).Floor()
	return nav.Sample{
		Hit:      true,
		Height:   s.Origin.Y,
		Normal:   gmath.Up,
		Obstacle: s.Blocked[cell],
	}, nil
}

// Config returns a single-tile config with one world unit per node.
func Config(size int) nav.GridConfig {
	return nav.GridConfig{
		Size:         size,
		UnitsPerNode: 1,
		Subdivision:  1,
		MaxHeight:    10,
		MaxSteepness: 0.5,
		GroundMask:   1,
		ObstacleMask: 2,
	}
}

// Sampler returns a FlatSampler matching cfg.
func Sampler(cfg nav.GridConfig, blocked ...gmath.Vec2i) FlatSampler {
	s := FlatSampler{
		Origin:       cfg.Origin,
		UnitsPerNode: cfg.UnitsPerNode,
		Blocked:      make(map[gmath.Vec2i]bool, len(blocked)),
	}
	for _, b := range blocked {
		s.Blocked[b] = true
	}
	return s
}

// Grid builds a size x size open grid with the given cells blocked.
func Grid(t testing.TB, size int, blocked ...gmath.Vec2i) *nav.Grid {
	t.Helper()
	return GridWithConfig(t, Config(size), blocked...)
}

// GridWithConfig builds a flat grid for cfg with the given cells blocked.
func GridWithConfig(t testing.TB, cfg nav.GridConfig, blocked ...gmath.Vec2i) *nav.Grid {
	t.Helper()
	g, err := nav.Build(context.Background(), cfg, Sampler(cfg, blocked...), nil)
	require.NoError(t, err)
	return g
}

// FromRows builds a grid from an ASCII map where rows[y][x] == '#' marks an
// obstacle. All rows must be as long as there are rows.
func FromRows(t testing.TB, rows ...string) *nav.Grid {
	t.Helper()
	var blocked []gmath.Vec2i
	for y, row := range rows {
		require.Len(t, row, len(rows), "row %d", y)
		for x, c := range row {
			if c == '#' {
				blocked = append(blocked, gmath.Vec2i{X: x, Y: y})
			}
		}
	}
	return Grid(t, len(rows), blocked...)
}

// Centre returns the world centre of cell (x, y) for a grid built by this
// package.
func Centre(x, y int) gmath.Vec3 {
	return gmath.Vec3{X: float32(x) + 0.5, Z: float32(y) + 0.5}
}
