package nav

import (
	"errors"
	"fmt"
	"math"

	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// Grid errors.
var (
	ErrInvalidConfig = errors.New("invalid grid config")
	ErrSampler       = errors.New("environment sampler failed")
	ErrLockTimeout   = errors.New("grid lock not acquired in time")
)

// GridConfig describes one navigable area. It is plain data and is only
// validated when a grid is built from it.
type GridConfig struct {
	Origin       gmath.Vec3 `yaml:"origin"`         // World-space corner of the grid
	Size         int        `yaml:"size"`           // World units per side, positive and even
	UnitsPerNode float32    `yaml:"units_per_node"` // Sampling resolution
	Subdivision  int        `yaml:"subdivision"`    // Tiles per side
	MaxHeight    float32    `yaml:"max_height"`
	MaxSteepness float32    `yaml:"max_steepness"` // Upper bound on 1 - dot(normal, up)
	GroundMask   uint32     `yaml:"ground_mask"`
	ObstacleMask uint32     `yaml:"obstacle_mask"`
	BuildWorkers int        `yaml:"build_workers"` // 0 or 1 samples on the calling goroutine
}

// DefaultGridConfig returns a 64x64 grid at the origin split into 4x4 tiles.
func DefaultGridConfig() GridConfig {
	return GridConfig{
		Size:         64,
		UnitsPerNode: 1,
		Subdivision:  4,
		MaxHeight:    100,
		MaxSteepness: 0.3,
		GroundMask:   1,
		ObstacleMask: 2,
	}
}

// Validate checks the config before any sampling happens.
func (c GridConfig) Validate() error {
	if c.Size <= 0 || c.Size%2 != 0 {
		return fmt.Errorf("%w: size %d must be a positive even number", ErrInvalidConfig, c.Size)
	}
	if !(c.UnitsPerNode > 0) {
		return fmt.Errorf("%w: units_per_node %v must be > 0", ErrInvalidConfig, c.UnitsPerNode)
	}
	d := float64(c.Size) / float64(c.UnitsPerNode)
	if d < 1 || math.Abs(d-math.Round(d)) > 1e-3 {
		return fmt.Errorf("%w: size %d is not a whole number of %v-unit nodes", ErrInvalidConfig, c.Size, c.UnitsPerNode)
	}
	if c.Subdivision < 1 {
		return fmt.Errorf("%w: subdivision %d must be >= 1", ErrInvalidConfig, c.Subdivision)
	}
	if dim := c.Dimension(); dim%c.Subdivision != 0 {
		return fmt.Errorf("%w: dimension %d is not divisible into %d tiles", ErrInvalidConfig, dim, c.Subdivision)
	}
	if !(c.MaxHeight > 0) {
		return fmt.Errorf("%w: max_height %v must be > 0", ErrInvalidConfig, c.MaxHeight)
	}
	if !(c.MaxSteepness > 0) {
		return fmt.Errorf("%w: max_steepness %v must be > 0", ErrInvalidConfig, c.MaxSteepness)
	}
	if c.BuildWorkers < 0 {
		return fmt.Errorf("%w: build_workers %d must be >= 0", ErrInvalidConfig, c.BuildWorkers)
	}
	return nil
}

// Dimension returns the number of nodes per side.
func (c GridConfig) Dimension() int {
	if c.UnitsPerNode <= 0 {
		return 0
	}
	return int(math.Round(float64(c.Size) / float64(c.UnitsPerNode)))
}

// NodeCount returns Dimension².
func (c GridConfig) NodeCount() int {
	d := c.Dimension()
	return d * d
}

// TileSide returns the number of nodes along one tile edge.
func (c GridConfig) TileSide() int {
	if c.Subdivision < 1 {
		return 0
	}
	return c.Dimension() / c.Subdivision
}

// TileCount returns Subdivision².
func (c GridConfig) TileCount() int {
	return c.Subdivision * c.Subdivision
}
