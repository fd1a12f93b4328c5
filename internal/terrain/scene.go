// Package terrain provides a reference environment for grid construction.
// Ground comes from a character heightfield or a GRAT altitude table, and
// obstacles from a chipmunk collision space. A YAML scene file ties them
// together.
package terrain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// ErrInvalidScene is returned for scene files that cannot describe a world.
var ErrInvalidScene = errors.New("invalid terrain scene")

// Obstacle shape kinds.
const (
	KindBox    = "box"
	KindCircle = "circle"
	KindWall   = "wall"
)

// Scene is the on-disk description of a world. It sets exactly one of
// Terrain and Altitude.
//
// Terrain rows run along +Z, characters along +X. A digit is a ground cell at
// that many LevelHeight steps above the origin; '.' or ' ' is a hole.
//
// Altitude names a GRAT table file. Its cells that are not walkable become
// obstacles on BlockedLayer, or on WaterLayer for deep water.
type Scene struct {
	Origin       gmath.Vec3 `yaml:"origin"`
	CellSize     float32    `yaml:"cell_size"`
	LevelHeight  float32    `yaml:"level_height"`
	GroundLayer  uint32     `yaml:"ground_layer"`
	BlockedLayer uint32     `yaml:"blocked_layer"`
	WaterLayer   uint32     `yaml:"water_layer"`
	Terrain      []string   `yaml:"terrain"`
	Altitude     string     `yaml:"altitude"`
	Obstacles    []Obstacle `yaml:"obstacles"`
}

// Obstacle is one collision shape on the horizontal plane. Vec2 Y is world Z.
type Obstacle struct {
	Kind      string     `yaml:"kind"`
	Layer     uint32     `yaml:"layer"`
	Min       gmath.Vec2 `yaml:"min"`       // box
	Max       gmath.Vec2 `yaml:"max"`       // box
	Center    gmath.Vec2 `yaml:"center"`    // circle
	Radius    float32    `yaml:"radius"`    // circle
	From      gmath.Vec2 `yaml:"from"`      // wall
	To        gmath.Vec2 `yaml:"to"`        // wall
	Thickness float32    `yaml:"thickness"` // wall
}

// LoadScene reads and validates a scene file. A relative altitude path is
// resolved against the scene's directory.
func LoadScene(path string) (*Scene, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scene %s: %w", path, err)
	}
	s, err := ParseScene(data)
	if err != nil {
		return nil, fmt.Errorf("scene %s: %w", path, err)
	}
	if s.Altitude != "" && !filepath.IsAbs(s.Altitude) {
		s.Altitude = filepath.Join(filepath.Dir(path), s.Altitude)
	}
	return s, nil
}

// ParseScene decodes and validates scene YAML.
func ParseScene(data []byte) (*Scene, error) {
	s := &Scene{
		CellSize:     1,
		LevelHeight:  1,
		GroundLayer:  1,
		BlockedLayer: 2,
		WaterLayer:   4,
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidScene, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks the ground source and every obstacle.
func (s *Scene) Validate() error {
	if !(s.CellSize > 0) {
		return fmt.Errorf("%w: cell_size must be > 0", ErrInvalidScene)
	}
	switch {
	case len(s.Terrain) > 0 && s.Altitude != "":
		return fmt.Errorf("%w: terrain and altitude are mutually exclusive", ErrInvalidScene)
	case s.Altitude != "":
		return s.validateObstacles()
	case len(s.Terrain) == 0:
		return fmt.Errorf("%w: empty terrain", ErrInvalidScene)
	}

	width := len(s.Terrain[0])
	for z, row := range s.Terrain {
		if len(row) != width {
			return fmt.Errorf("%w: terrain row %d has %d cells, want %d", ErrInvalidScene, z, len(row), width)
		}
		for x := range len(row) {
			if _, _, ok := parseCell(row[x]); !ok {
				return fmt.Errorf("%w: terrain cell (%d,%d) has unknown code %q", ErrInvalidScene, x, z, row[x])
			}
		}
	}
	return s.validateObstacles()
}

func (s *Scene) validateObstacles() error {
	for i, o := range s.Obstacles {
		if err := o.validate(); err != nil {
			return fmt.Errorf("%w: obstacle %d: %w", ErrInvalidScene, i, err)
		}
	}
	return nil
}

func (o Obstacle) validate() error {
	if o.Layer == 0 {
		return errors.New("layer must be non-zero")
	}
	switch o.Kind {
	case KindBox:
		if o.Max.X <= o.Min.X || o.Max.Y <= o.Min.Y {
			return errors.New("box max must exceed min")
		}
	case KindCircle:
		if !(o.Radius > 0) {
			return errors.New("circle radius must be > 0")
		}
	case KindWall:
		if o.From == o.To {
			return errors.New("wall endpoints must differ")
		}
		if !(o.Thickness > 0) {
			return errors.New("wall thickness must be > 0")
		}
	default:
		return fmt.Errorf("unknown kind %q", o.Kind)
	}
	return nil
}

// parseCell decodes one terrain character into (level, ground).
func parseCell(c byte) (level int, ground bool, ok bool) {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true, true
	case c == '.' || c == ' ':
		return 0, false, true
	default:
		return 0, false, false
	}
}
