// Package config handles navbake configuration loading and management.
package config

import (
	"fmt"
	"time"

	"github.com/Faultbox/midgard-nav/internal/nav"
	"github.com/Faultbox/midgard-nav/internal/pathfind"
	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// Config holds all navbake settings.
type Config struct {
	Grid       nav.GridConfig            `yaml:"grid"`
	Search     pathfind.Options          `yaml:"search"`
	Dispatcher pathfind.DispatcherConfig `yaml:"dispatcher"`
	Terrain    TerrainConfig             `yaml:"terrain"`
	Queries    QueriesConfig             `yaml:"queries"`
	Output     OutputConfig              `yaml:"output"`
	Logging    LoggingConfig             `yaml:"logging"`
}

// TerrainConfig points at the scene the grid is sampled from.
type TerrainConfig struct {
	Scene    string        `yaml:"scene"`
	Watch    bool          `yaml:"watch"`    // Rebake when the scene file changes
	Debounce time.Duration `yaml:"debounce"` // Quiet period before a rebake
}

// QueriesConfig lists path queries to run after each bake.
type QueriesConfig struct {
	LockTimeout time.Duration `yaml:"lock_timeout"` // Negative waits indefinitely
	Paths       []Query       `yaml:"paths"`
}

// Query is one start/end pair.
type Query struct {
	Name  string     `yaml:"name"`
	Start gmath.Vec3 `yaml:"start"`
	End   gmath.Vec3 `yaml:"end"`
}

// OutputConfig holds diagnostic output settings.
type OutputConfig struct {
	PNG      string `yaml:"png"`       // Passability image, empty to skip
	PNGScale int    `yaml:"png_scale"` // Pixels per node
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Grid:       nav.DefaultGridConfig(),
		Search:     pathfind.DefaultOptions(),
		Dispatcher: pathfind.DefaultDispatcherConfig(),
		Terrain: TerrainConfig{
			Debounce: 100 * time.Millisecond,
		},
		Queries: QueriesConfig{
			LockTimeout: time.Second,
		},
		Output: OutputConfig{
			PNGScale: 4,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}

// Validate reports settings navbake cannot run with.
func (c *Config) Validate() error {
	if err := c.Grid.Validate(); err != nil {
		return err
	}
	if c.Dispatcher.Workers < 1 {
		return fmt.Errorf("dispatcher workers must be >= 1, got %d", c.Dispatcher.Workers)
	}
	if c.Dispatcher.QueueSize < 0 {
		return fmt.Errorf("dispatcher queue size must be >= 0, got %d", c.Dispatcher.QueueSize)
	}
	if c.Output.PNGScale < 1 {
		return fmt.Errorf("png scale must be >= 1, got %d", c.Output.PNGScale)
	}
	if c.Terrain.Debounce < 0 {
		return fmt.Errorf("terrain debounce must not be negative, got %v", c.Terrain.Debounce)
	}
	return nil
}
