package config

import "flag"

var (
	flagConfig       = flag.String("config", "", "Path to config file")
	flagDebug        = flag.Bool("debug", false, "Enable debug logging")
	flagScene        = flag.String("scene", "", "Path to terrain scene file")
	flagWatch        = flag.Bool("watch", false, "Rebake when the scene file changes")
	flagBuildWorkers = flag.Int("build-workers", 0, "Goroutines sampling the grid")
	flagWorkers      = flag.Int("workers", 0, "Path search workers")
	flagPNG          = flag.String("png", "", "Write a passability image to this path")
	flagNoCornerCut  = flag.Bool("no-corner-cutting", false, "Forbid diagonals past blocked cells")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagScene != "" {
		cfg.Terrain.Scene = *flagScene
	}
	if *flagWatch {
		cfg.Terrain.Watch = true
	}
	if *flagBuildWorkers > 0 {
		cfg.Grid.BuildWorkers = *flagBuildWorkers
	}
	if *flagWorkers > 0 {
		cfg.Dispatcher.Workers = *flagWorkers
	}
	if *flagPNG != "" {
		cfg.Output.PNG = *flagPNG
	}
	if *flagNoCornerCut {
		cfg.Search.CornerCutting = false
	}
}
