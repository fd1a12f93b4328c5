package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-nav/internal/config"
	"github.com/Faultbox/midgard-nav/internal/nav"
	"github.com/Faultbox/midgard-nav/internal/terrain"
)

// baker owns the grid for one scene and reports on it after every bake.
type baker struct {
	cfg     *config.Config
	log     *zap.Logger
	grid    *nav.Grid
	sources []string // Files the last successful bake read
}

func newBaker(ctx context.Context, cfg *config.Config, log *zap.Logger) (*baker, error) {
	world, sources, err := loadWorld(cfg.Terrain.Scene)
	if err != nil {
		return nil, err
	}
	grid, err := nav.Build(ctx, cfg.Grid, world, log.Named("grid"))
	if err != nil {
		return nil, fmt.Errorf("building grid: %w", err)
	}
	return &baker{cfg: cfg, log: log, grid: grid, sources: sources}, nil
}

// loadWorld reads the scene at path and returns the world along with every
// file it was built from.
func loadWorld(path string) (*terrain.World, []string, error) {
	scene, err := terrain.LoadScene(path)
	if err != nil {
		return nil, nil, err
	}
	world, err := terrain.NewWorld(scene)
	if err != nil {
		return nil, nil, err
	}
	sources := []string{path}
	if scene.Altitude != "" {
		sources = append(sources, scene.Altitude)
	}
	return world, sources, nil
}

// rebake reloads the scene and swaps the grid. On error the previous grid
// stays in place.
func (b *baker) rebake(ctx context.Context) error {
	world, sources, err := loadWorld(b.cfg.Terrain.Scene)
	if err != nil {
		return err
	}
	if err := b.grid.Rebake(ctx, world); err != nil {
		return err
	}
	b.sources = sources
	return nil
}

// report runs the configured queries and writes the passability image.
func (b *baker) report(ctx context.Context) error {
	results, stats, err := runQueries(ctx, b.grid, b.cfg, b.log.Named("dispatcher"))
	if err != nil {
		return err
	}

	for i, q := range b.cfg.Queries.Paths {
		r := results[i]
		b.log.Info("path query",
			zap.String("name", q.Name),
			zap.Bool("success", r.Success),
			zap.Stringer("reason", r.Reason),
			zap.Int("waypoints", len(r.Points)),
			zap.Int("cost", r.Cost),
		)
	}
	b.log.Info("bake report",
		zap.Uint64("generation", b.grid.Generation()),
		zap.Int("passable", b.grid.View().PassableCount()),
		zap.Int("nodes", b.cfg.Grid.NodeCount()),
		zap.Uint64("paths_found", stats.Succeeded),
		zap.Uint64("paths_failed", stats.Failed),
	)

	if b.cfg.Output.PNG == "" {
		return nil
	}
	if err := writePassability(b.grid.View(), results, b.cfg.Output.PNG, b.cfg.Output.PNGScale); err != nil {
		return fmt.Errorf("writing passability image: %w", err)
	}
	b.log.Info("passability image written", zap.String("path", b.cfg.Output.PNG))
	return nil
}

// watch rebakes whenever the scene or its altitude table changes, until ctx
// is done.
func (b *baker) watch(ctx context.Context) error {
	w, err := watchScene(b.cfg.Terrain.Debounce, b.log.Named("watch"), b.sources...)
	if err != nil {
		return fmt.Errorf("watching scene: %w", err)
	}
	defer w.Close()

	b.log.Info("watching scene for changes", zap.Strings("paths", b.sources))
	w.run(ctx, func() {
		if err := b.rebake(ctx); err != nil {
			b.log.Warn("rebake failed, keeping previous grid", zap.Error(err))
			return
		}
		// The scene may now name a different altitude table.
		if err := w.track(b.sources...); err != nil {
			b.log.Warn("watching new scene inputs", zap.Error(err))
		}
		if err := b.report(ctx); err != nil {
			b.log.Warn("bake report failed", zap.Error(err))
		}
	})
	return nil
}
