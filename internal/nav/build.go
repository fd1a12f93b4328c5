package nav

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	gmath "github.com/Faultbox/midgard-nav/pkg/math"
)

// buildView validates cfg, samples every node and partitions the result into
// tiles. Nothing is returned unless every node sampled successfully.
func buildView(ctx context.Context, cfg GridConfig, sampler Sampler, log *zap.Logger) (*View, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if sampler == nil {
		return nil, fmt.Errorf("%w: nil sampler", ErrInvalidConfig)
	}

	start := time.Now()
	dim := cfg.Dimension()
	v := &View{
		cfg:   cfg,
		dim:   dim,
		side:  cfg.TileSide(),
		nodes: make([]Node, dim*dim),
	}

	if err := v.sampleNodes(ctx, sampler); err != nil {
		return nil, err
	}
	v.fillTiles()

	for i := range v.nodes {
		if v.nodes[i].Passable {
			v.passable++
		}
	}

	log.Info("navigation grid built",
		zap.Int("dimension", dim),
		zap.Int("nodes", len(v.nodes)),
		zap.Int("passable", v.passable),
		zap.Int("tiles", len(v.tiles)),
		zap.Int("workers", max(cfg.BuildWorkers, 1)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return v, nil
}

// sampleNodes fills v.nodes one row at a time. Rows are independent, so with
// more than one worker they are sampled concurrently.
func (v *View) sampleNodes(ctx context.Context, sampler Sampler) error {
	if v.cfg.BuildWorkers <= 1 {
		for y := range v.dim {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := v.sampleRow(sampler, y); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(v.cfg.BuildWorkers)
	for y := range v.dim {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			return v.sampleRow(sampler, y)
		})
	}
	return g.Wait()
}

func (v *View) sampleRow(sampler Sampler, y int) error {
	for x := range v.dim {
		if err := v.sampleNode(sampler, x, y); err != nil {
			return err
		}
	}
	return nil
}

func (v *View) sampleNode(sampler Sampler, x, y int) error {
	local := gmath.Vec2i{X: x, Y: y}
	centre := v.cellCentre(local)

	s, err := sampler.Sample(Probe{
		Position:     centre,
		GroundMask:   v.cfg.GroundMask,
		ObstacleMask: v.cfg.ObstacleMask,
		MaxHeight:    v.cfg.MaxHeight,
	})
	if err != nil {
		return fmt.Errorf("%w: node (%d,%d): %w", ErrSampler, x, y, err)
	}

	normal := s.Normal.Normalize()
	if normal == (gmath.Vec3{}) {
		normal = gmath.Up
	}
	height := v.cfg.Origin.Y
	if s.Hit {
		height = s.Height
	}

	id := y*v.dim + x
	n := &v.nodes[id]
	n.ID = id
	n.Local = local
	n.World = gmath.FromXZ(centre, height)
	n.Normal = normal
	n.Slope = 1 - normal.Dot(gmath.Up)
	n.Passable = s.Hit && !s.Obstacle && s.Height < v.cfg.MaxHeight && n.Slope < v.cfg.MaxSteepness
	return nil
}

// fillTiles maps each tile-local index i to its global node via
// nodeX = i%side + tileX*side, nodeY = i/side + tileY*side.
func (v *View) fillTiles() {
	sub := v.cfg.Subdivision
	side := v.side
	v.tiles = make([]Tile, sub*sub)
	for ty := range sub {
		for tx := range sub {
			t := &v.tiles[ty*sub+tx]
			t.X, t.Y, t.Side = tx, ty, side
			t.Nodes = make([]int, side*side)
			for i := range t.Nodes {
				nx := i%side + tx*side
				ny := i/side + ty*side
				t.Nodes[i] = ny*v.dim + nx
			}
		}
	}
}
