package main

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-nav/internal/config"
	"github.com/Faultbox/midgard-nav/internal/nav"
	"github.com/Faultbox/midgard-nav/internal/pathfind"
)

// runQueries pushes every configured query through a dispatcher and returns
// the results in query order.
func runQueries(ctx context.Context, g *nav.Grid, cfg *config.Config, log *zap.Logger) ([]pathfind.Result, pathfind.Stats, error) {
	d := pathfind.NewDispatcher(ctx, g, cfg.Dispatcher, cfg.Search, log)

	results := make([]pathfind.Result, len(cfg.Queries.Paths))
	var wg sync.WaitGroup
	for i, q := range cfg.Queries.Paths {
		wg.Add(1)
		req := pathfind.Request{
			Start:   q.Start,
			End:     q.End,
			Timeout: cfg.Queries.LockTimeout,
			Callback: func(r pathfind.Result) {
				defer wg.Done()
				results[i] = r
			},
		}
		if err := d.Dispatch(req); err != nil {
			wg.Done()
			_ = d.Close()
			return nil, pathfind.Stats{}, err
		}
	}

	err := d.Close()
	wg.Wait()
	return results, d.Stats(), err
}
