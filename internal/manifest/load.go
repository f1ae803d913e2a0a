package manifest

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Result is the outcome of loading one named source.
type Result struct {
	Name     string
	Manifest *Manifest
	Err      error
}

// LoadAll loads every source concurrently, at most limit at a time, and
// returns results in input order. A failing source does not cancel the
// others; its error is reported in its Result.
func LoadAll(ctx context.Context, names []string, sources []Source, limit int) []Result {
	results := make([]Result, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, src := range sources {
		g.Go(func() error {
			m, err := Load(gctx, src)
			results[i] = Result{Name: names[i], Manifest: m, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return results
}
