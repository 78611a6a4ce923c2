package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Failure records one document that did not make it through the run.
type Failure struct {
	URL string
	Err error
	At  time.Time
}

// Summary aggregates a batch run. Succeeded + Failed + Skipped always
// equals Total.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Skipped   int
	Failures  []Failure
}

// ProcessAll runs every URL through the pipeline with at most limit
// documents in flight. Per-document failures are collected in the
// summary and never abort the batch; only a cancelled context cuts the
// run short.
func (p *Pipeline) ProcessAll(ctx context.Context, urls []string, limit int) Summary {
	if limit <= 0 {
		limit = 1
	}

	results := make([]Result, len(urls))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, url := range urls {
		g.Go(func() error {
			results[i] = p.Process(ctx, url)
			return nil
		})
	}
	// Workers never return errors; Wait only orders the writes.
	_ = g.Wait()

	summary := Summary{Total: len(urls)}
	for _, r := range results {
		switch r.Status {
		case StatusSucceeded:
			summary.Succeeded++
		case StatusSkipped:
			summary.Skipped++
		case StatusFailed:
			summary.Failed++
			summary.Failures = append(summary.Failures, Failure{
				URL: r.URL,
				Err: r.Err,
				At:  r.FailedAt,
			})
		}
	}
	return summary
}
