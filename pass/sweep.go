// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package pass

import (
	"context"
	"runtime"

	"github.com/gomlx/memsched/graph"
	"github.com/gomlx/memsched/hardware"
	"github.com/gomlx/memsched/schedules"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// WithParallelism sets the maximum number of hardware configurations Sweep evaluates
// concurrently. If <= 0, runtime.NumCPU() is used, which is the default.
//
// It returns the Pass itself, so calls can be chained.
func (p *Pass) WithParallelism(parallelism int) *Pass {
	p.parallelism = parallelism
	return p
}

// WithProgress sets a function called by Sweep each time the pass for one hardware configuration
// is done. It is called from different goroutines, so it must be safe for concurrent use.
//
// It returns the Pass itself, so calls can be chained.
func (p *Pass) WithProgress(progress func()) *Pass {
	p.progress = progress
	return p
}

// Sweep runs the pass for graph g on each of the hardware configurations, concurrently.
//
// The results are returned in the same order as hws. If any of the runs fails, or if ctx is
// cancelled, it returns the first error, and the runs not yet started are skipped.
func (p *Pass) Sweep(ctx context.Context, g *graph.Graph, hws []hardware.Config) ([]*Result, error) {
	// Shape inference reads the graph concurrently, it must not be changed during the sweep.
	results := make([]*Result, len(hws))
	eg, ctx := errgroup.WithContext(ctx)
	parallelism := p.parallelism
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	eg.SetLimit(parallelism)
	for ii, hw := range hws {
		eg.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := p.Run(g, hw)
			if err != nil {
				return errors.WithMessagef(err, "sweep #%d, hardware %q", ii, hw.Name)
			}
			results[ii] = result
			if p.progress != nil {
				p.progress()
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Sweep runs the pass with the given candidates (or the catalog) and default configuration
// over several hardware configurations. See Pass.Sweep.
func Sweep(ctx context.Context, g *graph.Graph, hws []hardware.Config, candidates ...schedules.Schedule) ([]*Result, error) {
	return New().WithCandidates(candidates...).Sweep(ctx, g, hws)
}
