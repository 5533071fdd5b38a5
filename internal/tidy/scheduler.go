// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package tidy

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// ============================================================================
// Scheduler
// ============================================================================

// Scheduler fans a batch of files out to a bounded set of concurrent
// collection jobs while preserving input order in the output.
//
// Description:
//
//	Each input path gets a slot in a preallocated result slice indexed by
//	its input position, so the output order never depends on completion
//	order. At most Jobs collections run at once; the rest queue inside
//	errgroup. Per-file failures are recorded in the slot and never
//	propagated to the group, so one broken translation unit cannot abort
//	the batch. Only fatal errors (session death, cancellation) cancel the
//	group context, which unblocks every in-flight waiter.
//
// Thread Safety:
//
//	Run may be called concurrently with distinct path slices, though the
//	orchestrator only ever runs one batch per session.
type Scheduler struct {
	// Jobs caps concurrent collections. Values below 1 are treated as 1.
	Jobs int
}

// Run collects diagnostics for every path using fn, at most Jobs at a time.
//
// Inputs:
//
//   - ctx: cancels the whole batch; in-flight collections observe it.
//   - paths: files to analyze, in the order results should come back.
//   - fn: per-file collection, typically Collector.Collect.
//
// Outputs:
//
//   - []FileCapture: one entry per input path, same order. Slots whose
//     collection failed non-fatally carry the synthetic diagnostics fn
//     produced before giving up.
//   - error: first fatal error, nil if the batch ran to completion.
func (s *Scheduler) Run(ctx context.Context, paths []string, fn func(context.Context, string) (FileCapture, error)) ([]FileCapture, error) {
	jobs := s.Jobs
	if jobs < 1 {
		jobs = 1
	}

	results := make([]FileCapture, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(jobs)

	start := time.Now()
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			capture, err := fn(gctx, path)
			if err != nil {
				// Fatal: the session is gone or the batch was
				// cancelled. Returning the error cancels gctx and
				// unblocks the remaining jobs.
				return err
			}
			results[i] = capture
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	slog.Debug("batch complete",
		"files", len(paths),
		"jobs", jobs,
		"elapsed", time.Since(start))
	return results, nil
}
