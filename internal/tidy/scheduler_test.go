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
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"clangd-tidy/internal/lsp"
)

func TestScheduler_Run(t *testing.T) {
	paths := []string{"/w/a.cc", "/w/b.cc", "/w/c.cc", "/w/d.cc", "/w/e.cc"}

	// collect returns a capture tagged with its path; earlier paths sleep
	// longer so completion order differs from input order.
	delays := make(map[string]time.Duration, len(paths))
	for i, p := range paths {
		delays[p] = time.Duration(len(paths)-i) * 5 * time.Millisecond
	}
	collect := func(_ context.Context, path string) (FileCapture, error) {
		time.Sleep(delays[path])
		return FileCapture{
			Path: path,
			Diagnostics: []lsp.Diagnostic{{
				Message: "from " + path,
				URI:     lsp.PathToURI(path),
			}},
		}, nil
	}

	t.Run("preserves input order", func(t *testing.T) {
		s := &Scheduler{Jobs: 4}
		results, err := s.Run(context.Background(), paths, collect)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(results) != len(paths) {
			t.Fatalf("results = %d, want %d", len(results), len(paths))
		}
		for i, r := range results {
			if r.Path != paths[i] {
				t.Errorf("results[%d] = %s, want %s", i, r.Path, paths[i])
			}
		}
	})

	t.Run("jobs one and jobs four agree", func(t *testing.T) {
		serial, err := (&Scheduler{Jobs: 1}).Run(context.Background(), paths, collect)
		if err != nil {
			t.Fatalf("serial Run: %v", err)
		}
		parallel, err := (&Scheduler{Jobs: 4}).Run(context.Background(), paths, collect)
		if err != nil {
			t.Fatalf("parallel Run: %v", err)
		}
		for i := range serial {
			if serial[i].Path != parallel[i].Path ||
				serial[i].Diagnostics[0].Message != parallel[i].Diagnostics[0].Message {
				t.Errorf("results diverge at %d: %+v vs %+v", i, serial[i], parallel[i])
			}
		}
	})

	t.Run("bounds concurrency", func(t *testing.T) {
		var active, peak int32
		var mu sync.Mutex

		counting := func(_ context.Context, path string) (FileCapture, error) {
			n := atomic.AddInt32(&active, 1)
			mu.Lock()
			if n > peak {
				peak = n
			}
			mu.Unlock()
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(&active, -1)
			return FileCapture{Path: path}, nil
		}

		s := &Scheduler{Jobs: 2}
		if _, err := s.Run(context.Background(), paths, counting); err != nil {
			t.Fatalf("Run: %v", err)
		}
		if peak > 2 {
			t.Errorf("peak concurrency = %d, want <= 2", peak)
		}
	})

	t.Run("fatal error aborts the batch", func(t *testing.T) {
		fatal := errors.New("session died")
		failing := func(ctx context.Context, path string) (FileCapture, error) {
			if path == "/w/b.cc" {
				return FileCapture{}, fatal
			}
			select {
			case <-ctx.Done():
				return FileCapture{}, ctx.Err()
			case <-time.After(5 * time.Second):
				return FileCapture{Path: path}, nil
			}
		}

		s := &Scheduler{Jobs: 2}
		start := time.Now()
		_, err := s.Run(context.Background(), paths, failing)
		if !errors.Is(err, fatal) {
			t.Errorf("expected the fatal error, got %v", err)
		}
		if time.Since(start) > 2*time.Second {
			t.Error("abort should cancel in-flight waits promptly")
		}
	})

	t.Run("treats non-positive jobs as one", func(t *testing.T) {
		s := &Scheduler{Jobs: 0}
		results, err := s.Run(context.Background(), paths[:2], collect)
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(results) != 2 {
			t.Errorf("results = %d, want 2", len(results))
		}
	})

	t.Run("empty input yields empty output", func(t *testing.T) {
		s := &Scheduler{Jobs: 4}
		results, err := s.Run(context.Background(), nil, func(context.Context, string) (FileCapture, error) {
			return FileCapture{}, fmt.Errorf("must not be called")
		})
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
		if len(results) != 0 {
			t.Errorf("results = %d, want 0", len(results))
		}
	})
}
