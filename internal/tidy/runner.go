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
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"clangd-tidy/internal/linefilter"
	"clangd-tidy/internal/lsp"
)

// DefaultExtensions are the file extensions analyzed when the caller
// does not override the allowlist.
var DefaultExtensions = []string{"c", "h", "cpp", "cc", "cxx", "hpp", "hh", "hxx", "cu", "cuh"}

// Options configures a single analysis run.
type Options struct {
	// Executable is the clangd binary name or path.
	Executable string

	// CompileCommandsDir is the directory holding compile_commands.json.
	CompileCommandsDir string

	// Jobs bounds concurrent file analysis, and is passed through to
	// clangd as its worker count.
	Jobs int

	// PerFileTimeout bounds the wait for one file's diagnostics. Zero
	// means the collector default.
	PerFileTimeout time.Duration

	// StartupTimeout bounds the initialize handshake. Zero means the
	// session default.
	StartupTimeout time.Duration

	// CheckFormat also runs a formatting check per file.
	CheckFormat bool

	// Verbose streams clangd's stderr through.
	Verbose bool

	// Filter suppresses diagnostics outside configured line ranges.
	Filter *linefilter.Filter

	// RootPath is the workspace root sent in initialize. Empty means the
	// current working directory.
	RootPath string
}

// SelectFiles reduces the caller's path list to analyzable files.
//
// Description:
//
//	Paths with an extension outside the allowlist are skipped, as are
//	paths that cannot be opened for reading. Both skips are logged and
//	non-fatal, matching how a pre-commit hook hands over every staged
//	file regardless of type. Surviving paths come back absolute, in
//	input order, deduplicated.
func SelectFiles(paths, extensions []string) []string {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}
	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		allowed[strings.ToLower(strings.TrimPrefix(ext, "."))] = true
	}

	seen := make(map[string]bool, len(paths))
	var out []string
	for _, path := range paths {
		ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
		if !allowed[ext] {
			slog.Debug("skipping file with unhandled extension", "path", path)
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			slog.Warn("skipping file", "path", path, "error", err)
			continue
		}
		if seen[abs] {
			continue
		}
		f, err := os.Open(abs)
		if err != nil {
			slog.Warn("skipping unreadable file", "path", path, "error", err)
			continue
		}
		f.Close()
		seen[abs] = true
		out = append(out, abs)
	}
	return out
}

// Run analyzes the given files with one clangd session and returns the
// aggregated results.
//
// Description:
//
//	Spawns clangd, opens each file under a bounded worker pool, waits for
//	its diagnostics, optionally checks formatting, then merges everything
//	into per-file results. Per-file problems degrade into synthetic
//	diagnostics; only session-level failures return an error, and when
//	one lands mid-run it cancels every in-flight wait.
//
// Errors:
//
//   - lsp.ErrServerNotInstalled when the executable is not on PATH.
//   - lsp.ErrInitializeFailed, lsp.ErrServerCrashed, or a context error
//     for session-level failures.
func Run(ctx context.Context, opts Options, paths []string) ([]FileResult, error) {
	if len(paths) == 0 {
		return nil, nil
	}

	root := opts.RootPath
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve workspace root: %w", err)
		}
		root = wd
	}

	config := lsp.DefaultConfig()
	if opts.Executable != "" {
		config.Executable = opts.Executable
	}
	if opts.CompileCommandsDir != "" {
		config.CompileCommandsDir = opts.CompileCommandsDir
	}
	if opts.Jobs > 0 {
		config.Jobs = opts.Jobs
	}
	if opts.StartupTimeout > 0 {
		config.StartupTimeout = opts.StartupTimeout
	}
	config.Verbose = opts.Verbose

	ctx, span := lsp.StartSessionSpan(ctx, len(paths))
	defer span.End()

	server := lsp.NewServer(config, root)
	dispatcher := NewDispatcher()
	server.SetNotificationHandler(dispatcher.Handle)

	if err := server.Start(ctx); err != nil {
		return nil, err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Debug("shutdown", "error", err)
		}
	}()

	checkFormat := opts.CheckFormat
	if checkFormat && !server.Capabilities().HasDocumentFormattingProvider() {
		slog.Warn("server does not support formatting, skipping format check")
		checkFormat = false
	}

	// A crashed server would otherwise leave collectors blocked until
	// their per-file timeouts fire, one by one.
	runCtx, cancelRun := context.WithCancel(ctx)
	defer cancelRun()
	go func() {
		select {
		case <-server.Done():
			cancelRun()
		case <-runCtx.Done():
		}
	}()

	collector := NewCollector(server, dispatcher, opts.PerFileTimeout, checkFormat)
	scheduler := &Scheduler{Jobs: opts.Jobs}

	captures, err := scheduler.Run(runCtx, paths, collector.Collect)
	if err != nil {
		// Prefer the session's own failure over the derived context
		// cancellation; it names the actual cause.
		if serverErr := server.Err(); serverErr != nil {
			return nil, serverErr
		}
		return nil, err
	}

	agg := &Aggregator{Filter: opts.Filter}
	return agg.Aggregate(captures), nil
}
