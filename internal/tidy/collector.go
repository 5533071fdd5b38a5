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
	"time"

	"clangd-tidy/internal/lsp"
)

// Session is the slice of the clangd session the collector needs.
// *lsp.Server satisfies it; tests substitute a fake.
type Session interface {
	// AllocVersion reserves the next version for a path.
	AllocVersion(path string) int

	// DidOpen opens a document at the given version.
	DidOpen(ctx context.Context, path, text string, version int) error

	// DidClose closes a document, releasing server memory.
	DidClose(path string) error

	// Formatting returns the edits needed to format a document, nil if
	// it already conforms.
	Formatting(ctx context.Context, path string) ([]lsp.TextEdit, error)
}

// FileCapture is the raw harvest for one opened file, before aggregation.
type FileCapture struct {
	// Path is the absolute path of the opened document.
	Path string

	// Diagnostics as pushed by the server for the matched version.
	// Individual entries may point at other files via their URI.
	Diagnostics []lsp.Diagnostic

	// FormatViolation is set when the format check proposed edits.
	FormatViolation bool

	// TimedOut is set when no version-matched notification arrived
	// within the per-file timeout.
	TimedOut bool
}

// Collector drives the per-file open / await / close cycle.
//
// Description:
//
//	For each file: allocate a fresh version, register a waiter with the
//	dispatcher, send didOpen, and block until the version-matched
//	publishDiagnostics arrives or the per-file timeout fires. The
//	document is closed on every path so server memory stays bounded.
//
// Thread Safety:
//
//	Safe for concurrent use; each Collect call is independent.
type Collector struct {
	session     Session
	dispatcher  *Dispatcher
	timeout     time.Duration
	checkFormat bool
}

// NewCollector creates a collector.
//
// Inputs:
//
//	session - The clangd session
//	dispatcher - The notification dispatcher wired to the session
//	timeout - Per-file diagnostic wait bound
//	checkFormat - Whether to run the clang-format check per file
func NewCollector(session Session, dispatcher *Dispatcher, timeout time.Duration, checkFormat bool) *Collector {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Collector{
		session:     session,
		dispatcher:  dispatcher,
		timeout:     timeout,
		checkFormat: checkFormat,
	}
}

// Collect harvests diagnostics for one file.
//
// Description:
//
//	A timeout or formatting failure degrades only this file's capture
//	(synthetic diagnostic, run continues). The returned error is non-nil
//	only for session-level failures, which abort the whole run.
//
// Inputs:
//
//	ctx - Run context; cancellation unblocks the wait deterministically
//	path - Absolute file path
//
// Outputs:
//
//	FileCapture - The harvest, possibly degraded
//	error - Non-nil only on session failure or run cancellation
func (c *Collector) Collect(ctx context.Context, path string) (FileCapture, error) {
	capture := FileCapture{Path: path}

	text, err := os.ReadFile(path)
	if err != nil {
		// The runner filters unreadable files up front; hitting this
		// mid-run means the file vanished underneath us.
		slog.Warn("cannot read file", slog.String("path", path), slog.Any("error", err))
		capture.Diagnostics = append(capture.Diagnostics, syntheticDiagnostic(
			path, "io-error", fmt.Sprintf("cannot read file: %v", err)))
		return capture, nil
	}

	version := c.session.AllocVersion(path)

	// Register before didOpen: clangd may publish before the open call
	// returns control to us.
	diagCh := c.dispatcher.Await(path, version)

	if err := c.session.DidOpen(ctx, path, string(text), version); err != nil {
		c.dispatcher.Cancel(path, version)
		return capture, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if err := c.session.DidClose(path); err != nil {
			slog.Debug("didClose failed", slog.String("path", path), slog.Any("error", err))
		}
	}()

	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	select {
	case diags := <-diagCh:
		capture.Diagnostics = diags
	case <-timer.C:
		c.dispatcher.Cancel(path, version)
		capture.TimedOut = true
		capture.Diagnostics = append(capture.Diagnostics, syntheticDiagnostic(
			path, "analysis-timeout",
			fmt.Sprintf("clangd analysis timed out after %s", c.timeout)))
		slog.Warn("analysis timed out",
			slog.String("path", path),
			slog.Duration("timeout", c.timeout),
		)
		return capture, nil
	case <-ctx.Done():
		c.dispatcher.Cancel(path, version)
		return capture, ctx.Err()
	}

	if c.checkFormat {
		c.collectFormat(ctx, path, &capture)
	}

	return capture, nil
}

// collectFormat runs the clang-format check and records the outcome on
// the capture. Failures degrade this file only.
func (c *Collector) collectFormat(ctx context.Context, path string, capture *FileCapture) {
	edits, err := c.session.Formatting(ctx, path)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Warn("format check failed", slog.String("path", path), slog.Any("error", err))
		capture.Diagnostics = append(capture.Diagnostics, syntheticDiagnostic(
			path, "format-check-failed", fmt.Sprintf("formatting request failed: %v", err)))
		return
	}
	if len(edits) == 0 {
		return
	}

	capture.FormatViolation = true
	capture.Diagnostics = append(capture.Diagnostics, lsp.Diagnostic{
		Range:    edits[0].Range,
		Severity: lsp.SeverityWarning,
		Code:     lsp.DiagnosticCode("clang-format"),
		Source:   SourceFormat,
		Message:  "file does not match the project clang-format style",
		URI:      lsp.PathToURI(path),
	})
}

// syntheticDiagnostic builds a degraded-result marker attributed to the
// requested file itself.
func syntheticDiagnostic(path, code, message string) lsp.Diagnostic {
	sev := lsp.SeverityError
	if code == "format-check-failed" {
		sev = lsp.SeverityWarning
	}
	return lsp.Diagnostic{
		Severity: sev,
		Code:     lsp.DiagnosticCode(code),
		Source:   SourceSelf,
		Message:  message,
		URI:      lsp.PathToURI(path),
	}
}
