// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package outfmt renders aggregated diagnostics for humans, logs, and CI.
//
// Three renderings are available: Fancy (colorized, with source context
// and caret underlines, for terminals), Compact (dense plain text, for
// logs and pipes), and GitHub (workflow commands that become inline PR
// annotations). All of them render files in path order and skip files
// with nothing to report.
package outfmt

import (
	"io"
	"os"
	"path/filepath"
	"sort"

	"clangd-tidy/internal/tidy"
)

// Formatter renders a run's results to w.
type Formatter interface {
	Format(w io.Writer, results []tidy.FileResult) error
}

// sortByPath returns a copy of results ordered by path, so output is
// stable regardless of scheduling order.
func sortByPath(results []tidy.FileResult) []tidy.FileResult {
	sorted := make([]tidy.FileResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Path < sorted[j].Path })
	return sorted
}

// displayPath shortens an absolute path for human output, falling back
// to the absolute form when no relative form exists.
func displayPath(path string) string {
	wd, err := os.Getwd()
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(wd, path)
	if err != nil {
		return path
	}
	return rel
}

// reportable reports whether a diagnostic carries enough identity to be
// worth showing. clangd emits anonymous sub-diagnostics along include
// chains; without a source or code they are noise in every rendering.
func reportable(d tidy.Diagnostic) bool {
	return d.Source != "" || d.Code != ""
}
