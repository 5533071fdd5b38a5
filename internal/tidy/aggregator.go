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
	"sort"

	"clangd-tidy/internal/linefilter"
	"clangd-tidy/internal/lsp"
)

// ============================================================================
// Aggregator
// ============================================================================

// Aggregator merges per-file captures into the final report.
//
// Description:
//
//	clangd attributes each diagnostic to its actual target file via a
//	per-diagnostic uri, so a finding inside a shared header surfaces once
//	per translation unit that includes it. The aggregator regroups
//	diagnostics under their target file, applies the line filter, then
//	drops duplicates by (file, range, code, message). Requested files
//	come back in input order even when empty; header files implicated
//	along the way follow, sorted by path.
type Aggregator struct {
	// Filter suppresses diagnostics outside the configured line ranges.
	// Nil passes everything.
	Filter *linefilter.Filter
}

// Aggregate produces one FileResult per requested capture plus one per
// implicated header, applying filtering before deduplication.
func (a *Aggregator) Aggregate(captures []FileCapture) []FileResult {
	byFile := make(map[string]*FileResult, len(captures))
	order := make([]string, 0, len(captures))

	resultFor := func(path string, requested bool) *FileResult {
		fr, ok := byFile[path]
		if !ok {
			fr = &FileResult{Path: path, Requested: requested}
			byFile[path] = fr
			order = append(order, path)
		}
		if requested {
			fr.Requested = true
		}
		return fr
	}

	// Requested files claim their slots first so input order wins over
	// diagnostic arrival order.
	for _, capture := range captures {
		fr := resultFor(capture.Path, true)
		fr.FormatViolation = fr.FormatViolation || capture.FormatViolation
	}

	seen := make(map[string]struct{})
	for _, capture := range captures {
		for _, raw := range capture.Diagnostics {
			target := capture.Path
			if raw.URI != "" {
				target = lsp.URIToPath(raw.URI)
			}

			d := Diagnostic{
				File:     target,
				Range:    raw.Range,
				Severity: raw.Severity,
				Code:     string(raw.Code),
				Source:   raw.Source,
				Message:  raw.Message,
			}
			if !a.keep(d) {
				continue
			}
			if _, dup := seen[d.key()]; dup {
				continue
			}
			seen[d.key()] = struct{}{}

			fr := resultFor(target, false)
			fr.Diagnostics = append(fr.Diagnostics, d)
		}
	}

	requested := make([]FileResult, 0, len(captures))
	var extra []FileResult
	for _, path := range order {
		fr := byFile[path]
		if fr.Requested {
			requested = append(requested, *fr)
		} else {
			extra = append(extra, *fr)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i].Path < extra[j].Path })
	return append(requested, extra...)
}

// keep applies the line filter. Synthetic format findings always pass:
// a whole-file property has no meaningful line to filter on. When a
// filter is active, diagnostics with neither source nor code (clangd's
// include-chain chatter) are dropped outright.
func (a *Aggregator) keep(d Diagnostic) bool {
	if a.Filter.Empty() {
		return true
	}
	if d.Source == SourceFormat {
		return true
	}
	if d.Source == "" && d.Code == "" {
		return false
	}
	return a.Filter.PassesRange(d.File, d.Range.Start.Line+1, d.Range.End.Line+1)
}
