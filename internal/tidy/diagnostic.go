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
	"fmt"
	"strings"

	"clangd-tidy/internal/lsp"
)

// Sources for diagnostics synthesized by this tool rather than clangd.
const (
	// SourceFormat marks clang-format violations.
	SourceFormat = "clang-format"

	// SourceSelf marks degraded-result markers (timeouts, I/O errors).
	SourceSelf = "clangd-tidy"
)

// =============================================================================
// VALUE TYPES
// =============================================================================

// Diagnostic is a single located finding, immutable once produced.
//
// The range is kept 0-indexed as the server reported it; output layers
// convert to 1-based on render.
type Diagnostic struct {
	// File is the absolute path the diagnostic points at. For findings
	// inside an included header this differs from the file that was
	// opened to trigger the analysis.
	File string

	// Range is the 0-indexed source range.
	Range lsp.Range

	// Severity is the severity tier, 0 if the server omitted it.
	Severity lsp.DiagnosticSeverity

	// Code is the diagnostic identifier, empty if absent.
	Code string

	// Source names the producer, e.g. "clang-tidy", "clang",
	// "clang-format".
	Source string

	// Message is the diagnostic text. clang-tidy appends note locations
	// as extra lines; they are preserved verbatim.
	Message string
}

// key returns the deduplication identity: two diagnostics equal on
// (file, range, code, message) are one finding reported twice.
func (d Diagnostic) key() string {
	return fmt.Sprintf("%s\x00%d:%d-%d:%d\x00%s\x00%s",
		d.File,
		d.Range.Start.Line, d.Range.Start.Character,
		d.Range.End.Line, d.Range.End.Character,
		d.Code, d.Message,
	)
}

// FileResult holds the final diagnostics attributed to one file.
// Never mutated after the run completes.
type FileResult struct {
	// Path is the absolute file path. Either a requested file or a
	// header implicated by one.
	Path string

	// Diagnostics in the server's reported order, filtered and deduped.
	Diagnostics []Diagnostic

	// FormatViolation is set when the format check proposed edits.
	FormatViolation bool

	// Requested is false for files that were never opened but received
	// diagnostics while a requested file was analyzed.
	Requested bool
}

// WorstSeverity returns the most severe diagnostic tier across all
// results, 0 when there are no diagnostics with a severity.
func WorstSeverity(results []FileResult) lsp.DiagnosticSeverity {
	var worst lsp.DiagnosticSeverity
	for _, fr := range results {
		for _, d := range fr.Diagnostics {
			if d.Severity == 0 {
				continue
			}
			if worst == 0 || d.Severity < worst {
				worst = d.Severity
			}
		}
	}
	return worst
}

// HasFormatViolation reports whether any file failed the format check.
// Format violations fail the run independently of the severity
// threshold when the check is enabled.
func HasFormatViolation(results []FileResult) bool {
	for _, fr := range results {
		if fr.FormatViolation {
			return true
		}
	}
	return false
}

// =============================================================================
// SEVERITY PARSING
// =============================================================================

// ParseSeverity maps a CLI severity name to its LSP tier.
//
// Inputs:
//
//	name - One of "error", "warn", "info", "hint"
//
// Outputs:
//
//	lsp.DiagnosticSeverity - The tier
//	error - Non-nil for unknown names
func ParseSeverity(name string) (lsp.DiagnosticSeverity, error) {
	switch strings.ToLower(name) {
	case "error":
		return lsp.SeverityError, nil
	case "warn", "warning":
		return lsp.SeverityWarning, nil
	case "info", "information":
		return lsp.SeverityInformation, nil
	case "hint":
		return lsp.SeverityHint, nil
	}
	return 0, fmt.Errorf("unknown severity %q (want error, warn, info, or hint)", name)
}

// MeetsThreshold reports whether severity s is at least as severe as the
// threshold. Severity values grow less severe, so "at least" means <=.
// A zero severity never meets any threshold.
func MeetsThreshold(s, threshold lsp.DiagnosticSeverity) bool {
	return s != 0 && s <= threshold
}
