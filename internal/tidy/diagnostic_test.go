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
	"testing"

	"clangd-tidy/internal/lsp"
)

func TestParseSeverity(t *testing.T) {
	cases := map[string]lsp.DiagnosticSeverity{
		"error":   lsp.SeverityError,
		"Error":   lsp.SeverityError,
		"warn":    lsp.SeverityWarning,
		"warning": lsp.SeverityWarning,
		"info":    lsp.SeverityInformation,
		"hint":    lsp.SeverityHint,
	}
	for name, want := range cases {
		got, err := ParseSeverity(name)
		if err != nil {
			t.Errorf("ParseSeverity(%q): %v", name, err)
			continue
		}
		if got != want {
			t.Errorf("ParseSeverity(%q) = %v, want %v", name, got, want)
		}
	}

	if _, err := ParseSeverity("critical"); err == nil {
		t.Error("expected error for unknown severity")
	}
}

func TestMeetsThreshold(t *testing.T) {
	t.Run("lower values are more severe", func(t *testing.T) {
		if !MeetsThreshold(lsp.SeverityError, lsp.SeverityWarning) {
			t.Error("error should meet a warning threshold")
		}
		if MeetsThreshold(lsp.SeverityHint, lsp.SeverityWarning) {
			t.Error("hint should not meet a warning threshold")
		}
	})

	t.Run("threshold is inclusive", func(t *testing.T) {
		if !MeetsThreshold(lsp.SeverityWarning, lsp.SeverityWarning) {
			t.Error("warning should meet a warning threshold")
		}
	})

	t.Run("zero severity never fails a run", func(t *testing.T) {
		if MeetsThreshold(0, lsp.SeverityHint) {
			t.Error("absent severity should not meet any threshold")
		}
	})
}

func TestHasFormatViolation(t *testing.T) {
	t.Run("any violating file fails", func(t *testing.T) {
		results := []FileResult{
			{Path: "/a.cc"},
			{Path: "/b.cc", FormatViolation: true},
		}
		if !HasFormatViolation(results) {
			t.Error("violation in one file should fail the run")
		}
		if HasFormatViolation(results[:1]) {
			t.Error("clean results should not fail")
		}
	})

	t.Run("independent of the severity threshold", func(t *testing.T) {
		// The synthetic format finding is a Warning; the run must still
		// fail under --fail-on-severity=error when -f is set.
		results := []FileResult{{
			Path:            "/a.cc",
			FormatViolation: true,
			Diagnostics: []Diagnostic{{
				Severity: lsp.SeverityWarning,
				Source:   SourceFormat,
				Code:     "clang-format",
			}},
		}}
		if MeetsThreshold(WorstSeverity(results), lsp.SeverityError) {
			t.Fatal("warning should not meet an error threshold")
		}
		if !HasFormatViolation(results) {
			t.Error("format violation must fail the run on its own")
		}
	})
}

func TestWorstSeverity(t *testing.T) {
	results := []FileResult{
		{Path: "/a.cc", Diagnostics: []Diagnostic{
			{Severity: lsp.SeverityHint},
			{Severity: lsp.SeverityWarning},
		}},
		{Path: "/b.cc", Diagnostics: []Diagnostic{
			{Severity: 0}, // no severity reported
		}},
	}

	if got := WorstSeverity(results); got != lsp.SeverityWarning {
		t.Errorf("WorstSeverity = %v, want warning", got)
	}

	if got := WorstSeverity(nil); got != 0 {
		t.Errorf("WorstSeverity(nil) = %v, want 0", got)
	}
}
