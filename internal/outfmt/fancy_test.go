// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package outfmt

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clangd-tidy/internal/lsp"
	"clangd-tidy/internal/tidy"
)

const fancySource = `#include "a.h"

int main() {
    int* p = 0;
    return 0;
}
`

func fancyResult(t *testing.T) []tidy.FileResult {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.cc")
	if err := os.WriteFile(path, []byte(fancySource), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return []tidy.FileResult{{
		Path:      path,
		Requested: true,
		Diagnostics: []tidy.Diagnostic{{
			File:     path,
			Range:    lsp.Range{Start: lsp.Position{Line: 3, Character: 13}, End: lsp.Position{Line: 3, Character: 14}},
			Severity: lsp.SeverityWarning,
			Code:     "modernize-use-nullptr",
			Source:   "clang-tidy",
			Message:  "use nullptr (fix available)",
		}},
	}}
}

func TestFancy_Format(t *testing.T) {
	var buf bytes.Buffer
	f := NewFancy(1, false)
	if err := f.Format(&buf, fancyResult(t)); err != nil {
		t.Fatalf("Format: %v", err)
	}
	out := buf.String()

	t.Run("renders a clang style header", func(t *testing.T) {
		if !strings.Contains(out, ":4:14: Warning: use nullptr [modernize-use-nullptr]") {
			t.Errorf("missing header in:\n%s", out)
		}
	})

	t.Run("strips the fix available suffix", func(t *testing.T) {
		if strings.Contains(out, "fix available") {
			t.Errorf("suffix not stripped in:\n%s", out)
		}
	})

	t.Run("shows the offending line with a caret", func(t *testing.T) {
		if !strings.Contains(out, "int* p = 0;") {
			t.Errorf("missing source line in:\n%s", out)
		}
		if !strings.Contains(out, "^") {
			t.Errorf("missing caret in:\n%s", out)
		}
	})

	t.Run("includes context lines", func(t *testing.T) {
		if !strings.Contains(out, "int main() {") {
			t.Errorf("missing context line in:\n%s", out)
		}
	})

	t.Run("numbers the gutter", func(t *testing.T) {
		if !strings.Contains(out, "4") {
			t.Errorf("missing line number in:\n%s", out)
		}
	})
}

func TestFancy_SkipsDiagnosticsWithoutCode(t *testing.T) {
	results := []tidy.FileResult{{
		Path: "/w/a.cc",
		Diagnostics: []tidy.Diagnostic{{
			File:    "/w/a.cc",
			Range:   lsp.Range{Start: lsp.Position{Line: 0}, End: lsp.Position{Line: 0, Character: 1}},
			Source:  "clang-tidy",
			Message: "no code here",
		}},
	}}

	var buf bytes.Buffer
	if err := NewFancy(0, false).Format(&buf, results); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestFancy_UnreadableFileStillReports(t *testing.T) {
	results := []tidy.FileResult{{
		Path: "/does/not/exist.cc",
		Diagnostics: []tidy.Diagnostic{{
			File:     "/does/not/exist.cc",
			Range:    lsp.Range{Start: lsp.Position{Line: 1, Character: 0}, End: lsp.Position{Line: 1, Character: 2}},
			Severity: lsp.SeverityError,
			Code:     "io-error",
			Source:   "clangd-tidy",
			Message:  "cannot read file",
		}},
	}}

	var buf bytes.Buffer
	if err := NewFancy(2, false).Format(&buf, results); err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(buf.String(), "cannot read file") {
		t.Errorf("missing header for unreadable file in:\n%s", buf.String())
	}
}
