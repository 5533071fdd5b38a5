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
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"clangd-tidy/internal/lsp"
	"clangd-tidy/internal/tidy"
)

// GitHub renders diagnostics as GitHub Actions workflow commands. Each
// diagnostic becomes an ::error/::warning/::notice annotation attached
// to the file and range, collapsed inside a log group.
type GitHub struct {
	// GitRoot anchors annotation paths; GitHub resolves them relative
	// to the repository root, not the runner's working directory.
	GitRoot string
}

func githubCommand(s lsp.DiagnosticSeverity) string {
	switch s {
	case lsp.SeverityError:
		return "error"
	case lsp.SeverityWarning:
		return "warning"
	}
	return "notice"
}

// Format writes the workflow commands. The group markers are emitted
// even when there is nothing to annotate, so CI logs always show the
// section.
func (g GitHub) Format(w io.Writer, results []tidy.FileResult) error {
	var lines []string
	lines = append(lines, "::group::{workflow commands}")
	for _, fr := range sortByPath(results) {
		for _, d := range fr.Diagnostics {
			if !reportable(d) {
				continue
			}
			var title strings.Builder
			if d.Source != "" {
				title.WriteString(d.Source)
			}
			if d.Severity != 0 {
				title.WriteString(" " + d.Severity.String())
			}
			if d.Code != "" {
				title.WriteString(" [" + d.Code + "]")
			}

			severity := d.Severity
			if severity == 0 {
				severity = lsp.SeverityInformation
			}

			path := fr.Path
			if g.GitRoot != "" {
				if rel, err := filepath.Rel(g.GitRoot, path); err == nil {
					path = rel
				}
			}
			lines = append(lines, fmt.Sprintf(
				"::%s file=%s,line=%d,endLine=%d,col=%d,endCol=%d,title=%s::%s",
				githubCommand(severity), path,
				d.Range.Start.Line+1, d.Range.End.Line+1,
				d.Range.Start.Character+1, d.Range.End.Character+1,
				title.String(), d.Message))
		}
	}
	lines = append(lines, "::endgroup::")
	_, err := fmt.Fprintln(w, strings.Join(lines, "\n"))
	return err
}
