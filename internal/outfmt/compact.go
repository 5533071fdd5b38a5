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
	"strings"

	"clangd-tidy/internal/tidy"
)

// Compact renders diagnostics as dense plain text, one banner per file:
//
//	----- src/widget.cc -----
//
//	- line 14, col 3: clang-tidy Warning [readability-magic-numbers]
//	3 is a magic number
type Compact struct{}

// Format writes the compact rendering. Files without reportable
// diagnostics are omitted entirely.
func (Compact) Format(w io.Writer, results []tidy.FileResult) error {
	var blocks []string
	for _, fr := range sortByPath(results) {
		var lines []string
		for _, d := range fr.Diagnostics {
			if !reportable(d) {
				continue
			}
			var extra strings.Builder
			if d.Source != "" {
				extra.WriteString(" " + d.Source)
			}
			if d.Severity != 0 {
				extra.WriteString(" " + d.Severity.String())
			}
			if d.Code != "" {
				extra.WriteString(" [" + d.Code + "]")
			}
			lines = append(lines, fmt.Sprintf("- line %d, col %d:%s\n%s",
				d.Range.Start.Line+1, d.Range.Start.Character+1, extra.String(), d.Message))
		}
		if len(lines) == 0 {
			continue
		}
		head := fmt.Sprintf("----- %s -----", displayPath(fr.Path))
		blocks = append(blocks, head+"\n\n"+strings.Join(lines, "\n\n"))
	}
	if len(blocks) == 0 {
		return nil
	}
	_, err := fmt.Fprintln(w, strings.Join(blocks, "\n\n\n"))
	return err
}
