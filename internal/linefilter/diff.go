// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package linefilter

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// FromUnifiedDiff builds a filter covering exactly the lines a unified
// diff adds or modifies, plus the list of post-image file paths the diff
// touches, in diff order.
//
// Description:
//
//	Deleted files (post-image /dev/null) are skipped. Hunks that only
//	remove lines contribute no range. Paths are taken from the post-image
//	name with any "b/" strip prefix removed, so they match what a caller
//	would pass to the analyzer.
//
// Errors:
//
//   - Returns a wrapped parse error when the input is not a unified diff.
func FromUnifiedDiff(r io.Reader) (*Filter, []string, error) {
	reader := diff.NewMultiFileDiffReader(r)

	f := New()
	var files []string
	for {
		fd, err := reader.ReadFile()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("parse unified diff: %w", err)
		}

		name := stripDiffPrefix(fd.NewName)
		if name == "" || name == "/dev/null" {
			continue
		}

		files = append(files, name)
		for _, h := range fd.Hunks {
			if h.NewLines == 0 {
				continue
			}
			f.Add(name, LineRange{
				First: int(h.NewStartLine),
				Last:  int(h.NewStartLine + h.NewLines - 1),
			})
		}
		if _, ok := f.entries[name]; !ok {
			// Pure deletions still register the file so nothing
			// unrelated in it gets reported.
			f.entries[name] = nil
		}
	}
	return f, files, nil
}

func stripDiffPrefix(name string) string {
	if rest, ok := strings.CutPrefix(name, "b/"); ok {
		return rest
	}
	return name
}
