// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"

	"clangd-tidy/internal/linefilter"
)

// linefilterFromStdin parses the unified diff on stdin into a line
// filter plus the list of changed files. Refuses to read from a
// terminal so an accidental bare invocation fails fast instead of
// hanging on input.
func linefilterFromStdin() (*linefilter.Filter, []string, error) {
	if isatty.IsTerminal(os.Stdin.Fd()) {
		return nil, nil, fmt.Errorf("expected a unified diff on stdin (try: git diff -U0 | clangd-tidy-diff)")
	}
	return linefilter.FromUnifiedDiff(os.Stdin)
}
