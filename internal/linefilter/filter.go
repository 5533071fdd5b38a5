// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package linefilter restricts diagnostic reporting to configured line
// ranges, typically the lines touched by a diff.
package linefilter

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
)

// LineRange is a closed, 1-based interval of source lines.
type LineRange struct {
	First int
	Last  int
}

// Contains reports whether line falls inside the range.
func (r LineRange) Contains(line int) bool {
	return line >= r.First && line <= r.Last
}

// Overlaps reports whether the closed interval [first, last] intersects
// the range.
func (r LineRange) Overlaps(first, last int) bool {
	return first <= r.Last && last >= r.First
}

// Filter maps file name suffixes to the line ranges that remain visible.
//
// Description:
//
//	A nil Filter, or one with no entries, passes everything. For paths
//	that match an entry, a diagnostic survives only when its line falls
//	inside one of the entry's ranges; an entry with zero ranges suppresses
//	the whole file. Paths matching no entry pass untouched, so a filter
//	built from a diff silences nothing outside the files it names.
//
//	Entry names match by path suffix, the same convention clang-tidy's
//	--line-filter uses, so "src/a.cc" matches both "src/a.cc" and
//	"/repo/src/a.cc".
type Filter struct {
	entries map[string][]LineRange
}

// New returns an empty filter; use Add to populate it.
func New() *Filter {
	return &Filter{entries: make(map[string][]LineRange)}
}

// Add records ranges for name, merging with any ranges already present.
// Adding a name with no ranges registers it for full suppression unless
// ranges arrive later.
func (f *Filter) Add(name string, ranges ...LineRange) {
	f.entries[name] = append(f.entries[name], ranges...)
}

// Empty reports whether the filter has no entries and therefore passes
// every diagnostic.
func (f *Filter) Empty() bool {
	return f == nil || len(f.entries) == 0
}

// Passes reports whether a diagnostic at the given 1-based line of path
// should be kept.
func (f *Filter) Passes(path string, line int) bool {
	return f.PassesRange(path, line, line)
}

// PassesRange reports whether a diagnostic spanning the closed 1-based
// interval [first, last] of path should be kept. A multi-line
// diagnostic survives when any of its lines falls inside a configured
// range, so a finding that merely straddles a changed hunk still
// reports.
func (f *Filter) PassesRange(path string, first, last int) bool {
	if f.Empty() {
		return true
	}
	ranges, ok := f.lookup(path)
	if !ok {
		return true
	}
	for _, r := range ranges {
		if r.Overlaps(first, last) {
			return true
		}
	}
	return false
}

// Files returns the entry names in sorted order.
func (f *Filter) Files() []string {
	if f.Empty() {
		return nil
	}
	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (f *Filter) lookup(path string) ([]LineRange, bool) {
	if ranges, ok := f.entries[path]; ok {
		return ranges, true
	}
	for name, ranges := range f.entries {
		if strings.HasSuffix(path, name) {
			return ranges, true
		}
	}
	return nil, false
}

// ============================================================================
// clang-tidy --line-filter compatibility
// ============================================================================

type clangTidyEntry struct {
	Name  string   `json:"name"`
	Lines [][2]int `json:"lines"`
}

// ParseClangTidy builds a Filter from clang-tidy's --line-filter JSON,
// e.g. [{"name":"file1.cpp","lines":[[1,3],[5,7]]},{"name":".h"}].
//
// An entry without a lines array means "show everything in this file"; in
// clang-tidy that is expressed implicitly, here it becomes an explicit
// full-range entry.
func ParseClangTidy(raw string) (*Filter, error) {
	var entries []clangTidyEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("parse line filter: %w", err)
	}
	f := New()
	for _, e := range entries {
		if e.Name == "" {
			return nil, fmt.Errorf("parse line filter: entry without a name")
		}
		if len(e.Lines) == 0 {
			f.Add(e.Name, LineRange{First: 1, Last: math.MaxInt})
			continue
		}
		for _, pair := range e.Lines {
			if pair[0] > pair[1] {
				return nil, fmt.Errorf("parse line filter: %s: inverted range [%d,%d]", e.Name, pair[0], pair[1])
			}
			f.Add(e.Name, LineRange{First: pair[0], Last: pair[1]})
		}
	}
	return f, nil
}
