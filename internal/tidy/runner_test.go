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
	"os"
	"path/filepath"
	"testing"
)

func TestSelectFiles(t *testing.T) {
	dir := t.TempDir()
	mk := func(name string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte("int x;\n"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
		return path
	}

	cc := mk("a.cc")
	hpp := mk("b.hpp")
	cmake := mk("CMakeLists.txt")
	py := mk("script.py")

	t.Run("keeps only allowlisted extensions", func(t *testing.T) {
		got := SelectFiles([]string{cc, hpp, cmake, py}, nil)
		if len(got) != 2 || got[0] != cc || got[1] != hpp {
			t.Errorf("SelectFiles = %v", got)
		}
	})

	t.Run("accepts extensions with or without a dot", func(t *testing.T) {
		got := SelectFiles([]string{cc, hpp}, []string{".cc"})
		if len(got) != 1 || got[0] != cc {
			t.Errorf("SelectFiles = %v", got)
		}
		got = SelectFiles([]string{cc, hpp}, []string{"hpp"})
		if len(got) != 1 || got[0] != hpp {
			t.Errorf("SelectFiles = %v", got)
		}
	})

	t.Run("skips unreadable files", func(t *testing.T) {
		missing := filepath.Join(dir, "missing.cc")
		got := SelectFiles([]string{missing, cc}, nil)
		if len(got) != 1 || got[0] != cc {
			t.Errorf("SelectFiles = %v", got)
		}
	})

	t.Run("deduplicates while keeping first position", func(t *testing.T) {
		got := SelectFiles([]string{cc, hpp, cc}, nil)
		if len(got) != 2 || got[0] != cc || got[1] != hpp {
			t.Errorf("SelectFiles = %v", got)
		}
	})

	t.Run("returns absolute paths", func(t *testing.T) {
		wd, err := os.Getwd()
		if err != nil {
			t.Fatal(err)
		}
		rel, err := filepath.Rel(wd, cc)
		if err != nil {
			t.Skipf("no relative form for %s: %v", cc, err)
		}
		got := SelectFiles([]string{rel}, nil)
		if len(got) != 1 || !filepath.IsAbs(got[0]) || got[0] != cc {
			t.Errorf("SelectFiles = %v, want [%s]", got, cc)
		}
	})
}
