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
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleDiff = `diff --git a/src/a.cc b/src/a.cc
index 1111111..2222222 100644
--- a/src/a.cc
+++ b/src/a.cc
@@ -10,2 +10,3 @@
 int keep();
+int added();
 int also_kept();
diff --git a/src/gone.cc b/src/gone.cc
deleted file mode 100644
index 3333333..0000000
--- a/src/gone.cc
+++ /dev/null
@@ -1,2 +0,0 @@
-int dead();
-int gone();
diff --git a/src/b.cc b/src/b.cc
index 4444444..5555555 100644
--- a/src/b.cc
+++ b/src/b.cc
@@ -4,2 +3,0 @@
-int removed();
-int also_removed();
`

// TestFromUnifiedDiff_Files verifies the post-image file list: diff
// order, b/ prefixes stripped, deletions excluded.
func TestFromUnifiedDiff_Files(t *testing.T) {
	_, files, err := FromUnifiedDiff(strings.NewReader(sampleDiff))
	require.NoError(t, err)

	assert.Equal(t, []string{"src/a.cc", "src/b.cc"}, files)
}

// TestFromUnifiedDiff_HunkCoverage verifies the filter covers exactly
// the post-image lines of each hunk.
func TestFromUnifiedDiff_HunkCoverage(t *testing.T) {
	f, _, err := FromUnifiedDiff(strings.NewReader(sampleDiff))
	require.NoError(t, err)

	for line := 10; line <= 12; line++ {
		assert.True(t, f.Passes("src/a.cc", line), "line %d", line)
	}
	assert.False(t, f.Passes("src/a.cc", 9))
	assert.False(t, f.Passes("src/a.cc", 13))
}

// TestFromUnifiedDiff_PureDeletion verifies a file whose hunks only
// remove lines is fully suppressed, not fully shown.
func TestFromUnifiedDiff_PureDeletion(t *testing.T) {
	f, _, err := FromUnifiedDiff(strings.NewReader(sampleDiff))
	require.NoError(t, err)

	assert.False(t, f.Passes("src/b.cc", 1))
}

// TestFromUnifiedDiff_DeletedFile verifies /dev/null post-images gain no
// entry at all.
func TestFromUnifiedDiff_DeletedFile(t *testing.T) {
	f, files, err := FromUnifiedDiff(strings.NewReader(sampleDiff))
	require.NoError(t, err)

	assert.NotContains(t, files, "src/gone.cc")
	assert.NotContains(t, files, "/dev/null")
	// Unlisted means unfiltered; the file no longer exists, so nothing
	// will be analyzed from it anyway.
	assert.True(t, f.Passes("src/gone.cc", 1))
}

// TestFromUnifiedDiff_NotADiff verifies junk input yields no files.
func TestFromUnifiedDiff_NotADiff(t *testing.T) {
	f, files, err := FromUnifiedDiff(strings.NewReader("not a diff at all\n"))
	if err != nil {
		return // a parse error is equally acceptable
	}
	assert.Empty(t, files)
	assert.True(t, f.Empty())
}
