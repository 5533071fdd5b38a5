// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package lsp

import (
	"encoding/json"
	"testing"
)

func TestDiagnosticCode_Unmarshal(t *testing.T) {
	t.Run("accepts string codes", func(t *testing.T) {
		var d Diagnostic
		raw := `{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"message":"x","code":"readability-magic-numbers"}`
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if d.Code != "readability-magic-numbers" {
			t.Errorf("code = %q", d.Code)
		}
	})

	t.Run("accepts numeric codes", func(t *testing.T) {
		var d Diagnostic
		raw := `{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"message":"x","code":42}`
		if err := json.Unmarshal([]byte(raw), &d); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if d.Code != "42" {
			t.Errorf("code = %q", d.Code)
		}
	})

	t.Run("accepts null and absent codes", func(t *testing.T) {
		for _, raw := range []string{
			`{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"message":"x","code":null}`,
			`{"range":{"start":{"line":0,"character":0},"end":{"line":0,"character":1}},"message":"x"}`,
		} {
			var d Diagnostic
			if err := json.Unmarshal([]byte(raw), &d); err != nil {
				t.Fatalf("unmarshal %s: %v", raw, err)
			}
			if d.Code != "" {
				t.Errorf("code = %q, want empty", d.Code)
			}
		}
	})
}

func TestPublishDiagnosticsParams_Unmarshal(t *testing.T) {
	raw := `{
		"uri": "file:///work/src/a.cc",
		"version": 3,
		"diagnostics": [
			{
				"range": {"start":{"line":9,"character":4},"end":{"line":9,"character":12}},
				"severity": 2,
				"code": "modernize-use-nullptr",
				"source": "clang-tidy",
				"message": "use nullptr",
				"uri": "file:///work/include/b.h"
			}
		]
	}`

	var params PublishDiagnosticsParams
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if params.Version == nil || *params.Version != 3 {
		t.Errorf("version = %v, want 3", params.Version)
	}
	if len(params.Diagnostics) != 1 {
		t.Fatalf("diagnostics = %d, want 1", len(params.Diagnostics))
	}
	d := params.Diagnostics[0]
	if d.Severity != SeverityWarning {
		t.Errorf("severity = %v", d.Severity)
	}
	if d.URI != "file:///work/include/b.h" {
		t.Errorf("uri = %q", d.URI)
	}
}

func TestPublishDiagnosticsParams_MissingVersion(t *testing.T) {
	raw := `{"uri":"file:///work/src/a.cc","diagnostics":[]}`

	var params PublishDiagnosticsParams
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if params.Version != nil {
		t.Errorf("version = %v, want nil", params.Version)
	}
}

func TestDiagnosticSeverity_String(t *testing.T) {
	cases := map[DiagnosticSeverity]string{
		SeverityError:          "Error",
		SeverityWarning:        "Warning",
		SeverityInformation:    "Information",
		SeverityHint:           "Hint",
		DiagnosticSeverity(42): "Unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Errorf("Severity(%d).String() = %q, want %q", s, got, want)
		}
	}
}

func TestURIConversion(t *testing.T) {
	t.Run("round trips absolute paths", func(t *testing.T) {
		path := "/work/src/widget factory.cc"
		uri := PathToURI(path)
		if got := URIToPath(uri); got != path {
			t.Errorf("round trip = %q, want %q", got, path)
		}
	})

	t.Run("encodes special characters", func(t *testing.T) {
		uri := PathToURI("/work/a b.cc")
		if uri != "file:///work/a%20b.cc" {
			t.Errorf("uri = %q", uri)
		}
	})

	t.Run("decodes plain URIs", func(t *testing.T) {
		if got := URIToPath("file:///work/a.cc"); got != "/work/a.cc" {
			t.Errorf("path = %q", got)
		}
	})
}
