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
	"context"
	"encoding/json"
	"fmt"
)

// =============================================================================
// DOCUMENT OPERATIONS
// =============================================================================

// AllocVersion reserves the next version number for a document path.
//
// Description:
//
//	Versions are allocated per path and never reused within a session, so
//	a re-open (repeated run, format-check pass) always carries a fresh
//	version. Callers that need to correlate a publishDiagnostics
//	notification with an open must allocate the version first, register
//	their waiter under (path, version), and only then call DidOpen.
//
// Thread Safety:
//
//	Safe for concurrent use.
func (s *Server) AllocVersion(path string) int {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	s.versions[path]++
	return s.versions[path]
}

// DidOpen sends textDocument/didOpen for a document.
//
// Inputs:
//
//	ctx - Unused for the wire send (didOpen is a notification) but kept
//	      for symmetry and early cancellation
//	path - Absolute file path
//	text - Current document content
//	version - Version obtained from AllocVersion
//
// Outputs:
//
//	error - Non-nil if the session is not ready or the send failed
func (s *Server) DidOpen(ctx context.Context, path, text string, version int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.Notify("textDocument/didOpen", DidOpenTextDocumentParams{
		TextDocument: TextDocumentItem{
			URI:        PathToURI(path),
			LanguageID: "cpp",
			Version:    version,
			Text:       text,
		},
	})
	if err != nil {
		return fmt.Errorf("didOpen %s: %w", path, err)
	}

	s.docMu.Lock()
	s.open[path] = true
	s.docMu.Unlock()
	recordDocumentOpen(ctx)
	return nil
}

// DidClose sends textDocument/didClose for a document, releasing the
// server-side resources it holds. Closing a document that is not open is
// a no-op.
func (s *Server) DidClose(path string) error {
	s.docMu.Lock()
	wasOpen := s.open[path]
	delete(s.open, path)
	s.docMu.Unlock()
	if !wasOpen {
		return nil
	}

	err := s.Notify("textDocument/didClose", DidCloseTextDocumentParams{
		TextDocument: TextDocumentIdentifier{URI: PathToURI(path)},
	})
	if err != nil {
		return fmt.Errorf("didClose %s: %w", path, err)
	}
	return nil
}

// OpenDocuments returns the paths currently open on the server.
func (s *Server) OpenDocuments() []string {
	s.docMu.Lock()
	defer s.docMu.Unlock()
	paths := make([]string, 0, len(s.open))
	for p := range s.open {
		paths = append(paths, p)
	}
	return paths
}

// Formatting requests the formatted rendition of a document.
//
// Description:
//
//	Sends textDocument/formatting and returns the edits clangd proposes.
//	An empty result means the document already conforms to the project
//	.clang-format style.
//
// Inputs:
//
//	ctx - Context for cancellation and timeout
//	path - Absolute file path (must be open)
//
// Outputs:
//
//	[]TextEdit - Proposed edits, nil if already formatted
//	error - Non-nil if the request failed
func (s *Server) Formatting(ctx context.Context, path string) ([]TextEdit, error) {
	resp, err := s.Request(ctx, "textDocument/formatting", DocumentFormattingParams{
		TextDocument: TextDocumentIdentifier{URI: PathToURI(path)},
		Options:      FormattingOptions{TabSize: 4, InsertSpaces: true},
	})
	if err != nil {
		return nil, err
	}

	if len(resp.Result) == 0 || string(resp.Result) == "null" {
		return nil, nil
	}

	var edits []TextEdit
	if err := json.Unmarshal(resp.Result, &edits); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return edits, nil
}
