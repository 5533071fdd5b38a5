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
	"strconv"
)

// =============================================================================
// POSITION & RANGE TYPES
// =============================================================================

// Position represents a position in a text document.
// Line and character are 0-indexed per LSP specification.
type Position struct {
	// Line is the 0-indexed line number.
	Line int `json:"line"`

	// Character is the 0-indexed character offset within the line.
	Character int `json:"character"`
}

// Range represents a range in a text document.
type Range struct {
	// Start is the inclusive start position.
	Start Position `json:"start"`

	// End is the exclusive end position.
	End Position `json:"end"`
}

// =============================================================================
// DOCUMENT IDENTIFIERS
// =============================================================================

// TextDocumentIdentifier identifies a text document by URI.
type TextDocumentIdentifier struct {
	// URI is the document's URI.
	URI string `json:"uri"`
}

// TextDocumentItem represents a text document with its content.
type TextDocumentItem struct {
	// URI is the document's URI.
	URI string `json:"uri"`

	// LanguageID is the language identifier. clangd expects "cpp" for
	// all C-family translation units.
	LanguageID string `json:"languageId"`

	// Version is the version number of this document.
	Version int `json:"version"`

	// Text is the content of the document.
	Text string `json:"text"`
}

// =============================================================================
// REQUEST PARAMETER TYPES
// =============================================================================

// DidOpenTextDocumentParams contains params for textDocument/didOpen.
type DidOpenTextDocumentParams struct {
	// TextDocument is the document that was opened.
	TextDocument TextDocumentItem `json:"textDocument"`
}

// DidCloseTextDocumentParams contains params for textDocument/didClose.
type DidCloseTextDocumentParams struct {
	// TextDocument is the document that was closed.
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// FormattingOptions holds the settings sent with a textDocument/formatting
// request. clangd ignores these in favor of the project .clang-format file,
// but the fields are mandatory per LSP.
type FormattingOptions struct {
	// TabSize is the size of a tab in spaces.
	TabSize int `json:"tabSize"`

	// InsertSpaces is whether to prefer spaces over tabs.
	InsertSpaces bool `json:"insertSpaces"`
}

// DocumentFormattingParams contains params for textDocument/formatting.
type DocumentFormattingParams struct {
	// TextDocument is the document to format.
	TextDocument TextDocumentIdentifier `json:"textDocument"`

	// Options holds the formatting settings.
	Options FormattingOptions `json:"options"`
}

// TextEdit represents a single text change proposed by the server.
type TextEdit struct {
	// Range is the range to replace.
	Range Range `json:"range"`

	// NewText is the replacement text.
	NewText string `json:"newText"`
}

// =============================================================================
// DIAGNOSTIC TYPES
// =============================================================================

// DiagnosticSeverity is the severity tier of a diagnostic.
// Lower values are more severe per LSP specification.
type DiagnosticSeverity int

// Diagnostic severities as defined by the LSP specification.
const (
	SeverityError       DiagnosticSeverity = 1
	SeverityWarning     DiagnosticSeverity = 2
	SeverityInformation DiagnosticSeverity = 3
	SeverityHint        DiagnosticSeverity = 4
)

// String returns a human-readable severity name.
func (s DiagnosticSeverity) String() string {
	switch s {
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	case SeverityInformation:
		return "Information"
	case SeverityHint:
		return "Hint"
	}
	return "Unknown"
}

// DiagnosticCode is a diagnostic identifier. The wire value may be a string
// (clang-tidy check name), a number (compiler diagnostic ID), or absent;
// all are normalized to a string.
type DiagnosticCode string

// UnmarshalJSON accepts string, number, or null code values.
func (c *DiagnosticCode) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = DiagnosticCode(s)
		return nil
	}
	var n int64
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	*c = DiagnosticCode(strconv.FormatInt(n, 10))
	return nil
}

// CodeDescription points at documentation for a diagnostic code.
type CodeDescription struct {
	// Href is the documentation URL.
	Href string `json:"href"`
}

// RelatedLocation is a location referenced by a diagnostic.
type RelatedLocation struct {
	// URI is the document URI.
	URI string `json:"uri"`

	// Range is the range within the document.
	Range Range `json:"range"`
}

// DiagnosticRelatedInformation is a related finding (e.g. a note) attached
// to a diagnostic.
type DiagnosticRelatedInformation struct {
	// Location is where the related finding points.
	Location RelatedLocation `json:"location"`

	// Message is the message for the related location.
	Message string `json:"message"`
}

// Diagnostic represents a single finding reported by the server.
type Diagnostic struct {
	// Range is the source range the diagnostic points at.
	Range Range `json:"range"`

	// Severity is the severity tier, 0 if the server omitted it.
	Severity DiagnosticSeverity `json:"severity,omitempty"`

	// Code is the diagnostic identifier, empty if absent.
	Code DiagnosticCode `json:"code,omitempty"`

	// CodeDescription is optional documentation for the code.
	CodeDescription *CodeDescription `json:"codeDescription,omitempty"`

	// Source names the producer, e.g. "clang-tidy" or "clang".
	Source string `json:"source,omitempty"`

	// Message is the diagnostic text.
	Message string `json:"message"`

	// Tags are additional metadata about the diagnostic.
	Tags []int `json:"tags,omitempty"`

	// RelatedInformation holds related locations (e.g. notes).
	RelatedInformation []DiagnosticRelatedInformation `json:"relatedInformation,omitempty"`

	// URI is the file the diagnostic actually points at. Not part of the
	// LSP specification, but clangd attaches it to diagnostics that belong
	// to a header included by the opened translation unit.
	URI string `json:"uri,omitempty"`
}

// PublishDiagnosticsParams contains params for the
// textDocument/publishDiagnostics notification pushed by the server.
type PublishDiagnosticsParams struct {
	// URI is the document the diagnostics were computed for.
	URI string `json:"uri"`

	// Version is the document version the diagnostics apply to. The server
	// may push stale notifications for earlier versions; nil means the
	// server did not report a version.
	Version *int `json:"version,omitempty"`

	// Diagnostics is the complete diagnostic set for this version.
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// =============================================================================
// INITIALIZE TYPES
// =============================================================================

// InitializeParams contains initialization parameters.
type InitializeParams struct {
	// ProcessID is the process ID of the parent process.
	ProcessID int `json:"processId"`

	// RootURI is the root URI of the workspace.
	RootURI string `json:"rootUri"`

	// Capabilities describes what the client supports.
	Capabilities ClientCapabilities `json:"capabilities"`

	// InitializationOptions are custom initialization options.
	InitializationOptions interface{} `json:"initializationOptions,omitempty"`

	// WorkspaceFolders are the workspace folders if supported.
	WorkspaceFolders []WorkspaceFolder `json:"workspaceFolders,omitempty"`
}

// WorkspaceFolder represents a workspace folder.
type WorkspaceFolder struct {
	// URI is the folder URI.
	URI string `json:"uri"`

	// Name is the name of the folder.
	Name string `json:"name"`
}

// ClientCapabilities describes what the client supports.
type ClientCapabilities struct {
	// TextDocument describes text document capabilities.
	TextDocument TextDocumentClientCapabilities `json:"textDocument,omitempty"`
}

// TextDocumentClientCapabilities describes text document capabilities.
type TextDocumentClientCapabilities struct {
	// PublishDiagnostics describes diagnostic reporting capabilities.
	PublishDiagnostics *PublishDiagnosticsClientCapabilities `json:"publishDiagnostics,omitempty"`

	// Formatting describes document formatting support.
	Formatting *DocumentFormattingClientCapabilities `json:"formatting,omitempty"`
}

// PublishDiagnosticsClientCapabilities describes diagnostic capabilities.
type PublishDiagnosticsClientCapabilities struct {
	// VersionSupport indicates the client interprets the version property
	// of publishDiagnostics notifications.
	VersionSupport bool `json:"versionSupport,omitempty"`

	// CodeDescriptionSupport indicates codeDescription is supported.
	CodeDescriptionSupport bool `json:"codeDescriptionSupport,omitempty"`
}

// DocumentFormattingClientCapabilities describes formatting support.
type DocumentFormattingClientCapabilities struct {
	// DynamicRegistration indicates dynamic registration is supported.
	DynamicRegistration bool `json:"dynamicRegistration,omitempty"`
}

// InitializeResult contains the server's response to initialize.
type InitializeResult struct {
	// Capabilities describes what the server supports.
	Capabilities ServerCapabilities `json:"capabilities"`

	// ServerInfo contains optional server information.
	ServerInfo *ServerInfo `json:"serverInfo,omitempty"`
}

// ServerInfo contains information about the server.
type ServerInfo struct {
	// Name is the server's name.
	Name string `json:"name"`

	// Version is the server's version.
	Version string `json:"version,omitempty"`
}

// ServerCapabilities describes what the server supports.
type ServerCapabilities struct {
	// TextDocumentSync describes how documents are synced.
	TextDocumentSync interface{} `json:"textDocumentSync,omitempty"`

	// DocumentFormattingProvider indicates textDocument/formatting is
	// supported.
	DocumentFormattingProvider interface{} `json:"documentFormattingProvider,omitempty"`
}

// HasDocumentFormattingProvider returns true if formatting is supported.
func (c ServerCapabilities) HasDocumentFormattingProvider() bool {
	return c.DocumentFormattingProvider != nil && c.DocumentFormattingProvider != false
}
