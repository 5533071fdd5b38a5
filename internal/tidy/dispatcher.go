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
	"encoding/json"
	"log/slog"
	"sync"

	"clangd-tidy/internal/lsp"
)

// methodPublishDiagnostics is the only notification the orchestrator
// consumes; everything else the server pushes is noise here.
const methodPublishDiagnostics = "textDocument/publishDiagnostics"

// waiterKey correlates a pushed diagnostic notification with the job that
// opened the document. Diagnostics carry no request id, so the (path,
// version) pair is the only correlation handle the protocol offers.
type waiterKey struct {
	path    string
	version int
}

// Dispatcher routes publishDiagnostics notifications to per-file waiters.
//
// Description:
//
//	Jobs register a waiter under the (path, version) they are about to
//	open, then block on the returned channel. The server may emit stale
//	notifications for earlier versions of the same path (left over from
//	prior analysis); those, and notifications for paths nobody awaits,
//	are dropped silently rather than failing the run.
//
// Thread Safety:
//
//	Safe for concurrent use. Handle is called from the transport's read
//	loop; Await/Cancel from job goroutines.
type Dispatcher struct {
	mu      sync.Mutex
	waiters map[waiterKey]chan []lsp.Diagnostic
}

// NewDispatcher creates an empty dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		waiters: make(map[waiterKey]chan []lsp.Diagnostic),
	}
}

// Await registers a waiter for the diagnostics of (path, version).
//
// Description:
//
//	Must be called BEFORE the didOpen for this version is sent, or the
//	notification can race past the registration. The returned channel
//	receives exactly one value; the first version-matched notification is
//	treated as authoritative and later ones for the same key are dropped.
//
// Outputs:
//
//	<-chan []lsp.Diagnostic - Receives the diagnostic set once
func (d *Dispatcher) Await(path string, version int) <-chan []lsp.Diagnostic {
	ch := make(chan []lsp.Diagnostic, 1)
	d.mu.Lock()
	d.waiters[waiterKey{path: path, version: version}] = ch
	d.mu.Unlock()
	return ch
}

// Cancel removes a waiter that gave up (timeout, run cancellation).
func (d *Dispatcher) Cancel(path string, version int) {
	d.mu.Lock()
	delete(d.waiters, waiterKey{path: path, version: version})
	d.mu.Unlock()
}

// Pending returns the number of registered waiters.
func (d *Dispatcher) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.waiters)
}

// Handle is the lsp.NotificationHandler feeding this dispatcher.
//
// Description:
//
//	Decodes publishDiagnostics params and delivers them to the waiter
//	registered for that exact (path, version). Notifications without a
//	version cannot be correlated and are dropped. Delivery is
//	non-blocking: each waiter channel is buffered for the single value
//	it will ever receive.
func (d *Dispatcher) Handle(method string, params json.RawMessage) {
	if method != methodPublishDiagnostics {
		return
	}

	var p lsp.PublishDiagnosticsParams
	if err := json.Unmarshal(params, &p); err != nil {
		slog.Warn("malformed publishDiagnostics", slog.Any("error", err))
		return
	}
	if p.Version == nil {
		return
	}

	key := waiterKey{path: lsp.URIToPath(p.URI), version: *p.Version}

	d.mu.Lock()
	ch, ok := d.waiters[key]
	if ok {
		delete(d.waiters, key)
	}
	d.mu.Unlock()

	if !ok {
		// Stale version or an unawaited document. Deliberate drop.
		slog.Debug("dropping unmatched diagnostics",
			slog.String("path", key.path),
			slog.Int("version", key.version),
		)
		return
	}

	ch <- p.Diagnostics
}
