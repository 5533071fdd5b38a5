// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package lsp drives a clangd subprocess over the Language Server Protocol.
//
// The package owns the subprocess lifecycle and the JSON-RPC plumbing; it
// performs no interpretation of diagnostics beyond decoding the wire types.
//
// # Components
//
//   - Protocol: Content-Length framed JSON-RPC over the process stdio,
//     with request/response correlation and notification routing
//   - Server: the clangd session (spawn, initialize handshake, document
//     table, orderly shutdown)
//
// # Thread Safety
//
// All exported types are safe for concurrent use after Start.
//
// # Example
//
//	srv := lsp.NewServer(lsp.DefaultConfig(), rootPath)
//	if err := srv.Start(ctx); err != nil { ... }
//	defer srv.Shutdown(context.Background())
//
//	srv.SetNotificationHandler(dispatch.Handle)
//	v := srv.AllocVersion(path)
//	_ = srv.DidOpen(ctx, path, text, v)
package lsp
