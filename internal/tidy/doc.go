// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package tidy orchestrates diagnostic collection across a file set.
//
// One clangd session serves the whole run. A bounded pool of per-file jobs
// opens documents, awaits the version-matched publishDiagnostics
// notification for each, and closes them again; the aggregator then merges
// diagnostics by the file they point at, so a header included by several
// translation units is reported once.
//
// # Components
//
//   - Dispatcher: routes pushed publishDiagnostics notifications to the
//     job waiting on that (path, version)
//   - Collector: per-file open / await / close cycle, plus the optional
//     clang-format check
//   - Scheduler: bounded fan-out with input-order result slots
//   - Aggregator: regrouping, line filtering, deduplication
//   - Run: wires a session to the above and returns ordered FileResults
//
// # Error model
//
// Per-file failures (analysis timeout, formatting failure) degrade that
// file's result and never abort siblings. Session-level failures (spawn,
// handshake, transport) cancel all outstanding jobs and surface as the
// single error returned by Run.
package tidy
