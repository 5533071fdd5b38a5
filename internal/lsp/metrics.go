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
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Package-level tracer and meter for the clangd session.
var (
	tracer = otel.Tracer("clangd-tidy.lsp")
	meter  = otel.Meter("clangd-tidy.lsp")
)

// Metrics for session activity.
var (
	requestLatency metric.Float64Histogram
	requestTotal   metric.Int64Counter
	serverSpawns   metric.Int64Counter
	documentsOpen  metric.Int64Counter

	metricsOnce sync.Once
	metricsErr  error
)

// initMetrics initializes the metrics. Safe to call multiple times.
func initMetrics() error {
	metricsOnce.Do(func() {
		var err error

		requestLatency, err = meter.Float64Histogram(
			"clangd_request_duration_seconds",
			metric.WithDescription("Duration of LSP requests to clangd"),
			metric.WithUnit("s"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		requestTotal, err = meter.Int64Counter(
			"clangd_request_total",
			metric.WithDescription("Total number of LSP requests to clangd"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		serverSpawns, err = meter.Int64Counter(
			"clangd_spawns_total",
			metric.WithDescription("Total number of clangd process spawns"),
		)
		if err != nil {
			metricsErr = err
			return
		}

		documentsOpen, err = meter.Int64Counter(
			"clangd_documents_opened_total",
			metric.WithDescription("Total number of documents opened on clangd"),
		)
		if err != nil {
			metricsErr = err
			return
		}
	})
	return metricsErr
}

// StartSessionSpan creates a span covering one full diagnostic run.
func StartSessionSpan(ctx context.Context, fileCount int) (context.Context, trace.Span) {
	return tracer.Start(ctx, "Session.Run",
		trace.WithAttributes(
			attribute.Int("clangd.file_count", fileCount),
		),
	)
}

// recordRequest records metrics for one LSP request.
func recordRequest(ctx context.Context, method string, duration time.Duration, success bool) {
	if err := initMetrics(); err != nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("success", success),
	)

	requestLatency.Record(ctx, duration.Seconds(), attrs)
	requestTotal.Add(ctx, 1, attrs)
}

// recordSpawn records a clangd spawn event.
func recordSpawn(ctx context.Context, success bool) {
	if err := initMetrics(); err != nil {
		return
	}
	serverSpawns.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("success", success),
	))
}

// recordDocumentOpen records a didOpen event.
func recordDocumentOpen(ctx context.Context) {
	if err := initMetrics(); err != nil {
		return
	}
	documentsOpen.Add(ctx, 1)
}
