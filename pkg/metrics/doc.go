// Package metrics exposes Prometheus metrics for the process and provides
// ready-made instrumentation for the tracing package.
//
// The package owns a private Prometheus registry and an HTTP server that
// serves it, so applications never register against the global default
// registry. Every metric carries a "service" label identifying the process.
//
// Core Features:
//   - Private Prometheus registry with per-service labelling
//   - HTTP exposition server with lifecycle management
//   - Optional Go runtime, process and build-info collectors
//   - SpanObserver: a tracing.SpanListener that counts span starts and
//     finishes and records span durations per span kind
//
// Basic Usage:
//
//	import (
//		"github.com/weftworks/obs/pkg/metrics"
//		"github.com/weftworks/obs/pkg/tracing"
//	)
//
//	m := metrics.NewMetrics(metrics.Config{
//		Address:                 ":9090",
//		EnableDefaultCollectors: true,
//		ServiceName:             "checkout",
//	})
//
//	observer := metrics.NewSpanObserver(m)
//
//	tracer, err := tracing.NewTracer(tracing.Config{
//		Listeners: []tracing.SpanListener{observer},
//	}, log)
//	if err != nil {
//		log.Fatal("failed to build tracer", err, nil)
//	}
//
// FX Module Integration:
//
// This package provides a fx module that starts the exposition server when
// the application starts and shuts it down gracefully when it stops:
//
//	app := fx.New(
//		logger.FXModule,
//		metrics.FXModule,
//		tracing.FXModule,
//		// ... other modules
//	)
//	app.Run()
//
// Configuration:
//
// The metrics server can be configured via environment variables or
// explicitly:
//
//	METRICS_ADDRESS=:9090
//	METRICS_ENABLE_DEFAULT_COLLECTORS=true
//	METRICS_SERVICE_NAME=checkout
//
// Thread Safety:
//
// The Metrics registry and the SpanObserver are safe for concurrent use by
// multiple goroutines.
package metrics
