// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

// Package telemetry wires the OpenTelemetry SDK for GenFlow: one
// TracerProvider and one MeterProvider exporting over OTLP gRPC. With
// telemetry disabled the globals stay noop and nothing dials out.
package telemetry
