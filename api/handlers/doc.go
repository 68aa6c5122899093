// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

// Package handlers implements the GenFlow HTTP handlers: generation
// start/state/reset, cost estimates, the model catalog, health checks,
// and the WebSocket progress stream. All handlers answer with the
// Response envelope and map types.Error codes onto HTTP statuses.
package handlers
