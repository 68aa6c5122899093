// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

// Package server manages the GenFlow HTTP server lifecycle: non-blocking
// start, graceful shutdown, and SIGINT/SIGTERM handling. Manager wraps
// net/http.Server with an asynchronous error channel so the caller can
// watch for serve failures.
package server
