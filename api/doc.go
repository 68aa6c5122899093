// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

// Package api defines the request and response DTOs of the GenFlow HTTP
// surface. The handlers live in api/handlers; this package carries only
// the wire shapes shared between them and API clients.
package api
