// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

// Package metrics provides internal metrics collection for the generation
// engine. This package is internal and should not be imported by external
// projects.
package metrics
