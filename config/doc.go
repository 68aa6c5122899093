// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

// Package config loads GenFlow configuration with the precedence
// defaults, then YAML file, then environment variables.
package config
