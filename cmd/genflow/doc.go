// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

/*
Package main is the GenFlow server executable.

cmd/genflow wires the generation engine behind an HTTP surface: a REST
API for starting batches, querying state and estimating cost, a
WebSocket stream for progress events, and a separate metrics port for
Prometheus scraping. Subcommands:

	genflow serve                       start the server
	genflow serve --config genflow.yaml start with a config file
	genflow version                     print build information
	genflow health                      probe a running server

The serve command loads configuration (defaults, YAML file, GENFLOW_*
environment overrides), builds the zap logger, initializes OpenTelemetry
when enabled and runs until SIGINT or SIGTERM. When a catalog file is
configured its changes are picked up at runtime without a restart.

Version, BuildTime and GitCommit are injected at build time via ldflags.
*/
package main
