// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

/*
Package types provides the shared type contracts of the GenFlow engine.

types is the lowest-level public package and depends on no other package in
the module. It defines the vocabulary every higher layer (catalog, dispatch,
poll, reconcile, orchestrate, api) speaks:

  - Category / InputPayload / GenerationRequest — one user-submitted batch
  - JobHandle — an asynchronous provider job awaiting polling
  - GenerationResult — one finished asset per successfully completed model
  - ModelError — a per-model failure or skip recorded during a batch
  - Error / ErrorCode — structured error taxonomy (validation skip, provider
    error, transient poll error, ingestion error, fatal dispatch error)

A batch is partial-failure tolerant: ModelError values accumulate alongside
GenerationResult values and neither list ever invalidates the other.
*/
package types
