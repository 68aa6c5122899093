// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

/*
Package orchestrate drives a generation batch through its lifecycle.

The Orchestrator is an explicit state machine: one OrchestrationState
struct owned exclusively by the orchestrator and mutated only through its
transition methods. A run iterates the selected models strictly in request
order, never in parallel, so provider rate limits are respected and the
progress narrative stays readable. Each model resolves through the
dispatcher into an immediate asset, a job handle (handed to the poller),
or a skip; per-model failures are recorded and the batch continues. Only a
fatal dispatch error aborts the remainder.

Progress is delivered as a typed event stream with a single subscriber:
a fixed floor once dispatch starts, the active job's own percentage
mapped into the middle band, and 100 only after the asset is reconciled
into the media store.

Reset is the only cancellation primitive. It is idempotent, safe to call
from a teardown path, and deterministically stops the active poll timer.
*/
package orchestrate
