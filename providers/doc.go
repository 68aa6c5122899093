// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

/*
Package providers implements the generation-provider boundary.

The engine treats every third-party provider as a black box behind two
operations: Submit (one generation request in, a job id and/or a ready
asset URL out) and QueryStatus (job id in, progress or a terminal state
out). The HTTP client here normalizes whatever the wire carries into
those two shapes; the dispatcher never sees provider-specific fields.

The package also owns the upload-for-reference client used when a
provider accepts input files only as hosted URLs. Uploads are deduplicated
by content hash with singleflight and optionally memoized in the shared
cache so a frame reused across batches is uploaded once.

Outbound calls are paced with a per-client token bucket; sequential
dispatch plus the bucket is what keeps the engine under provider rate
limits without any retry machinery.
*/
package providers
