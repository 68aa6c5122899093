// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

/*
Package dispatch translates one (model, request) pair into exactly one
outbound provider call.

The dispatcher resolves the model's sub-capability, checks the model's own
input preconditions, performs the upload-for-reference step when the
provider needs hosted URLs, and normalizes whatever comes back into a
three-variant Outcome: an immediate asset, a job handle to poll, or a
skip. A skip is not an error; it is what lets a heterogeneous batch keep
going when only some selected models need a given input.
*/
package dispatch
