// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

/*
Package pricing estimates the dollar cost of a generation before dispatch.

Every estimator is a pure, synchronous function of (pricing spec, params)
with no I/O. Missing or zero input dimensions always yield a zero-cost
estimate rather than an error: the UI calls these formulas on every form
keystroke and a half-filled form is not an error condition.
*/
package pricing
