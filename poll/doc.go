// Copyright (c) GenFlow Authors.
// Licensed under the MIT License.

/*
Package poll resolves asynchronous provider jobs into terminal results.

One Poller owns at most one active tracking loop at any instant: starting
a new one first cancels the previous one, and Cancel stops the loop
deterministically so no timer fires after cancellation. A transient
status-query error never fails the job; it nudges the reported progress
by a small bounded increment (capped below 100) so the caller's UI does
not appear frozen while the same interval keeps ticking.
*/
package poll
