// Package window maintains a bounded, deduplicated, insertion-ordered window of
// integers and reports the arithmetic mean of its contents after every update.
//
// Terminology
//   - Window: the ordered set of values currently retained. No value appears
//     twice and its length never exceeds the store capacity W.
//   - Batch: the raw values returned by one provider fetch, before merging.
//   - Eviction: removal of the oldest window entries to satisfy the capacity
//     bound after a merge.
//
// Ingest algorithm
//  1. Snapshot the current window as "previous".
//  2. Keep the batch values that are not in previous, first occurrence only.
//  3. Append them to previous, preserving order.
//  4. While the merged window exceeds W, drop from the front (FIFO).
//  5. Replace the window and compute the mean, defined as 0 when empty.
//
// The Store serializes Ingest behind a single mutex, so the
// snapshot/merge/evict/average sequence of one call never interleaves with
// another. Callers only ever receive copies of the window.
package window
