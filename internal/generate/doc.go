// Package generate orchestrates suggestion generation end to end: fan
// predictions out to the configured sources, map general-vocabulary labels,
// resolve taxonomy aliases and inheritance, filter on confidence, merge to
// one candidate per tag, and persist the survivors in a single transaction.
//
// Attempt-level failures (storage, total source loss) are retried a bounded
// number of times with backoff. Individual source failures merely degrade
// the merge input and mark the run partial. A worker pool with a fixed
// concurrency cap serves background requests via Enqueue.
package generate
