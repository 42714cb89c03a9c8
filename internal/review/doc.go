// Package review applies human verdicts to generated suggestions.
//
// Batches are reported atomically but applied per item, so one bad decision
// (missing id, already-decided suggestion) never blocks the rest.
package review
