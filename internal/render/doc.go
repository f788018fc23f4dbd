// Package render dispatches per-language render jobs and aggregates their
// terminal outcomes. Jobs are keyed by (edition, language) in the store, so
// re-dispatch replaces a prior terminal state instead of duplicating work,
// and one language's failure never blocks or rolls back another's.
package render
