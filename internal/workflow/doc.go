// Package workflow drives completion observation for the pipeline. External
// work (transcription, translation, rendering) runs in workers the daemon
// never blocks on; the manager polls the store at a fixed interval, finds
// editions parked in a watched status, and asks the matching watcher to
// inspect the worker and feed the outcome through the lifecycle controller.
//
// Staleness of at most one poll interval is acceptable for a human-paced
// workflow. A result arriving for a stage the edition already left is
// rejected by the controller's transition guard and discarded here.
package workflow
