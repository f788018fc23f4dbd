// Package lifecycle is the status state machine for one edition. Every
// transition loads the authoritative row, checks the closed transition
// table, and persists the result; callers holding a stale view get a
// conflict error and no state change.
//
// The controller issues dispatches (transcription, preview render, full
// fan-out) and returns immediately; completion is observed by the workflow
// poll loop, which feeds results back through ImportTranscription,
// PreviewCompleted, and SettleBatch. The preview gate is the single human
// checkpoint: nothing reaches rendering_all except ApprovePreview from
// preview_ready.
package lifecycle
