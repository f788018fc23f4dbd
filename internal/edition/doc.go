// Package edition persists editions in SQLite and exposes helpers for
// driving their lifecycle.
//
// The Store manages database connections, schema initialization, and the
// dependent tables an edition owns: its segment list, its per-language
// render jobs, and its per-language translations. Render jobs and
// translations are keyed by (edition, language) so a re-dispatch replaces a
// prior terminal state instead of accumulating rows.
//
// Status is the closed lifecycle enum; CanTransition is the only edge check
// and every caller that moves an edition goes through the lifecycle
// controller rather than writing status columns directly.
//
// Treat this package as the single source of truth for edition semantics;
// when you add new statuses or columns, update schema.sql and bump
// schemaVersion.
package edition
