// Package api exposes the daemon's HTTP surface: edition CRUD, the human
// checkpoint actions (lyrics approval, segment submission, cut adjustment,
// preview gate, revision), render re-dispatch, and the export manifest.
//
// Handlers translate between JSON payloads and lifecycle operations; the
// sentinel error markers from internal/services map onto status codes
// (validation 400, not found 404, conflict 409, worker failure 502,
// transient 503). All state rules live in the controller, never here.
package api
