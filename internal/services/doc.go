// Package services defines the shared error taxonomy and request context
// helpers used by the lifecycle controller, the HTTP layer, and the
// external worker clients under services/.
//
// Errors are classified by wrapping one of the exported sentinels so
// callers can branch on errors.Is without depending on concrete types:
// ErrValidation and ErrConflict are rejected synchronously and change
// nothing; ErrTransient invites the caller to retry the same request
// later; ErrExternalTool is recorded on the edition for manual retry.
package services
