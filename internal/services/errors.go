package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input rejected before any state change.
	ErrValidation = errors.New("validation error")
	// ErrConflict marks an operation attempted from a state that does not
	// permit it. Nothing changes; the caller is holding a stale view.
	ErrConflict = errors.New("conflicting state")
	// ErrTransient marks upstream conditions worth retrying unchanged, such
	// as a worker that has not produced its result yet.
	ErrTransient = errors.New("transient failure")
	// ErrExternalTool marks a definitive failure reported by an external
	// worker. Recorded on the entity; retried only by explicit request.
	ErrExternalTool = errors.New("external worker error")
	// ErrNotFound marks a missing entity or collaborator resource.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks configuration problems caught at startup or request time.
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// IsRetryable reports whether the caller may simply repeat the same request
// later without changing anything first.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
