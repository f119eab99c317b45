package engine

import "fmt"

// ValidationError reports malformed input. No state changed.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string {
	return "invalid input: " + e.Msg
}

// NotFoundError reports an unknown id or key.
type NotFoundError struct {
	Resource string
	Ref      string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.Ref)
}

// ConflictError reports an operation rejected by current state: already
// completed, duplicate journal day, level-up not eligible. Safe to retry
// with corrected intent.
type ConflictError struct {
	Reason string
}

func (e ConflictError) Error() string {
	return e.Reason
}

// ForbiddenError reports a record owned by a different user.
type ForbiddenError struct {
	Resource string
	Ref      string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("%s %s belongs to another user", e.Resource, e.Ref)
}

// IntegrityError reports a write rejected before commit: a grant targeting a
// stat the caller does not own, or a stat tag outside the valid set.
type IntegrityError struct {
	Msg string
}

func (e IntegrityError) Error() string {
	return e.Msg
}

// ExternalServiceError wraps a failed or malformed analyzer response. The
// journal entry stays in in_review and finalize is safely retryable.
type ExternalServiceError struct {
	Err error
}

func (e ExternalServiceError) Error() string {
	return "external service: " + e.Err.Error()
}

func (e ExternalServiceError) Unwrap() error {
	return e.Err
}
