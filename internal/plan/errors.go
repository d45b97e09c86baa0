package plan

import "fmt"

// ValidationError reports a request parameter that failed validation. It is
// raised before any compute resource is touched, so the caller can correct the
// input and retry for free.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// ResourceConstraintError reports a request that would exceed a safety
// ceiling (frame budget or memory). Like validation failures it is raised
// before expensive work begins.
type ResourceConstraintError struct {
	Reason string
}

func (e *ResourceConstraintError) Error() string {
	return e.Reason
}
