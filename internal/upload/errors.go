package upload

import "fmt"

// UploadError reports a failed dispatch. The local artifact is untouched and
// the caller may re-run the dispatch step against it.
type UploadError struct {
	Reason string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload failed: %s", e.Reason)
}

// Err converts a failed outcome into an UploadError, or nil for skipped and
// succeeded outcomes.
func (o Outcome) Err() error {
	if o.Status != StatusFailed {
		return nil
	}
	return &UploadError{Reason: o.FailureReason}
}
