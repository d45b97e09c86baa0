package producer

import "fmt"

// BackendExhaustedError reports that the generative backend ran out of device
// memory or otherwise failed at the hardware level. It is never retried:
// repeating the same call against an exhausted device does not succeed, it
// only wastes minutes. The message carries the remediation order instead.
type BackendExhaustedError struct {
	Cause error
}

func (e *BackendExhaustedError) Error() string {
	return fmt.Sprintf("generation backend exhausted: %v (try a smaller model, then a lower resolution, then a shorter duration)", e.Cause)
}

func (e *BackendExhaustedError) Unwrap() error { return e.Cause }

// EncodingError reports that the frame-to-container encoding step failed.
// Partial output at the temporary path has already been discarded when this
// is returned.
type EncodingError struct {
	Cause error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("encode video: %v", e.Cause)
}

func (e *EncodingError) Unwrap() error { return e.Cause }
