package producer

import "time"

// Artifact is the final, verified, locally persisted video file produced by
// one generation request. It exists only after encoding succeeded and the
// file is visible under its final name; SizeBytes and SHA256 are read back
// from the file on disk, never estimated.
type Artifact struct {
	Path            string
	FrameCount      int
	DurationSeconds float64
	Width           int
	Height          int
	SizeBytes       int64
	SHA256          string
	CreatedAt       time.Time
}
