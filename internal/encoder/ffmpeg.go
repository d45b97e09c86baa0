// Package encoder turns frame sequences into playable video containers by
// piping raw pixels into ffmpeg.
package encoder

import (
	"context"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strings"

	"github.com/owlcode-mcp/text-to-video/internal/producer"
)

// FFmpeg encodes frames into an H.264 MP4 via the ffmpeg binary. The output
// uses yuv420p so the file plays everywhere without proprietary tooling.
type FFmpeg struct {
	// Binary overrides the ffmpeg executable path. Empty means "ffmpeg" on
	// PATH.
	Binary string
	// CRF is the constant-rate-factor quality setting. Zero means 23,
	// ffmpeg's own default.
	CRF int
}

// NewFFmpeg returns an encoder using the ffmpeg binary from PATH.
func NewFFmpeg() *FFmpeg {
	return &FFmpeg{}
}

// Encode writes frames as an MP4 at path. All frames must share the
// dimensions of the first one; the pixel data is streamed over stdin as raw
// RGBA so no intermediate image files touch the disk.
func (e *FFmpeg) Encode(ctx context.Context, frames []image.Image, fps int, path string) error {
	if len(frames) == 0 {
		return fmt.Errorf("encoder: no frames to encode")
	}
	if fps <= 0 {
		return fmt.Errorf("encoder: fps must be positive")
	}

	bounds := frames[0].Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("encoder: frame has empty bounds")
	}

	binary := e.Binary
	if binary == "" {
		binary = "ffmpeg"
	}
	crf := e.CRF
	if crf <= 0 {
		crf = 23
	}

	args := []string{
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-video_size", fmt.Sprintf("%dx%d", width, height),
		"-framerate", fmt.Sprintf("%d", fps),
		"-i", "-",
		"-c:v", "libx264",
		"-crf", fmt.Sprintf("%d", crf),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		"-loglevel", "error",
		path,
	}

	cmd := exec.CommandContext(ctx, binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("encoder: open stdin: %w", err)
	}
	var stderr strings.Builder
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("encoder: start ffmpeg: %w", err)
	}

	writeErr := streamFrames(stdin, frames, width, height)
	closeErr := stdin.Close()

	if err := cmd.Wait(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return fmt.Errorf("encoder: ffmpeg failed: %s: %w", msg, err)
		}
		return fmt.Errorf("encoder: ffmpeg failed: %w", err)
	}
	if writeErr != nil {
		return fmt.Errorf("encoder: stream frames: %w", writeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("encoder: close stdin: %w", closeErr)
	}
	return nil
}

func streamFrames(w io.Writer, frames []image.Image, width, height int) error {
	rect := image.Rect(0, 0, width, height)
	buf := image.NewRGBA(rect)
	for i, frame := range frames {
		if frame.Bounds().Dx() != width || frame.Bounds().Dy() != height {
			return fmt.Errorf("frame %d is %dx%d, want %dx%d",
				i, frame.Bounds().Dx(), frame.Bounds().Dy(), width, height)
		}
		if rgba, ok := frame.(*image.RGBA); ok && rgba.Stride == 4*width {
			if _, err := w.Write(rgba.Pix); err != nil {
				return err
			}
			continue
		}
		draw.Draw(buf, rect, frame, frame.Bounds().Min, draw.Src)
		if _, err := w.Write(buf.Pix); err != nil {
			return err
		}
	}
	return nil
}

var _ producer.Encoder = (*FFmpeg)(nil)
