package producer

import "image"

// extendFrames loops a clip until it covers target frames. Generated clips
// are capped by the model (49 frames for the CogVideoX family), so longer
// requested durations are assembled by repeating the clip and trimming to
// the exact length.
func extendFrames(frames []image.Image, target int) []image.Image {
	if len(frames) == 0 || len(frames) >= target {
		if len(frames) > target {
			return frames[:target]
		}
		return frames
	}

	out := make([]image.Image, 0, target)
	for len(out) < target {
		remaining := target - len(out)
		if remaining >= len(frames) {
			out = append(out, frames...)
		} else {
			out = append(out, frames[:remaining]...)
		}
	}
	return out
}
