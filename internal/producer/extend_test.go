package producer

import (
	"image"
	"testing"
)

func frames(n int) []image.Image {
	out := make([]image.Image, n)
	for i := range out {
		out[i] = image.NewRGBA(image.Rect(0, 0, 2, 2))
	}
	return out
}

func TestExtendFramesLoops(t *testing.T) {
	clip := frames(49)
	got := extendFrames(clip, 80)
	if len(got) != 80 {
		t.Fatalf("len = %d, want 80", len(got))
	}
	// The loop restarts at the clip boundary.
	if got[49] != clip[0] {
		t.Fatal("frame 49 is not the start of the second loop")
	}
	if got[79] != clip[30] {
		t.Fatal("final frame is not trimmed at the exact offset")
	}
}

func TestExtendFramesTrims(t *testing.T) {
	got := extendFrames(frames(100), 80)
	if len(got) != 80 {
		t.Fatalf("len = %d, want 80", len(got))
	}
}

func TestExtendFramesExact(t *testing.T) {
	clip := frames(80)
	got := extendFrames(clip, 80)
	if len(got) != 80 {
		t.Fatalf("len = %d, want 80", len(got))
	}
}

func TestExtendFramesEmptyInput(t *testing.T) {
	if got := extendFrames(nil, 10); len(got) != 0 {
		t.Fatalf("len = %d, want 0 for empty input", len(got))
	}
}
