package diffusion

import (
	"context"
	"image"
	"testing"

	"github.com/owlcode-mcp/text-to-video/internal/producer"
)

func TestSyntheticFrameCountAndSize(t *testing.T) {
	gen := NewSynthetic()
	frames, err := gen.Generate(context.Background(), producer.Params{
		Prompt:    "Sunset over ocean",
		NumFrames: 12,
		Width:     64,
		Height:    32,
	})
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if len(frames) != 12 {
		t.Fatalf("len(frames) = %d, want 12", len(frames))
	}
	for i, f := range frames {
		if f.Bounds().Dx() != 64 || f.Bounds().Dy() != 32 {
			t.Fatalf("frame %d is %v, want 64x32", i, f.Bounds())
		}
	}
}

func TestSyntheticDeterministic(t *testing.T) {
	gen := NewSynthetic()
	params := producer.Params{Prompt: "a red fox", NumFrames: 3, Width: 16, Height: 16, Seed: 42}

	a, err := gen.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	b, err := gen.Generate(context.Background(), params)
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}

	for i := range a {
		ra, rb := a[i].(*image.RGBA), b[i].(*image.RGBA)
		if string(ra.Pix) != string(rb.Pix) {
			t.Fatalf("frame %d differs between identical runs", i)
		}
	}
}

func TestSyntheticDifferentPromptsDiffer(t *testing.T) {
	gen := NewSynthetic()
	a, _ := gen.Generate(context.Background(), producer.Params{Prompt: "a red fox", NumFrames: 1, Width: 16, Height: 16})
	b, _ := gen.Generate(context.Background(), producer.Params{Prompt: "a blue whale", NumFrames: 1, Width: 16, Height: 16})
	if string(a[0].(*image.RGBA).Pix) == string(b[0].(*image.RGBA).Pix) {
		t.Fatal("different prompts produced identical frames")
	}
}

func TestSyntheticRejectsZeroFrames(t *testing.T) {
	if _, err := NewSynthetic().Generate(context.Background(), producer.Params{Prompt: "x"}); err == nil {
		t.Fatal("Generate accepted zero frames")
	}
}
