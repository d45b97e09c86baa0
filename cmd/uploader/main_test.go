package main

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestNewestVideoPicksLatestTimestamp(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "video_20250101_090000.mp4", "old")
	writeFile(t, dir, "video_20250302_120000.mp4", "new")
	writeFile(t, dir, "video_20250215_000000.mp4", "mid")

	got, err := newestVideo(dir)
	if err != nil {
		t.Fatalf("newestVideo: %v", err)
	}
	if want := filepath.Join(dir, "video_20250302_120000.mp4"); got != want {
		t.Fatalf("newestVideo = %q, want %q", got, want)
	}
}

func TestNewestVideoIgnoresOtherEntries(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "video_20250101_090000.mp4", "video")
	writeFile(t, dir, "notes.txt", "not a video")
	writeFile(t, dir, "clip.webm", "wrong container")
	// A directory whose name sorts after every file must not win.
	if err := os.Mkdir(filepath.Join(dir, "zz_archive.mp4"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := newestVideo(dir)
	if err != nil {
		t.Fatalf("newestVideo: %v", err)
	}
	if want := filepath.Join(dir, "video_20250101_090000.mp4"); got != want {
		t.Fatalf("newestVideo = %q, want %q", got, want)
	}
}

func TestNewestVideoEmptyDirectory(t *testing.T) {
	if _, err := newestVideo(t.TempDir()); err == nil {
		t.Fatal("expected error for a directory with no videos")
	}
}

func TestArtifactFromFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video_20250101_090000.mp4", "payload")

	artifact, err := artifactFromFile(path)
	if err != nil {
		t.Fatalf("artifactFromFile: %v", err)
	}
	if !filepath.IsAbs(artifact.Path) {
		t.Fatalf("Path = %q, want absolute", artifact.Path)
	}
	if artifact.SizeBytes != int64(len("payload")) {
		t.Fatalf("SizeBytes = %d, want %d", artifact.SizeBytes, len("payload"))
	}
}

func TestArtifactFromFileRejectsEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "video_20250101_090000.mp4", "")

	if _, err := artifactFromFile(path); err == nil {
		t.Fatal("expected error for an empty file")
	}
}
