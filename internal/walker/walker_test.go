package walker_test

import (
	"os"
	"path/filepath"
	"testing"

	"ohopus/internal/walker"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDiscoverMirrorsTree(t *testing.T) {
	src := t.TempDir()
	dest := filepath.Join(t.TempDir(), "opus")

	touch(t, filepath.Join(src, "Miles Davis", "Kind of Blue", "01 So What.mp3"))
	touch(t, filepath.Join(src, "Miles Davis", "Kind of Blue", "02 Freddie Freeloader.mp3"))
	touch(t, filepath.Join(src, "single.mp3"))

	entries, err := walker.Discover(src, dest)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("found %d entries, want 3", len(entries))
	}

	want := filepath.Join(dest, "Miles Davis", "Kind of Blue", "01 So What.opus")
	if entries[0].DestPath != want {
		t.Errorf("DestPath = %q, want %q", entries[0].DestPath, want)
	}
	if entries[0].RelativePath != filepath.Join("Miles Davis", "Kind of Blue", "01 So What.mp3") {
		t.Errorf("RelativePath = %q", entries[0].RelativePath)
	}
}

func TestDiscoverLexicalOrder(t *testing.T) {
	src := t.TempDir()
	touch(t, filepath.Join(src, "b.mp3"))
	touch(t, filepath.Join(src, "a.mp3"))
	touch(t, filepath.Join(src, "album", "c.mp3"))

	entries, err := walker.Discover(src, t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	got := make([]string, len(entries))
	for i, e := range entries {
		got[i] = e.RelativePath
	}
	want := []string{"a.mp3", filepath.Join("album", "c.mp3"), "b.mp3"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

func TestDiscoverSkipsNonMP3AndHidden(t *testing.T) {
	src := t.TempDir()
	touch(t, filepath.Join(src, "keep.MP3"))
	touch(t, filepath.Join(src, "cover.jpg"))
	touch(t, filepath.Join(src, "notes.txt"))
	touch(t, filepath.Join(src, "._keep.mp3"))
	touch(t, filepath.Join(src, ".hidden", "secret.mp3"))

	entries, err := walker.Discover(src, t.TempDir())
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %+v, want only keep.MP3", entries)
	}
	if entries[0].RelativePath != "keep.MP3" {
		t.Fatalf("RelativePath = %q", entries[0].RelativePath)
	}
}

func TestDiscoverMissingRoot(t *testing.T) {
	if _, err := walker.Discover(filepath.Join(t.TempDir(), "absent"), t.TempDir()); err == nil {
		t.Fatal("expected error for missing source root")
	}
}
