package encoder

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ohopus/internal/metadata"
	"ohopus/internal/services"
)

type fakeExecutor struct {
	calls [][]string
	onRun func(call int, args []string, opts RunOptions) error
}

func (f *fakeExecutor) Run(_ context.Context, _ string, args []string, opts RunOptions) error {
	call := len(f.calls)
	f.calls = append(f.calls, args)
	if f.onRun != nil {
		return f.onRun(call, args, opts)
	}
	return nil
}

func testSettings() Settings {
	return Settings{
		VBR:         true,
		Application: "audio",
		FrameSizeMS: 20,
		Complexity:  10,
		BufferKiB:   64,
	}
}

func sourceFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "track.mp3")
	if err := os.WriteFile(path, []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func hasArgPair(args []string, flag, value string) bool {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == flag && args[i+1] == value {
			return true
		}
	}
	return false
}

func TestFFmpegEncodeArgs(t *testing.T) {
	exec := &fakeExecutor{}
	engine, err := NewFFmpeg("ffmpeg", testSettings(), WithExecutor(exec))
	if err != nil {
		t.Fatalf("NewFFmpeg: %v", err)
	}

	var tags metadata.Destination
	tags.Add("TITLE", "So What")
	tags.Add("ARTIST", "Artist A")
	tags.Add("ARTIST", "Artist B")

	dest := filepath.Join(t.TempDir(), "out", "track.opus")
	err = engine.Encode(context.Background(), Request{
		SourcePath: sourceFile(t),
		DestPath:   dest,
		Bitrate:    192,
		Tags:       tags,
	})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if len(exec.calls) != 1 {
		t.Fatalf("expected one run without picture, got %d", len(exec.calls))
	}

	args := exec.calls[0]
	if !hasArgPair(args, "-b:a", "192k") {
		t.Errorf("missing bitrate flag in %v", args)
	}
	if !hasArgPair(args, "-vbr", "on") {
		t.Errorf("missing vbr flag in %v", args)
	}
	if !hasArgPair(args, "-metadata", "ARTIST=Artist A; Artist B") {
		t.Errorf("multi-value artist not flattened in %v", args)
	}
	if args[len(args)-1] != dest {
		t.Errorf("destination not last arg: %v", args)
	}
}

func TestFFmpegHardCBR(t *testing.T) {
	exec := &fakeExecutor{}
	settings := testSettings()
	settings.VBR = false
	engine, _ := NewFFmpeg("ffmpeg", settings, WithExecutor(exec))

	dest := filepath.Join(t.TempDir(), "track.opus")
	if err := engine.Encode(context.Background(), Request{
		SourcePath: sourceFile(t), DestPath: dest, Bitrate: 160,
	}); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !hasArgPair(exec.calls[0], "-vbr", "off") {
		t.Errorf("missing -vbr off in %v", exec.calls[0])
	}
}

func TestFFmpegPicturePass(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "track.opus")
	exec := &fakeExecutor{
		onRun: func(call int, args []string, _ RunOptions) error {
			// The executor writes the output file the arguments name.
			return os.WriteFile(args[len(args)-1], []byte("opus"), 0o644)
		},
	}
	engine, _ := NewFFmpeg("ffmpeg", testSettings(), WithExecutor(exec))

	tags := metadata.Destination{Picture: &metadata.Picture{
		MIME: "image/png", PictureType: 3, Data: []byte{1, 2, 3},
	}}
	if err := engine.Encode(context.Background(), Request{
		SourcePath: sourceFile(t), DestPath: dest, Bitrate: 160, Tags: tags,
	}); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	if len(exec.calls) != 2 {
		t.Fatalf("expected encode + remux runs, got %d", len(exec.calls))
	}
	remux := exec.calls[1]
	if !hasArgPair(remux, "-c", "copy") {
		t.Errorf("remux pass should stream-copy: %v", remux)
	}
	found := false
	for _, arg := range remux {
		if strings.HasPrefix(arg, metadata.PictureKey+"=") {
			found = true
		}
	}
	if !found {
		t.Errorf("remux pass missing picture comment: %v", remux)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("final output missing: %v", err)
	}
	if _, err := os.Stat(dest + ".pic.tmp.opus"); !os.IsNotExist(err) {
		t.Fatal("temp remux file left behind")
	}
}

func TestFFmpegFailureRemovesPartialOutput(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "track.opus")
	exec := &fakeExecutor{
		onRun: func(_ int, args []string, _ RunOptions) error {
			_ = os.WriteFile(args[len(args)-1], []byte("partial"), 0o644)
			return os.ErrClosed
		},
	}
	engine, _ := NewFFmpeg("ffmpeg", testSettings(), WithExecutor(exec))

	err := engine.Encode(context.Background(), Request{
		SourcePath: sourceFile(t), DestPath: dest, Bitrate: 160,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
		t.Fatal("partial output should be removed on failure")
	}
}

func TestFFmpegMissingSource(t *testing.T) {
	engine, _ := NewFFmpeg("ffmpeg", testSettings(), WithExecutor(&fakeExecutor{}))
	err := engine.Encode(context.Background(), Request{
		SourcePath: filepath.Join(t.TempDir(), "missing.mp3"),
		DestPath:   filepath.Join(t.TempDir(), "out.opus"),
		Bitrate:    160,
	})
	if services.Classify(err) != services.KindInvalidInput {
		t.Fatalf("Classify = %v, want invalid input", services.Classify(err))
	}
}

func TestFFmpegProcessFailureClassification(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffmpeg")
	body := "#!/bin/sh\necho 'track.mp3: Invalid data found' >&2\nexit 1\n"
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	engine, _ := NewFFmpeg(script, testSettings())
	err := engine.Encode(context.Background(), Request{
		SourcePath: sourceFile(t),
		DestPath:   filepath.Join(dir, "out.opus"),
		Bitrate:    160,
	})
	if services.Classify(err) != services.KindProcessExit {
		t.Fatalf("Classify = %v, want process exit (err: %v)", services.Classify(err), err)
	}
	if !strings.Contains(err.Error(), "Invalid data found") {
		t.Fatalf("stderr tail missing from error: %v", err)
	}
}

func TestFFmpegTimeoutClassification(t *testing.T) {
	dir := t.TempDir()
	script := filepath.Join(dir, "ffmpeg")
	if err := os.WriteFile(script, []byte("#!/bin/sh\nsleep 5\n"), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	settings := testSettings()
	settings.JobTimeout = 50 * time.Millisecond
	engine, _ := NewFFmpeg(script, settings)
	err := engine.Encode(context.Background(), Request{
		SourcePath: sourceFile(t),
		DestPath:   filepath.Join(dir, "out.opus"),
		Bitrate:    160,
	})
	if services.Classify(err) != services.KindTimeout {
		t.Fatalf("Classify = %v, want timeout (err: %v)", services.Classify(err), err)
	}
}

func TestProgressForwarder(t *testing.T) {
	var got []float64
	forward := progressForwarder(100, func(p float64) { got = append(got, p) })

	forward("out_time_us=25000000")
	forward("out_time_us=50000000")
	forward("bitrate=160.0kbits/s")
	forward("out_time_us=200000000")
	forward("progress=end")

	want := []float64{25, 50, 100, 100}
	if len(got) != len(want) {
		t.Fatalf("progress reports = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("progress[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
