package ffprobe

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestResultHelpers(t *testing.T) {
	result := Result{
		Streams: []Stream{
			{CodecType: "audio"},
			{CodecType: "video"},
		},
		Format: Format{Duration: "245.08"},
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("expected 1 audio stream, got %d", result.AudioStreamCount())
	}
	if result.DurationSeconds() != 245.08 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
}

func TestResultHelpersHandleInvalidNumbers(t *testing.T) {
	result := Result{Format: Format{Duration: "bad"}}
	if result.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0 for invalid value, got %v", result.DurationSeconds())
	}
	empty := Result{}
	if empty.DurationSeconds() != 0 {
		t.Fatalf("expected duration 0 when absent, got %v", empty.DurationSeconds())
	}
}

func TestInspectParsesStubOutput(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffprobe")
	script := `#!/bin/sh
cat <<'JSON'
{"streams":[{"index":0,"codec_type":"audio","codec_name":"mp3","channels":2}],"format":{"duration":"180.5","format_name":"mp3"}}
JSON
`
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	result, err := Inspect(context.Background(), stub, "whatever.mp3")
	if err != nil {
		t.Fatalf("Inspect returned error: %v", err)
	}
	if result.DurationSeconds() != 180.5 {
		t.Fatalf("unexpected duration: %v", result.DurationSeconds())
	}
	if result.AudioStreamCount() != 1 {
		t.Fatalf("unexpected audio stream count: %d", result.AudioStreamCount())
	}
}

func TestInspectSurfacesToolOutputOnFailure(t *testing.T) {
	binDir := t.TempDir()
	stub := filepath.Join(binDir, "ffprobe")
	script := "#!/bin/sh\necho 'no such file' >&2\nexit 1\n"
	if err := os.WriteFile(stub, []byte(script), 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}

	_, err := Inspect(context.Background(), stub, "missing.mp3")
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "no such file") {
		t.Fatalf("expected stderr in error, got %v", err)
	}
}

func TestInspectRejectsEmptyPath(t *testing.T) {
	if _, err := Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
