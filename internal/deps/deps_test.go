package deps

import (
	"os"
	"path/filepath"
	"testing"

	"ohopus/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Unset", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}

	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}

	if results[1].Available {
		t.Fatal("expected missing binary to be unavailable")
	}
	if results[1].Detail == "" {
		t.Fatal("expected detail message for missing binary")
	}

	if results[2].Available || results[2].Detail != "command not configured" {
		t.Fatalf("unexpected status for unset command: %#v", results[2])
	}
}

func TestRequirementsFollowEngineSelection(t *testing.T) {
	cfg := config.Default()
	cfg.Encoder.Engine = "opusenc"
	cfg.ReplayGain.Mode = "track"
	cfg.ReplayGain.Tool = "loudgain"

	byName := map[string]Requirement{}
	for _, req := range Requirements(&cfg) {
		byName[req.Name] = req
	}

	if byName["FFmpeg"].Optional != true {
		t.Fatal("ffmpeg should be optional when opusenc is the engine")
	}
	if byName["opusenc"].Optional {
		t.Fatal("opusenc must be required when selected as the engine")
	}
	gain, ok := byName["loudgain"]
	if !ok {
		t.Fatalf("expected loudgain requirement, have %v", byName)
	}
	if gain.Optional {
		t.Fatal("gain tool must be required when replaygain mode is on")
	}
}
