package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeTestConfig(t *testing.T) string {
	t.Helper()
	base := t.TempDir()
	for _, dir := range []string{"src", "dest", "state", "logs"} {
		if err := os.MkdirAll(filepath.Join(base, dir), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	body := fmt.Sprintf(`[paths]
source_dir = %q
dest_dir = %q
state_dir = %q
log_dir = %q
`,
		filepath.Join(base, "src"),
		filepath.Join(base, "dest"),
		filepath.Join(base, "state"),
		filepath.Join(base, "logs"))

	path := filepath.Join(base, "ohopus.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootShowsHelp(t *testing.T) {
	out, err := runCommand(t)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "convert") || !strings.Contains(out, "queue") {
		t.Fatalf("help output missing commands:\n%s", out)
	}
}

func TestConvertDryRunListsFiles(t *testing.T) {
	cfgPath := writeTestConfig(t)
	cfgDir := filepath.Dir(cfgPath)
	if err := os.WriteFile(filepath.Join(cfgDir, "src", "track.mp3"), []byte("mp3"), 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}

	out, err := runCommand(t, "--config", cfgPath, "convert", "--dry-run")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "track.mp3") || !strings.Contains(out, "1 files would be converted") {
		t.Fatalf("dry-run output:\n%s", out)
	}
}

func TestConvertDryRunEmptyLibrary(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "convert", "--dry-run")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "No MP3 files found") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestStatusWithoutBatches(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "status")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "No batches recorded yet") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestQueueListWithoutBatches(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "queue", "list")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "No batches recorded yet") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestConfigShowPrintsTOML(t *testing.T) {
	cfgPath := writeTestConfig(t)
	out, err := runCommand(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !strings.Contains(out, "[encoder]") || !strings.Contains(out, "bitrate") {
		t.Fatalf("output:\n%s", out)
	}
}

func TestRenderTableKeepsHeaderCasingAndPadsRows(t *testing.T) {
	out := renderTable(
		[]string{"File", "Size"},
		[][]string{{"a.opus", "12"}, {"b.opus"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "File") || strings.Contains(out, "FILE") {
		t.Fatalf("header casing not preserved:\n%s", out)
	}
	if !strings.Contains(out, "a.opus") || !strings.Contains(out, "b.opus") {
		t.Fatalf("rows missing:\n%s", out)
	}
	if renderTable(nil, nil, nil) != "" {
		t.Fatal("headerless table should render nothing")
	}
}
