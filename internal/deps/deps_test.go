package deps

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
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
		{Name: "Blank", Command: "  ", Optional: true},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available {
		t.Fatalf("expected first requirement to be available, got %#v", results[0])
	}
	if results[0].Path != present {
		t.Fatalf("expected resolved path %q, got %q", present, results[0].Path)
	}
	if results[0].Detail != "" {
		t.Fatalf("unexpected detail for available dependency: %s", results[0].Detail)
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}

	if got := MissingRequired(results); !reflect.DeepEqual(got, []string{"Missing"}) {
		t.Fatalf("MissingRequired = %v", got)
	}
}

func TestResolveFFprobeSibling(t *testing.T) {
	tmp := t.TempDir()
	script := []byte("#!/bin/sh\nexit 0\n")
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	ffprobePath := filepath.Join(tmp, executableName("ffprobe"))
	if err := os.WriteFile(ffmpegPath, script, 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	if err := os.WriteFile(ffprobePath, script, 0o755); err != nil {
		t.Fatalf("write ffprobe stub: %v", err)
	}

	if got := ResolveFFprobe(ffmpegPath); got != ffprobePath {
		t.Fatalf("expected sibling %q, got %q", ffprobePath, got)
	}
}

func TestResolveFFprobeFallsBackToPath(t *testing.T) {
	tmp := t.TempDir()
	ffmpegPath := filepath.Join(tmp, executableName("ffmpeg"))
	if err := os.WriteFile(ffmpegPath, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatalf("write ffmpeg stub: %v", err)
	}
	if got := ResolveFFprobe(ffmpegPath); got != "ffprobe" {
		t.Fatalf("expected PATH fallback, got %q", got)
	}

	t.Setenv("PATH", "")
	if got := ResolveFFprobe("ffmpeg"); got != "ffprobe" {
		t.Fatalf("expected PATH fallback for unresolvable ffmpeg, got %q", got)
	}
	if got := ResolveFFprobe(""); got != "ffprobe" {
		t.Fatalf("expected fallback for empty command, got %q", got)
	}
}

func TestPipelineRequirements(t *testing.T) {
	reqs := Pipeline("/opt/ff/bin/ffmpeg")
	if len(reqs) != 3 {
		t.Fatalf("expected 3 requirements, got %d", len(reqs))
	}
	if reqs[0].Command != "/opt/ff/bin/ffmpeg" || reqs[0].Optional {
		t.Fatalf("unexpected ffmpeg requirement %+v", reqs[0])
	}
	if !reqs[1].Optional || reqs[1].Name != "FFprobe" {
		t.Fatalf("ffprobe should be optional, got %+v", reqs[1])
	}
	if reqs[2].Command != UVX || reqs[2].Optional {
		t.Fatalf("unexpected uvx requirement %+v", reqs[2])
	}
}
