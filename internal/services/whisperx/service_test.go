package whisperx

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"lingosub/internal/logging"
	"lingosub/internal/transcription"
)

func fakeBinary(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "uvx")
	if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func argValue(args []string, flag string) string {
	idx := slices.Index(args, flag)
	if idx < 0 || idx+1 >= len(args) {
		return ""
	}
	return args[idx+1]
}

func ptr(v float64) *float64 { return &v }

func TestOpenRequiresTokenForPyannote(t *testing.T) {
	_, err := Open(Config{VADMethod: VADMethodPyannote}, logging.NewNop(), WithBinary(fakeBinary(t)))
	if err == nil || !strings.Contains(err.Error(), "Hugging Face") {
		t.Fatalf("expected token error, got %v", err)
	}
	if _, err := Open(Config{}, logging.NewNop(), WithBinary(filepath.Join(t.TempDir(), "missing"))); err == nil {
		t.Fatal("expected missing binary error")
	}
}

func TestRecognizeParsesWhisperXOutput(t *testing.T) {
	dir := t.TempDir()
	audioPath := filepath.Join(dir, "audio.wav")
	if err := os.WriteFile(audioPath, []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotArgs []string
	runner := func(_ context.Context, name string, args ...string) ([]byte, error) {
		gotArgs = args
		out := argValue(args, "--output_dir")
		payload := `{"segments":[{"text":"Hello world","start":0,"end":0.7,"words":[` +
			`{"word":"Hello","start":0.0,"end":0.3},{"word":"world","start":0.4,"end":0.7}]}]}`
		return nil, os.WriteFile(filepath.Join(out, "audio.json"), []byte(payload), 0o644)
	}
	engine, err := Open(Config{Language: "eng"}, logging.NewNop(), WithBinary(fakeBinary(t)), WithRunner(runner))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if engine.SampleRate() != 16000 || engine.Model() != DefaultModel {
		t.Fatalf("unexpected defaults rate=%d model=%s", engine.SampleRate(), engine.Model())
	}

	tokens, err := engine.Recognize(context.Background(), transcription.Audio{Path: audioPath, SampleRate: 16000})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	words := transcription.SegmentWords(tokens)
	if len(words) != 2 || words[0].Text != "Hello" || words[1].Text != "world" {
		t.Fatalf("unexpected words %+v", words)
	}
	if words[0].Start != 0 || words[0].Duration != 0.3 || words[1].Start != 0.4 {
		t.Fatalf("unexpected timing %+v", words)
	}

	if argValue(gotArgs, "--language") != "en" || argValue(gotArgs, "--output_format") != "json" {
		t.Fatalf("unexpected args %v", gotArgs)
	}
	if argValue(gotArgs, "--device") != "cpu" {
		t.Fatalf("expected cpu device, got %v", gotArgs)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary output dir not removed: %v", entries)
	}
}

func TestRecognizeRunnerFailure(t *testing.T) {
	runner := func(context.Context, string, ...string) ([]byte, error) {
		return []byte("loading model\nCUDA out of memory"), errors.New("exit status 1")
	}
	engine, err := Open(Config{CUDAEnabled: true}, logging.NewNop(), WithBinary(fakeBinary(t)), WithRunner(runner))
	if err != nil {
		t.Fatal(err)
	}
	audioPath := filepath.Join(t.TempDir(), "audio.wav")
	_, err = engine.Recognize(context.Background(), transcription.Audio{Path: audioPath})
	if err == nil || !strings.Contains(err.Error(), "CUDA out of memory") {
		t.Fatalf("expected runner output in error, got %v", err)
	}
}

func TestTokensHandlesMissingTimings(t *testing.T) {
	segments := []Segment{
		{Start: 1.0, End: 2.0, Words: []Word{
			{Word: "in", Start: ptr(1.0), End: ptr(1.2)},
			{Word: "1999"},
			{Word: "ok", Start: ptr(1.5), End: ptr(1.9)},
		}},
		{Text: "two words", Start: 3.0, End: 4.0},
	}
	words := transcription.SegmentWords(Tokens(segments))
	if len(words) != 5 {
		t.Fatalf("expected 5 words, got %+v", words)
	}
	if words[1].Text != "1999" || words[1].Start != 1.2 || words[1].Duration != 0 {
		t.Fatalf("untimed word should inherit previous end: %+v", words[1])
	}
	if words[3].Text != "two" || words[3].Start != 3.0 || words[4].Start != 3.5 {
		t.Fatalf("unaligned segment not spread: %+v", words[3:])
	}
}
