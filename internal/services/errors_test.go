package services_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"lingosub/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTranscode, "extracting_audio", "ffmpeg", "exit status 1", base)
	if !errors.Is(err, services.ErrTranscode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcode error", "extracting_audio", "ffmpeg", "exit status 1", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapWithoutDetail(t *testing.T) {
	err := services.Wrap(services.ErrPackaging, "", "", "", nil)
	if err.Error() != "packaging error: service failure" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestDescribeSurvivesFurtherWrapping(t *testing.T) {
	inner := services.Wrap(services.ErrTranscription, "transcribing", "recognize", "engine failed", context.DeadlineExceeded)
	outer := fmt.Errorf("run project: %w", inner)

	d := services.Describe(outer)
	if d.Kind != "transcription" {
		t.Fatalf("kind = %q", d.Kind)
	}
	if d.Stage != "transcribing" || d.Operation != "recognize" {
		t.Fatalf("unexpected details %+v", d)
	}
	if d.Hint == "" {
		t.Fatal("expected hint")
	}
	if !errors.Is(outer, context.DeadlineExceeded) {
		t.Fatal("expected cause to remain reachable")
	}
}

func TestKindAndFatal(t *testing.T) {
	tests := []struct {
		err   error
		kind  string
		fatal bool
	}{
		{services.Wrap(services.ErrAsset, "", "", "missing", nil), "asset", true},
		{services.Wrap(services.ErrTranslation, "translating_subtitles", "es", "", nil), "translation", false},
		{services.Wrap(services.ErrConcurrency, "", "lock", "held", nil), "concurrency", true},
		{errors.New("plain"), "internal", true},
		{nil, "", false},
	}
	for _, tt := range tests {
		if got := services.Kind(tt.err); got != tt.kind {
			t.Errorf("Kind(%v) = %q, want %q", tt.err, got, tt.kind)
		}
		if got := services.IsFatal(tt.err); got != tt.fatal {
			t.Errorf("IsFatal(%v) = %v, want %v", tt.err, got, tt.fatal)
		}
	}
}
