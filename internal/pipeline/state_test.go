package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"lingosub/internal/services"
)

func TestAdvanceIsForwardOnly(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := NewState()
	st.Begin("run-1", now)

	if err := st.Advance(StageExtractingAudio, now); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if err := st.Advance(StageBuildingSubtitles, now); err != nil {
		t.Fatalf("skipping forward should be allowed: %v", err)
	}
	for _, back := range []Stage{StageTranscribing, StageBuildingSubtitles, StageNotStarted} {
		if err := st.Advance(back, now); !errors.Is(err, ErrInvalidTransition) {
			t.Fatalf("advance to %s: expected invalid transition, got %v", back, err)
		}
	}
	if err := st.Advance(Stage("bogus"), now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected unknown stage to be rejected, got %v", err)
	}
	if err := st.Finish(now); err != nil {
		t.Fatalf("finish: %v", err)
	}
	if err := st.Advance(StageFailed, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("complete is terminal, got %v", err)
	}
}

func TestFailRecordsStageAndKind(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := NewState()
	st.Begin("run-1", now)
	_ = st.Advance(StagePackaging, now)

	st.Fail(StagePackaging, services.Wrap(services.ErrPackaging, "packaging", "build archive", "disk full", nil), now)
	if st.Stage != StageFailed || st.Status != StatusFailed || !st.FinishedAt.Equal(now) {
		t.Fatalf("unexpected state %+v", st)
	}
	if st.LastError.Stage != StagePackaging || st.LastError.Kind != "packaging" || st.LastError.Hint == "" {
		t.Fatalf("unexpected error record %+v", st.LastError)
	}
	if err := st.Advance(StageComplete, now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("failed is terminal, got %v", err)
	}
}

func TestBeginClearsPreviousRun(t *testing.T) {
	now := time.Unix(1700000000, 0)
	st := NewState()
	st.AddFailedLanguages("fr")
	st.AddWarning("low sample rate")
	st.Fail(StageTranscribing, errors.New("boom"), now)

	st.Begin("run-2", now)
	if st.LastError != nil || len(st.FailedLanguages) != 0 || len(st.Warnings) != 0 {
		t.Fatalf("Begin should reset run data: %+v", st)
	}
	if st.Stage != StageNotStarted || st.Status != StatusRunning || st.RunID != "run-2" {
		t.Fatalf("unexpected state %+v", st)
	}
}

func TestAddFailedLanguagesIsSortedSet(t *testing.T) {
	st := NewState()
	st.AddFailedLanguages("fr", "de")
	st.AddFailedLanguages("fr", " ", "es")
	if want := []string{"de", "es", "fr"}; !reflect.DeepEqual(st.FailedLanguages, want) {
		t.Fatalf("failed languages = %v, want %v", st.FailedLanguages, want)
	}
}

func TestAddWarningDeduplicates(t *testing.T) {
	st := NewState()
	st.AddWarning("a")
	st.AddWarning("a")
	st.AddWarning("")
	if len(st.Warnings) != 1 {
		t.Fatalf("warnings = %v", st.Warnings)
	}
}

func TestStatePersistence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")

	st, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState on missing file: %v", err)
	}
	if st.Stage != StageNotStarted || st.Status != StatusPending {
		t.Fatalf("unexpected fresh state %+v", st)
	}

	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	st.Begin("run-1", now)
	_ = st.Advance(StageTranscribing, now)
	st.MarkCompleted(StageExtractingAudio, now)
	st.AddFailedLanguages("fr")
	if err := SaveState(path, st); err != nil {
		t.Fatalf("SaveState: %v", err)
	}

	loaded, err := LoadState(path)
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if loaded.RunID != "run-1" || loaded.Stage != StageTranscribing || !loaded.IsCompleted(StageExtractingAudio) {
		t.Fatalf("unexpected loaded state %+v", loaded)
	}
	if !loaded.StartedAt.Equal(now) || !reflect.DeepEqual(loaded.FailedLanguages, []string{"fr"}) {
		t.Fatalf("unexpected loaded state %+v", loaded)
	}
}

func TestLoadStateRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(`{"stage":"warp_speed"}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadState(path); err == nil {
		t.Fatal("expected unknown stage to be rejected")
	}
}
