package project

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lingosub/internal/logging"
	"lingosub/internal/media/ffprobe"
	"lingosub/internal/services"
)

type stubProber struct {
	result ffprobe.Result
	err    error
}

func (s stubProber) Inspect(context.Context, string) (ffprobe.Result, error) {
	return s.result, s.err
}

func videoProbe() ffprobe.Result {
	return ffprobe.Result{
		Streams: []ffprobe.Stream{
			{Index: 0, CodecType: "video", CodecName: "h264", Width: 1920, Height: 1080},
			{Index: 1, CodecType: "audio", CodecName: "aac", Channels: 2},
		},
		Format: ffprobe.Format{Duration: "12.5"},
	}
}

func writeSource(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("media bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestStore(t *testing.T, prober Prober) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "projects"), []string{"mp4", ".MKV"}, prober, logging.NewNop())
}

func TestCreateAndGet(t *testing.T) {
	store := newTestStore(t, stubProber{result: videoProbe()})
	src := writeSource(t, "Interview.MP4")

	p, err := store.Create(context.Background(), CreateRequest{SourcePath: src})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.ID == "" || p.Name != "Interview" || p.FileEnding != "mp4" {
		t.Fatalf("unexpected project %+v", p)
	}
	if p.DurationSeconds != 12.5 || p.Width != 1920 || p.Height != 1080 || !p.IsVideo() {
		t.Fatalf("probe data not recorded: %+v", p)
	}
	layout := store.Layout(p)
	data, err := os.ReadFile(layout.RawMedia())
	if err != nil || string(data) != "media bytes" {
		t.Fatalf("raw media not copied: %v", err)
	}

	got, err := store.Get(p.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ID != p.ID || got.Name != p.Name || !got.CreatedAt.Equal(p.CreatedAt) {
		t.Fatalf("Get = %+v, want %+v", got, p)
	}
}

func TestCreateRejectsUnsupportedFormat(t *testing.T) {
	store := newTestStore(t, nil)
	_, err := store.Create(context.Background(), CreateRequest{SourcePath: writeSource(t, "notes.txt")})
	if !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error, got %v", err)
	}
	_, err = store.Create(context.Background(), CreateRequest{SourcePath: filepath.Join(t.TempDir(), "missing.mp4")})
	if !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error for missing file, got %v", err)
	}
}

func TestCreateRejectsSilentSource(t *testing.T) {
	probe := ffprobe.Result{Streams: []ffprobe.Stream{{Index: 0, CodecType: "video"}}}
	store := newTestStore(t, stubProber{result: probe})
	_, err := store.Create(context.Background(), CreateRequest{SourcePath: writeSource(t, "clip.mkv")})
	if !errors.Is(err, services.ErrAsset) {
		t.Fatalf("expected asset error, got %v", err)
	}
	projects, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(projects) != 0 {
		t.Fatalf("failed create left %d projects behind", len(projects))
	}
}

func TestCreateToleratesProbeFailure(t *testing.T) {
	store := newTestStore(t, stubProber{err: errors.New("ffprobe missing")})
	p, err := store.Create(context.Background(), CreateRequest{Name: "Talk", SourcePath: writeSource(t, "a.mp4")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Name != "Talk" || p.DurationSeconds != 0 {
		t.Fatalf("unexpected project %+v", p)
	}
}

func TestListNewestFirst(t *testing.T) {
	store := newTestStore(t, nil)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	var ids []string
	for i := 0; i < 3; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		store.now = func() time.Time { return at }
		p, err := store.Create(context.Background(), CreateRequest{SourcePath: writeSource(t, "x.mp4")})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, p.ID)
	}
	if err := os.MkdirAll(filepath.Join(store.Root(), "stray"), 0o755); err != nil {
		t.Fatal(err)
	}

	projects, err := store.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(projects) != 3 {
		t.Fatalf("expected 3 projects, got %d", len(projects))
	}
	if projects[0].ID != ids[2] || projects[2].ID != ids[0] {
		t.Fatalf("unexpected order %v", projects)
	}
}

func TestGetUnknownIsNotFound(t *testing.T) {
	store := newTestStore(t, nil)
	for _, id := range []string{"missing", "../etc", ""} {
		if _, err := store.Get(id); !errors.Is(err, services.ErrNotFound) {
			t.Fatalf("Get(%q) = %v, want not found", id, err)
		}
	}
}

func TestDeleteRespectsRunLock(t *testing.T) {
	store := newTestStore(t, nil)
	p, err := store.Create(context.Background(), CreateRequest{SourcePath: writeSource(t, "a.mp4")})
	if err != nil {
		t.Fatal(err)
	}

	unlock, err := store.TryLock(p)
	if err != nil {
		t.Fatalf("TryLock: %v", err)
	}
	if !store.IsLocked(p) {
		t.Fatal("expected project to report locked")
	}
	if _, err := store.TryLock(p); !errors.Is(err, services.ErrConcurrency) {
		t.Fatalf("second lock = %v, want concurrency error", err)
	}
	if err := store.Delete(context.Background(), p.ID); !errors.Is(err, services.ErrConcurrency) {
		t.Fatalf("delete while locked = %v, want concurrency error", err)
	}
	unlock()

	if store.IsLocked(p) {
		t.Fatal("expected lock to be released")
	}
	if err := store.Delete(context.Background(), p.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := os.Stat(store.Dir(p.ID)); !os.IsNotExist(err) {
		t.Fatalf("project dir still present: %v", err)
	}
}

func TestArtifacts(t *testing.T) {
	store := newTestStore(t, nil)
	p, err := store.Create(context.Background(), CreateRequest{SourcePath: writeSource(t, "a.mp4")})
	if err != nil {
		t.Fatal(err)
	}
	layout := store.Layout(p)
	for _, path := range []string{layout.Audio(), layout.Words(), layout.Subtitle("en"), layout.Subtitle("es"), layout.Archive(), layout.Lock()} {
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(layout.Dir, "notes.srt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	artifacts, err := store.Artifacts(p.ID)
	if err != nil {
		t.Fatalf("Artifacts: %v", err)
	}
	kinds := map[string]string{}
	for _, a := range artifacts {
		kinds[a.Name] = a.Kind
	}
	want := map[string]string{
		"audio.wav":     KindAudio,
		"en.srt":        KindSubtitle,
		"es.srt":        KindSubtitle,
		"metadata.json": KindMetadata,
		"rawMedia.mp4":  KindMedia,
		"subtitles.zip": KindArchive,
		"words.json":    KindWords,
	}
	if len(kinds) != len(want) {
		t.Fatalf("artifacts = %v, want %v", kinds, want)
	}
	for name, kind := range want {
		if kinds[name] != kind {
			t.Fatalf("artifact %s kind = %q, want %q", name, kinds[name], kind)
		}
	}

	langs, err := store.SubtitleLanguages(p.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(langs) != 2 || langs[0] != "en" || langs[1] != "es" {
		t.Fatalf("unexpected languages %v", langs)
	}
}
