package archive

import (
	"archive/zip"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lingosub/internal/logging"
	"lingosub/internal/services"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestBuildPackagesSubtitleFiles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"en.srt":       "1\n00:00:00,000 --> 00:00:00,700\nHello world\n\n",
		"es.srt":       "1\n00:00:00,000 --> 00:00:00,700\nHola mundo\n\n",
		"words.json":   "[]",
		"rawMedia.mp4": "video",
		"notes.srt":    "ignored",
	})
	dest := filepath.Join(dir, "subtitles.zip")

	res, err := NewBuilder(logging.NewNop()).Build(context.Background(), dir, dest)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if strings.Join(res.Files, ",") != "en.srt,es.srt" || res.SizeBytes == 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	r, err := zip.OpenReader(dest)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	if len(r.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(r.File))
	}
	rc, err := r.File[1].Open()
	if err != nil {
		t.Fatal(err)
	}
	data, _ := io.ReadAll(rc)
	rc.Close()
	if !strings.Contains(string(data), "Hola mundo") {
		t.Fatalf("unexpected es.srt content %q", data)
	}
	if !Matches(dest, dir) {
		t.Fatal("archive should match directory")
	}

	writeFiles(t, dir, map[string]string{"fr.srt": "1\n00:00:00,000 --> 00:00:01,000\nSalut\n\n"})
	if Matches(dest, dir) {
		t.Fatal("archive should be stale after a new language appears")
	}
	if _, err := NewBuilder(logging.NewNop()).Build(context.Background(), dir, dest); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	names, err := Contents(dest)
	if err != nil || len(names) != 3 {
		t.Fatalf("rebuild contents %v %v", names, err)
	}
}

func TestBuildWithoutSubtitlesFails(t *testing.T) {
	dir := t.TempDir()
	_, err := NewBuilder(logging.NewNop()).Build(context.Background(), dir, filepath.Join(dir, "subtitles.zip"))
	if !errors.Is(err, services.ErrPackaging) {
		t.Fatalf("expected packaging error, got %v", err)
	}
}

func TestBuildDiskFullKeepsSubtitles(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"en.srt": "1\n00:00:00,000 --> 00:00:01,000\nHi\n\n"})
	dest := filepath.Join(dir, "subtitles.zip")
	b := NewBuilder(logging.NewNop())
	b.freeBytes = func(string) (uint64, error) { return 10, nil }

	_, err := b.Build(context.Background(), dir, dest)
	if !errors.Is(err, services.ErrPackaging) || !strings.Contains(err.Error(), "insufficient disk space") {
		t.Fatalf("expected disk space error, got %v", err)
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("no archive expected")
	}
	if _, err := os.Stat(filepath.Join(dir, "en.srt")); err != nil {
		t.Fatalf("subtitle file touched: %v", err)
	}
}

func TestBuildUnwritableDestination(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"en.srt": "x"})
	b := NewBuilder(logging.NewNop())
	b.freeBytes = nil
	_, err := b.Build(context.Background(), dir, filepath.Join(dir, "missing", "subtitles.zip"))
	if !errors.Is(err, services.ErrPackaging) {
		t.Fatalf("expected packaging error, got %v", err)
	}
}
