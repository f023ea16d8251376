package testsupport

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"lingosub/internal/media/audio"
)

// WriteFile creates path, and any missing parents, holding size filler bytes
// (at least one).
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	writeBytes(t, path, bytes.Repeat([]byte{'B'}, int(max(size, 1))))
}

// WriteWAV writes seconds of a quiet sawtooth as 16-bit mono PCM.
func WriteWAV(t testing.TB, path string, sampleRate int, seconds float64) {
	t.Helper()
	samples := make([]int16, int(float64(sampleRate)*seconds))
	for i := range samples {
		samples[i] = int16(i%200 - 100)
	}
	var buf bytes.Buffer
	if err := audio.EncodeWAV(&buf, sampleRate, samples); err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	writeBytes(t, path, buf.Bytes())
}

func writeBytes(t testing.TB, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
