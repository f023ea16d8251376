package preflight

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"lingosub/internal/config"
	"lingosub/internal/services/libretranslate"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckFreeSpace(t *testing.T) {
	dir := t.TempDir()
	if result := CheckFreeSpace("disk", dir, 1); !result.Passed {
		t.Fatalf("expected pass with 1 byte minimum, got: %s", result.Detail)
	}
	if result := CheckFreeSpace("disk", dir, ^uint64(0)); result.Passed {
		t.Fatal("expected failure with impossible minimum")
	}
	if result := CheckFreeSpace("disk", filepath.Join(dir, "missing"), 1); result.Passed {
		t.Fatal("expected failure for missing path")
	}
}

func TestFormatBytes(t *testing.T) {
	cases := map[uint64]string{
		512:     "512 B",
		2048:    "2.0 KiB",
		1 << 30: "1.0 GiB",
	}
	for in, want := range cases {
		if got := formatBytes(in); got != want {
			t.Errorf("formatBytes(%d) = %q, want %q", in, got, want)
		}
	}
}

func libreServer(t *testing.T, langs []libretranslate.Language) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/languages" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(langs)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func libreConfig(url string, supported ...string) *config.Config {
	cfg := config.Default()
	cfg.Translation.Provider = "libretranslate"
	cfg.Translation.BaseURL = url
	cfg.Languages.Source = "en"
	cfg.Languages.Supported = supported
	return &cfg
}

func TestCheckTranslationEngineLibreTranslate(t *testing.T) {
	srv := libreServer(t, []libretranslate.Language{
		{Code: "en", Name: "English", Targets: []string{"es", "fr"}},
	})

	result := CheckTranslationEngine(context.Background(), libreConfig(srv.URL, "en", "es", "fr"))
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}

	result = CheckTranslationEngine(context.Background(), libreConfig(srv.URL, "en", "es", "de"))
	if result.Passed {
		t.Fatal("expected failure when a target is not offered")
	}
	if !strings.Contains(result.Detail, "de") {
		t.Fatalf("expected missing language in detail, got %q", result.Detail)
	}
}

func TestCheckTranslationEngineUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	if result := CheckTranslationEngine(context.Background(), libreConfig(srv.URL, "en", "es")); result.Passed {
		t.Fatal("expected failure for server error")
	}
}

func TestCheckTranslationEngineSkipsWithoutTargets(t *testing.T) {
	result := CheckTranslationEngine(context.Background(), libreConfig("http://127.0.0.1:1", "en"))
	if !result.Passed {
		t.Fatalf("expected pass without targets, got: %s", result.Detail)
	}
}

func TestCheckTranslationEngineOpenAIMissingKey(t *testing.T) {
	cfg := config.Default()
	cfg.Translation.Provider = "openai"
	cfg.Translation.APIKey = ""
	result := CheckTranslationEngine(context.Background(), &cfg)
	if result.Passed || result.Detail != "API key missing" {
		t.Fatalf("expected missing key failure, got %+v", result)
	}
}

func TestFailedFilters(t *testing.T) {
	results := []Result{{Name: "a", Passed: true}, {Name: "b"}}
	failed := Failed(results)
	if len(failed) != 1 || failed[0].Name != "b" {
		t.Fatalf("unexpected failed results %+v", failed)
	}
}
