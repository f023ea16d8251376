package config_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"lingosub/internal/config"
)

func clearCredentialEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"LINGOSUB_TRANSLATION_API_KEY", "LINGOSUB_API_TOKEN", "OPENAI_API_KEY", "LIBRETRANSLATE_API_KEY", "HF_TOKEN", "HUGGING_FACE_HUB_TOKEN"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearCredentialEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantProjects := filepath.Join(tempHome, ".local", "share", "lingosub", "projects")
	if cfg.Paths.ProjectsDir != wantProjects {
		t.Fatalf("unexpected projects dir: got %q want %q", cfg.Paths.ProjectsDir, wantProjects)
	}
	if cfg.API.Bind != "127.0.0.1:7490" {
		t.Fatalf("unexpected api bind: %q", cfg.API.Bind)
	}
	if cfg.Languages.Source != "en" {
		t.Fatalf("expected english source, got %q", cfg.Languages.Source)
	}
	if cfg.ASR.SampleRate != 16000 {
		t.Fatalf("expected 16 kHz sample rate, got %d", cfg.ASR.SampleRate)
	}
	if cfg.Translation.Provider != "libretranslate" {
		t.Fatalf("unexpected translation provider %q", cfg.Translation.Provider)
	}
	if cfg.TranslationTimeout() != 300*time.Second {
		t.Fatalf("unexpected translation timeout %s", cfg.TranslationTimeout())
	}
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}

	for _, dir := range []string{cfg.Paths.ProjectsDir, cfg.Paths.StateDir, cfg.Paths.LogDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearCredentialEnv(t)
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "lingosub.toml")

	type payload struct {
		Languages struct {
			Source    string   `toml:"source"`
			Supported []string `toml:"supported"`
		} `toml:"languages"`
		Translation struct {
			Provider string `toml:"provider"`
			APIKey   string `toml:"api_key"`
		} `toml:"translation"`
		Media struct {
			AllowedExtensions []string `toml:"allowed_extensions"`
		} `toml:"media"`
	}
	custom := payload{}
	custom.Languages.Source = "eng"
	custom.Languages.Supported = []string{"es", "FR", "es"}
	custom.Translation.Provider = "OpenAI"
	custom.Translation.APIKey = "sk-test"
	custom.Media.AllowedExtensions = []string{".MP4", "mkv"}
	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal custom config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write custom config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected exists to be true")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: got %q want %q", resolved, configPath)
	}
	if cfg.Languages.Source != "en" {
		t.Fatalf("expected normalized source, got %q", cfg.Languages.Source)
	}
	if want := []string{"en", "es", "fr"}; !reflect.DeepEqual(cfg.Languages.Supported, want) {
		t.Fatalf("supported = %v, want %v", cfg.Languages.Supported, want)
	}
	if want := []string{"es", "fr"}; !reflect.DeepEqual(cfg.TargetLanguages(), want) {
		t.Fatalf("targets = %v, want %v", cfg.TargetLanguages(), want)
	}
	if cfg.Translation.Provider != "openai" || cfg.Translation.Model == "" {
		t.Fatalf("expected openai provider with default model, got %+v", cfg.Translation)
	}
	if cfg.Translation.BaseURL != "" {
		t.Fatalf("expected libretranslate url cleared for openai, got %q", cfg.Translation.BaseURL)
	}
	if want := []string{"mp4", "mkv"}; !reflect.DeepEqual(cfg.Media.AllowedExtensions, want) {
		t.Fatalf("extensions = %v, want %v", cfg.Media.AllowedExtensions, want)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	clearCredentialEnv(t)
	configPath := filepath.Join(t.TempDir(), "lingosub.toml")
	if err := os.WriteFile(configPath, []byte("[paths]\nstaging_dir = \"/tmp\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown key to be rejected")
	}
}

func TestEnvFallbackForAPIKeys(t *testing.T) {
	clearCredentialEnv(t)
	configPath := filepath.Join(t.TempDir(), "lingosub.toml")
	if err := os.WriteFile(configPath, []byte("[translation]\nprovider = \"openai\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("OPENAI_API_KEY", "env-openai")
	t.Setenv("HF_TOKEN", "env-hf")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Translation.APIKey != "env-openai" {
		t.Errorf("expected OpenAI key from env, got %q", cfg.Translation.APIKey)
	}
	if cfg.ASR.HFToken != "env-hf" {
		t.Errorf("expected HuggingFace token from env, got %q", cfg.ASR.HFToken)
	}
}

func TestEnvFallbackSkipsBlankVariables(t *testing.T) {
	clearCredentialEnv(t)
	configPath := filepath.Join(t.TempDir(), "lingosub.toml")
	if err := os.WriteFile(configPath, []byte("[translation]\nprovider = \"openai\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HUGGING_FACE_HUB_TOKEN", "")
	t.Setenv("HF_TOKEN", "env-hf")
	t.Setenv("LINGOSUB_TRANSLATION_API_KEY", "  ")
	t.Setenv("OPENAI_API_KEY", "env-openai")

	cfg, _, _, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ASR.HFToken != "env-hf" {
		t.Errorf("expected HF_TOKEN after blank HUGGING_FACE_HUB_TOKEN, got %q", cfg.ASR.HFToken)
	}
	if cfg.Translation.APIKey != "env-openai" {
		t.Errorf("expected OPENAI_API_KEY after blank LINGOSUB_TRANSLATION_API_KEY, got %q", cfg.Translation.APIKey)
	}
}

func TestOpenAIProviderRequiresKey(t *testing.T) {
	clearCredentialEnv(t)
	configPath := filepath.Join(t.TempDir(), "lingosub.toml")
	if err := os.WriteFile(configPath, []byte("[translation]\nprovider = \"openai\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(configPath)
	if err == nil || !strings.Contains(err.Error(), "translation.api_key") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestCreateSample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample failed: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}

	var cfg config.Config
	if err := toml.Unmarshal(contents, &cfg); err != nil {
		t.Fatalf("unmarshal sample: %v", err)
	}
	if !strings.Contains(cfg.Paths.ProjectsDir, "lingosub") {
		t.Fatalf("expected projects dir to contain lingosub, got %q", cfg.Paths.ProjectsDir)
	}
	if cfg.Translation.Concurrency != config.Default().Translation.Concurrency {
		t.Fatalf("sample concurrency %d drifted from default", cfg.Translation.Concurrency)
	}
}

func TestValidateDetectsInvalidValues(t *testing.T) {
	cases := map[string]func(*config.Config){
		"timeout":   func(c *config.Config) { c.Timeouts.TranscodeSeconds = 0 },
		"poll":      func(c *config.Config) { c.Workflow.PollInterval = 0 },
		"runs":      func(c *config.Config) { c.Workflow.MaxConcurrentRuns = 0 },
		"provider":  func(c *config.Config) { c.Translation.Provider = "babelfish" },
		"vad":       func(c *config.Config) { c.ASR.VADMethod = "none" },
		"format":    func(c *config.Config) { c.Logging.Format = "xml" },
		"languages": func(c *config.Config) { c.Languages.Supported = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := config.Default()
			mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatalf("expected validation error")
			}
		})
	}

	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}
