package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	ProjectsDir string `toml:"projects_dir"`
	StateDir    string `toml:"state_dir"`
	LogDir      string `toml:"log_dir"`
}

// API contains the daemon HTTP listener configuration.
type API struct {
	Bind  string `toml:"bind"`
	Token string `toml:"token"`
}

// Languages lists the subtitle languages produced for every project.
type Languages struct {
	Source    string   `toml:"source"`
	Supported []string `toml:"supported"`
}

// ASR contains speech recognition settings.
type ASR struct {
	Model      string `toml:"model"`
	Language   string `toml:"language"`
	CUDA       bool   `toml:"cuda"`
	VADMethod  string `toml:"vad_method"`
	HFToken    string `toml:"hf_token"`
	SampleRate int    `toml:"sample_rate"`
}

// Translation contains translation engine settings.
type Translation struct {
	Provider              string `toml:"provider"`
	BaseURL               string `toml:"base_url"`
	APIKey                string `toml:"api_key"`
	Model                 string `toml:"model"`
	Concurrency           int    `toml:"concurrency"`
	BreakerFailures       int    `toml:"breaker_failures"`
	BreakerTimeoutSeconds int    `toml:"breaker_timeout_seconds"`
}

// Timeouts bounds each call to an external collaborator, in seconds.
type Timeouts struct {
	TranscodeSeconds   int `toml:"transcode_seconds"`
	ASRSeconds         int `toml:"asr_seconds"`
	TranslationSeconds int `toml:"translation_seconds"`
	PackagingSeconds   int `toml:"packaging_seconds"`
}

// Workflow contains configuration for daemon timing and parallelism.
type Workflow struct {
	PollInterval      int `toml:"poll_interval"`
	MaxConcurrentRuns int `toml:"max_concurrent_runs"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	RunStarted     bool   `toml:"run_started"`
	RunCompleted   bool   `toml:"run_completed"`
	Errors         bool   `toml:"errors"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Media contains source asset rules.
type Media struct {
	AllowedExtensions []string `toml:"allowed_extensions"`
}

// Config encapsulates all configuration values for lingosub.
//
// Configuration sections by subsystem:
//   - Paths: project, state and log directories
//   - API: daemon HTTP listener
//   - Languages: source language and every language to produce
//   - ASR: WhisperX model selection
//   - Translation: translation engine and fan-out limits
//   - Timeouts: per-call limits for external tools
//   - Workflow: daemon polling and run parallelism
//   - Notifications: ntfy push notification settings
//   - Logging: log format and level
//   - Media: accepted source formats
type Config struct {
	Paths         Paths         `toml:"paths"`
	API           API           `toml:"api"`
	Languages     Languages     `toml:"languages"`
	ASR           ASR           `toml:"asr"`
	Translation   Translation   `toml:"translation"`
	Timeouts      Timeouts      `toml:"timeouts"`
	Workflow      Workflow      `toml:"workflow"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
	Media         Media         `toml:"media"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("lingosub.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.ProjectsDir, c.Paths.StateDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DaemonLogName is the file name of the current daemon log link.
const DaemonLogName = "lingosubd.log"

// QueueDBPath returns the run queue database location.
func (c *Config) QueueDBPath() string {
	return filepath.Join(c.Paths.StateDir, "queue.db")
}

// DaemonLockPath returns the single-instance lock used by the daemon.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.StateDir, "lingosubd.lock")
}

// DaemonPIDPath returns the file holding the daemon process id.
func (c *Config) DaemonPIDPath() string {
	return filepath.Join(c.Paths.StateDir, "lingosubd.pid")
}

// DaemonLogPath returns the link to the current daemon log file.
func (c *Config) DaemonLogPath() string {
	return filepath.Join(c.Paths.LogDir, DaemonLogName)
}

// FFmpegBinary returns the ffmpeg executable name.
func (c *Config) FFmpegBinary() string {
	return "ffmpeg"
}

// FFprobeBinary returns the ffprobe executable name used for media probing.
func (c *Config) FFprobeBinary() string {
	return "ffprobe"
}

// TargetLanguages returns every supported language except the source.
func (c *Config) TargetLanguages() []string {
	var targets []string
	for _, code := range c.Languages.Supported {
		if code == c.Languages.Source {
			continue
		}
		targets = append(targets, code)
	}
	return targets
}

// TranscodeTimeout returns the ffmpeg call limit.
func (c *Config) TranscodeTimeout() time.Duration {
	return seconds(c.Timeouts.TranscodeSeconds)
}

// ASRTimeout returns the speech recognition call limit.
func (c *Config) ASRTimeout() time.Duration {
	return seconds(c.Timeouts.ASRSeconds)
}

// TranslationTimeout returns the per-language translation limit.
func (c *Config) TranslationTimeout() time.Duration {
	return seconds(c.Timeouts.TranslationSeconds)
}

// PackagingTimeout returns the archive build limit.
func (c *Config) PackagingTimeout() time.Duration {
	return seconds(c.Timeouts.PackagingSeconds)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
