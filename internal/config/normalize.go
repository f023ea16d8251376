package config

import (
	"fmt"
	"os"
	"strings"

	"lingosub/internal/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeLanguages()
	c.normalizeASR()
	c.normalizeTranslation()
	c.normalizeMedia()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.ProjectsDir) == "" {
		c.Paths.ProjectsDir = defaultProjectsDir
	}
	if c.Paths.ProjectsDir, err = expandPath(c.Paths.ProjectsDir); err != nil {
		return fmt.Errorf("paths.projects_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	c.API.Token = strings.TrimSpace(c.API.Token)
	if c.API.Token == "" {
		c.API.Token = firstEnv("LINGOSUB_API_TOKEN")
	}
	return nil
}

func (c *Config) normalizeLanguages() {
	c.Languages.Source = language.Normalize(c.Languages.Source)
	c.Languages.Supported = language.NormalizeList(c.Languages.Supported)
	if c.Languages.Source == "" {
		return
	}
	for _, code := range c.Languages.Supported {
		if code == c.Languages.Source {
			return
		}
	}
	c.Languages.Supported = append([]string{c.Languages.Source}, c.Languages.Supported...)
}

func (c *Config) normalizeASR() {
	c.ASR.Model = strings.TrimSpace(c.ASR.Model)
	if c.ASR.Model == "" {
		c.ASR.Model = defaultASRModel
	}
	c.ASR.Language = language.Normalize(c.ASR.Language)
	if c.ASR.Language == "" {
		c.ASR.Language = c.Languages.Source
	}
	c.ASR.VADMethod = strings.ToLower(strings.TrimSpace(c.ASR.VADMethod))
	if c.ASR.VADMethod == "" {
		c.ASR.VADMethod = defaultASRVADMethod
	}
	c.ASR.HFToken = strings.TrimSpace(c.ASR.HFToken)
	if c.ASR.HFToken == "" {
		c.ASR.HFToken = firstEnv("HUGGING_FACE_HUB_TOKEN", "HF_TOKEN")
	}
	if c.ASR.SampleRate == 0 {
		c.ASR.SampleRate = defaultASRSampleRate
	}
}

func (c *Config) normalizeTranslation() {
	c.Translation.Provider = strings.ToLower(strings.TrimSpace(c.Translation.Provider))
	if c.Translation.Provider == "" {
		c.Translation.Provider = defaultTranslationProvider
	}
	c.Translation.BaseURL = strings.TrimRight(strings.TrimSpace(c.Translation.BaseURL), "/")
	c.Translation.Model = strings.TrimSpace(c.Translation.Model)
	c.Translation.APIKey = strings.TrimSpace(c.Translation.APIKey)
	if c.Translation.APIKey == "" {
		c.Translation.APIKey = firstEnv("LINGOSUB_TRANSLATION_API_KEY")
	}
	switch c.Translation.Provider {
	case "openai":
		if c.Translation.APIKey == "" {
			c.Translation.APIKey = firstEnv("OPENAI_API_KEY")
		}
		if c.Translation.Model == "" {
			c.Translation.Model = defaultOpenAIModel
		}
		if c.Translation.BaseURL == defaultLibreTranslateURL {
			c.Translation.BaseURL = ""
		}
	case "libretranslate":
		if c.Translation.APIKey == "" {
			c.Translation.APIKey = firstEnv("LIBRETRANSLATE_API_KEY")
		}
		if c.Translation.BaseURL == "" {
			c.Translation.BaseURL = defaultLibreTranslateURL
		}
	}
	if c.Translation.Concurrency <= 0 {
		c.Translation.Concurrency = defaultTranslationWorkers
	}
}

func (c *Config) normalizeMedia() {
	seen := make(map[string]struct{}, len(c.Media.AllowedExtensions))
	exts := make([]string, 0, len(c.Media.AllowedExtensions))
	for _, ext := range c.Media.AllowedExtensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext == "" {
			continue
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		exts = append(exts, ext)
	}
	if len(exts) == 0 {
		exts = append(exts, defaultExtensions...)
	}
	c.Media.AllowedExtensions = exts
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

// firstEnv returns the first of keys whose value is not blank.
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			return value
		}
	}
	return ""
}
