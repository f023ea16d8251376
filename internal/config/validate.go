package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateLanguages(); err != nil {
		return err
	}
	if err := c.validateASR(); err != nil {
		return err
	}
	if err := c.validateTranslation(); err != nil {
		return err
	}
	if err := c.validateTimeouts(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateLanguages() error {
	if c.Languages.Source == "" {
		return errors.New("languages.source must be a valid language code")
	}
	if len(c.Languages.Supported) == 0 {
		return errors.New("languages.supported must list at least one language")
	}
	return nil
}

func (c *Config) validateASR() error {
	if c.ASR.SampleRate <= 0 {
		return errors.New("asr.sample_rate must be positive")
	}
	switch c.ASR.VADMethod {
	case "silero", "pyannote":
	default:
		return fmt.Errorf("asr.vad_method: unsupported value %q", c.ASR.VADMethod)
	}
	return nil
}

func (c *Config) validateTranslation() error {
	switch c.Translation.Provider {
	case "libretranslate":
		if c.Translation.BaseURL == "" {
			return errors.New("translation.base_url must be set for libretranslate")
		}
	case "openai":
		if c.Translation.APIKey == "" {
			return errors.New("translation.api_key is required for openai. Set OPENAI_API_KEY or edit the config (create with 'lingosub config init')")
		}
	default:
		return fmt.Errorf("translation.provider: unsupported value %q", c.Translation.Provider)
	}
	if c.Translation.BreakerFailures < 0 {
		return errors.New("translation.breaker_failures must be >= 0")
	}
	if c.Translation.BreakerTimeoutSeconds < 0 {
		return errors.New("translation.breaker_timeout_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateTimeouts() error {
	if c.Timeouts.TranscodeSeconds <= 0 {
		return errors.New("timeouts.transcode_seconds must be positive")
	}
	if c.Timeouts.ASRSeconds <= 0 {
		return errors.New("timeouts.asr_seconds must be positive")
	}
	if c.Timeouts.TranslationSeconds <= 0 {
		return errors.New("timeouts.translation_seconds must be positive")
	}
	if c.Timeouts.PackagingSeconds <= 0 {
		return errors.New("timeouts.packaging_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.PollInterval <= 0 {
		return errors.New("workflow.poll_interval must be positive")
	}
	if c.Workflow.MaxConcurrentRuns <= 0 {
		return errors.New("workflow.max_concurrent_runs must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeout <= 0 {
		return errors.New("notifications.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
	return nil
}
