package translation

import (
	"fmt"
	"log/slog"
	"time"

	"lingosub/internal/config"
	"lingosub/internal/services/libretranslate"
	"lingosub/internal/services/llm"
)

// Provider names accepted in configuration.
const (
	ProviderLibreTranslate = "libretranslate"
	ProviderOpenAI         = "openai"
)

// NewEngineFromConfig builds the configured translation engine behind a
// circuit breaker.
func NewEngineFromConfig(cfg *config.Config, logger *slog.Logger) (*BreakerEngine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("translation: config required")
	}
	var engine Engine
	switch cfg.Translation.Provider {
	case ProviderLibreTranslate:
		engine = libretranslate.New(libretranslate.Config{
			BaseURL: cfg.Translation.BaseURL,
			APIKey:  cfg.Translation.APIKey,
		})
	case ProviderOpenAI:
		engine = llm.NewClient(llm.Config{
			APIKey:         cfg.Translation.APIKey,
			BaseURL:        cfg.Translation.BaseURL,
			Model:          cfg.Translation.Model,
			TimeoutSeconds: cfg.Timeouts.TranslationSeconds,
		})
	default:
		return nil, fmt.Errorf("translation: unsupported provider %q", cfg.Translation.Provider)
	}
	cooldown := time.Duration(cfg.Translation.BreakerTimeoutSeconds) * time.Second
	return NewBreakerEngine(engine, cfg.Translation.Provider, cfg.Translation.BreakerFailures, cooldown, logger), nil
}
