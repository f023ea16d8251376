package config

import "lingosub/internal/language"

const (
	defaultConfigPath            = "~/.config/lingosub/config.toml"
	defaultProjectsDir           = "~/.local/share/lingosub/projects"
	defaultStateDir              = "~/.local/share/lingosub/state"
	defaultLogDir                = "~/.local/share/lingosub/logs"
	defaultAPIBind               = "127.0.0.1:7490"
	defaultSourceLanguage        = "en"
	defaultASRModel              = "large-v3"
	defaultASRVADMethod          = "silero"
	defaultASRSampleRate         = 16000
	defaultTranslationProvider   = "libretranslate"
	defaultLibreTranslateURL     = "http://127.0.0.1:5000"
	defaultOpenAIModel           = "gpt-4o-mini"
	defaultTranslationWorkers    = 4
	defaultBreakerFailures       = 3
	defaultBreakerTimeoutSeconds = 60
	defaultTranscodeSeconds      = 1800
	defaultASRSeconds            = 7200
	defaultTranslationSeconds    = 300
	defaultPackagingSeconds      = 120
	defaultPollInterval          = 5
	defaultMaxConcurrentRuns     = 1
	defaultNotifyTimeout         = 10
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
)

var defaultExtensions = []string{"mp4", "mkv", "mp3", "wav", "m4a", "mov", "webm"}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			ProjectsDir: defaultProjectsDir,
			StateDir:    defaultStateDir,
			LogDir:      defaultLogDir,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Languages: Languages{
			Source:    defaultSourceLanguage,
			Supported: language.DefaultCodes(),
		},
		ASR: ASR{
			Model:      defaultASRModel,
			Language:   defaultSourceLanguage,
			VADMethod:  defaultASRVADMethod,
			SampleRate: defaultASRSampleRate,
		},
		Translation: Translation{
			Provider:              defaultTranslationProvider,
			BaseURL:               defaultLibreTranslateURL,
			Concurrency:           defaultTranslationWorkers,
			BreakerFailures:       defaultBreakerFailures,
			BreakerTimeoutSeconds: defaultBreakerTimeoutSeconds,
		},
		Timeouts: Timeouts{
			TranscodeSeconds:   defaultTranscodeSeconds,
			ASRSeconds:         defaultASRSeconds,
			TranslationSeconds: defaultTranslationSeconds,
			PackagingSeconds:   defaultPackagingSeconds,
		},
		Workflow: Workflow{
			PollInterval:      defaultPollInterval,
			MaxConcurrentRuns: defaultMaxConcurrentRuns,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			RunStarted:     false,
			RunCompleted:   true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Media: Media{
			AllowedExtensions: append([]string(nil), defaultExtensions...),
		},
	}
}
