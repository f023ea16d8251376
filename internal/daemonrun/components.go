package daemonrun

import (
	"fmt"
	"log/slog"

	"lingosub/internal/archive"
	"lingosub/internal/config"
	"lingosub/internal/deps"
	"lingosub/internal/media/audio"
	"lingosub/internal/media/ffprobe"
	"lingosub/internal/notifications"
	"lingosub/internal/pipeline"
	"lingosub/internal/project"
	"lingosub/internal/services/whisperx"
	"lingosub/internal/transcription"
	"lingosub/internal/translation"
)

// Components are the pipeline collaborators built from configuration. The
// daemon and the foreground CLI run share them.
type Components struct {
	Projects    *project.Store
	Runner      *pipeline.Runner
	Notifier    notifications.Service
	transcriber *transcription.Transcriber
}

// NewProjectStore builds the project store alone, for commands that never
// run the pipeline.
func NewProjectStore(cfg *config.Config, logger *slog.Logger) *project.Store {
	prober := ffprobe.Prober{Binary: deps.ResolveFFprobe(cfg.FFmpegBinary())}
	return project.NewStore(cfg.Paths.ProjectsDir, cfg.Media.AllowedExtensions, prober, logger)
}

// Build wires the configured engines into a pipeline runner. It fails when
// the speech recognizer or translation engine cannot be set up.
func Build(cfg *config.Config, logger *slog.Logger) (*Components, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	prober := ffprobe.Prober{Binary: deps.ResolveFFprobe(cfg.FFmpegBinary())}
	projects := project.NewStore(cfg.Paths.ProjectsDir, cfg.Media.AllowedExtensions, prober, logger)

	engine, err := whisperx.Open(whisperx.Config{
		Model:       cfg.ASR.Model,
		Language:    cfg.ASR.Language,
		CUDAEnabled: cfg.ASR.CUDA,
		VADMethod:   cfg.ASR.VADMethod,
		HFToken:     cfg.ASR.HFToken,
		SampleRate:  cfg.ASR.SampleRate,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("open speech recognizer: %w", err)
	}
	transcriber := transcription.New(engine, cfg.ASRTimeout(), logger)

	notifier := notifications.NewService(cfg)
	opts := pipeline.Options{
		Projects:         projects,
		Extractor:        audio.NewExtractor(cfg.FFmpegBinary(), cfg.TranscodeTimeout(), prober, logger),
		Transcriber:      transcriber,
		Packager:         archive.NewBuilder(logger),
		Notifier:         notifier,
		Logger:           logger,
		SourceLanguage:   cfg.Languages.Source,
		Targets:          cfg.TargetLanguages(),
		PackagingTimeout: cfg.PackagingTimeout(),
	}
	if len(opts.Targets) > 0 {
		translator, err := translation.NewEngineFromConfig(cfg, logger)
		if err != nil {
			_ = transcriber.Close()
			return nil, fmt.Errorf("build translation engine: %w", err)
		}
		opts.Translator = translation.NewFanOut(translator, cfg.Translation.Concurrency, cfg.TranslationTimeout(), logger)
	}
	runner, err := pipeline.NewRunner(opts)
	if err != nil {
		_ = transcriber.Close()
		return nil, err
	}
	return &Components{
		Projects:    projects,
		Runner:      runner,
		Notifier:    notifier,
		transcriber: transcriber,
	}, nil
}

// Close releases the speech recognizer.
func (c *Components) Close() error {
	if c == nil || c.transcriber == nil {
		return nil
	}
	return c.transcriber.Close()
}
