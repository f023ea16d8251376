package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"lingosub/internal/archive"
	"lingosub/internal/fileutil"
	"lingosub/internal/logging"
	"lingosub/internal/media/audio"
	"lingosub/internal/notifications"
	"lingosub/internal/project"
	"lingosub/internal/services"
	"lingosub/internal/subtitles"
	"lingosub/internal/transcription"
	"lingosub/internal/translation"
)

// Projects resolves and locks projects. *project.Store implements it.
type Projects interface {
	Get(id string) (project.Project, error)
	Layout(p project.Project) project.Layout
	TryLock(p project.Project) (func(), error)
}

// AudioExtractor produces audio.wav from the imported media.
type AudioExtractor interface {
	Extract(ctx context.Context, req audio.Request) (audio.Result, error)
}

// SpeechTranscriber turns audio.wav into words.
type SpeechTranscriber interface {
	Transcribe(ctx context.Context, path string) (transcription.Result, error)
}

// Translator fans a source transcript out to target languages.
type Translator interface {
	Run(ctx context.Context, req translation.Request) (translation.Result, error)
}

// Packager bundles subtitle files into an archive.
type Packager interface {
	Build(ctx context.Context, dir, dest string) (archive.Result, error)
}

// Options wires a Runner.
type Options struct {
	Projects    Projects
	Extractor   AudioExtractor
	Transcriber SpeechTranscriber
	// Translator may be nil when Targets is empty.
	Translator Translator
	Packager   Packager
	Notifier   notifications.Service
	Logger     *slog.Logger

	SourceLanguage   string
	Targets          []string
	PackagingTimeout time.Duration
}

// Runner executes pipeline runs. It is safe for concurrent use across
// different projects; runs of the same project exclude each other through
// the project lock.
type Runner struct {
	projects         Projects
	extractor        AudioExtractor
	transcriber      SpeechTranscriber
	translator       Translator
	packager         Packager
	notifier         notifications.Service
	logger           *slog.Logger
	source           string
	targets          []string
	packagingTimeout time.Duration
	now              func() time.Time
}

// NewRunner validates opts and returns a Runner.
func NewRunner(opts Options) (*Runner, error) {
	switch {
	case opts.Projects == nil:
		return nil, errors.New("pipeline: project store required")
	case opts.Extractor == nil:
		return nil, errors.New("pipeline: audio extractor required")
	case opts.Transcriber == nil:
		return nil, errors.New("pipeline: transcriber required")
	case opts.Packager == nil:
		return nil, errors.New("pipeline: packager required")
	}
	source := strings.TrimSpace(opts.SourceLanguage)
	if source == "" {
		return nil, errors.New("pipeline: source language required")
	}
	targets := make([]string, 0, len(opts.Targets))
	for _, lang := range opts.Targets {
		if lang = strings.TrimSpace(lang); lang != "" && lang != source {
			targets = append(targets, lang)
		}
	}
	if len(targets) > 0 && opts.Translator == nil {
		return nil, errors.New("pipeline: translator required for target languages")
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = notifications.NewService(nil)
	}
	return &Runner{
		projects:         opts.Projects,
		extractor:        opts.Extractor,
		transcriber:      opts.Transcriber,
		translator:       opts.Translator,
		packager:         opts.Packager,
		notifier:         notifier,
		logger:           logging.NewComponentLogger(opts.Logger, "pipeline"),
		source:           source,
		targets:          targets,
		packagingTimeout: opts.PackagingTimeout,
		now:              time.Now,
	}, nil
}

// run carries per-run data between stages.
type run struct {
	project project.Project
	layout  project.Layout
	state   *State
}

type step struct {
	stage   Stage
	done    func(*run) bool
	execute func(context.Context, *run) error
}

func (r *Runner) steps() []step {
	return []step{
		{StageExtractingAudio, r.audioDone, r.extractAudio},
		{StageTranscribing, r.wordsDone, r.transcribe},
		{StageBuildingSubtitles, r.sourceDone, r.buildSubtitles},
		{StageTranslatingSubtitles, r.translationsDone, r.translate},
		{StagePackaging, r.archiveDone, r.pack},
	}
}

// Run executes every incomplete stage for projectID and returns the final
// state. A fatal stage error is returned after the failed state has been
// persisted; translation failures only appear in State.FailedLanguages.
func (r *Runner) Run(ctx context.Context, projectID string) (State, error) {
	p, err := r.projects.Get(projectID)
	if err != nil {
		return State{}, services.Wrap(services.ErrAsset, "", "resolve project", projectID, err)
	}
	layout := r.projects.Layout(p)
	if !fileutil.NonEmpty(layout.RawMedia()) {
		return State{}, services.Wrap(services.ErrAsset, "", "resolve project",
			fmt.Sprintf("source media %s is missing", layout.RawMedia()), nil)
	}

	unlock, err := r.projects.TryLock(p)
	if err != nil {
		return State{}, err
	}
	defer unlock()

	runID := uuid.NewString()
	ctx = services.WithProjectID(ctx, p.ID)
	ctx = services.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	state, err := LoadState(layout.State())
	if err != nil {
		logging.WarnWithContext(logger, "discarding unreadable pipeline state", "state_reset",
			logging.Error(err),
			logging.String(logging.FieldImpact, "previous run history is lost"),
			logging.String(logging.FieldErrorHint, "completed artifacts on disk are still reused"),
		)
	}
	state.Begin(runID, r.now())
	if err := SaveState(layout.State(), state); err != nil {
		return state, err
	}

	logger.Info("run started",
		logging.String(logging.FieldEventType, "run_start"),
		logging.String("name", p.Name),
		logging.String("source_language", r.source),
		logging.Int("targets", len(r.targets)),
	)
	if err := r.notifier.NotifyRunStarted(ctx, p.Name); err != nil {
		logger.Debug("run start notification failed", logging.Error(err))
	}

	started := time.Now()
	current := &run{project: p, layout: layout, state: &state}
	for _, s := range r.steps() {
		if err := r.execute(ctx, current, s); err != nil {
			return r.handleFailure(ctx, current, s.stage, err)
		}
	}

	if err := state.Finish(r.now()); err != nil {
		return state, err
	}
	if err := SaveState(layout.State(), state); err != nil {
		return state, err
	}
	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.Duration("run_duration", time.Since(started)),
		logging.Any("failed_languages", state.FailedLanguages),
		logging.Int("warnings", len(state.Warnings)),
	)
	if err := r.notifier.NotifyRunCompleted(ctx, p.Name, state.FailedLanguages); err != nil {
		logger.Debug("run completion notification failed", logging.Error(err))
	}
	return state, nil
}

func (r *Runner) execute(ctx context.Context, current *run, s step) error {
	stageCtx := services.WithStage(ctx, string(s.stage))
	logger := logging.WithContext(stageCtx, r.logger)

	if err := current.state.Advance(s.stage, r.now()); err != nil {
		return err
	}
	if s.done(current) {
		current.state.MarkCompleted(s.stage, r.now())
		logger.Info("stage already satisfied on disk; skipping",
			logging.String(logging.FieldEventType, "stage_skip"),
		)
		return SaveState(current.layout.State(), *current.state)
	}
	if err := SaveState(current.layout.State(), *current.state); err != nil {
		return err
	}

	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))
	started := time.Now()
	if err := s.execute(stageCtx, current); err != nil {
		return err
	}
	current.state.MarkCompleted(s.stage, r.now())
	if err := SaveState(current.layout.State(), *current.state); err != nil {
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(started)),
	)
	return nil
}

func (r *Runner) handleFailure(ctx context.Context, current *run, stage Stage, stageErr error) (State, error) {
	stageCtx := services.WithStage(ctx, string(stage))
	logger := logging.WithContext(stageCtx, r.logger)

	// Shutdown leaves the run marked running so the next start resumes it.
	if ctx.Err() != nil {
		logger.Warn("run interrupted",
			logging.String(logging.FieldEventType, "run_interrupted"),
			logging.Error(stageErr),
		)
		return *current.state, stageErr
	}

	current.state.Fail(stage, stageErr, r.now())
	details := services.Describe(stageErr)
	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String(logging.FieldErrorKind, details.Kind),
		logging.String(logging.FieldErrorHint, details.Hint),
		logging.Error(stageErr),
	)
	if err := SaveState(current.layout.State(), *current.state); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}
	if err := r.notifier.NotifyRunFailed(stageCtx, current.project.Name, string(stage), stageErr); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
	return *current.state, stageErr
}

func (r *Runner) audioDone(current *run) bool {
	return fileutil.NonEmpty(current.layout.Audio())
}

func (r *Runner) extractAudio(ctx context.Context, current *run) error {
	_, err := r.extractor.Extract(ctx, audio.Request{
		Source:   current.layout.RawMedia(),
		Format:   current.project.FileEnding,
		Dest:     current.layout.Audio(),
		Language: r.source,
	})
	return err
}

func (r *Runner) wordsDone(current *run) bool {
	return fileutil.Exists(current.layout.Words())
}

func (r *Runner) transcribe(ctx context.Context, current *run) error {
	result, err := r.transcriber.Transcribe(ctx, current.layout.Audio())
	for _, warning := range result.Warnings {
		current.state.AddWarning(warning)
	}
	if err != nil {
		return err
	}
	if err := transcription.SaveWords(current.layout.Words(), result.Words); err != nil {
		return services.Wrap(services.ErrTranscription, string(StageTranscribing), "save words", "", err)
	}
	return nil
}

func (r *Runner) sourceDone(current *run) bool {
	return fileutil.Exists(current.layout.Subtitle(r.source))
}

func (r *Runner) buildSubtitles(ctx context.Context, current *run) error {
	stage := string(StageBuildingSubtitles)
	words, err := transcription.LoadWords(current.layout.Words())
	if err != nil {
		return services.Wrap(services.ErrTranscription, stage, "load words", "", err)
	}
	cues, err := subtitles.BuildCues(words)
	if err != nil {
		return services.Wrap(services.ErrTranscription, stage, "build cues", "", err)
	}
	path, err := subtitles.WriteFile(current.layout.Dir, subtitles.Transcript{Language: r.source, Cues: cues})
	if err != nil {
		return services.Wrap(services.ErrPackaging, stage, "write subtitles", "", err)
	}
	logging.WithContext(ctx, r.logger).Info("source subtitles written",
		logging.String(logging.FieldEventType, "subtitles_written"),
		logging.String(logging.FieldLanguage, r.source),
		logging.Int("cues", len(cues)),
		logging.String("path", path),
	)
	return nil
}

func (r *Runner) missingTargets(current *run) []string {
	var missing []string
	for _, lang := range r.targets {
		if !fileutil.Exists(current.layout.Subtitle(lang)) {
			missing = append(missing, lang)
		}
	}
	return missing
}

func (r *Runner) translationsDone(current *run) bool {
	return len(r.missingTargets(current)) == 0
}

func (r *Runner) translate(ctx context.Context, current *run) error {
	stage := string(StageTranslatingSubtitles)
	logger := logging.WithContext(ctx, r.logger)
	missing := r.missingTargets(current)

	source, err := subtitles.ParseFile(current.layout.Subtitle(r.source))
	if err != nil {
		return services.Wrap(services.ErrTranscription, stage, "read source subtitles", "", err)
	}
	result, err := r.translator.Run(ctx, translation.Request{Source: source, Targets: missing, Dir: current.layout.Dir})
	if err != nil {
		current.state.AddFailedLanguages(missing...)
		logging.WarnWithContext(logger, "translation skipped", "translation_failed",
			logging.Error(err),
			logging.Any("languages", missing),
			logging.String(logging.FieldImpact, "only source language subtitles are packaged"),
			logging.String(logging.FieldErrorHint, "check the translation engine and re-run the project"),
		)
		return nil
	}
	current.state.AddFailedLanguages(result.FailedLanguages()...)
	logger.Info("translations finished",
		logging.String(logging.FieldEventType, "translation_summary"),
		logging.Int("written", len(result.Written)),
		logging.Any("failed_languages", result.FailedLanguages()),
	)
	return nil
}

func (r *Runner) archiveDone(current *run) bool {
	return archive.Matches(current.layout.Archive(), current.layout.Dir)
}

func (r *Runner) pack(ctx context.Context, current *run) error {
	if r.packagingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.packagingTimeout)
		defer cancel()
	}
	_, err := r.packager.Build(ctx, current.layout.Dir, current.layout.Archive())
	return err
}
