package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"

	"lingosub/internal/logging"
	"lingosub/internal/services"
	"lingosub/internal/subtitles"
)

const stageName = "translating_subtitles"

// Request describes one fan-out.
type Request struct {
	Source  subtitles.Transcript
	Targets []string
	// Dir receives one <language>.srt per successful target.
	Dir string
}

// Result lists the outcome per target language.
type Result struct {
	Written map[string]string
	Failed  map[string]error
}

// FailedLanguages returns the failed targets sorted by code.
func (r Result) FailedLanguages() []string {
	langs := make([]string, 0, len(r.Failed))
	for lang := range r.Failed {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// FanOut translates a transcript into many languages concurrently.
type FanOut struct {
	engine      Engine
	concurrency int
	timeout     time.Duration
	logger      *slog.Logger
}

// NewFanOut returns a FanOut that runs at most concurrency translations at
// once, each bounded by timeout (zero disables the deadline).
func NewFanOut(engine Engine, concurrency int, timeout time.Duration, logger *slog.Logger) *FanOut {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &FanOut{
		engine:      engine,
		concurrency: concurrency,
		timeout:     timeout,
		logger:      logging.NewComponentLogger(logger, "translation"),
	}
}

// Run translates req.Source into every target. It returns an error only when
// the request itself is unusable; per-language failures are in Result.Failed
// and wrap services.ErrTranslation.
func (f *FanOut) Run(ctx context.Context, req Request) (Result, error) {
	result := Result{Written: map[string]string{}, Failed: map[string]error{}}
	if f.engine == nil {
		return result, errors.New("translation engine not configured")
	}
	if len(req.Source.Cues) == 0 {
		return result, errors.New("source transcript has no cues")
	}
	if strings.TrimSpace(req.Dir) == "" {
		return result, errors.New("output directory required")
	}

	texts := req.Source.Texts()
	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(f.concurrency)
	for _, target := range req.Targets {
		if target == "" || target == req.Source.Language {
			continue
		}
		p.Go(func() {
			path, err := f.translateOne(ctx, req, target, texts)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed[target] = err
				return
			}
			result.Written[target] = path
		})
	}
	p.Wait()
	return result, nil
}

func (f *FanOut) translateOne(ctx context.Context, req Request, target string, texts []string) (string, error) {
	ctx = services.WithLanguage(ctx, target)
	logger := logging.WithContext(ctx, f.logger)

	callCtx := ctx
	if f.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	started := time.Now()
	fail := func(op, msg string, cause error) (string, error) {
		err := services.Wrap(services.ErrTranslation, stageName, op, msg, cause)
		logging.WarnWithContext(logger, "translation failed",
			"translation_failed",
			logging.String(logging.FieldLanguage, target),
			logging.Error(err),
			logging.String(logging.FieldErrorKind, services.Kind(err)),
			logging.String(logging.FieldImpact, fmt.Sprintf("no %s subtitles for this run", target)),
			logging.String(logging.FieldErrorHint, services.Describe(err).Hint),
		)
		return "", err
	}

	translated, err := f.engine.Translate(callCtx, req.Source.Language, target, texts)
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return fail("translate", fmt.Sprintf("%s timed out after %s", target, f.timeout), err)
		}
		return fail("translate", target, err)
	}
	if len(translated) != len(texts) {
		return fail("translate", fmt.Sprintf("%s returned %d texts for %d cues", target, len(translated), len(texts)), nil)
	}
	if blank := fillBlank(translated, texts); blank > 0 {
		logging.WarnWithContext(logger, "blank translations replaced with source text",
			"translation_blank_cues",
			logging.Int("cues", blank),
			logging.String(logging.FieldImpact, fmt.Sprintf("%d %s cue(s) show the source text", blank, target)),
			logging.String(logging.FieldErrorHint, "check the translation engine output for this language"),
		)
	}
	transcript, err := req.Source.WithTexts(target, translated)
	if err != nil {
		return fail("build transcript", target, err)
	}
	path, err := subtitles.WriteFile(req.Dir, transcript)
	if err != nil {
		return fail("write subtitles", target, err)
	}
	logger.Info("translation complete",
		logging.String(logging.FieldEventType, "translation_complete"),
		logging.Int("cues", len(texts)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return path, nil
}

// fillBlank replaces empty translations with the source text so every cue
// keeps its slot and the written file stays contiguous. It returns the number
// of cues replaced.
func fillBlank(translated, source []string) int {
	replaced := 0
	for i, text := range translated {
		if strings.TrimSpace(text) == "" {
			translated[i] = source[i]
			replaced++
		}
	}
	return replaced
}
