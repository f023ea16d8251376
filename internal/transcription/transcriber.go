package transcription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"lingosub/internal/logging"
	"lingosub/internal/media/audio"
	"lingosub/internal/services"
)

const stageName = "transcribing"

// ErrNoSpeech reports a recognition result that contained no words.
var ErrNoSpeech = errors.New("no speech recognized")

// Audio is the input handed to an Engine.
type Audio struct {
	Path       string
	Samples    []int16
	SampleRate int
}

// Engine is a loaded speech recognition model.
type Engine interface {
	// SampleRate is the rate the model was trained on.
	SampleRate() int
	Recognize(ctx context.Context, in Audio) ([]Token, error)
	Close() error
}

// Result is the outcome of one transcription.
type Result struct {
	Tokens     []Token
	Words      []Word
	SampleRate int
	Warnings   []string
}

// Transcriber feeds normalized audio to an Engine.
type Transcriber struct {
	engine  Engine
	timeout time.Duration
	logger  *slog.Logger
}

// New returns a Transcriber bound to engine. A zero timeout disables the
// per-call deadline.
func New(engine Engine, timeout time.Duration, logger *slog.Logger) *Transcriber {
	return &Transcriber{
		engine:  engine,
		timeout: timeout,
		logger:  logging.NewComponentLogger(logger, "transcriber"),
	}
}

// Transcribe recognizes speech in the WAV file at path.
func (t *Transcriber) Transcribe(ctx context.Context, path string) (Result, error) {
	var result Result
	if t.engine == nil {
		return result, services.Wrap(services.ErrTranscription, stageName, "load engine", "speech recognition engine not initialized", nil)
	}
	wav, err := audio.ReadWAV(path)
	if err != nil {
		return result, services.Wrap(services.ErrTranscription, stageName, "read audio", path, err)
	}
	if len(wav.Samples) == 0 {
		return result, services.Wrap(services.ErrTranscription, stageName, "read audio", "audio contains no samples", nil)
	}
	result.SampleRate = wav.SampleRate

	logger := logging.WithContext(ctx, t.logger)
	if expected := t.engine.SampleRate(); expected > 0 && expected != wav.SampleRate {
		warning := fmt.Sprintf("audio sample rate %d Hz differs from engine rate %d Hz", wav.SampleRate, expected)
		result.Warnings = append(result.Warnings, warning)
		logging.WarnWithContext(logger, "sample rate mismatch",
			"sample_rate_mismatch",
			logging.Int("audio_rate", wav.SampleRate),
			logging.Int("engine_rate", expected),
			logging.String(logging.FieldImpact, "recognition quality may be degraded"),
			logging.String(logging.FieldErrorHint, "re-extract audio at the engine sample rate"),
		)
	}

	callCtx := ctx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	started := time.Now()
	tokens, err := t.engine.Recognize(callCtx, Audio{Path: path, Samples: wav.Samples, SampleRate: wav.SampleRate})
	if err != nil {
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			return result, services.Wrap(services.ErrTranscription, stageName, "recognize", fmt.Sprintf("timed out after %s", t.timeout), err)
		}
		return result, services.Wrap(services.ErrTranscription, stageName, "recognize", "engine failed", err)
	}
	result.Tokens = tokens
	result.Words = SegmentWords(tokens)
	if len(result.Words) == 0 {
		return result, services.Wrap(services.ErrTranscription, stageName, "segment words", "", ErrNoSpeech)
	}

	logger.Info("transcription complete",
		logging.String(logging.FieldEventType, "transcription_complete"),
		logging.Int("tokens", len(tokens)),
		logging.Int("words", len(result.Words)),
		logging.Float64("audio_seconds", wav.Duration()),
		logging.Duration("elapsed", time.Since(started)),
	)
	return result, nil
}

// Close releases the engine.
func (t *Transcriber) Close() error {
	if t.engine == nil {
		return nil
	}
	return t.engine.Close()
}
