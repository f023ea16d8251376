package whisperx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"unicode/utf8"

	langpkg "lingosub/internal/language"
	"lingosub/internal/logging"
	"lingosub/internal/transcription"
)

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec

	// Torch 2.6 changed torch.load default to weights_only=true, breaking WhisperX/pyannote.
	// Force legacy behavior so bundled WhisperX binaries can load checkpoints safely.
	if os.Getenv("TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD") == "" {
		cmd.Env = append(os.Environ(), "TORCH_FORCE_NO_WEIGHTS_ONLY_LOAD=1")
	}
	return cmd.CombinedOutput()
}

// Engine is a process-wide WhisperX handle.
type Engine struct {
	cfg    Config
	binary string
	run    Runner
	logger *slog.Logger
}

// Option customizes an Engine.
type Option func(*Engine)

// WithRunner replaces the command runner (for testing).
func WithRunner(run Runner) Option {
	return func(e *Engine) { e.run = run }
}

// WithBinary overrides the uvx binary path.
func WithBinary(binary string) Option {
	return func(e *Engine) { e.binary = binary }
}

// Open validates the configuration and resolves the uvx binary. It fails
// when WhisperX cannot be launched, so callers can refuse to start runs.
func Open(cfg Config, logger *slog.Logger, opts ...Option) (*Engine, error) {
	cfg, err := cfg.normalized()
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    cfg,
		binary: uvxCommand,
		run:    execRunner,
		logger: logging.NewComponentLogger(logger, "whisperx"),
	}
	for _, opt := range opts {
		opt(e)
	}
	if _, err := exec.LookPath(e.binary); err != nil {
		return nil, fmt.Errorf("whisperx: %s not found: %w", e.binary, err)
	}
	e.logger.Info("speech recognition engine ready",
		logging.String("model", e.cfg.Model),
		logging.Bool("cuda", e.cfg.CUDAEnabled),
		logging.String("vad_method", e.cfg.VADMethod),
	)
	return e, nil
}

// Model returns the configured model name for logging.
func (e *Engine) Model() string {
	return e.cfg.Model
}

// SampleRate is the rate WhisperX models are trained on.
func (e *Engine) SampleRate() int {
	return e.cfg.SampleRate
}

// Close is a no-op; WhisperX runs in a fresh process per call.
func (e *Engine) Close() error {
	return nil
}

// Recognize transcribes the WAV file in audio and returns character tokens.
func (e *Engine) Recognize(ctx context.Context, audio transcription.Audio) ([]transcription.Token, error) {
	if strings.TrimSpace(audio.Path) == "" {
		return nil, errors.New("whisperx: audio path required")
	}
	outputDir, err := os.MkdirTemp(filepath.Dir(audio.Path), ".whisperx-*")
	if err != nil {
		return nil, fmt.Errorf("whisperx: create output dir: %w", err)
	}
	defer os.RemoveAll(outputDir)

	args := e.buildArgs(audio.Path, outputDir)
	if output, err := e.run(ctx, e.binary, args...); err != nil {
		return nil, fmt.Errorf("whisperx: %w: %s", err, lastLines(output, 5))
	}

	baseName := strings.TrimSuffix(filepath.Base(audio.Path), filepath.Ext(audio.Path))
	segments, err := LoadSegments(filepath.Join(outputDir, baseName+".json"))
	if err != nil {
		return nil, fmt.Errorf("whisperx: %w", err)
	}
	return Tokens(segments), nil
}

// buildArgs constructs the uvx command arguments for WhisperX.
func (e *Engine) buildArgs(source, outputDir string) []string {
	args := append(e.cfg.indexArgs(),
		"whisperx",
		source,
		"--model", e.cfg.Model,
		"--output_dir", outputDir,
		"--vad_method", e.cfg.VADMethod,
	)
	args = append(args, decodeArgs...)
	if e.cfg.VADMethod == VADMethodPyannote {
		args = append(args, "--hf_token", e.cfg.HFToken)
	}
	if lang := langpkg.Normalize(e.cfg.Language); lang != "" {
		args = append(args, "--language", lang)
	}
	return append(args, e.cfg.deviceArgs()...)
}

// Word represents a single word with timing from WhisperX output. Start and
// End are absent for tokens the aligner could not place, such as numerals.
type Word struct {
	Word  string   `json:"word"`
	Start *float64 `json:"start"`
	End   *float64 `json:"end"`
}

// Segment represents a transcribed segment from WhisperX JSON output.
type Segment struct {
	Text  string  `json:"text"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Words []Word  `json:"words"`
}

type whisperXPayload struct {
	Segments []Segment `json:"segments"`
}

// LoadSegments loads segments from a WhisperX JSON file.
func LoadSegments(jsonPath string) ([]Segment, error) {
	data, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, err
	}
	var payload whisperXPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse whisperx json: %w", err)
	}
	return payload.Segments, nil
}

// Tokens spreads each word's characters evenly across its time span and
// separates words with a space token. Words without timing inherit the end
// of the previous word, or their segment start.
func Tokens(segments []Segment) []transcription.Token {
	var tokens []transcription.Token
	var cursor float64
	for _, seg := range segments {
		if seg.Start > cursor {
			cursor = seg.Start
		}
		words := seg.Words
		if len(words) == 0 {
			words = wordsFromText(seg)
		}
		for _, w := range words {
			text := strings.TrimSpace(w.Word)
			if text == "" {
				continue
			}
			start, end := cursor, cursor
			if w.Start != nil {
				start = *w.Start
				end = start
			}
			if w.End != nil && *w.End > start {
				end = *w.End
			}
			if len(tokens) > 0 {
				tokens = append(tokens, transcription.Token{Char: " ", Start: start})
			}
			n := utf8.RuneCountInString(text)
			step := 0.0
			if n > 1 {
				step = (end - start) / float64(n-1)
			}
			i := 0
			for _, r := range text {
				tokens = append(tokens, transcription.Token{Char: string(r), Start: start + float64(i)*step})
				i++
			}
			cursor = end
		}
	}
	return tokens
}

// wordsFromText splits an unaligned segment evenly over its span.
func wordsFromText(seg Segment) []Word {
	fields := strings.Fields(seg.Text)
	if len(fields) == 0 {
		return nil
	}
	span := (seg.End - seg.Start) / float64(len(fields))
	words := make([]Word, len(fields))
	for i, f := range fields {
		start := seg.Start + float64(i)*span
		end := start + span
		words[i] = Word{Word: f, Start: &start, End: &end}
	}
	return words
}

func lastLines(output []byte, n int) string {
	lines := strings.Split(strings.TrimSpace(string(output)), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, " | ")
}
