package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"lingosub/internal/fileutil"
	"lingosub/internal/logging"
	"lingosub/internal/media/ffprobe"
	"lingosub/internal/services"
)

// Output format expected by the speech recognizer.
const (
	SampleRate = 16000
	Channels   = 1
)

const stageName = "extracting_audio"

// Runner executes a command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput() //nolint:gosec
}

// Prober inspects a media file.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// Request describes one extraction.
type Request struct {
	Source   string
	Format   string
	Dest     string
	Language string
}

// Result reports what Extract did.
type Result struct {
	Skipped     bool
	StreamIndex int
	Elapsed     time.Duration
}

// Extractor converts a source asset into normalized audio via ffmpeg.
type Extractor struct {
	binary  string
	timeout time.Duration
	prober  Prober
	run     Runner
	logger  *slog.Logger
}

// NewExtractor builds an Extractor. prober may be nil, in which case ffmpeg
// picks the audio stream.
func NewExtractor(binary string, timeout time.Duration, prober Prober, logger *slog.Logger) *Extractor {
	if strings.TrimSpace(binary) == "" {
		binary = "ffmpeg"
	}
	return &Extractor{
		binary:  binary,
		timeout: timeout,
		prober:  prober,
		run:     execRunner,
		logger:  logging.NewComponentLogger(logger, "audio"),
	}
}

// WithRunner replaces the command runner (for testing).
func (e *Extractor) WithRunner(run Runner) {
	if run != nil {
		e.run = run
	}
}

// Extract writes mono 16 kHz PCM audio for req.Source to req.Dest. An existing
// non-empty Dest is treated as done.
func (e *Extractor) Extract(ctx context.Context, req Request) (Result, error) {
	result := Result{StreamIndex: -1}
	if fileutil.NonEmpty(req.Dest) {
		result.Skipped = true
		return result, nil
	}
	if !fileutil.NonEmpty(req.Source) {
		return result, services.Wrap(services.ErrAsset, stageName, "open source", fmt.Sprintf("source %s is missing or empty", req.Source), nil)
	}

	logger := logging.WithContext(ctx, e.logger)
	if e.prober != nil {
		probe, err := e.prober.Inspect(ctx, req.Source)
		if err != nil {
			logging.WarnWithContext(logger, "ffprobe failed; letting ffmpeg choose the audio stream", "probe_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "a commentary track may be transcribed instead of dialogue"),
				logging.String(logging.FieldErrorHint, "check that ffprobe is installed"),
			)
		} else {
			if probe.AudioStreamCount() == 0 {
				return result, services.Wrap(services.ErrAsset, stageName, "select stream", "source has no audio stream", nil)
			}
			result.StreamIndex = SelectSpeechStream(probe.Streams, req.Language)
		}
	}

	tmp := req.Dest + ".partial"
	defer os.Remove(tmp)

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	started := time.Now()
	args := BuildArgs(req.Source, result.StreamIndex, tmp)
	logger.Debug("ffmpeg extract", logging.String("format", req.Format), logging.String("args", strings.Join(args, " ")))
	output, err := e.run(runCtx, e.binary, args...)
	if err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return result, services.Wrap(services.ErrTranscode, stageName, "ffmpeg", fmt.Sprintf("timed out after %s", e.timeout), runCtx.Err())
		}
		return result, services.Wrap(services.ErrTranscode, stageName, "ffmpeg", tail(output), err)
	}
	if !fileutil.NonEmpty(tmp) {
		return result, services.Wrap(services.ErrTranscode, stageName, "ffmpeg", "no audio written", nil)
	}
	if err := os.Rename(tmp, req.Dest); err != nil {
		return result, services.Wrap(services.ErrTranscode, stageName, "finalize", "rename output", err)
	}
	result.Elapsed = time.Since(started)
	return result, nil
}

// BuildArgs returns the ffmpeg argument list. streamIndex < 0 leaves stream
// choice to ffmpeg.
func BuildArgs(source string, streamIndex int, dest string) []string {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
	}
	if streamIndex >= 0 {
		args = append(args, "-map", fmt.Sprintf("0:%d", streamIndex))
	}
	return append(args,
		"-vn",
		"-sn",
		"-dn",
		"-ac", fmt.Sprint(Channels),
		"-ar", fmt.Sprint(SampleRate),
		"-c:a", "pcm_s16le",
		"-f", "wav",
		dest,
	)
}

func tail(output []byte) string {
	const limit = 512
	text := strings.TrimSpace(string(output))
	if len(text) > limit {
		text = "..." + text[len(text)-limit:]
	}
	if text == "" {
		return "ffmpeg failed"
	}
	return text
}
