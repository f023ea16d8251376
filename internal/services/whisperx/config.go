package whisperx

import (
	"errors"
	"fmt"
	"strings"

	"lingosub/internal/deps"
)

// Config captures runtime settings for WhisperX operations.
type Config struct {
	// Model is the WhisperX model to use (e.g., "large-v3-turbo").
	Model string
	// Language is the spoken language passed to the model; empty lets WhisperX detect it.
	Language    string
	CUDAEnabled bool
	// VADMethod selects voice activity detection: "silero" or "pyannote".
	VADMethod string
	// HFToken is the Hugging Face token pyannote needs.
	HFToken    string
	SampleRate int
}

const (
	DefaultModel      = "large-v3"
	DefaultSampleRate = 16000
	VADMethodPyannote = "pyannote"
	VADMethodSilero   = "silero"
)

const uvxCommand = deps.UVX

const (
	cudaIndexURL = "https://download.pytorch.org/whl/cu128"
	pypiIndexURL = "https://pypi.org/simple"
)

// decodeArgs tune WhisperX for subtitle timing: short chunks and a
// sensitive VAD keep word timestamps close to speech onsets.
var decodeArgs = []string{
	"--batch_size", "4",
	"--output_format", "json",
	"--segment_resolution", "sentence",
	"--chunk_size", "15",
	"--vad_onset", "0.08",
	"--vad_offset", "0.07",
	"--beam_size", "10",
	"--best_of", "10",
	"--temperature", "0.0",
	"--patience", "1.0",
}

// normalized fills defaults and rejects combinations WhisperX cannot run.
func (c Config) normalized() (Config, error) {
	c.Model = strings.TrimSpace(c.Model)
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	c.VADMethod = strings.ToLower(strings.TrimSpace(c.VADMethod))
	switch c.VADMethod {
	case "":
		c.VADMethod = VADMethodSilero
	case VADMethodSilero, VADMethodPyannote:
	default:
		return c, fmt.Errorf("whisperx: unsupported vad method %q", c.VADMethod)
	}
	if c.VADMethod == VADMethodPyannote && strings.TrimSpace(c.HFToken) == "" {
		return c, errors.New("whisperx: pyannote vad requires a Hugging Face token")
	}
	return c, nil
}

// indexArgs select the package index uvx resolves torch from.
func (c Config) indexArgs() []string {
	if c.CUDAEnabled {
		return []string{"--index-url", cudaIndexURL, "--extra-index-url", pypiIndexURL}
	}
	return []string{"--index-url", pypiIndexURL}
}

func (c Config) deviceArgs() []string {
	if c.CUDAEnabled {
		return []string{"--device", "cuda"}
	}
	return []string{"--device", "cpu", "--compute_type", "float32"}
}
