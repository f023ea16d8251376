// Package whisperx runs WhisperX speech recognition through uvx.
//
// An Engine is opened once per process and satisfies transcription.Engine.
// Each Recognize call transcribes a normalized WAV file with JSON output and
// expands the word-level timings WhisperX reports into character tokens,
// using a space token as the word separator.
//
// Configuration options (model, CUDA, VAD method) are passed via Config.
package whisperx
