// Package audio normalizes source media into the mono 16 kHz PCM WAV file the
// speech recognizer consumes, and reads that file back into samples.
//
// Extraction is idempotent: an existing non-empty output is kept and ffmpeg is
// not invoked again.
package audio
