// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Inspect runs ffprobe and returns the parsed streams and container format;
// helpers on Result expose duration, frame size and audio stream counts for
// project metadata.
package ffprobe
