// Package subtitles builds and serializes SRT subtitle files.
//
// BuildCues folds a word stream into cues with a single greedy pass bounded
// by character count, pause length and cue duration. Finalize closes the gap
// between consecutive cues so playback is contiguous, and WriteFile persists
// a transcript as <language>.srt inside a project directory.
package subtitles
