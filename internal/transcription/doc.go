// Package transcription turns normalized audio into timestamped words.
//
// A Transcriber owns a long-lived Engine handle (loaded once at process
// start) and feeds it PCM samples. Engines emit character tokens where a
// literal space marks a word boundary; SegmentWords folds those tokens into
// Word records that the subtitle chunker consumes. Recognized words are
// persisted as words.json so an interrupted run can resume without
// re-running recognition.
package transcription
