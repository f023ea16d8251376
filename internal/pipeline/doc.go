// Package pipeline drives one project from imported media to a packaged set
// of subtitle files.
//
// Runner executes the stages in a fixed order: audio extraction, speech
// recognition, source subtitle construction, translation fan-out and
// packaging. Every stage is skipped when its output already exists on disk,
// so re-running a failed or interrupted project resumes at the first
// incomplete stage. Progress is recorded in pipeline.json inside the project
// directory and a run holds the project's advisory lock for its lifetime.
package pipeline
