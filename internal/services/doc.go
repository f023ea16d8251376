// Package services defines shared utilities consumed by the pipeline stages
// and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp project IDs, run IDs, stage names, languages
//     and correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into the kinds persisted with a failed run.
//
// Use these helpers when wiring new stage logic so error handling and
// observability stay uniform across the pipeline.
package services
