// Package daemon coordinates the long-running lingosub process.
//
// It wires configuration, the run queue, the workflow manager and the
// project store into a single lifecycle with flock-based locking to prevent
// multiple instances, and serves the HTTP API (chi router) that the CLI and
// other clients use to create runs, inspect projects and download subtitles.
//
// Keep orchestration logic here: pipeline stages live in internal/pipeline
// while the daemon focuses on startup, shutdown and request handling.
package daemon
