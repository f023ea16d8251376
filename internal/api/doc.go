// Package api defines the transport types served by the daemon's HTTP API
// and the typed Client the CLI uses to call it.
//
// Conversions from the internal project, pipeline, queue and workflow types
// live here so handlers and the CLI render identical payloads.
package api
