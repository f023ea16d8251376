// Package llm translates subtitle text through an OpenAI-compatible chat
// completion API.
//
// # Translation Logic
//
// Client.Translate sends every cue text of one transcript in a single
// request and asks the model for a JSON object holding the translations in
// the same order. Only text is sent; cue timing never leaves the process.
// A response with a different number of entries is rejected.
//
// # Configuration
//
// Requires api_key and model; base_url selects any OpenAI-compatible
// endpoint (OpenAI itself when empty).
//
// # Retry Behaviour
//
// The client retries on HTTP 408/429/5xx errors, empty completions and
// network timeouts with exponential backoff (base 1s, max 10s, up to 5
// attempts by default). Context cancellation aborts retries immediately.
package llm
