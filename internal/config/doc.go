// Package config loads, normalizes, and validates lingosub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OPENAI_API_KEY and HF_TOKEN. The Config type centralizes every knob the
// daemon and CLI need: project storage, languages, external tool limits and
// the translation engine.
package config
