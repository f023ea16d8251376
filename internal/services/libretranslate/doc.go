// Package libretranslate is a client for a self-hosted LibreTranslate server.
//
// Translate posts all cue texts of one language pair in a single /translate
// request with format "text", so subtitle markup never reaches the engine.
// Languages lists the pairs the server supports and doubles as a health
// check.
package libretranslate
