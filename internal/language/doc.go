// Package language normalizes subtitle language codes and names.
//
// Codes are stored and compared in ISO 639-1 form; they name the per-language
// subtitle files (`<code>.srt`) and are passed verbatim to the translation
// engine.
package language
