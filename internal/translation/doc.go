// Package translation fans a source transcript out to every target
// language.
//
// Each target language is translated independently on a bounded worker pool
// with its own deadline. Only cue text is sent to the engine; timing is
// carried over from the source transcript unchanged. A failure for one
// language is recorded in the result and never stops the others.
package translation
