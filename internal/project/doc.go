// Package project manages per-project directories under the configured
// projects root.
//
// Each project directory holds the uploaded source media (rawMedia.<ext>),
// metadata.json and every pipeline artifact: the normalized audio, the
// recognized words, one <language>.srt per produced language, the
// subtitles.zip archive and the pipeline state record. The Store also owns
// the per-project run lock that keeps two pipeline runs from touching the
// same directory at once.
package project
