package subtitles

import (
	"fmt"
	"path/filepath"
	"strings"

	"lingosub/internal/language"
)

// Extension is the file extension of every subtitle file.
const Extension = ".srt"

// Cue is one subtitle display unit. Index is 1-based.
type Cue struct {
	Index int     `json:"index"`
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Text  string  `json:"text"`
}

// Duration returns the time the cue stays on screen.
func (c Cue) Duration() float64 {
	return c.End - c.Start
}

// Transcript is the cue sequence for one language.
type Transcript struct {
	Language string
	Cues     []Cue
}

// Texts returns the cue text in order, trimmed.
func (t Transcript) Texts() []string {
	texts := make([]string, len(t.Cues))
	for i, cue := range t.Cues {
		texts[i] = strings.TrimSpace(cue.Text)
	}
	return texts
}

// WithTexts returns a transcript for lang that keeps this transcript's
// timing and replaces each cue's text.
func (t Transcript) WithTexts(lang string, texts []string) (Transcript, error) {
	if len(texts) != len(t.Cues) {
		return Transcript{}, fmt.Errorf("expected %d cue texts, got %d", len(t.Cues), len(texts))
	}
	cues := make([]Cue, len(t.Cues))
	for i, cue := range t.Cues {
		cue.Text = texts[i]
		cues[i] = cue
	}
	return Transcript{Language: lang, Cues: cues}, nil
}

// FileName returns the subtitle file name for lang.
func FileName(lang string) string {
	return language.Normalize(lang) + Extension
}

// LanguageFromFileName returns the language of a subtitle file name, or false
// when name does not follow the <language>.srt pattern.
func LanguageFromFileName(name string) (string, bool) {
	base := filepath.Base(name)
	if !strings.EqualFold(filepath.Ext(base), Extension) {
		return "", false
	}
	code := strings.TrimSuffix(base, filepath.Ext(base))
	norm := language.Normalize(code)
	if norm == "" || norm != code {
		return "", false
	}
	return norm, true
}
