package subtitles

import (
	"errors"
	"strings"
	"unicode/utf8"

	"lingosub/internal/transcription"
)

// Cue boundaries. A word that would break any of them starts a new cue.
const (
	MaxChars           = 47
	MaxGapSeconds      = 0.5
	MaxDurationSeconds = 7.0
)

// ErrNoWords is returned when there is nothing to build cues from.
var ErrNoWords = errors.New("no words to build subtitles from")

type openCue struct {
	start, end float64
	text       strings.Builder
	chars      int
}

func (c *openCue) seed(w transcription.Word) {
	c.start = w.Start
	c.end = w.End()
	c.text.Reset()
	c.chars = 0
}

func (c *openCue) appendWord(w transcription.Word) {
	c.text.WriteByte(' ')
	c.text.WriteString(w.Text)
	c.chars += utf8.RuneCountInString(w.Text) + 1
	c.end = w.End()
}

// BuildCues folds words into cues in one greedy pass. A cue is closed before
// a word when adding it would exceed MaxChars, when the pause since the cue
// ended exceeds MaxGapSeconds, or when the cue would run longer than
// MaxDurationSeconds. End times are provisional until Finalize.
func BuildCues(words []transcription.Word) ([]Cue, error) {
	if len(words) == 0 {
		return nil, ErrNoWords
	}
	cues := make([]Cue, 0, len(words)/6+1)
	closeCue := func(c *openCue) {
		text := strings.TrimSpace(c.text.String())
		if text == "" {
			return
		}
		cues = append(cues, Cue{Index: len(cues) + 1, Start: c.start, End: c.end, Text: text})
	}

	var cur openCue
	cur.seed(words[0])
	for _, w := range words {
		if splitBefore(&cur, w) {
			closeCue(&cur)
			cur.seed(w)
			cur.text.WriteString(w.Text)
			cur.chars = utf8.RuneCountInString(w.Text)
			continue
		}
		cur.appendWord(w)
	}
	closeCue(&cur)
	return cues, nil
}

func splitBefore(cur *openCue, w transcription.Word) bool {
	tooLongChars := cur.chars+utf8.RuneCountInString(w.Text)+1 > MaxChars
	paused := w.Start-cur.end > MaxGapSeconds
	tooLongDuration := w.End()-cur.start > MaxDurationSeconds
	return tooLongChars || paused || tooLongDuration
}
