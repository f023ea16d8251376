package transcription

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"lingosub/internal/fileutil"
)

// Token is a single recognized character and the time it was spoken.
type Token struct {
	Char  string  `json:"char"`
	Start float64 `json:"start"`
}

// Word is a timestamped word. Duration is never negative.
type Word struct {
	Text     string  `json:"text"`
	Start    float64 `json:"start"`
	Duration float64 `json:"duration"`
}

// End returns the time the word finishes.
func (w Word) End() float64 {
	return w.Start + w.Duration
}

// SegmentWords groups tokens into words. A space token or the final token
// closes the current word. Per-character timestamps are not guaranteed to be
// monotonic, so durations are clamped to zero.
func SegmentWords(tokens []Token) []Word {
	words := make([]Word, 0, len(tokens)/4+1)
	var (
		text       []byte
		start, end float64
	)
	flush := func() {
		if len(text) == 0 {
			return
		}
		words = append(words, Word{
			Text:     string(text),
			Start:    start,
			Duration: round4(math.Max(0, end-start)),
		})
		text = text[:0]
	}
	for i, tok := range tokens {
		if tok.Char == " " {
			flush()
			continue
		}
		if len(text) == 0 {
			start = tok.Start
		}
		text = append(text, tok.Char...)
		end = tok.Start
		if i == len(tokens)-1 {
			flush()
		}
	}
	return words
}

func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// SaveWords writes words as JSON, replacing path atomically.
func SaveWords(path string, words []Word) error {
	if words == nil {
		words = []Word{}
	}
	if err := fileutil.WriteJSONAtomic(path, words); err != nil {
		return fmt.Errorf("save words: %w", err)
	}
	return nil
}

// LoadWords reads a words file written by SaveWords.
func LoadWords(path string) ([]Word, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load words: %w", err)
	}
	var words []Word
	if err := json.Unmarshal(data, &words); err != nil {
		return nil, fmt.Errorf("parse words: %w", err)
	}
	return words, nil
}
