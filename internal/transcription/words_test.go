package transcription

import (
	"path/filepath"
	"reflect"
	"testing"
)

func tokens(text string, start, step float64) []Token {
	out := make([]Token, 0, len(text))
	for i, r := range text {
		out = append(out, Token{Char: string(r), Start: start + float64(i)*step})
	}
	return out
}

func TestSegmentWords(t *testing.T) {
	toks := []Token{
		{Char: "h", Start: 1.0}, {Char: "i", Start: 1.25},
		{Char: " ", Start: 1.5},
		{Char: "y", Start: 1.5}, {Char: "o", Start: 1.625}, {Char: "u", Start: 2.0},
	}
	got := SegmentWords(toks)
	want := []Word{
		{Text: "hi", Start: 1.0, Duration: 0.25},
		{Text: "you", Start: 1.5, Duration: 0.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("SegmentWords = %+v, want %+v", got, want)
	}
}

func TestSegmentWordsClampsNegativeDuration(t *testing.T) {
	toks := []Token{{Char: "a", Start: 2.0}, {Char: "b", Start: 1.5}}
	got := SegmentWords(toks)
	if len(got) != 1 || got[0].Duration != 0 || got[0].Start != 2.0 {
		t.Fatalf("unexpected words %+v", got)
	}
}

func TestSegmentWordsDegenerateInput(t *testing.T) {
	if got := SegmentWords(nil); len(got) != 0 {
		t.Fatalf("expected no words, got %+v", got)
	}
	if got := SegmentWords([]Token{{Char: " "}, {Char: " "}}); len(got) != 0 {
		t.Fatalf("expected no words from spaces, got %+v", got)
	}
	got := SegmentWords([]Token{{Char: "x", Start: 0.5}})
	if len(got) != 1 || got[0].Text != "x" || got[0].Duration != 0 {
		t.Fatalf("unexpected single word %+v", got)
	}
}

func TestSegmentWordsMultibyte(t *testing.T) {
	got := SegmentWords(tokens("né à", 0, 0.25))
	if len(got) != 2 || got[0].Text != "né" || got[1].Text != "à" {
		t.Fatalf("unexpected words %+v", got)
	}
}

func TestSaveLoadWords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "words.json")
	words := []Word{{Text: "Hello", Start: 0, Duration: 0.3}, {Text: "world", Start: 0.4, Duration: 0.3}}
	if err := SaveWords(path, words); err != nil {
		t.Fatalf("SaveWords: %v", err)
	}
	got, err := LoadWords(path)
	if err != nil {
		t.Fatalf("LoadWords: %v", err)
	}
	if !reflect.DeepEqual(got, words) {
		t.Fatalf("LoadWords = %+v, want %+v", got, words)
	}
}
