package subtitles

import (
	"path/filepath"
	"testing"
)

func TestFinalizeClosesGaps(t *testing.T) {
	cues := []Cue{
		{Index: 1, Start: 0, End: 1.2, Text: "a"},
		{Index: 2, Start: 2.0, End: 2.3, Text: "b"},
		{Index: 3, Start: 2.5, End: 4.0, Text: "c"},
	}
	got := Finalize(cues)
	for i := 0; i < len(got)-1; i++ {
		if got[i].End != got[i+1].Start {
			t.Fatalf("cue %d ends at %v, next starts at %v", i, got[i].End, got[i+1].Start)
		}
	}
	if got[2].End != 4.0 {
		t.Fatalf("last cue end changed to %v", got[2].End)
	}
	if cues[0].End != 1.2 {
		t.Fatal("Finalize modified its input")
	}
}

func TestFormatTimestamp(t *testing.T) {
	cases := map[float64]string{
		0:       "00:00:00,000",
		0.7:     "00:00:00,700",
		61.001:  "00:01:01,001",
		3723.25: "01:02:03,250",
		-1:      "00:00:00,000",
	}
	for in, want := range cases {
		if got := FormatTimestamp(in); got != want {
			t.Errorf("FormatTimestamp(%v) = %q, want %q", in, got, want)
		}
	}
}

func TestFormatTrimsText(t *testing.T) {
	got := Format([]Cue{
		{Start: 0, End: 0.7, Text: " Hello world "},
		{Start: 0.7, End: 1, Text: "  "},
		{Start: 1, End: 2, Text: "Bye"},
	})
	want := "1\n00:00:00,000 --> 00:00:00,700\nHello world\n\n2\n00:00:01,000 --> 00:00:02,000\nBye\n\n"
	if got != want {
		t.Fatalf("Format =\n%q\nwant\n%q", got, want)
	}
}

func TestWriteFileAndParse(t *testing.T) {
	dir := t.TempDir()
	tr := Transcript{Language: "es", Cues: []Cue{
		{Index: 1, Start: 0, End: 0.5, Text: "Hola"},
		{Index: 2, Start: 0.9, End: 1.5, Text: "mundo"},
	}}
	path, err := WriteFile(dir, tr)
	if err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if filepath.Base(path) != "es.srt" {
		t.Fatalf("unexpected path %q", path)
	}
	parsed, err := ParseFile(path)
	if err != nil {
		t.Fatalf("ParseFile: %v", err)
	}
	if parsed.Language != "es" || len(parsed.Cues) != 2 {
		t.Fatalf("unexpected transcript %+v", parsed)
	}
	if parsed.Cues[0].End != 0.9 || parsed.Cues[1].End != 1.5 || parsed.Cues[1].Text != "mundo" {
		t.Fatalf("unexpected cues %+v", parsed.Cues)
	}

	tr.Cues = tr.Cues[:1]
	if _, err := WriteFile(dir, tr); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	parsed, err = ParseFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(parsed.Cues) != 1 {
		t.Fatalf("expected overwritten file with one cue, got %d", len(parsed.Cues))
	}
}

func TestWriteFileRejectsInvalidLanguage(t *testing.T) {
	if _, err := WriteFile(t.TempDir(), Transcript{Language: "??"}); err == nil {
		t.Fatal("expected error for invalid language")
	}
}

func TestParseAcceptsVariants(t *testing.T) {
	content := "\ufeff1\r\n00:00:01.500 --> 00:00:02,000 X1:10\r\nline one\r\nline two\r\n\r\n2\r\n00:00:03,000 --> 00:00:04,000\r\nnext\r\n"
	cues, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("expected 2 cues, got %+v", cues)
	}
	if cues[0].Start != 1.5 || cues[0].Text != "line one\nline two" || cues[1].Index != 2 {
		t.Fatalf("unexpected cues %+v", cues)
	}
	if _, err := Parse("1\nnot a time\n"); err == nil {
		t.Fatal("expected error for malformed cue")
	}
}

func TestLanguageFromFileName(t *testing.T) {
	cases := map[string]string{
		"en.srt":         "en",
		"/tmp/x/fr.srt":  "fr",
		"words.json":     "",
		"subtitles.srt":  "",
		"rawMedia.mp4":   "",
		"EN.srt":         "",
		"es.srt.partial": "",
	}
	for name, want := range cases {
		got, ok := LanguageFromFileName(name)
		if got != want || ok != (want != "") {
			t.Errorf("LanguageFromFileName(%q) = %q, %v", name, got, ok)
		}
	}
	if FileName("ENG") != "en.srt" {
		t.Fatalf("unexpected file name %q", FileName("ENG"))
	}
}

func TestTranscriptWithTexts(t *testing.T) {
	src := Transcript{Language: "en", Cues: []Cue{{Index: 1, Start: 0, End: 1, Text: " Hi "}}}
	if got := src.Texts(); len(got) != 1 || got[0] != "Hi" {
		t.Fatalf("Texts = %v", got)
	}
	out, err := src.WithTexts("de", []string{"Hallo"})
	if err != nil {
		t.Fatal(err)
	}
	if out.Language != "de" || out.Cues[0].Text != "Hallo" || out.Cues[0].End != 1 {
		t.Fatalf("unexpected transcript %+v", out)
	}
	if src.Cues[0].Text != " Hi " {
		t.Fatal("WithTexts modified the source")
	}
	if _, err := src.WithTexts("de", nil); err == nil {
		t.Fatal("expected count mismatch error")
	}
}

func TestParseFileMissing(t *testing.T) {
	if _, err := ParseFile(filepath.Join(t.TempDir(), "en.srt")); err == nil {
		t.Fatalf("expected read error, got %v", err)
	}
}
