package subtitles

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"lingosub/internal/fileutil"
)

// Finalize returns a copy of cues renumbered from 1 where every cue except
// the last ends exactly when the next one starts. The last cue keeps its end.
func Finalize(cues []Cue) []Cue {
	out := make([]Cue, len(cues))
	copy(out, cues)
	for i := range out {
		out[i].Index = i + 1
		if i+1 < len(out) {
			out[i].End = out[i+1].Start
		}
	}
	return out
}

// FormatTimestamp renders seconds as HH:MM:SS,mmm.
func FormatTimestamp(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	totalMillis := int64(math.Round(seconds * 1000))
	hours := totalMillis / 3_600_000
	totalMillis %= 3_600_000
	minutes := totalMillis / 60_000
	totalMillis %= 60_000
	secs := totalMillis / 1000
	millis := totalMillis % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, secs, millis)
}

// Format serializes cues as SRT. Cue text is trimmed; cues left empty are
// skipped and the remaining cues are numbered consecutively.
func Format(cues []Cue) string {
	var b strings.Builder
	index := 0
	for _, cue := range cues {
		text := strings.TrimSpace(cue.Text)
		if text == "" {
			continue
		}
		index++
		fmt.Fprintf(&b, "%d\n%s --> %s\n%s\n\n", index, FormatTimestamp(cue.Start), FormatTimestamp(cue.End), text)
	}
	return b.String()
}

// WriteFile finalizes t and writes it to dir/<language>.srt, replacing any
// existing file for that language. It returns the written path.
func WriteFile(dir string, t Transcript) (string, error) {
	name := FileName(t.Language)
	if name == Extension {
		return "", fmt.Errorf("write subtitles: invalid language %q", t.Language)
	}
	path := filepath.Join(dir, name)
	content := Format(Finalize(t.Cues))
	if err := fileutil.WriteFileAtomic(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write subtitles: %w", err)
	}
	return path, nil
}

// ParseFile reads an SRT file. The transcript language comes from the file name.
func ParseFile(path string) (Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Transcript{}, fmt.Errorf("read srt: %w", err)
	}
	cues, err := Parse(string(data))
	if err != nil {
		return Transcript{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	lang, _ := LanguageFromFileName(path)
	return Transcript{Language: lang, Cues: cues}, nil
}

// Parse reads SRT content. Both comma and period millisecond separators are
// accepted and a UTF-8 byte order mark is ignored.
func Parse(content string) ([]Cue, error) {
	content = strings.TrimPrefix(content, "\ufeff")
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var cues []Cue
	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var (
		cur     *Cue
		text    []string
		lineNum int
	)
	flush := func() {
		if cur != nil {
			cur.Text = strings.Join(text, "\n")
			cues = append(cues, *cur)
		}
		cur = nil
		text = nil
	}
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			flush()
		case cur == nil && strings.Contains(line, "-->"):
			start, end, err := parseTimeRange(line)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNum, err)
			}
			cur = &Cue{Index: len(cues) + 1, Start: start, End: end}
		case cur == nil:
			if _, err := strconv.Atoi(line); err != nil {
				return nil, fmt.Errorf("line %d: expected cue index, got %q", lineNum, line)
			}
		default:
			text = append(text, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return cues, nil
}

func parseTimeRange(line string) (float64, float64, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time range %q", line)
	}
	start, err := parseTimestamp(parts[0])
	if err != nil {
		return 0, 0, err
	}
	// Position hints may follow the end timestamp.
	endField := strings.Fields(parts[1])
	if len(endField) == 0 {
		return 0, 0, fmt.Errorf("invalid time range %q", line)
	}
	end, err := parseTimestamp(endField[0])
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

func parseTimestamp(value string) (float64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	value = strings.ReplaceAll(value, ".", ",")
	timeParts := strings.Split(value, ",")
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	if len(hms) != 3 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hours, errH := strconv.Atoi(hms[0])
	minutes, errM := strconv.Atoi(hms[1])
	seconds, errS := strconv.Atoi(hms[2])
	millis, errMS := strconv.Atoi(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	return float64(hours*3600+minutes*60+seconds) + float64(millis)/1000, nil
}
