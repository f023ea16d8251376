package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// DecodeReply unmarshals the JSON a chat model returned into target. Models
// often wrap the payload in a ```json fence or a sentence of prose, so the
// raw reply, the fence body and the outermost {...} or [...] span are tried
// in turn.
func DecodeReply(content string, target any) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return errors.New("empty reply")
	}
	var firstErr error
	for _, candidate := range replyCandidates(content) {
		err := json.Unmarshal([]byte(candidate), target)
		if err == nil {
			return nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return fmt.Errorf("decode reply: %w (reply: %s)", firstErr, snippet(content, 160))
}

func replyCandidates(content string) []string {
	candidates := []string{content}
	add := func(c string) {
		c = strings.TrimSpace(c)
		for _, seen := range candidates {
			if c == "" || c == seen {
				return
			}
		}
		candidates = append(candidates, c)
	}
	body := unfence(content)
	add(body)
	add(span(body, '{', '}'))
	add(span(body, '[', ']'))
	return candidates
}

// unfence returns the body of a leading Markdown code fence.
func unfence(content string) string {
	rest, ok := strings.CutPrefix(content, "```")
	if !ok {
		return content
	}
	// Drop the info string ("json") on the opening line.
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		rest = rest[nl+1:]
	}
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return rest
}

func span(content string, open, close byte) string {
	start := strings.IndexByte(content, open)
	end := strings.LastIndexByte(content, close)
	if start < 0 || end <= start {
		return ""
	}
	return content[start : end+1]
}

func snippet(content string, limit int) string {
	clean := []rune(strings.Join(strings.Fields(content), " "))
	if len(clean) > limit {
		return string(clean[:limit]) + "..."
	}
	return string(clean)
}
