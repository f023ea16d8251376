package audio

import (
	"strings"

	"lingosub/internal/language"
	"lingosub/internal/media/ffprobe"
)

// SelectSpeechStream picks the audio stream most likely to carry the main
// dialogue in lang. Returns -1 when streams has no audio.
//
// Ranking: language match, then not a commentary/description track, then the
// default disposition, then more channels. Earlier streams win ties.
func SelectSpeechStream(streams []ffprobe.Stream, lang string) int {
	lang = language.Normalize(lang)
	best, bestScore := -1, -1
	for _, stream := range streams {
		if !strings.EqualFold(stream.CodecType, "audio") {
			continue
		}
		score := 0
		if lang != "" && language.Normalize(tag(stream, "language", "LANGUAGE")) == lang {
			score += 1000
		}
		if !isSecondaryTrack(stream) {
			score += 100
		}
		if stream.Disposition["default"] == 1 {
			score += 10
		}
		channels := stream.Channels
		if channels > 8 {
			channels = 8
		}
		score += channels
		if score > bestScore {
			best, bestScore = stream.Index, score
		}
	}
	return best
}

func isSecondaryTrack(stream ffprobe.Stream) bool {
	if stream.Disposition["comment"] == 1 || stream.Disposition["visual_impaired"] == 1 {
		return true
	}
	title := strings.ToLower(tag(stream, "title", "TITLE", "handler_name"))
	for _, keyword := range []string{"commentary", "description", "descriptive"} {
		if strings.Contains(title, keyword) {
			return true
		}
	}
	return false
}

func tag(stream ffprobe.Stream, keys ...string) string {
	for _, key := range keys {
		if value := strings.TrimSpace(stream.Tags[key]); value != "" {
			return value
		}
	}
	return ""
}
