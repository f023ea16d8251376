package project

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"lingosub/internal/subtitles"
)

// Artifact kinds.
const (
	KindMedia    = "media"
	KindAudio    = "audio"
	KindWords    = "words"
	KindSubtitle = "subtitle"
	KindArchive  = "archive"
	KindState    = "state"
	KindMetadata = "metadata"
)

// Artifact is one file in a project directory.
type Artifact struct {
	Name       string    `json:"name"`
	Kind       string    `json:"kind"`
	Language   string    `json:"language,omitempty"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
}

// Artifacts enumerates the known files of project id. Temporary files and
// the lock file are not reported.
func (s *Store) Artifacts(id string) ([]Artifact, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.Dir(id))
	if err != nil {
		return nil, fmt.Errorf("read project dir: %w", err)
	}
	out := make([]Artifact, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		kind, lang := classify(entry.Name())
		if kind == "" {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		out = append(out, Artifact{
			Name:       entry.Name(),
			Kind:       kind,
			Language:   lang,
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime().UTC(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// SubtitleLanguages returns the languages that have a subtitle file.
func (s *Store) SubtitleLanguages(id string) ([]string, error) {
	artifacts, err := s.Artifacts(id)
	if err != nil {
		return nil, err
	}
	var langs []string
	for _, a := range artifacts {
		if a.Kind == KindSubtitle {
			langs = append(langs, a.Language)
		}
	}
	return langs, nil
}

func classify(name string) (string, string) {
	switch {
	case name == MetadataFile:
		return KindMetadata, ""
	case name == AudioFile:
		return KindAudio, ""
	case name == WordsFile:
		return KindWords, ""
	case name == ArchiveFile:
		return KindArchive, ""
	case name == StateFile:
		return KindState, ""
	case strings.HasPrefix(name, RawMediaBase+"."):
		return KindMedia, ""
	}
	if lang, ok := subtitles.LanguageFromFileName(name); ok {
		return KindSubtitle, lang
	}
	return "", ""
}
