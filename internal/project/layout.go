package project

import (
	"path/filepath"

	"lingosub/internal/subtitles"
)

// Fixed file names inside a project directory.
const (
	MetadataFile = "metadata.json"
	RawMediaBase = "rawMedia"
	AudioFile    = "audio.wav"
	WordsFile    = "words.json"
	ArchiveFile  = "subtitles.zip"
	StateFile    = "pipeline.json"
	LockFile     = ".pipeline.lock"
)

// Layout resolves artifact paths for one project.
type Layout struct {
	Dir        string
	FileEnding string
}

// RawMedia is the uploaded source asset.
func (l Layout) RawMedia() string {
	return filepath.Join(l.Dir, RawMediaBase+"."+l.FileEnding)
}

func (l Layout) Metadata() string { return filepath.Join(l.Dir, MetadataFile) }

func (l Layout) Audio() string { return filepath.Join(l.Dir, AudioFile) }

func (l Layout) Words() string { return filepath.Join(l.Dir, WordsFile) }

func (l Layout) Archive() string { return filepath.Join(l.Dir, ArchiveFile) }

func (l Layout) State() string { return filepath.Join(l.Dir, StateFile) }

func (l Layout) Lock() string { return filepath.Join(l.Dir, LockFile) }

// Subtitle returns the subtitle file for lang.
func (l Layout) Subtitle(lang string) string {
	return filepath.Join(l.Dir, subtitles.FileName(lang))
}
