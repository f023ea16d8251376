package archive

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"lingosub/internal/fileutil"
	"lingosub/internal/logging"
	"lingosub/internal/services"
	"lingosub/internal/subtitles"
)

const (
	stageName = "packaging"
	// headroom is kept free on top of the archive's worst-case size.
	headroom = 1 << 20
)

// Result describes a written archive.
type Result struct {
	Path      string
	Files     []string
	SizeBytes int64
}

// Builder writes subtitle archives.
type Builder struct {
	logger    *slog.Logger
	freeBytes func(path string) (uint64, error)
}

// NewBuilder returns a Builder that checks free space before writing.
func NewBuilder(logger *slog.Logger) *Builder {
	return &Builder{
		logger:    logging.NewComponentLogger(logger, "archive"),
		freeBytes: fileutil.FreeBytes,
	}
}

// SubtitleFiles lists the <language>.srt files in dir, sorted by name.
func SubtitleFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if _, ok := subtitles.LanguageFromFileName(entry.Name()); ok {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// Build writes every subtitle file in dir into dest, replacing any previous
// archive. Subtitle files are never modified; a failed build leaves the
// previous archive, if any, in place.
func (b *Builder) Build(ctx context.Context, dir, dest string) (Result, error) {
	result := Result{Path: dest}
	fail := func(msg string, err error) (Result, error) {
		return result, services.Wrap(services.ErrPackaging, stageName, "build archive", msg, err)
	}

	names, err := SubtitleFiles(dir)
	if err != nil {
		return fail("list subtitle files", err)
	}
	if len(names) == 0 {
		return fail("no subtitle files to package", nil)
	}

	var total int64
	for _, name := range names {
		info, err := os.Stat(filepath.Join(dir, name))
		if err != nil {
			return fail("stat "+name, err)
		}
		total += info.Size()
	}
	if b.freeBytes != nil {
		free, err := b.freeBytes(filepath.Dir(dest))
		if err != nil {
			return fail("check free space", err)
		}
		if need := uint64(total) + headroom; free < need {
			return fail(fmt.Sprintf("insufficient disk space: need %d bytes, %d available", need, free), nil)
		}
	}

	err = fileutil.WriteAtomic(dest, 0o644, func(w io.Writer) error {
		zw := zip.NewWriter(w)
		for _, name := range names {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := addFile(zw, filepath.Join(dir, name), name); err != nil {
				return err
			}
		}
		return zw.Close()
	})
	if err != nil {
		return fail("write "+filepath.Base(dest), err)
	}

	info, err := os.Stat(dest)
	if err != nil {
		return fail("stat archive", err)
	}
	result.Files = names
	result.SizeBytes = info.Size()
	logging.WithContext(ctx, b.logger).Info("subtitle archive written",
		logging.String(logging.FieldEventType, "archive_written"),
		logging.Int("files", len(names)),
		logging.Int64("size_bytes", result.SizeBytes),
	)
	return result, nil
}

func addFile(zw *zip.Writer, path, name string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return err
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return err
	}
	header.Name = name
	header.Method = zip.Deflate
	header.Modified = info.ModTime().UTC().Truncate(time.Second)
	w, err := zw.CreateHeader(header)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("add %s: %w", name, err)
	}
	return nil
}

// Contents lists the entry names of the archive at path.
func Contents(path string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()
	names := make([]string, 0, len(r.File))
	for _, f := range r.File {
		names = append(names, f.Name)
	}
	return names, nil
}

// Matches reports whether the archive at path holds exactly the subtitle
// files currently in dir.
func Matches(path, dir string) bool {
	inArchive, err := Contents(path)
	if err != nil {
		return false
	}
	onDisk, err := SubtitleFiles(dir)
	if err != nil || len(onDisk) == 0 {
		return false
	}
	sort.Strings(inArchive)
	if len(inArchive) != len(onDisk) {
		return false
	}
	for i := range onDisk {
		if inArchive[i] != onDisk[i] {
			return false
		}
	}
	return true
}
