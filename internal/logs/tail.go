package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const maxLineBytes = 1024 * 1024

// Position marks where a Follow call resumes reading.
type Position struct {
	Offset int64
	file   os.FileInfo
}

// Last returns up to limit trailing lines containing match (all lines when
// match is empty) and the position of the end of the file. A missing file
// yields no lines and a zero position.
func Last(path string, limit int, match string) ([]string, Position, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, Position{}, nil
		}
		return nil, Position{}, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, Position{}, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return nil, Position{}, fmt.Errorf("log path %q is a directory", path)
	}
	if limit <= 0 {
		return nil, Position{Offset: info.Size(), file: info}, nil
	}

	ring := make([]string, limit)
	count, idx := 0, 0
	offset, err := scan(file, func(line string) {
		if match != "" && !strings.Contains(line, match) {
			return
		}
		ring[idx] = line
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	})
	if err != nil {
		return nil, Position{}, err
	}

	lines := make([]string, count)
	if count == limit {
		for i := range count {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, Position{Offset: offset, file: info}, nil
}

// Follow calls onLine for every complete line containing match that is
// appended after pos, polling every poll interval until ctx is done. When
// path now names a different or truncated file, reading restarts at its
// beginning.
func Follow(ctx context.Context, path string, pos Position, match string, poll time.Duration, onLine func(string)) error {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		next, err := readNew(path, pos, match, onLine)
		if err != nil {
			return err
		}
		pos = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func readNew(path string, pos Position, match string, onLine func(string)) (Position, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Position{}, nil
		}
		return pos, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return pos, fmt.Errorf("stat log file: %w", err)
	}
	offset := pos.Offset
	if pos.file == nil || !os.SameFile(pos.file, info) || info.Size() < offset {
		offset = 0
	}
	if info.Size() == offset {
		return Position{Offset: offset, file: info}, nil
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return pos, fmt.Errorf("seek log file: %w", err)
	}
	consumed, err := scan(file, func(line string) {
		if match == "" || strings.Contains(line, match) {
			onLine(line)
		}
	})
	if err != nil {
		return pos, err
	}
	return Position{Offset: offset + consumed, file: info}, nil
}

// scan feeds complete lines to fn and returns the number of bytes consumed.
// A trailing line without a newline is left for the next read.
func scan(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err == nil {
			consumed += int64(len(line))
			text := strings.TrimRight(line, "\r\n")
			if len(text) > maxLineBytes {
				text = text[:maxLineBytes]
			}
			fn(text)
			continue
		}
		if errors.Is(err, io.EOF) {
			return consumed, nil
		}
		return consumed, fmt.Errorf("read log file: %w", err)
	}
}
