package deps

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ResolveFFprobe picks the ffprobe that belongs to ffmpegCommand.
//
// Static ffmpeg builds ship ffprobe in the same directory, and probing with a
// different build than the one that transcodes gives confusing stream
// reports. When ffmpegCommand resolves to a file with an executable ffprobe
// next to it, that sibling wins; otherwise "ffprobe" is returned for PATH
// lookup.
func ResolveFFprobe(ffmpegCommand string) string {
	const fallback = "ffprobe"
	ffmpegCommand = strings.TrimSpace(ffmpegCommand)
	if ffmpegCommand == "" {
		return fallback
	}
	resolved, err := exec.LookPath(ffmpegCommand)
	if err != nil {
		return fallback
	}
	candidate := filepath.Join(filepath.Dir(resolved), executableName("ffprobe"))
	if info, err := os.Stat(candidate); err == nil && isExecutable(info) {
		return candidate
	}
	return fallback
}

func executableName(base string) string {
	if runtime.GOOS == "windows" {
		return base + ".exe"
	}
	return base
}

func isExecutable(info os.FileInfo) bool {
	if info == nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
