package deps

import (
	"fmt"
	"os/exec"
	"strings"
)

// UVX launches WhisperX in an isolated Python environment.
const UVX = "uvx"

// Requirement names an external binary and whether a run can proceed without it.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status is the outcome of looking a Requirement up on PATH.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	// Path is the resolved executable when Available.
	Path   string
	Detail string
}

// Pipeline lists the tools a pipeline run shells out to. ffprobe is looked
// up next to ffmpeg and only improves stream selection.
func Pipeline(ffmpeg string) []Requirement {
	return []Requirement{
		{Name: "FFmpeg", Command: ffmpeg, Description: "Required for audio extraction"},
		{Name: "FFprobe", Command: ResolveFFprobe(ffmpeg), Description: "Used for media inspection", Optional: true},
		{Name: "uvx", Command: UVX, Description: "Required for WhisperX-driven transcription"},
	}
}

// Check resolves one requirement.
func Check(req Requirement) Status {
	status := Status{
		Name:        req.Name,
		Command:     strings.TrimSpace(req.Command),
		Description: strings.TrimSpace(req.Description),
		Optional:    req.Optional,
	}
	if status.Command == "" {
		status.Detail = "command not configured"
		return status
	}
	path, err := exec.LookPath(status.Command)
	if err != nil {
		status.Detail = fmt.Sprintf("binary %q not found", status.Command)
		return status
	}
	status.Available = true
	status.Path = path
	return status
}

// CheckBinaries resolves every requirement, preserving order.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		results = append(results, Check(req))
	}
	return results
}

// MissingRequired returns the names of unavailable, non-optional dependencies.
func MissingRequired(statuses []Status) []string {
	var missing []string
	for _, s := range statuses {
		if !s.Available && !s.Optional {
			missing = append(missing, s.Name)
		}
	}
	return missing
}
