package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Language is a subtitle language offered by the daemon.
type Language struct {
	Code   string `json:"code"`
	Name   string `json:"name"`
	Source bool   `json:"source,omitempty"`
}

// LanguagesResponse lists the configured languages.
type LanguagesResponse struct {
	Source    string     `json:"source"`
	Languages []Language `json:"languages"`
}

// StageError describes the fatal failure of the latest run.
type StageError struct {
	Stage   string `json:"stage"`
	Message string `json:"message"`
	Kind    string `json:"kind"`
	Hint    string `json:"hint,omitempty"`
}

// PipelineState mirrors the persisted run state of a project.
type PipelineState struct {
	RunID           string            `json:"runId,omitempty"`
	Stage           string            `json:"stage"`
	Status          string            `json:"status"`
	Completed       map[string]string `json:"completed,omitempty"`
	LastError       *StageError       `json:"lastError,omitempty"`
	FailedLanguages []string          `json:"failedLanguages,omitempty"`
	Warnings        []string          `json:"warnings,omitempty"`
	StartedAt       string            `json:"startedAt,omitempty"`
	UpdatedAt       string            `json:"updatedAt,omitempty"`
	FinishedAt      string            `json:"finishedAt,omitempty"`
}

// ProjectSummary is one row of the project listing.
type ProjectSummary struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	FileEnding      string   `json:"fileEnding"`
	CreatedAt       string   `json:"createdAt,omitempty"`
	DurationSeconds float64  `json:"durationSeconds,omitempty"`
	Stage           string   `json:"stage"`
	Status          string   `json:"status"`
	Active          bool     `json:"active"`
	Languages       []string `json:"languages,omitempty"`
}

// Artifact describes one file in a project directory.
type Artifact struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Language   string `json:"language,omitempty"`
	SizeBytes  int64  `json:"sizeBytes"`
	ModifiedAt string `json:"modifiedAt,omitempty"`
}

// ProjectDetail is the full view of one project.
type ProjectDetail struct {
	ProjectSummary
	Width     int           `json:"width,omitempty"`
	Height    int           `json:"height,omitempty"`
	State     PipelineState `json:"state"`
	Artifacts []Artifact    `json:"artifacts"`
}

// ProjectListResponse wraps the project listing.
type ProjectListResponse struct {
	Projects []ProjectSummary `json:"projects"`
}

// RunItem describes a run queue entry in a transport-friendly format.
type RunItem struct {
	ID              int64    `json:"id"`
	ProjectID       string   `json:"projectId"`
	Status          string   `json:"status"`
	Stage           string   `json:"stage,omitempty"`
	ErrorMessage    string   `json:"errorMessage,omitempty"`
	FailedLanguages []string `json:"failedLanguages,omitempty"`
	CreatedAt       string   `json:"createdAt,omitempty"`
	UpdatedAt       string   `json:"updatedAt,omitempty"`
	StartedAt       string   `json:"startedAt,omitempty"`
	FinishedAt      string   `json:"finishedAt,omitempty"`
	DurationSeconds float64  `json:"durationSeconds,omitempty"`
}

// RunListResponse wraps a collection of run items.
type RunListResponse struct {
	Items []RunItem `json:"items"`
}

// ClearRunsResponse reports how many finished items were removed.
type ClearRunsResponse struct {
	Removed int64 `json:"removed"`
}

// RunResponse wraps the item created by a run request.
type RunResponse struct {
	Item RunItem `json:"item"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running        bool           `json:"running"`
	MaxRuns        int            `json:"maxRuns"`
	ActiveItems    []int64        `json:"activeItems,omitempty"`
	ActiveProjects []string       `json:"activeProjects,omitempty"`
	QueueStats     map[string]int `json:"queueStats"`
	LastError      string         `json:"lastError,omitempty"`
	LastItem       *RunItem       `json:"lastItem,omitempty"`
}

// DependencyStatus captures availability of an external dependency.
type DependencyStatus struct {
	Name        string `json:"name"`
	Command     string `json:"command"`
	Description string `json:"description"`
	Optional    bool   `json:"optional"`
	Available   bool   `json:"available"`
	Detail      string `json:"detail,omitempty"`
}

// CheckResult is one preflight check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	QueueDBPath  string             `json:"queueDbPath"`
	LockFilePath string             `json:"lockFilePath"`
	ProjectsDir  string             `json:"projectsDir"`
	Workflow     WorkflowStatus     `json:"workflow"`
	Dependencies []DependencyStatus `json:"dependencies"`
	Checks       []CheckResult      `json:"checks,omitempty"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}
