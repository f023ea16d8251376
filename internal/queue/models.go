package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a run item.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// DaemonStopReason is recorded when queued work is abandoned at shutdown.
const DaemonStopReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusRunning,
	StatusCompleted,
	StatusFailed,
}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, bool) {
	value = strings.ToLower(strings.TrimSpace(value))
	for _, status := range allStatuses {
		if string(status) == value {
			return status, true
		}
	}
	return "", false
}

// IsActive reports whether a status still occupies the project.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusRunning
}

// Item is one requested pipeline run.
type Item struct {
	ID              int64
	ProjectID       string
	Status          Status
	Stage           string
	ErrorMessage    string
	FailedLanguages []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	StartedAt       *time.Time
	FinishedAt      *time.Time
}

// SetCompleted records a finished run.
func (i *Item) SetCompleted(stage string, failedLanguages []string) {
	now := time.Now().UTC()
	i.Status = StatusCompleted
	i.Stage = stage
	i.ErrorMessage = ""
	i.FailedLanguages = append([]string(nil), failedLanguages...)
	i.FinishedAt = &now
}

// SetFailed records a run that stopped at stage.
func (i *Item) SetFailed(stage, message string) {
	now := time.Now().UTC()
	i.Status = StatusFailed
	i.Stage = stage
	i.ErrorMessage = strings.TrimSpace(message)
	i.FinishedAt = &now
}

// Duration reports how long the run took, or has taken so far.
func (i Item) Duration() time.Duration {
	if i.StartedAt == nil {
		return 0
	}
	end := time.Now().UTC()
	if i.FinishedAt != nil {
		end = *i.FinishedAt
	}
	return end.Sub(*i.StartedAt)
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	ProjectID string
	Statuses  []Status
	Limit     int
}

// HealthSummary counts items by lifecycle bucket.
type HealthSummary struct {
	Total     int
	Pending   int
	Running   int
	Completed int
	Failed    int
}

// DatabaseHealth describes the state of the queue database file.
type DatabaseHealth struct {
	DBPath           string
	DatabaseExists   bool
	DatabaseReadable bool
	SchemaVersion    int
	TableExists      bool
	IntegrityCheck   bool
	TotalItems       int
	Error            string
}
