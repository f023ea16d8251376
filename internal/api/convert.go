package api

import (
	"time"

	"lingosub/internal/deps"
	"lingosub/internal/language"
	"lingosub/internal/pipeline"
	"lingosub/internal/preflight"
	"lingosub/internal/project"
	"lingosub/internal/queue"
	"lingosub/internal/workflow"
)

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatTime(*t)
}

// FromRunItem converts a queue record to its API representation.
func FromRunItem(item *queue.Item) RunItem {
	if item == nil {
		return RunItem{}
	}
	dto := RunItem{
		ID:              item.ID,
		ProjectID:       item.ProjectID,
		Status:          string(item.Status),
		Stage:           item.Stage,
		ErrorMessage:    item.ErrorMessage,
		FailedLanguages: item.FailedLanguages,
		CreatedAt:       formatTime(item.CreatedAt),
		UpdatedAt:       formatTime(item.UpdatedAt),
		StartedAt:       formatTimePtr(item.StartedAt),
		FinishedAt:      formatTimePtr(item.FinishedAt),
	}
	if d := item.Duration(); d > 0 {
		dto.DurationSeconds = d.Round(time.Millisecond).Seconds()
	}
	return dto
}

// FromRunItems converts a slice of queue records into API DTOs.
func FromRunItems(items []*queue.Item) []RunItem {
	out := make([]RunItem, 0, len(items))
	for _, item := range items {
		out = append(out, FromRunItem(item))
	}
	return out
}

// FromState converts persisted pipeline state.
func FromState(st pipeline.State) PipelineState {
	dto := PipelineState{
		RunID:           st.RunID,
		Stage:           string(st.Stage),
		Status:          string(st.Status),
		FailedLanguages: st.FailedLanguages,
		Warnings:        st.Warnings,
		StartedAt:       formatTime(st.StartedAt),
		UpdatedAt:       formatTime(st.UpdatedAt),
		FinishedAt:      formatTime(st.FinishedAt),
	}
	if len(st.Completed) > 0 {
		dto.Completed = make(map[string]string, len(st.Completed))
		for stage, at := range st.Completed {
			dto.Completed[string(stage)] = formatTime(at)
		}
	}
	if st.LastError != nil {
		dto.LastError = &StageError{
			Stage:   string(st.LastError.Stage),
			Message: st.LastError.Message,
			Kind:    st.LastError.Kind,
			Hint:    st.LastError.Hint,
		}
	}
	return dto
}

// FromProject builds a listing row from project metadata and its run state.
func FromProject(p project.Project, st pipeline.State, active bool, languages []string) ProjectSummary {
	return ProjectSummary{
		ID:              p.ID,
		Name:            p.Name,
		FileEnding:      p.FileEnding,
		CreatedAt:       formatTime(p.CreatedAt),
		DurationSeconds: p.DurationSeconds,
		Stage:           string(st.Stage),
		Status:          string(st.Status),
		Active:          active,
		Languages:       languages,
	}
}

// FromArtifacts converts project artifacts.
func FromArtifacts(artifacts []project.Artifact) []Artifact {
	out := make([]Artifact, 0, len(artifacts))
	for _, a := range artifacts {
		out = append(out, Artifact{
			Name:       a.Name,
			Kind:       a.Kind,
			Language:   a.Language,
			SizeBytes:  a.SizeBytes,
			ModifiedAt: formatTime(a.ModifiedAt),
		})
	}
	return out
}

// FromStatusSummary converts workflow diagnostics.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := make(map[string]int, len(summary.QueueStats))
	for status, count := range summary.QueueStats {
		stats[string(status)] = count
	}
	dto := WorkflowStatus{
		Running:        summary.Running,
		MaxRuns:        summary.MaxRuns,
		ActiveItems:    summary.ActiveItems,
		ActiveProjects: summary.ActiveProjects,
		QueueStats:     stats,
		LastError:      summary.LastError,
	}
	if summary.LastItem != nil {
		item := FromRunItem(summary.LastItem)
		dto.LastItem = &item
	}
	return dto
}

// FromDependencies converts binary availability reports.
func FromDependencies(statuses []deps.Status) []DependencyStatus {
	out := make([]DependencyStatus, 0, len(statuses))
	for _, dep := range statuses {
		out = append(out, DependencyStatus{
			Name:        dep.Name,
			Command:     dep.Command,
			Description: dep.Description,
			Optional:    dep.Optional,
			Available:   dep.Available,
			Detail:      dep.Detail,
		})
	}
	return out
}

// FromChecks converts preflight results.
func FromChecks(results []preflight.Result) []CheckResult {
	out := make([]CheckResult, 0, len(results))
	for _, r := range results {
		out = append(out, CheckResult{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	return out
}

// FromLanguages lists the configured languages and flags the source.
func FromLanguages(source string, supported []string) LanguagesResponse {
	resp := LanguagesResponse{Source: source}
	for _, lang := range language.Describe(supported) {
		resp.Languages = append(resp.Languages, Language{
			Code:   lang.Code,
			Name:   lang.Name,
			Source: lang.Code == source,
		})
	}
	return resp
}
