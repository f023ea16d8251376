package daemon

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"lingosub/internal/api"
	"lingosub/internal/language"
	"lingosub/internal/logging"
	"lingosub/internal/pipeline"
	"lingosub/internal/preflight"
	"lingosub/internal/project"
	"lingosub/internal/queue"
	"lingosub/internal/services"
)

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	status := s.daemon.Status(r.Context())
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		QueueDBPath:  status.QueueDBPath,
		LockFilePath: status.LockFilePath,
		ProjectsDir:  status.ProjectsDir,
		Workflow:     api.FromStatusSummary(status.Workflow),
		Dependencies: api.FromDependencies(status.Dependencies),
	}
	if truthy(r.URL.Query().Get("checks")) {
		payload.Checks = api.FromChecks(preflight.RunAll(r.Context(), s.daemon.cfg))
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func (s *apiServer) handleLanguages(w http.ResponseWriter, _ *http.Request) {
	cfg := s.daemon.cfg
	s.writeJSON(w, http.StatusOK, api.FromLanguages(cfg.Languages.Source, cfg.Languages.Supported))
}

func (s *apiServer) handleListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := s.daemon.projects.List()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	active, err := s.activeProjects(r)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := make([]api.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		langs, _ := s.daemon.projects.SubtitleLanguages(p.ID)
		out = append(out, api.FromProject(p, s.loadState(r, p), active[p.ID], langs))
	}
	s.writeJSON(w, http.StatusOK, api.ProjectListResponse{Projects: out})
}

func (s *apiServer) handleGetProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupProject(w, r)
	if !ok {
		return
	}
	artifacts, err := s.daemon.projects.Artifacts(p.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	active, err := s.daemon.store.ActiveForProject(r.Context(), p.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	langs, _ := s.daemon.projects.SubtitleLanguages(p.ID)
	st := s.loadState(r, p)
	s.writeJSON(w, http.StatusOK, api.ProjectDetail{
		ProjectSummary: api.FromProject(p, st, active != nil, langs),
		Width:          p.Width,
		Height:         p.Height,
		State:          api.FromState(st),
		Artifacts:      api.FromArtifacts(artifacts),
	})
}

func (s *apiServer) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupProject(w, r)
	if !ok {
		return
	}
	active, err := s.daemon.store.ActiveForProject(r.Context(), p.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	if active != nil {
		err := services.Wrap(services.ErrConcurrency, "", "delete project",
			fmt.Sprintf("run #%d is %s", active.ID, active.Status), nil)
		s.writeServiceError(w, r, err)
		return
	}
	if err := s.daemon.projects.Delete(r.Context(), p.ID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *apiServer) handleStartRun(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupProject(w, r)
	if !ok {
		return
	}
	item, err := s.daemon.workflow.Enqueue(r.Context(), p.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	logging.WithContext(services.WithProjectID(r.Context(), p.ID), s.logger).Info("run requested",
		logging.String(logging.FieldEventType, "run_requested"),
		logging.Int64("item_id", item.ID),
	)
	s.writeJSON(w, http.StatusAccepted, api.RunResponse{Item: api.FromRunItem(item)})
}

func (s *apiServer) handleListRuns(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := queue.Filter{ProjectID: strings.TrimSpace(query.Get("project"))}
	for _, value := range query["status"] {
		if strings.TrimSpace(value) == "" {
			continue
		}
		status, ok := queue.ParseStatus(value)
		if !ok {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown status %q", value), "")
			return
		}
		filter.Statuses = append(filter.Statuses, status)
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit", "")
			return
		}
		filter.Limit = limit
	}
	items, err := s.daemon.store.List(r.Context(), filter)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.RunListResponse{Items: api.FromRunItems(items)})
}

func (s *apiServer) handleClearRuns(w http.ResponseWriter, r *http.Request) {
	removed, err := s.daemon.store.ClearFinished(r.Context())
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	s.logger.Info("finished runs cleared",
		logging.String(logging.FieldEventType, "runs_cleared"),
		logging.Int64("removed", removed),
	)
	s.writeJSON(w, http.StatusOK, api.ClearRunsResponse{Removed: removed})
}

func (s *apiServer) handleSubtitle(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupProject(w, r)
	if !ok {
		return
	}
	raw := chi.URLParam(r, "lang")
	lang := language.Normalize(strings.TrimSuffix(raw, ".srt"))
	if lang == "" {
		s.writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown language %q", raw), "asset")
		return
	}
	s.serveArtifact(w, r, s.daemon.projects.Layout(p).Subtitle(lang), "application/x-subrip; charset=utf-8")
}

func (s *apiServer) handleArchive(w http.ResponseWriter, r *http.Request) {
	p, ok := s.lookupProject(w, r)
	if !ok {
		return
	}
	s.serveArtifact(w, r, s.daemon.projects.Layout(p).Archive(), "application/zip")
}

func (s *apiServer) serveArtifact(w http.ResponseWriter, r *http.Request, path, contentType string) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.writeError(w, http.StatusNotFound, "artifact not produced yet", "not_found")
			return
		}
		s.writeServiceError(w, r, err)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Name()))
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

func (s *apiServer) lookupProject(w http.ResponseWriter, r *http.Request) (project.Project, bool) {
	p, err := s.daemon.projects.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return project.Project{}, false
	}
	return p, true
}

// loadState reads the run state of p. A missing or unreadable state file
// reports a project that has never run.
func (s *apiServer) loadState(r *http.Request, p project.Project) pipeline.State {
	st, err := pipeline.LoadState(s.daemon.projects.Layout(p).State())
	if err != nil {
		logging.WithContext(r.Context(), s.logger).Warn("project state unreadable",
			logging.String(logging.FieldProjectID, p.ID),
			logging.Error(err),
		)
		return pipeline.NewState()
	}
	return st
}

func (s *apiServer) activeProjects(r *http.Request) (map[string]bool, error) {
	items, err := s.daemon.store.List(r.Context(), queue.Filter{
		Statuses: []queue.Status{queue.StatusPending, queue.StatusRunning},
	})
	if err != nil {
		return nil, err
	}
	active := make(map[string]bool, len(items))
	for _, item := range items {
		active[item.ProjectID] = true
	}
	return active, nil
}

func truthy(value string) bool {
	value = strings.TrimSpace(value)
	return value == "1" || strings.EqualFold(value, "true")
}
