package daemon_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"lingosub/internal/api"
	"lingosub/internal/config"
	"lingosub/internal/daemon"
	"lingosub/internal/logging"
	"lingosub/internal/pipeline"
	"lingosub/internal/project"
	"lingosub/internal/queue"
	"lingosub/internal/testsupport"
	"lingosub/internal/workflow"
)

type completeRunner struct{}

func (completeRunner) Run(context.Context, string) (pipeline.State, error) {
	return pipeline.State{Stage: pipeline.StageComplete, Status: pipeline.StatusComplete}, nil
}

type fixture struct {
	cfg      *config.Config
	store    *queue.Store
	projects *project.Store
	daemon   *daemon.Daemon
	server   *httptest.Server
}

func newFixture(t *testing.T, mutate func(*config.Config)) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	if mutate != nil {
		mutate(cfg)
	}
	store := testsupport.MustOpenStore(t, cfg)
	projects := testsupport.NewProjectStore(t, cfg)
	mgr := workflow.NewManager(cfg, store, completeRunner{}, logging.NewNop())
	d, err := daemon.New(cfg, store, projects, mgr, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	srv := httptest.NewServer(d.Handler())
	t.Cleanup(srv.Close)
	return &fixture{cfg: cfg, store: store, projects: projects, daemon: d, server: srv}
}

func (f *fixture) do(t *testing.T, method, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, f.server.URL+path, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return out
}

func TestStartRunAcceptedThenConflict(t *testing.T) {
	f := newFixture(t, nil)
	p := testsupport.NewProject(t, f.projects, "lecture")

	resp := f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/runs")
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}
	run := decode[api.RunResponse](t, resp)
	if run.Item.ProjectID != p.ID || run.Item.Status != string(queue.StatusPending) {
		t.Fatalf("unexpected run item %+v", run.Item)
	}

	resp = f.do(t, http.MethodPost, "/api/projects/"+p.ID+"/runs")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for second run, got %d", resp.StatusCode)
	}
	body := decode[api.ErrorResponse](t, resp)
	if body.Kind != "concurrency" || body.Error == "" {
		t.Fatalf("unexpected error body %+v", body)
	}
}

func TestStartRunUnknownProject(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodPost, "/api/projects/does-not-exist/runs")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestListAndGetProject(t *testing.T) {
	f := newFixture(t, nil)
	p := testsupport.NewProject(t, f.projects, "interview")
	layout := f.projects.Layout(p)
	testsupport.WriteFile(t, layout.Subtitle("en"), 64)

	st := pipeline.NewState()
	st.Stage = pipeline.StageBuildingSubtitles
	st.Status = pipeline.StatusRunning
	if err := pipeline.SaveState(layout.State(), st); err != nil {
		t.Fatalf("save state: %v", err)
	}

	list := decode[api.ProjectListResponse](t, f.do(t, http.MethodGet, "/api/projects"))
	if len(list.Projects) != 1 {
		t.Fatalf("expected 1 project, got %d", len(list.Projects))
	}
	row := list.Projects[0]
	if row.ID != p.ID || row.Stage != string(pipeline.StageBuildingSubtitles) || row.Active {
		t.Fatalf("unexpected summary %+v", row)
	}
	if len(row.Languages) != 1 || row.Languages[0] != "en" {
		t.Fatalf("unexpected languages %v", row.Languages)
	}

	detail := decode[api.ProjectDetail](t, f.do(t, http.MethodGet, "/api/projects/"+p.ID))
	if detail.Name != "interview" || detail.State.Status != string(pipeline.StatusRunning) {
		t.Fatalf("unexpected detail %+v", detail)
	}
	kinds := map[string]bool{}
	for _, a := range detail.Artifacts {
		kinds[a.Kind] = true
	}
	for _, want := range []string{project.KindMedia, project.KindSubtitle, project.KindState} {
		if !kinds[want] {
			t.Fatalf("expected artifact kind %s in %+v", want, detail.Artifacts)
		}
	}
}

func TestDeleteProjectRefusedWhileQueued(t *testing.T) {
	f := newFixture(t, nil)
	p := testsupport.NewProject(t, f.projects, "talk")

	item, err := f.store.Enqueue(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	resp := f.do(t, http.MethodDelete, "/api/projects/"+p.ID)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while queued, got %d", resp.StatusCode)
	}

	item.SetCompleted(string(pipeline.StageComplete), nil)
	if err := f.store.Update(context.Background(), item); err != nil {
		t.Fatalf("update: %v", err)
	}
	resp = f.do(t, http.MethodDelete, "/api/projects/"+p.ID)
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}
	if _, err := os.Stat(f.projects.Dir(p.ID)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected project dir removed, stat err %v", err)
	}
}

func TestDeleteProjectRefusedWhileLocked(t *testing.T) {
	f := newFixture(t, nil)
	p := testsupport.NewProject(t, f.projects, "locked")
	unlock, err := f.projects.TryLock(p)
	if err != nil {
		t.Fatalf("lock: %v", err)
	}
	defer unlock()

	resp := f.do(t, http.MethodDelete, "/api/projects/"+p.ID)
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 while locked, got %d", resp.StatusCode)
	}
}

func TestDownloadSubtitleAndArchive(t *testing.T) {
	f := newFixture(t, nil)
	p := testsupport.NewProject(t, f.projects, "clip")
	layout := f.projects.Layout(p)
	content := "1\n00:00:01,000 --> 00:00:02,250\nHello world\n\n"
	if err := os.WriteFile(layout.Subtitle("en"), []byte(content), 0o644); err != nil {
		t.Fatalf("write srt: %v", err)
	}

	resp := f.do(t, http.MethodGet, "/api/projects/"+p.ID+"/subtitles/en")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if string(data) != content {
		t.Fatalf("unexpected subtitle body %q", data)
	}

	if resp := f.do(t, http.MethodGet, "/api/projects/"+p.ID+"/subtitles/es"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing language, got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodGet, "/api/projects/"+p.ID+"/subtitles/zz-not-a-language"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown language, got %d", resp.StatusCode)
	}
	if resp := f.do(t, http.MethodGet, "/api/projects/"+p.ID+"/archive"); resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 before packaging, got %d", resp.StatusCode)
	}
}

func TestListRunsFilters(t *testing.T) {
	f := newFixture(t, nil)
	a := testsupport.NewProject(t, f.projects, "a")
	b := testsupport.NewProject(t, f.projects, "b")
	for _, id := range []string{a.ID, b.ID} {
		if _, err := f.store.Enqueue(context.Background(), id); err != nil {
			t.Fatalf("enqueue: %v", err)
		}
	}

	runs := decode[api.RunListResponse](t, f.do(t, http.MethodGet, "/api/runs?project="+a.ID))
	if len(runs.Items) != 1 || runs.Items[0].ProjectID != a.ID {
		t.Fatalf("unexpected runs %+v", runs.Items)
	}
	runs = decode[api.RunListResponse](t, f.do(t, http.MethodGet, "/api/runs?status=pending"))
	if len(runs.Items) != 2 {
		t.Fatalf("expected 2 pending runs, got %d", len(runs.Items))
	}
	if resp := f.do(t, http.MethodGet, "/api/runs?status=bogus"); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown status, got %d", resp.StatusCode)
	}
}

func TestClearRunsRemovesFinished(t *testing.T) {
	f := newFixture(t, nil)
	done := testsupport.NewProject(t, f.projects, "done")
	waiting := testsupport.NewProject(t, f.projects, "waiting")
	ctx := context.Background()
	item, err := f.store.Enqueue(ctx, done.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	item.SetFailed("packaging", "disk full")
	if err := f.store.Update(ctx, item); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := f.store.Enqueue(ctx, waiting.ID); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	cleared := decode[api.ClearRunsResponse](t, f.do(t, http.MethodDelete, "/api/runs"))
	if cleared.Removed != 1 {
		t.Fatalf("expected 1 removed item, got %d", cleared.Removed)
	}
	runs := decode[api.RunListResponse](t, f.do(t, http.MethodGet, "/api/runs"))
	if len(runs.Items) != 1 || runs.Items[0].ProjectID != waiting.ID {
		t.Fatalf("unexpected remaining runs %+v", runs.Items)
	}
}

func TestLanguagesAndStatus(t *testing.T) {
	f := newFixture(t, nil)

	langs := decode[api.LanguagesResponse](t, f.do(t, http.MethodGet, "/api/languages"))
	if langs.Source != "en" || len(langs.Languages) != 2 {
		t.Fatalf("unexpected languages %+v", langs)
	}

	status := decode[api.DaemonStatus](t, f.do(t, http.MethodGet, "/api/status"))
	if status.Running {
		t.Fatal("expected daemon not running before Start")
	}
	if status.QueueDBPath != f.cfg.QueueDBPath() || len(status.Dependencies) == 0 {
		t.Fatalf("unexpected status %+v", status)
	}
	if len(status.Checks) != 0 {
		t.Fatal("expected checks only on request")
	}
}

func TestAuthRequiredWhenTokenConfigured(t *testing.T) {
	f := newFixture(t, func(cfg *config.Config) { cfg.API.Token = "s3cret" })

	if resp := f.do(t, http.MethodGet, "/api/languages"); resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", resp.StatusCode)
	}

	client, err := api.NewClient(f.server.URL, api.WithToken("s3cret"))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if _, err := client.Languages(context.Background()); err != nil {
		t.Fatalf("expected authorized request, got %v", err)
	}
}

func TestDaemonStartStopSingleInstance(t *testing.T) {
	f := newFixture(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := f.daemon.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(f.daemon.Stop)

	client, err := api.NewClient(f.daemon.APIAddress())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	status, err := client.Status(ctx, false)
	if err != nil {
		t.Fatalf("Status over API: %v", err)
	}
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected running daemon, got %+v", status)
	}

	store := testsupport.MustOpenStore(t, f.cfg)
	mgr := workflow.NewManager(f.cfg, store, completeRunner{}, logging.NewNop())
	second, err := daemon.New(f.cfg, store, f.projects, mgr, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := second.Start(ctx); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}

	f.daemon.Stop()
	if f.daemon.Status(ctx).Running {
		t.Fatal("expected daemon stopped")
	}
}
