package testsupport

import (
	"context"
	"path/filepath"
	"testing"

	"lingosub/internal/config"
	"lingosub/internal/logging"
	"lingosub/internal/project"
	"lingosub/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewProjectStore returns a project store rooted at the config's projects
// directory. Sources are not probed.
func NewProjectStore(t testing.TB, cfg *config.Config) *project.Store {
	t.Helper()
	return project.NewStore(cfg.Paths.ProjectsDir, cfg.Media.AllowedExtensions, nil, logging.NewNop())
}

// NewProject imports a small placeholder mp4 named after name.
func NewProject(t testing.TB, store *project.Store, name string) project.Project {
	t.Helper()

	src := filepath.Join(t.TempDir(), name+".mp4")
	WriteFile(t, src, 1024)
	p, err := store.Create(context.Background(), project.CreateRequest{Name: name, SourcePath: src})
	if err != nil {
		t.Fatalf("project.Create: %v", err)
	}
	return p
}
