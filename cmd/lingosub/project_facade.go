package main

import (
	"context"
	"log/slog"

	"lingosub/internal/api"
	"lingosub/internal/daemonrun"
	"lingosub/internal/logging"
	"lingosub/internal/pipeline"
	"lingosub/internal/project"
)

// projectSource answers project queries either through the daemon or, when
// it is not running, straight from the projects directory.
type projectSource interface {
	List(ctx context.Context) ([]api.ProjectSummary, error)
	Describe(ctx context.Context, id string) (api.ProjectDetail, error)
	Delete(ctx context.Context, id string) error
}

// --- API adapter ---

type projectAPIAdapter struct {
	client *api.Client
}

func (a *projectAPIAdapter) List(ctx context.Context) ([]api.ProjectSummary, error) {
	return a.client.Projects(ctx)
}

func (a *projectAPIAdapter) Describe(ctx context.Context, id string) (api.ProjectDetail, error) {
	return a.client.Project(ctx, id)
}

func (a *projectAPIAdapter) Delete(ctx context.Context, id string) error {
	return a.client.DeleteProject(ctx, id)
}

// --- local adapter ---

type projectStoreAdapter struct {
	store  *project.Store
	logger *slog.Logger
}

func (a *projectStoreAdapter) List(context.Context) ([]api.ProjectSummary, error) {
	projects, err := a.store.List()
	if err != nil {
		return nil, err
	}
	out := make([]api.ProjectSummary, 0, len(projects))
	for _, p := range projects {
		langs, _ := a.store.SubtitleLanguages(p.ID)
		out = append(out, api.FromProject(p, a.state(p), a.store.IsLocked(p), langs))
	}
	return out, nil
}

func (a *projectStoreAdapter) Describe(_ context.Context, id string) (api.ProjectDetail, error) {
	p, err := a.store.Get(id)
	if err != nil {
		return api.ProjectDetail{}, err
	}
	artifacts, err := a.store.Artifacts(p.ID)
	if err != nil {
		return api.ProjectDetail{}, err
	}
	langs, _ := a.store.SubtitleLanguages(p.ID)
	st := a.state(p)
	return api.ProjectDetail{
		ProjectSummary: api.FromProject(p, st, a.store.IsLocked(p), langs),
		Width:          p.Width,
		Height:         p.Height,
		State:          api.FromState(st),
		Artifacts:      api.FromArtifacts(artifacts),
	}, nil
}

func (a *projectStoreAdapter) Delete(ctx context.Context, id string) error {
	return a.store.Delete(ctx, id)
}

func (a *projectStoreAdapter) state(p project.Project) pipeline.State {
	st, err := pipeline.LoadState(a.store.Layout(p).State())
	if err != nil {
		a.logger.Warn("unreadable pipeline state", logging.String(logging.FieldProjectID, p.ID), logging.Error(err))
		return pipeline.NewState()
	}
	return st
}

// projectSourceFor picks the daemon when it answers, else the local store.
func (c *commandContext) projectSource(ctx context.Context) (projectSource, error) {
	if client, ok := c.daemonReachable(ctx); ok {
		return &projectAPIAdapter{client: client}, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.NewNop()
	return &projectStoreAdapter{store: daemonrun.NewProjectStore(cfg, logger), logger: logger}, nil
}
