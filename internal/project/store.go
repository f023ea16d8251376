package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"lingosub/internal/fileutil"
	"lingosub/internal/logging"
	"lingosub/internal/media/ffprobe"
	"lingosub/internal/services"
)

// Project is the persisted description of an uploaded asset.
type Project struct {
	ID              string    `json:"-"`
	Name            string    `json:"name"`
	FileEnding      string    `json:"fileEnding"`
	CreatedAt       time.Time `json:"createdAt"`
	DurationSeconds float64   `json:"durationSeconds,omitempty"`
	Width           int       `json:"width,omitempty"`
	Height          int       `json:"height,omitempty"`
}

// IsVideo reports whether the source carried a picture.
func (p Project) IsVideo() bool {
	return p.Width > 0 && p.Height > 0
}

// Prober inspects media files.
type Prober interface {
	Inspect(ctx context.Context, path string) (ffprobe.Result, error)
}

// CreateRequest describes a new project.
type CreateRequest struct {
	Name       string
	SourcePath string
}

// Store reads and writes project directories below a root.
type Store struct {
	root       string
	extensions []string
	prober     Prober
	logger     *slog.Logger
	now        func() time.Time
}

// NewStore returns a store rooted at root. Only sources whose extension is in
// extensions are accepted; an empty list accepts anything. prober may be nil.
func NewStore(root string, extensions []string, prober Prober, logger *slog.Logger) *Store {
	exts := make([]string, 0, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
		if ext != "" {
			exts = append(exts, ext)
		}
	}
	return &Store{
		root:       root,
		extensions: exts,
		prober:     prober,
		logger:     logging.NewComponentLogger(logger, "project"),
		now:        time.Now,
	}
}

// Root returns the projects directory.
func (s *Store) Root() string {
	return s.root
}

// Dir returns the directory of project id.
func (s *Store) Dir(id string) string {
	return filepath.Join(s.root, id)
}

// Layout returns artifact paths for p.
func (s *Store) Layout(p Project) Layout {
	return Layout{Dir: s.Dir(p.ID), FileEnding: p.FileEnding}
}

// Create copies the source asset into a new project directory and records
// its metadata.
func (s *Store) Create(ctx context.Context, req CreateRequest) (Project, error) {
	source := strings.TrimSpace(req.SourcePath)
	if source == "" {
		return Project{}, services.Wrap(services.ErrAsset, "", "create project", "source path required", nil)
	}
	info, err := os.Stat(source)
	if err != nil {
		return Project{}, services.Wrap(services.ErrAsset, "", "create project", "source unreadable", err)
	}
	if info.IsDir() {
		return Project{}, services.Wrap(services.ErrAsset, "", "create project", fmt.Sprintf("%s is a directory", source), nil)
	}
	ending := strings.ToLower(strings.TrimPrefix(filepath.Ext(source), "."))
	if ending == "" || (len(s.extensions) > 0 && !slices.Contains(s.extensions, ending)) {
		return Project{}, services.Wrap(services.ErrAsset, "", "create project",
			fmt.Sprintf("unsupported source format %q (allowed: %s)", ending, strings.Join(s.extensions, ", ")), nil)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	}
	p := Project{
		ID:         uuid.NewString(),
		Name:       name,
		FileEnding: ending,
		CreatedAt:  s.now().UTC(),
	}
	layout := s.Layout(p)
	if err := os.MkdirAll(layout.Dir, 0o755); err != nil {
		return Project{}, fmt.Errorf("create project dir: %w", err)
	}
	cleanup := func() { _ = os.RemoveAll(layout.Dir) }

	if err := fileutil.CopyFileVerified(source, layout.RawMedia()); err != nil {
		cleanup()
		return Project{}, services.Wrap(services.ErrAsset, "", "copy source", source, err)
	}

	if s.prober != nil {
		probe, err := s.prober.Inspect(ctx, layout.RawMedia())
		switch {
		case err != nil:
			logging.WarnWithContext(s.logger, "source probe failed", "project_probe_failed",
				logging.String(logging.FieldProjectID, p.ID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "duration and dimensions unknown"),
				logging.String(logging.FieldErrorHint, "verify ffprobe is installed"),
			)
		case probe.AudioStreamCount() == 0:
			cleanup()
			return Project{}, services.Wrap(services.ErrAsset, "", "probe source", "source has no audio stream", nil)
		default:
			p.DurationSeconds = probe.DurationSeconds()
			p.Width, p.Height = probe.Dimensions()
		}
	}

	if err := fileutil.WriteJSONAtomic(layout.Metadata(), p); err != nil {
		cleanup()
		return Project{}, fmt.Errorf("write project metadata: %w", err)
	}
	s.logger.InfoContext(ctx, "project created",
		logging.String(logging.FieldProjectID, p.ID),
		logging.String(logging.FieldEventType, "project_created"),
		logging.String("name", p.Name),
		logging.String("format", p.FileEnding),
		logging.Float64("duration_seconds", p.DurationSeconds),
	)
	return p, nil
}

// Get loads project id.
func (s *Store) Get(id string) (Project, error) {
	if !validID(id) {
		return Project{}, services.Wrap(services.ErrNotFound, "", "get project", fmt.Sprintf("invalid project id %q", id), nil)
	}
	data, err := os.ReadFile(filepath.Join(s.Dir(id), MetadataFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Project{}, services.Wrap(services.ErrNotFound, "", "get project", id, nil)
		}
		return Project{}, fmt.Errorf("read project metadata: %w", err)
	}
	var p Project
	if err := json.Unmarshal(data, &p); err != nil {
		return Project{}, fmt.Errorf("parse project metadata %s: %w", id, err)
	}
	p.ID = id
	return p, nil
}

// List returns every readable project, newest first. Directories without
// valid metadata are skipped.
func (s *Store) List() ([]Project, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list projects: %w", err)
	}
	projects := make([]Project, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() || !validID(entry.Name()) {
			continue
		}
		p, err := s.Get(entry.Name())
		if err != nil {
			s.logger.Debug("skipping project directory", logging.String("dir", entry.Name()), logging.Error(err))
			continue
		}
		projects = append(projects, p)
	}
	sort.Slice(projects, func(i, j int) bool {
		return projects[i].CreatedAt.After(projects[j].CreatedAt)
	})
	return projects, nil
}

// Delete removes the whole project directory. A project with a run in
// progress cannot be deleted.
func (s *Store) Delete(ctx context.Context, id string) error {
	p, err := s.Get(id)
	if err != nil {
		return err
	}
	unlock, err := s.TryLock(p)
	if err != nil {
		return err
	}
	removeErr := os.RemoveAll(s.Dir(id))
	unlock()
	if removeErr != nil {
		return fmt.Errorf("delete project: %w", removeErr)
	}
	s.logger.InfoContext(ctx, "project deleted",
		logging.String(logging.FieldProjectID, id),
		logging.String(logging.FieldEventType, "project_deleted"),
	)
	return nil
}

func validID(id string) bool {
	id = strings.TrimSpace(id)
	if id == "" || id == "." || id == ".." {
		return false
	}
	return !strings.ContainsAny(id, `/\`)
}
