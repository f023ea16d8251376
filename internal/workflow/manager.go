package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"lingosub/internal/config"
	"lingosub/internal/logging"
	"lingosub/internal/pipeline"
	"lingosub/internal/queue"
)

// Runner executes one pipeline run. *pipeline.Runner implements it.
type Runner interface {
	Run(ctx context.Context, projectID string) (pipeline.State, error)
}

// Manager coordinates queue processing.
type Manager struct {
	store        *queue.Store
	runner       Runner
	logger       *slog.Logger
	pollInterval time.Duration
	maxRuns      int
	wake         chan struct{}

	mu       sync.RWMutex
	running  bool
	cancel   context.CancelFunc
	done     chan struct{}
	active   map[int64]string
	lastErr  error
	lastItem *queue.Item
}

// NewManager constructs a workflow manager.
func NewManager(cfg *config.Config, store *queue.Store, runner Runner, logger *slog.Logger) *Manager {
	poll := time.Duration(cfg.Workflow.PollInterval) * time.Second
	if poll <= 0 {
		poll = time.Second
	}
	maxRuns := cfg.Workflow.MaxConcurrentRuns
	if maxRuns <= 0 {
		maxRuns = 1
	}
	return &Manager{
		store:        store,
		runner:       runner,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		pollInterval: poll,
		maxRuns:      maxRuns,
		wake:         make(chan struct{}, 1),
		active:       make(map[int64]string),
	}
}

// Enqueue records a run request for projectID and wakes the poller.
func (m *Manager) Enqueue(ctx context.Context, projectID string) (*queue.Item, error) {
	item, err := m.store.Enqueue(ctx, projectID)
	if err != nil {
		return nil, err
	}
	m.signal()
	return item, nil
}

func (m *Manager) signal() {
	select {
	case m.wake <- struct{}{}:
	default:
	}
}

// Start resets runs interrupted by a previous shutdown and begins background
// processing.
func (m *Manager) Start(ctx context.Context) error {
	if m.runner == nil {
		return errors.New("workflow runner not configured")
	}
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}

	reset, err := m.store.ResetRunning(ctx)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	if reset > 0 {
		m.logger.Info("requeued interrupted runs",
			logging.Int64("count", reset),
			logging.String(logging.FieldEventType, "runs_requeued"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.done = make(chan struct{})
	done := m.done
	m.mu.Unlock()

	go m.loop(runCtx, done)
	return nil
}

// Stop terminates background processing and waits for active runs to return.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	done := m.done
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	<-done
}
