package workflow

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"lingosub/internal/logging"
	"lingosub/internal/pipeline"
	"lingosub/internal/queue"
	"lingosub/internal/services"
)

func (m *Manager) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	p := pool.New().WithMaxGoroutines(m.maxRuns)
	defer p.Wait()

	for {
		if ctx.Err() != nil {
			return
		}
		if m.activeCount() >= m.maxRuns {
			m.waitForWork(ctx)
			continue
		}

		item, err := m.store.NextPending(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			m.setLastError(err)
			m.logger.Error("failed to fetch next run",
				logging.Error(err),
				logging.String(logging.FieldEventType, "queue_fetch_failed"),
				logging.String(logging.FieldErrorHint, "check queue database access"),
			)
			m.waitForWork(ctx)
			continue
		}
		if item == nil {
			m.waitForWork(ctx)
			continue
		}

		claimed, err := m.store.MarkRunning(ctx, item)
		if err != nil || !claimed {
			if err != nil {
				m.setLastError(err)
				m.logger.Error("failed to claim run", logging.Error(err))
				m.waitForWork(ctx)
			}
			continue
		}

		m.track(item)
		p.Go(func() {
			defer m.untrack(item)
			m.processItem(ctx, item)
		})
	}
}

func (m *Manager) waitForWork(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-m.wake:
	case <-time.After(m.pollInterval):
	}
}

func (m *Manager) processItem(ctx context.Context, item *queue.Item) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithProjectID(ctx, item.ProjectID)
	logger := logging.WithContext(ctx, m.logger)

	started := time.Now()
	logger.Info("run dequeued",
		logging.Int64("item_id", item.ID),
		logging.String(logging.FieldEventType, "run_dequeued"),
	)

	state, err := m.runner.Run(ctx, item.ProjectID)
	if ctx.Err() != nil {
		logger.Info("run interrupted by shutdown; it will resume on next start",
			logging.Int64("item_id", item.ID),
			logging.String(logging.FieldEventType, "run_interrupted"),
		)
		return
	}

	if err != nil {
		stage := string(state.Stage)
		if state.LastError != nil {
			stage = string(state.LastError.Stage)
		}
		item.SetFailed(stage, services.Describe(err).Message)
		m.setLastError(err)
	} else {
		item.SetCompleted(string(state.Stage), state.FailedLanguages)
	}
	if updateErr := m.store.Update(ctx, item); updateErr != nil {
		logger.Error("failed to persist run outcome", logging.Error(updateErr))
		m.setLastError(updateErr)
	}
	m.setLastItem(item)

	logger.Info("run finished",
		logging.Int64("item_id", item.ID),
		logging.String("status", string(item.Status)),
		logging.String(logging.FieldStage, item.Stage),
		logging.Duration("run_duration", time.Since(started)),
		logging.String(logging.FieldEventType, "run_finished"),
	)
}

func (m *Manager) track(item *queue.Item) {
	m.mu.Lock()
	m.active[item.ID] = item.ProjectID
	m.mu.Unlock()
}

func (m *Manager) untrack(item *queue.Item) {
	m.mu.Lock()
	delete(m.active, item.ID)
	m.mu.Unlock()
	m.signal()
}

func (m *Manager) activeCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// IsActive reports whether projectID has a run executing in this process.
func (m *Manager) IsActive(projectID string) bool {
	projectID = strings.TrimSpace(projectID)
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.active {
		if id == projectID {
			return true
		}
	}
	return false
}

var _ Runner = (*pipeline.Runner)(nil)
