package workflow

import (
	"context"
	"sort"

	"lingosub/internal/logging"
	"lingosub/internal/queue"
)

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running        bool
	MaxRuns        int
	ActiveItems    []int64
	ActiveProjects []string
	LastError      string
	LastItem       *queue.Item
	QueueStats     map[queue.Status]int
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	summary := StatusSummary{Running: m.running, MaxRuns: m.maxRuns}
	for id, project := range m.active {
		summary.ActiveItems = append(summary.ActiveItems, id)
		summary.ActiveProjects = append(summary.ActiveProjects, project)
	}
	if m.lastErr != nil {
		summary.LastError = m.lastErr.Error()
	}
	if m.lastItem != nil {
		copy := *m.lastItem
		summary.LastItem = &copy
	}
	m.mu.RUnlock()

	sort.Slice(summary.ActiveItems, func(i, j int) bool { return summary.ActiveItems[i] < summary.ActiveItems[j] })
	sort.Strings(summary.ActiveProjects)

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats", logging.Error(err))
	}
	summary.QueueStats = stats
	return summary
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}

func (m *Manager) setLastItem(item *queue.Item) {
	m.mu.Lock()
	if item != nil {
		copy := *item
		m.lastItem = &copy
	} else {
		m.lastItem = nil
	}
	m.mu.Unlock()
}
